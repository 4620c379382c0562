// Package configgen writes the activation script and the per-tool
// configuration files into a provisioned environment. The activation script
// resolves the environment root at runtime, so a generated environment can
// be moved or renamed and still activate.
package configgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const activateScript = `#!/bin/sh

# Resolve the environment root from this script's own location so the
# tree keeps working after being moved.
THIS_SCRIPT=$(readlink -f "$0" 2>/dev/null || realpath "$0" 2>/dev/null || echo "$(cd "$(dirname "$0")" && pwd -P)/$(basename "$0")")
ENV_DIR=$(dirname "$THIS_SCRIPT")

# Prepend the private bin directory to the PATH
export PATH="$ENV_DIR/bin:$PATH"

# Point the tools at their private configs
export STARSHIP_CONFIG="$ENV_DIR/config/starship.toml"
export ATUIN_CONFIG_DIR="$ENV_DIR/config/atuin"

# Tell fish where its runtime files live
export FISH_HOME="$ENV_DIR/fish_runtime"

# Replace this shell with fish: login shell, sourcing our config first
exec "$ENV_DIR/bin/fish" -l -C "source '$ENV_DIR/config/fish/config.fish'"
`

const fishConfig = `# Starship prompt
starship init fish | source

# Atuin shell history
atuin init fish | source

# Zoxide directory jumper
zoxide init fish | source

echo "Welcome to your isolated shell environment!"
echo "Type 'exit' to return to your regular shell."
`

const starshipConfig = `# Inserts a blank line between shell prompts
add_newline = true

[character]
success_symbol = "[➜](bold green)"
error_symbol = "[➜](bold red)"
`

const atuinConfig = `# History database location.
db_path = "~/.local/share/atuin/history.db"

# How often to sync with the server.
sync_frequency = "5m"

# The address of the sync server.
sync_address = "https://api.atuin.sh"
`

// Generate writes the activation layer for the environment rooted at root:
// activate.sh plus the fish, starship, and atuin configuration files.
func Generate(root string) error {
	configDir := filepath.Join(root, "config")

	files := []struct {
		path    string
		content string
		mode    os.FileMode
	}{
		{filepath.Join(root, "activate.sh"), activateScript, 0755},
		{filepath.Join(configDir, "fish", "config.fish"), fishConfig, 0644},
		{filepath.Join(configDir, "starship.toml"), starshipConfig, 0644},
		{filepath.Join(configDir, "atuin", "config.toml"), atuinConfig, 0644},
	}

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), f.mode); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		logrus.WithField("path", f.path).Debug("wrote configuration file")
	}
	return nil
}
