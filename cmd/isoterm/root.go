package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kodematthieu/isoterm/internal/configgen"
	"github.com/kodematthieu/isoterm/internal/download"
	"github.com/kodematthieu/isoterm/internal/github"
	"github.com/kodematthieu/isoterm/internal/platform"
	"github.com/kodematthieu/isoterm/internal/provision"
)

const defaultDestDir = "~/.local_shell"

func newRootCmd() *cobra.Command {
	var verbosity int
	var manifestPath string

	cmd := &cobra.Command{
		Use:     "isoterm [dest-dir]",
		Short:   "Create an isolated, non-destructive shell environment",
		Long: `isoterm provisions a self-contained shell toolchain (fish, starship,
atuin, zoxide, ripgrep, helix) into a single directory, reusing system
installs where possible and downloading release binaries where not.
Nothing outside the destination directory is touched; a failed run
removes the directory entirely.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbosity)

			dest := defaultDestDir
			if len(args) == 1 {
				dest = args[0]
			}
			root, err := expandTilde(dest)
			if err != nil {
				return err
			}

			tools := provision.DefaultTools()
			if manifestPath != "" {
				if tools, err = provision.LoadManifest(manifestPath); err != nil {
					return err
				}
			}
			return run(cmd.Context(), root, tools)
		},
	}

	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest replacing the built-in toolchain")
	return cmd
}

func run(ctx context.Context, root string, tools []provision.ToolSpec) error {
	fmt.Printf("✓ Setting up environment in %s\n", root)

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}
	libc := platform.DetectLibc(ctx, info)
	logrus.WithFields(logrus.Fields{
		"os":   info.OS,
		"arch": info.Arch,
		"libc": libc,
	}).Info("detected platform")

	resolver, err := github.NewClient(ctx, os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return err
	}

	pc := &provision.Context{
		Env:      &provision.Environment{Root: root},
		Resolver: resolver,
		Fetcher:  download.New(),
		OS:       info.OS,
		Arch:     info.Arch,
		Libc:     libc,
	}

	outcomes, err := provision.Run(ctx, pc, tools, configgen.Generate)
	if err != nil {
		fmt.Fprintln(os.Stderr, "The environment was removed; nothing was left behind.")
		return err
	}

	for _, out := range outcomes {
		if out.Source != "" {
			fmt.Printf("✓ %-10s %s (%s)\n", out.Tool, out.Status, out.Source)
		} else {
			fmt.Printf("✓ %-10s %s\n", out.Tool, out.Status)
		}
	}

	fmt.Println()
	fmt.Println("Environment ready. Activate it with:")
	fmt.Printf("  sh %s\n", filepath.Join(root, "activate.sh"))
	return nil
}

// configureLogging maps -v repetition onto logrus levels. Logs go to
// stderr so they never interleave with progress bars on stdout rendering.
func configureLogging(verbosity int) {
	logrus.SetOutput(os.Stderr)
	switch verbosity {
	case 0:
		logrus.SetLevel(logrus.WarnLevel)
	case 1:
		logrus.SetLevel(logrus.InfoLevel)
	case 2:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.TraceLevel)
	}
}

// expandTilde resolves a leading ~ against the user's home directory.
func expandTilde(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
