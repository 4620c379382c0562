package platform

import "fmt"

// NormalizeArch converts GOARCH values to the architecture names used in
// release-asset file names. Only 64-bit x86 and ARM are supported; the
// toolchain we provision does not publish 32-bit assets.
func NormalizeArch(goarch string) (string, error) {
	switch goarch {
	case "amd64":
		return ArchX8664, nil
	case "arm64":
		return ArchAarch64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", goarch)
	}
}
