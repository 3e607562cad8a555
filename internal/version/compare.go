package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckStatsCompatibility checks whether a statistics file written by
// fileVersion can be read by an engine at engineVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly, since metric definitions may change between them
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - File 1.2.0, Engine 1.2.0 -> OK (exact match)
//   - File 1.2.1, Engine 1.2.0 -> OK (patch differs)
//   - File 1.3.0, Engine 1.2.0 -> ERROR (minor differs)
//   - File 2.0.0, Engine 1.2.0 -> ERROR (major differs)
//   - File main, Engine 1.2.0 -> OK (dev build, skip check)
func CheckStatsCompatibility(fileVersion, engineVersion string) error {
	// Strip 'v' prefix if present for consistency
	fileVersion = strings.TrimPrefix(fileVersion, "v")
	engineVersion = strings.TrimPrefix(engineVersion, "v")

	// Skip version check for "main" (development builds)
	if fileVersion == "main" || engineVersion == "main" {
		return nil
	}

	fileSemver, err := semver.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("invalid stats file version '%s': %w", fileVersion, err)
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	if fileSemver.Major() != engineSemver.Major() {
		return fmt.Errorf("major version mismatch: stats file is %d.x.x but engine is %d.x.x",
			fileSemver.Major(), engineSemver.Major())
	}

	if fileSemver.Minor() != engineSemver.Minor() {
		return fmt.Errorf("minor version mismatch: stats file is %d.%d.x but engine is %d.%d.x",
			fileSemver.Major(), fileSemver.Minor(),
			engineSemver.Major(), engineSemver.Minor())
	}

	// Patch versions can differ, so we're compatible
	return nil
}
