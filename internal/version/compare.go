package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DevNamespace is the cache namespace of development builds.
const DevNamespace = "dev"

// Namespace returns the cache namespace for an engine version: "v<major>.<minor>".
// Results computed by engines that differ only in patch version share a namespace.
// Development builds ("main") and unparsable versions use DevNamespace.
func Namespace(engineVersion string) string {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	if engineVersion == "main" {
		return DevNamespace
	}

	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return DevNamespace
	}

	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// CheckResultCompatibility checks whether a result stored by storedVersion may be
// served by an engine running engineVersion.
//
// Rules:
//   - "main" on either side skips the check
//   - major and minor versions must match
//   - patch versions may differ
func CheckResultCompatibility(engineVersion, storedVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	storedVersion = strings.TrimPrefix(storedVersion, "v")

	if engineVersion == "main" || storedVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	storedSemver, err := semver.NewVersion(storedVersion)
	if err != nil {
		return fmt.Errorf("invalid stored result version '%s': %w", storedVersion, err)
	}

	if engineSemver.Major() != storedSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but result was computed by %d.x.x",
			engineSemver.Major(), storedSemver.Major())
	}

	if engineSemver.Minor() != storedSemver.Minor() {
		return fmt.Errorf("minor version mismatch: engine is %d.%d.x but result was computed by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			storedSemver.Major(), storedSemver.Minor())
	}

	return nil
}
