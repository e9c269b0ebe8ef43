package version

import (
	"sync"

	"github.com/Masterminds/semver/v3"
)

var (
	parseOnce     sync.Once
	parsedVersion *semver.Version
)

// resetParsedVersion clears the cached parsed version for testing.
func resetParsedVersion() {
	parseOnce = sync.Once{}
	parsedVersion = nil
}

// Parsed returns the parsed semantic version, or nil for builds such as
// "dev". The result is cached.
func Parsed() *semver.Version {
	parseOnce.Do(func() {
		if v, err := semver.NewVersion(Version); err == nil {
			parsedVersion = v
		}
	})
	return parsedVersion
}

// IsDevBuild returns true if this is a development build (no valid semver).
func IsDevBuild() bool {
	return Parsed() == nil
}

// IsPrerelease returns true if the current version is a pre-release.
func IsPrerelease() bool {
	v := Parsed()
	return v != nil && v.Prerelease() != ""
}

// Compare compares the current version to other: -1, 0 or 1. Unparseable
// versions compare equal.
func Compare(other string) int {
	current := Parsed()
	if current == nil {
		return 0
	}

	otherV, err := semver.NewVersion(other)
	if err != nil {
		return 0
	}

	return current.Compare(otherV)
}

// Satisfies reports whether the current version matches a constraint such
// as ">= 0.4, < 1.0". Dev builds satisfy every valid constraint.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	v := Parsed()
	if v == nil {
		return true, nil
	}
	return c.Check(v), nil
}
