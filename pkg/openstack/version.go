package openstack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidAPIVersion is returned when a microversion string cannot be parsed.
var ErrInvalidAPIVersion = errors.New("invalid API version")

// APIVersion is an OpenStack microversion ("2.79", "3.0").
type APIVersion struct {
	version *semver.Version
}

// ParseAPIVersion parses "X.Y" (a leading "v" is accepted).
func ParseAPIVersion(value string) (APIVersion, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "v")
	if trimmed == "" || strings.Count(trimmed, ".") > 1 {
		return APIVersion{}, fmt.Errorf("%w: %q", ErrInvalidAPIVersion, value)
	}

	version, err := semver.NewVersion(trimmed)
	if err != nil {
		return APIVersion{}, fmt.Errorf("%w: %q: %w", ErrInvalidAPIVersion, value, err)
	}

	return APIVersion{version: version}, nil
}

// MustParseAPIVersion is ParseAPIVersion for constants; it panics on bad input.
func MustParseAPIVersion(value string) APIVersion {
	version, err := ParseAPIVersion(value)
	if err != nil {
		panic(err)
	}

	return version
}

// IsZero reports whether the version is unset.
func (v APIVersion) IsZero() bool {
	return v.version == nil
}

// Major returns the major component.
func (v APIVersion) Major() uint64 {
	if v.version == nil {
		return 0
	}

	return v.version.Major()
}

// Minor returns the minor component.
func (v APIVersion) Minor() uint64 {
	if v.version == nil {
		return 0
	}

	return v.version.Minor()
}

// LessThan reports whether v is strictly older than other.
func (v APIVersion) LessThan(other APIVersion) bool {
	if v.version == nil || other.version == nil {
		return v.version == nil && other.version != nil
	}

	return v.version.LessThan(other.version)
}

// String renders "X.Y".
func (v APIVersion) String() string {
	if v.version == nil {
		return ""
	}

	return fmt.Sprintf("%d.%d", v.version.Major(), v.version.Minor())
}

// VersionRange is the microversion window a service endpoint supports.
type VersionRange struct {
	Min APIVersion
	Max APIVersion
}

// Supports reports whether required falls inside the range. A range with an
// unknown maximum supports everything.
func (r VersionRange) Supports(required APIVersion) bool {
	if required.IsZero() || r.Max.IsZero() {
		return true
	}

	return !r.Max.LessThan(required)
}
