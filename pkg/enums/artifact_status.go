package enums

import "fmt"

// ArtifactStatus tracks the invoice PDF lifecycle. Created pending the
// moment an order commits; ready once the file is durably stored.
type ArtifactStatus string

const (
	ArtifactStatusPending ArtifactStatus = "pending"
	ArtifactStatusReady   ArtifactStatus = "ready"
	ArtifactStatusError   ArtifactStatus = "error"
)

var validArtifactStatuses = []ArtifactStatus{
	ArtifactStatusPending,
	ArtifactStatusReady,
	ArtifactStatusError,
}

// String implements fmt.Stringer.
func (a ArtifactStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ArtifactStatus.
func (a ArtifactStatus) IsValid() bool {
	for _, candidate := range validArtifactStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseArtifactStatus converts raw input into an ArtifactStatus.
func ParseArtifactStatus(value string) (ArtifactStatus, error) {
	for _, candidate := range validArtifactStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artifact status %q", value)
}
