package enums

import "fmt"

// ProfileStatus describes the lifecycle state of an artisan profile.
type ProfileStatus string

const (
	ProfileStatusDraft       ProfileStatus = "draft"
	ProfileStatusPublished   ProfileStatus = "published"
	ProfileStatusUnpublished ProfileStatus = "unpublished"
)

var validProfileStatuses = []ProfileStatus{
	ProfileStatusDraft,
	ProfileStatusPublished,
	ProfileStatusUnpublished,
}

// String returns the literal string for the status.
func (p ProfileStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p ProfileStatus) IsValid() bool {
	for _, candidate := range validProfileStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProfileStatus converts raw input into a ProfileStatus.
func ParseProfileStatus(value string) (ProfileStatus, error) {
	for _, candidate := range validProfileStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid profile status %q", value)
}
