package enums

import "fmt"

// ContactChannel identifies how the community reaches an artisan.
type ContactChannel string

const (
	ContactChannelEmail     ContactChannel = "email"
	ContactChannelPhone     ContactChannel = "phone"
	ContactChannelInstagram ContactChannel = "instagram"
	ContactChannelWhatsApp  ContactChannel = "whatsapp"
	ContactChannelWebsite   ContactChannel = "website"
)

var validContactChannels = []ContactChannel{
	ContactChannelEmail,
	ContactChannelPhone,
	ContactChannelInstagram,
	ContactChannelWhatsApp,
	ContactChannelWebsite,
}

// String returns the literal string for the channel.
func (c ContactChannel) String() string {
	return string(c)
}

// IsValid reports whether the channel is known.
func (c ContactChannel) IsValid() bool {
	for _, candidate := range validContactChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactChannel converts raw input into a ContactChannel.
func ParseContactChannel(value string) (ContactChannel, error) {
	for _, candidate := range validContactChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact channel %q", value)
}
