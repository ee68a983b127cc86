package enums

import "fmt"

// Platform is the mobile OS a push token belongs to.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

var validPlatforms = []Platform{PlatformIOS, PlatformAndroid}

// IsValid checks whether the platform matches the canonical enum.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatform converts raw strings into Platform.
func ParsePlatform(value string) (Platform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}

// PushProvider discriminates which delivery SDK minted a token.
type PushProvider string

const (
	PushProviderExpo PushProvider = "expo"
)

// IsValid checks whether the provider matches the canonical enum.
func (p PushProvider) IsValid() bool {
	return p == PushProviderExpo
}
