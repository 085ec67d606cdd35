package profile

// DefaultName is used when neither the flag nor the config selects a profile.
const DefaultName = "main"

// Resolve picks the active profile name. The -profile flag wins, then the
// config file's default_profile, then DefaultName.
func Resolve(flagValue, configDefault string) string {
	if flagValue != "" {
		return flagValue
	}
	if configDefault != "" {
		return configDefault
	}
	return DefaultName
}
