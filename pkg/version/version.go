package version

// Version represents the current version of finder
const Version = "1.0.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "finder version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}
