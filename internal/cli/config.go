package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	HostKey   string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("TEAMBAL_SERVER", "http://localhost:8080"),
		HostKey:   os.Getenv("TEAMBAL_HOST_KEY"),
		Output:    getEnvOrDefault("TEAMBAL_OUTPUT", "text"),
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
