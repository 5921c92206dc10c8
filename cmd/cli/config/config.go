package config

import (
	"os"
	"strings"
)

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the ITAM API without a trailing slash.
// It can be overridden with the ITAM_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("ITAM_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}
