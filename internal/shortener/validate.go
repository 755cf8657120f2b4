package shortener

import (
	"net/url"
	"regexp"
	"strings"
)

var shortcodePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,10}$`)

// IsValidURL reports whether candidate is an absolute http or https URL.
func IsValidURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	return u.Host != ""
}

// IsValidShortcode reports whether code is 3-10 alphanumeric characters.
func IsValidShortcode(code string) bool {
	return shortcodePattern.MatchString(code)
}
