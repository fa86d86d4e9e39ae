package jellyseerr

import (
	"fmt"
	"net/mail"
	"net/url"
)

// checkHTTPURL verifies that value is an absolute http or https URL.
// Empty values pass, optional fields validate only when set.
func checkHTTPURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s: %q is not a valid HTTP URL", field, value)
	}
	return nil
}

// checkEmailAddress verifies that value is a plain RFC 5322 address.
// Empty values pass.
func checkEmailAddress(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return fmt.Errorf("%s: %q is not a valid email address", field, value)
	}
	return nil
}

// checkPort verifies that value is a usable TCP port number.
func checkPort(field string, value int) error {
	if value < 1 || value > 65535 {
		return fmt.Errorf("%s: %d is not a valid port number", field, value)
	}
	return nil
}
