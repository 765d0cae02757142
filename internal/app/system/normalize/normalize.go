// Package normalize holds the small canonicalization helpers applied to
// user-supplied identity fields before they are stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are compared and
// uniquely indexed in this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string so gate checks compare a canonical
// form.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
