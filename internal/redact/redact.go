// Package redact masks secrets and personal data before they reach logs or clients.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)
	userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]+):[^@\s]+@`)
)

// URL strips the password from a connection URL, keeping the username.
func URL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// Error renders err with every given secret replaced by its redacted form,
// then scrubs any remaining password=... pairs and URL userinfo passwords.
func Error(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	return Message(err.Error(), secrets...)
}

// Message is Error for an already rendered string.
func Message(msg string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := URL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	msg = userinfoPattern.ReplaceAllString(msg, "$1@")
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

// Email masks an email address for safe logging.
// "john.doe@example.com" -> "jo***@example.com"
// Short local parts (<= 2 chars) are fully masked: "ab@example.com" -> "***@example.com"
func Email(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "***@***"
	}
	name, domain := email[:at], email[at+1:]
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
