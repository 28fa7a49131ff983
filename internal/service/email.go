package service

import (
	"fmt"
	"net/mail"
	"strings"
)

// maxEmailLength is the RFC 5321 path limit.
const maxEmailLength = 254

// ValidateEmail checks the decoded value of the "email" request field and
// returns the normalized address: trimmed, with the domain lower-cased.
// The local part keeps its case, so uniqueness is exact on that form.
func ValidateEmail(v any) (string, error) {
	if v == nil {
		return "", newValidationError(ErrEmailMissing)
	}

	raw, ok := v.(string)
	if !ok {
		return "", newValidationError(fmt.Errorf("%w, got %T", ErrEmailNotString, v))
	}

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", newValidationError(ErrEmailEmpty)
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		return "", newValidationError(err)
	}
	return normalized, nil
}

func normalizeEmail(email string) (string, error) {
	if len(email) > maxEmailLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrEmailMalformed, maxEmailLength)
	}
	if strings.Count(email, "@") != 1 {
		return "", fmt.Errorf("%w: must contain exactly one @", ErrEmailMalformed)
	}

	// ParseAddress accepts display names and comments; require the bare form.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", fmt.Errorf("%w: not a bare address", ErrEmailMalformed)
	}

	at := strings.IndexByte(email, '@')
	local, domain := email[:at], email[at+1:]
	if local == "" {
		return "", fmt.Errorf("%w: empty local part", ErrEmailMalformed)
	}
	if err := checkDomain(domain); err != nil {
		return "", err
	}

	return local + "@" + strings.ToLower(domain), nil
}

func checkDomain(domain string) error {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: domain needs at least one dot", ErrEmailMalformed)
	}

	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("%w: invalid domain label %q", ErrEmailMalformed, label)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return fmt.Errorf("%w: domain label %q starts or ends with a hyphen", ErrEmailMalformed, label)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
			if !isAlnum && c != '-' {
				return fmt.Errorf("%w: domain label %q has invalid characters", ErrEmailMalformed, label)
			}
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return fmt.Errorf("%w: top-level domain too short", ErrEmailMalformed)
	}
	return nil
}
