package quote

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail = errors.New("email failed format check")
	ErrInvalidPhone = errors.New("phone failed format check")
	ErrNilRequest   = errors.New("quote request is nil")
)

// htmlEscaper escapes the characters that matter when user text is embedded
// into an HTML email body. Replacer works in a single pass, so output of the
// escaping is never re-escaped within one call: SanitizeString("&lt;") yields
// "&amp;lt;".
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeString trims s and HTML-escapes it. Escaping is intentionally not
// idempotent: already-escaped entities are escaped again.
func SanitizeString(s string) string {
	return htmlEscaper.Replace(strings.TrimSpace(s))
}

// SanitizeWithLineBreaks escapes s, then turns line feeds into <br> tags.
// Safe because escaping happens first: no user text can form an unintended tag.
func SanitizeWithLineBreaks(s string) string {
	escaped := SanitizeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// SanitizeEmail normalizes an email to its trimmed, lowercased form. It fails
// when the value does not match the email pattern or exceeds 254 characters.
func SanitizeEmail(s string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(s))
	if !emailRegex.MatchString(email) || utf8.RuneCountInString(email) > emailMaxLen {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SanitizePhone checks the French phone pattern and returns the trimmed
// original, keeping the submitter's grouping for display.
func SanitizePhone(s string) (string, error) {
	phone := strings.TrimSpace(s)
	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// SanitizeFormData builds a SanitizedQuote from a raw request. It hard-fails
// when the request is nil or when email or phone does not pass its format
// check: no notification email is ever generated from an unsanitized or
// unvalidated field.
func SanitizeFormData(q *QuoteRequest) (*SanitizedQuote, error) {
	if q == nil {
		return nil, ErrNilRequest
	}

	email, err := SanitizeEmail(q.Email)
	if err != nil {
		return nil, fmt.Errorf("sanitize quote: %w", err)
	}

	phone, err := SanitizePhone(q.Phone)
	if err != nil {
		return nil, fmt.Errorf("sanitize quote: %w", err)
	}

	s := &SanitizedQuote{
		Name:  SanitizeString(q.Name),
		Email: email,
		Phone: phone,
		City:  SanitizeString(q.City),
		// projectType is enum-checked elsewhere and never rendered as free text.
		ProjectType: q.ProjectType,
		Message:     SanitizeWithLineBreaks(q.Message),
	}

	if q.Wizard != nil {
		w := *q.Wizard
		w.PostalCode = SanitizeString(q.Wizard.PostalCode)
		s.Wizard = &w
	}

	return s, nil
}
