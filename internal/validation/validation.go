// Package validation holds pure field validators shared by the services
// and the seeding tooling.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReservedUsername is the self-reference token used by the users API
// (/users/me) and therefore forbidden as a name.
const ReservedUsername = "me"

var (
	ErrNameTooShort    = errors.New("name must be at least 2 characters")
	ErrNameNotAlpha    = errors.New("name must contain letters only")
	ErrNameReserved    = errors.New("name is reserved")
	ErrNameNotAlphaLed = errors.New("name must start with a letter")
	ErrSlugTooShort    = errors.New("slug must be at least 2 characters")
	ErrSlugTooLong     = errors.New("slug must be at most 50 characters")
	ErrSlugNotAlnum    = errors.New("slug must contain only letters and digits")
	ErrInvalidHexColor = errors.New("color must be a #RGB or #RRGGBB hex code")
)

var hexColorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

var titleCaser = cases.Title(language.Und)

// Name validates and normalizes a display name or username: at least two
// runes, letters only, not the reserved self-reference token. The result is
// trimmed and capitalized.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return "", ErrNameTooShort
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", ErrNameNotAlpha
		}
	}
	if strings.EqualFold(s, ReservedUsername) {
		return "", ErrNameReserved
	}
	return titleCaser.String(s), nil
}

// RecipeName validates a recipe title: non-empty after trimming and led by a
// letter. Recipe titles may contain spaces and digits past the first rune,
// unlike usernames.
func RecipeName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrNameTooShort
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(r) {
		return "", ErrNameNotAlphaLed
	}
	return s, nil
}

// Slug normalizes s to a slug and validates the result: length within
// [2, 50] and letters/digits only. Whitespace and underscores collapse to
// hyphens before the check, so an input that still carries separators after
// normalization is rejected rather than silently mangled.
func Slug(s string) (string, error) {
	slug := slugify(s)
	switch n := utf8.RuneCountInString(slug); {
	case n < 2:
		return "", ErrSlugTooShort
	case n > 50:
		return "", ErrSlugTooLong
	}
	for _, r := range slug {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", ErrSlugNotAlnum
		}
	}
	return slug, nil
}

// HexColor validates a 3- or 6-digit hex color prefixed with '#'.
func HexColor(s string) (string, error) {
	if !hexColorPattern.MatchString(s) {
		return "", ErrInvalidHexColor
	}
	return s, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
