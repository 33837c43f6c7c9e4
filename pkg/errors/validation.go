package errors

import (
	"slices"
	"strings"
	"unicode"
)

// Output formats accepted by the renderers.
var Formats = []string{"json", "svg", "png", "dot"}

// maxIDLength bounds person ids and protocol keys received from clients.
const maxIDLength = 128

// ValidatePersonID validates a person id received from a client, such as a
// focus query parameter. Ids are opaque, so only shape is checked:
//   - No empty ids
//   - No control characters
//   - Maximum length of 128 bytes
func ValidatePersonID(id string) error {
	return validateKey(id, "person id")
}

// ValidateProtocolKey validates a protocol key used to look up a family.
// Keys are used as cache keys and in URLs, so in addition to the person id
// rules they may not contain slashes or whitespace.
func ValidateProtocolKey(key string) error {
	if err := validateKey(key, "protocol key"); err != nil {
		return err
	}
	if strings.ContainsAny(key, "/\\") {
		return New(ErrCodeInvalidInput, "protocol key cannot contain path separators")
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return New(ErrCodeInvalidInput, "protocol key cannot contain whitespace")
	}
	return nil
}

func validateKey(s, what string) error {
	if strings.TrimSpace(s) == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", what)
	}
	if len(s) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", what, maxIDLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", what)
		}
	}
	return nil
}

// ValidateFormat checks that format names one of [Formats].
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return New(ErrCodeInvalidFormat, "unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks every entry of formats and rejects an empty list.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return New(ErrCodeInvalidFormat, "no output format given")
	}
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}
