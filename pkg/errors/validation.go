package errors

import (
	"slices"
	"strings"
	"unicode"
)

// ValidateGraphPath validates the path of a graph document given on the
// command line. Only TOML, YAML and JSON documents are accepted.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Extension must be .toml, .yaml, .yml or .json
func ValidateGraphPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "graph path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	ext := strings.ToLower(path[strings.LastIndexByte(path, '.')+1:])
	if !strings.Contains(path, ".") || !slices.Contains([]string{"toml", "yaml", "yml", "json"}, ext) {
		return New(ErrCodeInvalidFormat, "unsupported graph document %q (want .toml, .yaml or .json)", path)
	}

	return nil
}

// ValidateName validates a strategy or format name taken from configuration.
// Names are lowercase ASCII words optionally joined by hyphens.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "%s cannot be empty", kind)
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidConfig, "%s too long (max 64 characters)", kind)
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9' && i > 0:
		case r == '-' && i > 0 && i < len(name)-1:
		default:
			return New(ErrCodeInvalidConfig, "invalid %s: %q", kind, name)
		}
	}
	return nil
}

// ValidateOneOf returns an INVALID_CONFIG error unless value is in allowed.
func ValidateOneOf(kind, value string, allowed ...string) error {
	if err := ValidateName(kind, value); err != nil {
		return err
	}
	if !slices.Contains(allowed, value) {
		return New(ErrCodeInvalidConfig, "unknown %s %q (want one of %s)", kind, value, strings.Join(allowed, ", "))
	}
	return nil
}
