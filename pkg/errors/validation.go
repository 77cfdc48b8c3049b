package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds archive names and symbols.
const maxNameLength = 256

// ValidateArchiveName validates an archive name such as "foo.jar".
//
// Archive names are file basenames: they are used as identity keys and as
// path segments by the HTML report, so the rules are conservative:
//   - No empty names and no "." or ".."
//   - No control characters
//   - No path separators
//   - Maximum length of 256 characters
func ValidateArchiveName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInventory, "archive name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInventory, "archive name too long (max %d characters)", maxNameLength)
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidInventory, "archive name %q is reserved", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInventory, "archive name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidInventory, "archive name %q cannot contain path separators", name)
	}
	return nil
}

// ValidateSymbol validates a provided or required symbol identifier,
// typically a package or class name.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return New(ErrCodeInvalidInventory, "symbol cannot be empty")
	}
	if len(symbol) > maxNameLength {
		return New(ErrCodeInvalidInventory, "symbol too long (max %d characters)", maxNameLength)
	}
	for _, r := range symbol {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInventory, "symbol %q contains whitespace or control characters", symbol)
		}
	}
	return nil
}

// ValidateFilename validates the filename of an archive location.
// Location filenames are display values and may contain separators.
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return New(ErrCodeInvalidInventory, "location filename cannot be empty")
	}

	const maxPathLength = 4096
	if len(filename) > maxPathLength {
		return New(ErrCodeInvalidPath, "location filename too long (max %d characters)", maxPathLength)
	}
	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "location filename contains invalid characters")
		}
	}
	return nil
}
