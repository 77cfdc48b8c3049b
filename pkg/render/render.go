package render

import (
	"slices"
	"strings"

	"github.com/matzehuels/jarscope/pkg/errors"
)

// View selects which part of a report to render.
type View string

const (
	ViewAll        View = "all"
	ViewDependsOn  View = "depends-on"
	ViewDependants View = "dependants"
	ViewConflicts  View = "conflicts"
)

// Views lists the selectable views in display order.
var Views = []View{ViewAll, ViewDependsOn, ViewDependants, ViewConflicts}

// Includes reports whether v covers part.
func (v View) Includes(part View) bool { return v == ViewAll || v == part }

// ParseView parses a view name. The empty string selects [ViewAll].
func ParseView(s string) (View, error) {
	if s == "" {
		return ViewAll, nil
	}
	v := View(strings.ToLower(s))
	if !slices.Contains(Views, v) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown view %q (must be one of: %s)", s, joinViews())
	}
	return v, nil
}

func joinViews() string {
	names := make([]string, len(Views))
	for i, v := range Views {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatDOT      = "dot"
	FormatSVG      = "svg"
)

// ReportFormats are the formats accepted by `jarscope report`.
var ReportFormats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON, FormatHTML}

// GraphFormats are the formats accepted by `jarscope graph`.
var GraphFormats = []string{FormatDOT, FormatSVG}

// ValidateFormat checks format against allowed.
func ValidateFormat(format string, allowed []string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (must be one of: %s)",
		format, strings.Join(allowed, ", "))
}

// Placeholder is shown for empty result cells in text outputs.
const Placeholder = "-"

// NotListed is shown for locations without a version.
const NotListed = "Not listed"

// VersionLabel returns the display form of a location version.
func VersionLabel(version string) string {
	if version == "" {
		return NotListed
	}
	return version
}
