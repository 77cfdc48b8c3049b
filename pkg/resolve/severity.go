package resolve

import (
	"fmt"
	"strings"
)

// Severity is the aggregate status signal of an analysis.
// Severities are ordered: Info < Warning < Critical.
type Severity int

const (
	// SeverityInfo means nothing needs attention.
	SeverityInfo Severity = iota
	// SeverityWarning is raised by unresolved, non-whitelisted requirements.
	SeverityWarning
	// SeverityCritical is raised by non-whitelisted version conflicts.
	SeverityCritical
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Raise returns the higher of s and o. It is the only way severities are
// combined, so the result is independent of the order findings arrive in.
func (s Severity) Raise(o Severity) Severity {
	if o > s {
		return o
	}
	return s
}

// AtLeast reports whether s is o or higher.
func (s Severity) AtLeast(o Severity) bool { return s >= o }

// ParseSeverity parses "info", "warning" or "critical" (case-insensitive).
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info", "informational":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "critical", "error":
		return SeverityCritical, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q (must be one of: info, warning, critical)", v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MaxSeverity merges severities with [Severity.Raise].
func MaxSeverity(severities ...Severity) Severity {
	out := SeverityInfo
	for _, s := range severities {
		out = out.Raise(s)
	}
	return out
}
