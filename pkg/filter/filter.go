// Package filter implements the whitelist policy that keeps known findings
// from raising a report's severity.
//
// Suppressed findings are still listed by renderers, only marked as such.
// The policy is configuration supplied from outside the analysis and is
// queried read-only.
package filter

import (
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/jarscope/pkg/errors"
)

// Policy decides whether a finding is whitelisted.
//
// requirement is empty when the finding concerns the archive as a whole,
// as for version conflicts; it names the missing symbol for unresolved
// requirements. Implementations must be safe for concurrent use.
type Policy interface {
	Suppressed(archive, requirement string) bool
}

// None suppresses nothing.
type None struct{}

// Suppressed always returns false.
func (None) Suppressed(string, string) bool { return false }

// Rules is a [Policy] built from two rule sets:
//
//   - archive rules: archive name globs whose whole-archive findings
//     (version conflicts) are suppressed;
//   - requirement rules: per archive name glob, the symbol patterns whose
//     unresolved findings are suppressed.
//
// Symbol patterns are exact symbols, "*" for every symbol, or a trailing
// ".*" for a package prefix ("com.sun.*" matches "com.sun" and "com.sun.x").
type Rules struct {
	archives []string
	requires []requireRule
}

type requireRule struct {
	archive string
	symbols []string
}

// New builds rules. Requirement keys are applied in sorted order.
func New(archives []string, requires map[string][]string) (*Rules, error) {
	r := &Rules{}
	for _, a := range archives {
		if err := checkGlob(a); err != nil {
			return nil, err
		}
		r.archives = append(r.archives, a)
	}
	keys := make([]string, 0, len(requires))
	for k := range requires {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := checkGlob(k); err != nil {
			return nil, err
		}
		r.requires = append(r.requires, requireRule{archive: k, symbols: slices.Clone(requires[k])})
	}
	return r, nil
}

// Parse reads the compact command-line form:
//
//	legacy.jar;foo.jar=com.sun.*,org.example.Missing;*.war=javax.*
//
// Entries are separated by ';'. An entry without '=' is an archive rule; an
// entry with '=' is a requirement rule with comma-separated symbol patterns.
func Parse(spec string) (*Rules, error) {
	var archives []string
	requires := map[string][]string{}
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "filter entry %q has no archive", entry)
		}
		if !ok {
			archives = append(archives, key)
			continue
		}
		for _, sym := range strings.Split(value, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				requires[key] = append(requires[key], sym)
			}
		}
	}
	return New(archives, requires)
}

// Suppressed reports whether the finding is whitelisted.
func (r *Rules) Suppressed(archive, requirement string) bool {
	if requirement == "" {
		return slices.ContainsFunc(r.archives, func(p string) bool { return matchArchive(p, archive) })
	}
	for _, rule := range r.requires {
		if !matchArchive(rule.archive, archive) {
			continue
		}
		if slices.ContainsFunc(rule.symbols, func(p string) bool { return matchSymbol(p, requirement) }) {
			return true
		}
	}
	return false
}

// Empty reports whether the rules suppress nothing.
func (r *Rules) Empty() bool { return len(r.archives) == 0 && len(r.requires) == 0 }

func matchArchive(pattern, name string) bool {
	ok, _ := path.Match(pattern, name)
	return ok
}

func matchSymbol(pattern, symbol string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		prefix := strings.TrimSuffix(pattern, ".*")
		return symbol == prefix || strings.HasPrefix(symbol, prefix+".")
	default:
		return pattern == symbol
	}
}

func checkGlob(pattern string) error {
	if pattern == "" {
		return errors.New(errors.ErrCodeInvalidInput, "filter archive pattern cannot be empty")
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "filter archive pattern %q", pattern)
	}
	return nil
}

var (
	_ Policy = None{}
	_ Policy = (*Rules)(nil)
)
