// Package profile provides statically known bundles of symbols, such as a
// platform runtime, that are always available to deployed archives.
//
// Profiles suppress false "missing dependency" findings: a requirement that
// no archive provides but an enabled profile does is silently satisfied.
//
// Built-in profiles are embedded TOML files and can be listed with [Builtin].
// Additional profiles are loaded from disk with [LoadFile].
package profile

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/jarscope/pkg/errors"
)

//go:embed profiles/*.toml
var builtinFS embed.FS

// Profile is a named, immutable set of symbols.
type Profile struct {
	name        string
	description string
	provides    map[string]struct{}
}

// New creates a profile.
func New(name, description string, provides []string) *Profile {
	p := &Profile{
		name:        name,
		description: description,
		provides:    make(map[string]struct{}, len(provides)),
	}
	for _, s := range provides {
		if s != "" {
			p.provides[s] = struct{}{}
		}
	}
	return p
}

// Name returns the profile name, e.g. "java.se".
func (p *Profile) Name() string { return p.name }

// Description returns a human-readable summary.
func (p *Profile) Description() string { return p.description }

// DoesProvide reports whether the profile exports symbol.
func (p *Profile) DoesProvide(symbol string) bool {
	_, ok := p.provides[symbol]
	return ok
}

// Len returns the number of symbols in the profile.
func (p *Profile) Len() int { return len(p.provides) }

// Symbols returns the sorted symbols of the profile.
func (p *Profile) Symbols() []string {
	out := make([]string, 0, len(p.provides))
	for s := range p.provides {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Set is an ordered collection of profiles queried read-only during analysis.
type Set []*Profile

// Provider returns the first profile in the set exporting symbol.
func (s Set) Provider(symbol string) (*Profile, bool) {
	for _, p := range s {
		if p.DoesProvide(symbol) {
			return p, true
		}
	}
	return nil, false
}

// DoesProvide reports whether any profile in the set exports symbol.
func (s Set) DoesProvide(symbol string) bool {
	_, ok := s.Provider(symbol)
	return ok
}

// Names returns the profile names in set order.
func (s Set) Names() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.name
	}
	return out
}

// file is the on-disk TOML shape of a profile.
type file struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Provides    []string `toml:"provides"`
}

// Decode reads one profile in TOML form.
func Decode(r io.Reader) (*Profile, error) {
	var f file
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "decode profile")
	}
	if strings.TrimSpace(f.Name) == "" {
		return nil, errors.New(errors.ErrCodeInvalidProfile, "profile name is required")
	}
	return New(f.Name, f.Description, f.Provides), nil
}

// LoadFile reads a profile from a TOML file.
func LoadFile(path string) (*Profile, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "profile %s", path)
		}
		return nil, err
	}
	defer fh.Close()

	p, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Builtin returns the embedded profiles sorted by name.
func Builtin() Set {
	entries, err := fs.Glob(builtinFS, "profiles/*.toml")
	if err != nil {
		panic(err) // pattern is constant
	}
	var set Set
	for _, name := range entries {
		fh, err := builtinFS.Open(name)
		if err != nil {
			panic(err)
		}
		p, err := Decode(fh)
		fh.Close()
		if err != nil {
			panic(fmt.Sprintf("embedded profile %s: %v", name, err))
		}
		set = append(set, p)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].name < set[j].name })
	return set
}

// Lookup resolves built-in profiles by name, preserving the order of names.
func Lookup(names ...string) (Set, error) {
	builtin := Builtin()
	out := make(Set, 0, len(names))
	for _, n := range names {
		idx := slices.IndexFunc(builtin, func(p *Profile) bool { return p.name == n })
		if idx < 0 {
			return nil, errors.New(errors.ErrCodeInvalidProfile, "unknown profile %q (available: %s)",
				n, strings.Join(builtin.Names(), ", "))
		}
		out = append(out, builtin[idx])
	}
	return out, nil
}
