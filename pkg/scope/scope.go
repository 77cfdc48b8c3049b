// Package scope answers classloader visibility questions between archives.
//
// An [Oracle] decides whether a consumer archive can see the classes of a
// provider archive. Two variants exist and are chosen at configuration time:
//
//   - [AlwaysVisible]: no isolation is modeled; every pair is visible and
//     dependency matching degrades to plain symbol intersection.
//   - [Hierarchy]: a tree of named loaders with parent-first delegation.
//     A consumer sees a provider when the provider's loader is the consumer's
//     own loader or one of its ancestors. Sibling loaders are isolated.
//
// Invisible pairs are not errors; callers treat them as non-matches.
package scope

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/errors"
)

// Oracle reports whether consumer may load classes from provider.
// Implementations must be safe for concurrent use.
type Oracle interface {
	Visible(consumer, provider *archive.Archive) bool
}

// AlwaysVisible is the oracle used when no classloader structure is configured.
type AlwaysVisible struct{}

// Visible always returns true.
func (AlwaysVisible) Visible(_, _ *archive.Archive) bool { return true }

// Root is the name of the implicit loader at the top of every hierarchy.
// Archives matched by no loader belong to it and are visible to everyone.
const Root = ""

// Loader declares one classloader of a hierarchy.
type Loader struct {
	// Name identifies the loader. Must be unique and non-empty.
	Name string
	// Parent names the delegation parent. Empty means the implicit root.
	Parent string
	// Archives lists archive names or path.Match globs (e.g. "*.jar")
	// loaded by this loader.
	Archives []string
}

// Hierarchy is an [Oracle] over a tree of loaders.
//
// Assignment of an archive to a loader:
//  1. a loader listing the archive's exact name wins;
//  2. otherwise a nested archive inherits the loader of its parent archive;
//  3. otherwise the first loader, in declaration order, with a matching glob;
//  4. otherwise the archive lives in the [Root] loader.
//
// A Hierarchy is immutable after [NewHierarchy] and safe for concurrent use.
type Hierarchy struct {
	loaders []Loader
	parents map[string]string
	exact   map[string]string
}

// NewHierarchy validates loaders and builds the oracle. Duplicate or empty
// names, unknown parents, malformed globs and parent cycles are rejected with
// an INVALID_CONFIG error.
func NewHierarchy(loaders []Loader) (*Hierarchy, error) {
	h := &Hierarchy{
		loaders: slices.Clone(loaders),
		parents: make(map[string]string, len(loaders)),
		exact:   make(map[string]string),
	}

	for _, l := range loaders {
		if l.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "loader name cannot be empty")
		}
		if _, dup := h.parents[l.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "duplicate loader %q", l.Name)
		}
		h.parents[l.Name] = l.Parent
	}

	for _, l := range loaders {
		if l.Parent != Root {
			if _, ok := h.parents[l.Parent]; !ok {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "loader %q: unknown parent %q", l.Name, l.Parent)
			}
		}
		for _, pattern := range l.Archives {
			if !isGlob(pattern) {
				if prev, ok := h.exact[pattern]; ok && prev != l.Name {
					return nil, errors.New(errors.ErrCodeInvalidConfig,
						"archive %q assigned to both %q and %q", pattern, prev, l.Name)
				}
				h.exact[pattern] = l.Name
				continue
			}
			if _, err := path.Match(pattern, ""); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "loader %q: bad pattern %q", l.Name, pattern)
			}
		}
	}

	for _, l := range loaders {
		if cycle := h.findCycle(l.Name); cycle != nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "loader cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	return h, nil
}

func (h *Hierarchy) findCycle(start string) []string {
	seen := map[string]bool{}
	var chain []string
	for cur := start; cur != Root; cur = h.parents[cur] {
		if seen[cur] {
			return append(chain, cur)
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	return nil
}

// LoaderOf returns the name of the loader that loads a.
func (h *Hierarchy) LoaderOf(a *archive.Archive) string {
	seen := map[*archive.Archive]bool{}
	for cur := a; cur != nil && !seen[cur]; cur = cur.Parent() {
		seen[cur] = true
		if name, ok := h.exact[cur.Name()]; ok {
			return name
		}
		if cur.Parent() == nil {
			return h.matchGlob(cur.Name())
		}
	}
	return Root
}

func (h *Hierarchy) matchGlob(name string) string {
	for _, l := range h.loaders {
		for _, pattern := range l.Archives {
			if !isGlob(pattern) {
				continue
			}
			if ok, _ := path.Match(pattern, name); ok {
				return l.Name
			}
		}
	}
	return Root
}

// Ancestors returns the delegation chain of loader, starting with the loader
// itself and ending before the root.
func (h *Hierarchy) Ancestors(loader string) []string {
	var chain []string
	for cur := loader; cur != Root; cur = h.parents[cur] {
		chain = append(chain, cur)
	}
	return chain
}

// Visible reports whether provider's loader is consumer's loader or one of
// its ancestors. Archives in the root loader are visible to every consumer.
func (h *Hierarchy) Visible(consumer, provider *archive.Archive) bool {
	target := h.LoaderOf(provider)
	if target == Root {
		return true
	}
	return slices.Contains(h.Ancestors(h.LoaderOf(consumer)), target)
}

// String describes the hierarchy for debug logging.
func (h *Hierarchy) String() string {
	parts := make([]string, 0, len(h.loaders))
	for _, l := range h.loaders {
		parent := l.Parent
		if parent == Root {
			parent = "<root>"
		}
		parts = append(parts, fmt.Sprintf("%s<-%s", l.Name, parent))
	}
	return strings.Join(parts, ", ")
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}

var (
	_ Oracle = AlwaysVisible{}
	_ Oracle = (*Hierarchy)(nil)
)
