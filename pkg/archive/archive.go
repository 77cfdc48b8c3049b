package archive

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrEmptyName is returned by [New] when the archive name is empty.
	ErrEmptyName = errors.New("archive name must not be empty")

	// ErrEmptyLocations is returned by [New] when no location is given.
	// Every archive occurs at least once on disk.
	ErrEmptyLocations = errors.New("archive must have at least one location")

	// ErrNotNestable is returned by [Archive.AddSubArchive] when the receiver
	// is a simple archive.
	ErrNotNestable = errors.New("archive is not nestable")

	// ErrAlreadyNested is returned by [Archive.AddSubArchive] when the child
	// already belongs to another parent. Sub-archives have exactly one owner.
	ErrAlreadyNested = errors.New("archive already has a parent")
)

// Kind distinguishes leaf archives from containers of other archives.
type Kind int

const (
	// KindSimple is a leaf archive such as a plain jar.
	KindSimple Kind = iota
	// KindNestable is an archive bundling sub-archives, such as an ear or war.
	KindNestable
)

// String returns the inventory spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindNestable:
		return "nestable"
	default:
		return "simple"
	}
}

// ParseKind parses the inventory spelling of a kind. The empty string
// means [KindSimple].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "simple":
		return KindSimple, nil
	case "nestable":
		return KindNestable, nil
	}
	return KindSimple, fmt.Errorf("unknown archive type %q", s)
}

// Location is one on-disk occurrence of an archive.
// An empty Version means the version is not listed.
type Location struct {
	Filename string
	Version  string
}

// SameVersion reports whether both locations carry the same version.
// Two unlisted versions are the same.
func (l Location) SameVersion(o Location) bool { return l.Version == o.Version }

// Archive is a unit under analysis. It is built once by ingestion and treated
// as read-only afterwards; all accessors return copies or read-only views.
//
// Nestable archives own their sub-archives. Each sub-archive keeps a
// non-owning reference to its parent, see [Archive.Parent].
type Archive struct {
	name      string
	kind      Kind
	locations []Location
	provides  symbolSet
	requires  symbolSet

	subArchives []*Archive
	parent      *Archive
}

// New creates an archive. Locations are deduplicated by filename and ordered
// by filename; provides and requires are deduplicated and sorted.
func New(name string, kind Kind, locations []Location, provides, requires []string) (*Archive, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	locs := normalizeLocations(locations)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyLocations)
	}
	return &Archive{
		name:      name,
		kind:      kind,
		locations: locs,
		provides:  newSymbolSet(provides),
		requires:  newSymbolSet(requires),
	}, nil
}

// MustNew is like [New] but panics on error. Intended for tests and examples.
func MustNew(name string, kind Kind, locations []Location, provides, requires []string) *Archive {
	a, err := New(name, kind, locations, provides, requires)
	if err != nil {
		panic(err)
	}
	return a
}

// AddSubArchive attaches child to a nestable archive and sets the child's
// parent reference. Sub-archive order is insertion order.
func (a *Archive) AddSubArchive(child *Archive) error {
	if a.kind != KindNestable {
		return fmt.Errorf("%s: %w", a.name, ErrNotNestable)
	}
	if child.parent != nil {
		return fmt.Errorf("%s: %w (%s)", child.name, ErrAlreadyNested, child.parent.name)
	}
	child.parent = a
	a.subArchives = append(a.subArchives, child)
	return nil
}

// Name returns the identity key of the archive, e.g. "foo.jar".
func (a *Archive) Name() string { return a.name }

// Kind returns whether the archive is simple or nestable.
func (a *Archive) Kind() Kind { return a.kind }

// IsNestable reports whether the archive can contain sub-archives.
func (a *Archive) IsNestable() bool { return a.kind == KindNestable }

// Locations returns the on-disk occurrences ordered by filename.
// The result is never empty.
func (a *Archive) Locations() []Location { return slices.Clone(a.locations) }

// Provides returns the sorted symbols exported by the archive.
func (a *Archive) Provides() []string { return a.provides.sorted() }

// DeclaredRequires returns the sorted symbols the archive itself declares.
// Use [Requires] for the transitive view over sub-archives.
func (a *Archive) DeclaredRequires() []string { return a.requires.sorted() }

// DoesProvide reports whether symbol is exported by the archive.
func (a *Archive) DoesProvide(symbol string) bool { return a.provides.has(symbol) }

// SubArchives returns the direct children in insertion order.
func (a *Archive) SubArchives() []*Archive { return slices.Clone(a.subArchives) }

// Parent returns the archive this one is nested in, or nil for top-level archives.
func (a *Archive) Parent() *Archive { return a.parent }

// String returns the archive name.
func (a *Archive) String() string { return a.name }

// Compare orders archives by name. It is suitable for [slices.SortFunc].
func Compare(a, b *Archive) int { return strings.Compare(a.name, b.name) }

// SortByName sorts archives in place by name.
func SortByName(archives []*Archive) { slices.SortStableFunc(archives, Compare) }

func normalizeLocations(in []Location) []Location {
	out := make([]Location, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, l := range in {
		if l.Filename == "" || seen[l.Filename] {
			continue
		}
		seen[l.Filename] = true
		out = append(out, l)
	}
	slices.SortFunc(out, func(x, y Location) int { return strings.Compare(x.Filename, y.Filename) })
	return out
}

// symbolSet is an immutable set of symbol identifiers with a cached sorted view.
type symbolSet struct {
	index map[string]struct{}
	list  []string
}

func newSymbolSet(symbols []string) symbolSet {
	s := symbolSet{index: make(map[string]struct{}, len(symbols))}
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		if _, ok := s.index[sym]; ok {
			continue
		}
		s.index[sym] = struct{}{}
		s.list = append(s.list, sym)
	}
	slices.Sort(s.list)
	return s
}

func (s symbolSet) has(sym string) bool {
	_, ok := s.index[sym]
	return ok
}

func (s symbolSet) sorted() []string { return slices.Clone(s.list) }
