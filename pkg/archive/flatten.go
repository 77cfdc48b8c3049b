package archive

import "slices"

// Universe is the flattened view of a set of top-level archives: one
// archive per name, plus the locations of every instance sharing that name.
type Universe struct {
	// Archives holds the winning instance of each name, ordered by name.
	Archives  []*Archive
	locations map[string][]Location
}

// NewUniverse flattens top. Top-level archives are visited in name order and
// win over nested archives of the same name; among nested archives the first
// one encountered wins.
//
// Shadowed instances are still expanded, so archives nested below them enter
// the universe too. Expansion is tracked per instance, which makes malformed
// cyclic input terminate; a revisit is a no-op.
func NewUniverse(top []*Archive) *Universe {
	roots := slices.Clone(top)
	SortByName(roots)

	winners := make(map[string]*Archive, len(roots))
	for _, a := range roots {
		if _, ok := winners[a.name]; !ok {
			winners[a.name] = a
		}
	}

	instances := make(map[string][]*Archive, len(roots))
	expanded := make(map[*Archive]bool, len(roots))
	for _, root := range roots {
		stack := []*Archive{root}
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if expanded[a] {
				continue
			}
			expanded[a] = true
			if _, ok := winners[a.name]; !ok {
				winners[a.name] = a
			}
			instances[a.name] = append(instances[a.name], a)

			// Push in reverse so children are expanded in declaration order.
			for i := len(a.subArchives) - 1; i >= 0; i-- {
				stack = append(stack, a.subArchives[i])
			}
		}
	}

	u := &Universe{
		Archives:  make([]*Archive, 0, len(winners)),
		locations: make(map[string][]Location, len(winners)),
	}
	for name, w := range winners {
		u.Archives = append(u.Archives, w)
		u.locations[name] = mergeLocations(w, instances[name])
	}
	SortByName(u.Archives)
	return u
}

// Locations returns the locations of every instance named name: the winning
// instance's locations first, then those of shadowed instances in encounter
// order. Filenames appear once.
func (u *Universe) Locations(name string) []Location {
	return slices.Clone(u.locations[name])
}

func mergeLocations(winner *Archive, instances []*Archive) []Location {
	out := slices.Clone(winner.locations)
	seen := make(map[string]bool, len(out))
	for _, l := range out {
		seen[l.Filename] = true
	}
	for _, inst := range instances {
		if inst == winner {
			continue
		}
		for _, l := range inst.locations {
			if !seen[l.Filename] {
				seen[l.Filename] = true
				out = append(out, l)
			}
		}
	}
	return out
}

// Flatten returns the universe of archives "including subarchives": every
// top-level archive plus every archive reachable through nestable archives,
// each name appearing exactly once, ordered by name. See [NewUniverse] for
// which instance wins a name.
//
// Flatten is idempotent: flattening an already flat universe returns the
// same archives.
func Flatten(top []*Archive) []*Archive {
	return NewUniverse(top).Archives
}

// Requires returns the transitive requirements of a: its own declared
// requirements united with the requirements of every sub-archive, sorted and
// deduplicated.
//
// Requirements satisfied by a sibling sub-archive are not subtracted; a
// container reports everything its parts need.
func Requires(a *Archive) []string {
	if !a.IsNestable() {
		return a.requires.sorted()
	}

	set := make(map[string]struct{})
	visited := make(map[*Archive]bool)
	stack := []*Archive{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, r := range cur.requires.list {
			set[r] = struct{}{}
		}
		stack = append(stack, cur.subArchives...)
	}

	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Walk calls fn for a and every archive nested below it, depth first in
// declaration order. Each instance is visited at most once.
func Walk(a *Archive, fn func(*Archive)) {
	visited := make(map[*Archive]bool)
	stack := []*Archive{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		fn(cur)
		for i := len(cur.subArchives) - 1; i >= 0; i-- {
			stack = append(stack, cur.subArchives[i])
		}
	}
}

// Path returns the chain of archive names from the outermost parent down to a.
func Path(a *Archive) []string {
	var names []string
	seen := make(map[*Archive]bool)
	for cur := a; cur != nil && !seen[cur]; cur = cur.parent {
		seen[cur] = true
		names = append(names, cur.name)
	}
	slices.Reverse(names)
	return names
}
