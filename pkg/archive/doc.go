// Package archive models the deployable units analyzed by jarscope.
//
// # Overview
//
// An [Archive] is either simple (a leaf such as a plain jar) or nestable (a
// container such as an ear bundling libraries). Each archive carries the
// symbols it provides and requires, plus one or more [Location] values for
// the places it was found on disk. The same name may occur at several
// locations; that is what the conflict detector in package resolve inspects.
//
// Nestable archives own their sub-archives and every sub-archive keeps a
// back-reference to its parent:
//
//	ear := archive.MustNew("app.ear", archive.KindNestable, locs, nil, nil)
//	lib := archive.MustNew("lib.jar", archive.KindSimple, libLocs, []string{"com.lib"}, nil)
//	_ = ear.AddSubArchive(lib)
//
// # Flattening
//
// [Flatten] produces the name-ordered universe of archives including all
// nested ones; [NewUniverse] additionally keeps the locations of every
// instance of a name, nested or top-level. [Requires] computes the transitive
// requirement set of an archive. All of them walk the tree with an explicit
// stack and a per-instance visited set, so malformed cyclic input terminates
// instead of recursing forever.
//
// # Concurrency
//
// Archives are immutable once ingestion has finished attaching sub-archives.
// Read-only use from multiple goroutines is safe.
package archive
