// Package inventory decodes the archive inventory produced by an external
// scanner into the immutable [archive.Archive] model.
//
// The inventory is YAML; JSON inventories decode through the same path since
// JSON is a YAML subset:
//
//	archives:
//	  - name: app.ear
//	    type: nestable
//	    locations:
//	      - filename: deploy/app.ear
//	        version: "1.2"
//	    provides: [com.app]
//	    requires: [javax.ejb]
//	    archives:
//	      - name: lib.jar
//	        locations: [{filename: deploy/app.ear/lib/lib.jar}]
//
// Malformed input fails fast with an INVALID_INVENTORY error. Entries sharing
// a name at the same nesting level are merged: locations, provides, requires
// and sub-archives are unioned, and differing types are rejected.
package inventory

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/cache"
	"github.com/matzehuels/jarscope/pkg/errors"
)

// maxInventorySize bounds the inventories ReadFile and Decode read.
const maxInventorySize = 64 << 20

// Document is the on-disk shape of an inventory.
type Document struct {
	Archives []Entry `yaml:"archives"`
}

// Entry is one archive of the inventory.
type Entry struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type,omitempty"`
	Locations []LocationEntry `yaml:"locations"`
	Provides  []string        `yaml:"provides,omitempty"`
	Requires  []string        `yaml:"requires,omitempty"`
	Archives  []Entry         `yaml:"archives,omitempty"`
}

// LocationEntry is one on-disk occurrence of an archive.
type LocationEntry struct {
	Filename string `yaml:"filename"`
	Version  string `yaml:"version,omitempty"`
}

// Inventory is a decoded, validated archive set.
type Inventory struct {
	// Archives are the top-level archives in inventory order.
	Archives []*archive.Archive
	// Hash is the SHA-256 of the raw inventory bytes.
	Hash string
	// Path is the file the inventory was loaded from, if any.
	Path string
}

// Len returns the number of archives including nested ones.
func (inv *Inventory) Len() int {
	n := 0
	for _, a := range inv.Archives {
		archive.Walk(a, func(*archive.Archive) { n++ })
	}
	return n
}

// Load reads and decodes the inventory file at path.
func Load(path string) (*Inventory, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	inv, err := Parse(data)
	if err != nil {
		return nil, err
	}
	inv.Path = path
	return inv, nil
}

// ReadFile reads the raw bytes of an inventory file, enforcing the size limit.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "inventory %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open inventory %s", path)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxInventorySize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "read inventory %s", path)
	}
	if len(data) > maxInventorySize {
		return nil, errors.New(errors.ErrCodeInvalidInventory, "inventory %s exceeds %d bytes", path, maxInventorySize)
	}
	return data, nil
}

// Decode reads an inventory from r, enforcing the same size limit as
// ReadFile.
func Decode(r io.Reader) (*Inventory, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInventorySize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "read inventory")
	}
	if len(data) > maxInventorySize {
		return nil, errors.New(errors.ErrCodeInvalidInventory, "inventory exceeds %d bytes", maxInventorySize)
	}
	return Parse(data)
}

// Parse decodes raw inventory bytes. Unknown fields are rejected.
func Parse(data []byte) (*Inventory, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "decode inventory")
	}

	archives, err := Build(doc)
	if err != nil {
		return nil, err
	}
	return &Inventory{Archives: archives, Hash: Hash(data)}, nil
}

// Hash returns the content hash of raw inventory bytes.
func Hash(data []byte) string { return cache.Hash(data) }

// Build validates doc and constructs its archives.
func Build(doc Document) ([]*archive.Archive, error) {
	entries, err := merge(doc.Archives)
	if err != nil {
		return nil, err
	}
	out := make([]*archive.Archive, 0, len(entries))
	for _, e := range entries {
		a, err := build(e, e.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func build(e Entry, path string) (*archive.Archive, error) {
	if err := errors.ValidateArchiveName(e.Name); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
	}
	kind, err := archive.ParseKind(e.Type)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
	}
	if kind == archive.KindSimple && len(e.Archives) > 0 {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, archive.ErrNotNestable,
			"archive %s lists sub-archives", path)
	}

	locs := make([]archive.Location, 0, len(e.Locations))
	for _, l := range e.Locations {
		if err := errors.ValidateFilename(l.Filename); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
		}
		locs = append(locs, archive.Location{Filename: l.Filename, Version: l.Version})
	}
	for _, sym := range slices.Concat(e.Provides, e.Requires) {
		if err := errors.ValidateSymbol(sym); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
		}
	}

	a, err := archive.New(e.Name, kind, locs, e.Provides, e.Requires)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
	}

	children, err := merge(e.Archives)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
	}
	for _, ce := range children {
		child, err := build(ce, path+"/"+ce.Name)
		if err != nil {
			return nil, err
		}
		if err := a.AddSubArchive(child); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInventory, err, "archive %s", path)
		}
	}
	return a, nil
}

// merge folds sibling entries sharing a name into the first occurrence,
// keeping first-occurrence order. Same-named archives at different nesting
// levels stay separate; the resolver groups their locations by name.
func merge(entries []Entry) ([]Entry, error) {
	var out []Entry
	index := map[string]int{}
	for _, e := range entries {
		i, seen := index[e.Name]
		if !seen {
			index[e.Name] = len(out)
			out = append(out, e)
			continue
		}
		prev := &out[i]
		k1, _ := archive.ParseKind(prev.Type)
		k2, _ := archive.ParseKind(e.Type)
		if k1 != k2 {
			return nil, errors.New(errors.ErrCodeInvalidInventory,
				"archive %s declared as both %s and %s", e.Name, typeName(prev.Type), typeName(e.Type))
		}
		prev.Locations = slices.Concat(prev.Locations, e.Locations)
		prev.Provides = slices.Concat(prev.Provides, e.Provides)
		prev.Requires = slices.Concat(prev.Requires, e.Requires)
		prev.Archives = slices.Concat(prev.Archives, e.Archives)
	}
	return out, nil
}

func typeName(t string) string {
	if t == "" {
		return "simple"
	}
	return t
}

// Encode writes archives back in inventory form.
func Encode(w io.Writer, archives []*archive.Archive) error {
	doc := Document{Archives: make([]Entry, 0, len(archives))}
	for _, a := range archives {
		doc.Archives = append(doc.Archives, entryOf(a))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	return enc.Close()
}

func entryOf(a *archive.Archive) Entry {
	e := Entry{
		Name:     a.Name(),
		Provides: a.Provides(),
		Requires: a.DeclaredRequires(),
	}
	if a.IsNestable() {
		e.Type = a.Kind().String()
	}
	for _, l := range a.Locations() {
		e.Locations = append(e.Locations, LocationEntry{Filename: l.Filename, Version: l.Version})
	}
	for _, c := range a.SubArchives() {
		e.Archives = append(e.Archives, entryOf(c))
	}
	return e
}
