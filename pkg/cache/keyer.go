package cache

// Keyer derives cache keys for the artifacts jarscope caches.
type Keyer interface {
	// ReportKey addresses an encoded analysis report.
	ReportKey(inventoryHash string, opts ReportKeyOpts) string
	// ArtifactKey addresses a rendered artifact such as an SVG graph.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// ReportKeyOpts are the analysis inputs, besides the inventory, that change
// a report.
type ReportKeyOpts struct {
	ConfigHash string `json:"config"`
	Version    string `json:"version"`
}

// ArtifactKeyOpts are the rendering inputs that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style,omitempty"`
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ReportKey implements [Keyer].
func (DefaultKeyer) ReportKey(inventoryHash string, opts ReportKeyOpts) string {
	return hashKey("report", inventoryHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}

var _ Keyer = DefaultKeyer{}
