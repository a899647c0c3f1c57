package cache

import "fmt"

// Keyer builds cache keys for every cached artifact kind.
type Keyer interface {
	// LayoutKey identifies solved node positions for a graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered view of a solved layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// IconKey identifies a rasterized icon at a given pixel size.
	IconKey(ref string, size int) string
}

// LayoutKeyOpts holds the inputs that change a layout result.
type LayoutKeyOpts struct {
	LinkDistance   float64 `json:"link_distance"`
	ChargeStrength float64 `json:"charge_strength"`
	Seed           int     `json:"seed"`
	MaxIter        int     `json:"max_iter"`
}

// ArtifactKeyOpts holds the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	View   string  `json:"view"`
	Format string  `json:"format"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

func (DefaultKeyer) IconKey(ref string, size int) string {
	return fmt.Sprintf("icon:%s:%d", ref, size)
}
