package cache

// LayoutKeyOpts are the options that change a layout result.
type LayoutKeyOpts struct {
	RotateOnTie bool `json:"rotate_on_tie"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Gamma    bool   `json:"gamma"`
	Detailed bool   `json:"detailed"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key of the layout result of a scenario.
	LayoutKey(scenarioHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key of a rendered artifact of a layout result.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(scenarioHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", scenarioHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}

var _ Keyer = DefaultKeyer{}
