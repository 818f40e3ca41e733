package cache

// ScopedKeyer prefixes every key of another keyer, so several tools can
// share a Redis database.
//
//	keys := NewScopedKeyer(NewDefaultKeyer(), "ddlayout:")
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

// LayoutKey implements Keyer.
func (k ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.Prefix + k.Keyer.LayoutKey(graphHash, opts)
}

// ArtifactKey implements Keyer.
func (k ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Keyer.ArtifactKey(layoutHash, opts)
}
