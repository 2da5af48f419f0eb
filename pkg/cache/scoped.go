package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without colliding.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AssetKey returns the prefixed asset key.
func (k *ScopedKeyer) AssetKey(ref string) string {
	return k.prefix + k.inner.AssetKey(ref)
}

// TemplateKey returns the prefixed template key.
func (k *ScopedKeyer) TemplateKey(source, id string) string {
	return k.prefix + k.inner.TemplateKey(source, id)
}
