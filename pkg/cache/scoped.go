package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The HTTP service
// scopes keys by deployment so that several instances can share one Redis.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "kintree:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner uses [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// Prefix returns the prefix added to every key.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

func (k *ScopedKeyer) FamilyKey(source, protocolKey string, opts FamilyKeyOpts) string {
	return k.prefix + k.inner.FamilyKey(source, protocolKey, opts)
}

func (k *ScopedKeyer) LayoutKey(peopleHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(peopleHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
