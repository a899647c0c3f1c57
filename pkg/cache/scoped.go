package cache

import "strings"

// scopedKeyer namespaces every key of another Keyer, so several datasets
// or deployments can share one backend.
type scopedKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer prefixes every key built by inner with prefix. A prefix
// without a trailing ':' gets one. A nil inner means [DefaultKeyer].
//
//	keyer := NewScopedKeyer(nil, "flowmap:staging")
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return scopedKeyer{Keyer: inner, prefix: prefix}
}

func (k scopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.Keyer.LayoutKey(graphHash, opts)
}

func (k scopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.Keyer.ArtifactKey(contentHash, opts)
}

func (k scopedKeyer) IconKey(ref string, size int) string {
	return k.prefix + k.Keyer.IconKey(ref, size)
}
