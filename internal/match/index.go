package match

import "slices"

// Index maps canonical keys to the ordered-unique list of original names
// observed for each key. Iteration order over keys follows first insertion,
// so lookups and "which names collapsed together" audit output are
// reproducible across runs.
type Index struct {
	canon *Canonicalizer
	keys  []string
	names map[string][]string
}

// NewIndex creates an empty Index using the given Canonicalizer.
func NewIndex(canon *Canonicalizer) *Index {
	return &Index{
		canon: canon,
		names: make(map[string][]string),
	}
}

// BuildIndex creates an Index seeded with the given names, in order.
func BuildIndex(canon *Canonicalizer, names []string) *Index {
	ix := NewIndex(canon)
	for _, name := range names {
		ix.Add(name)
	}
	return ix
}

// Add records a name under its canonical key. Names with an empty canonical
// key are dropped; exact string repeats are deduplicated.
func (ix *Index) Add(name string) {
	if name == "" {
		return
	}
	key := ix.canon.Canonicalize(name)
	if key == "" {
		return
	}
	existing, ok := ix.names[key]
	if !ok {
		ix.keys = append(ix.keys, key)
	}
	if !slices.Contains(existing, name) {
		ix.names[key] = append(existing, name)
	}
}

// Lookup returns the original names sharing the canonical key of name, in
// first-seen order. Returns nil when there is no match, including when the
// name canonicalizes to the empty key.
func (ix *Index) Lookup(name string) []string {
	key := ix.canon.Canonicalize(name)
	if key == "" {
		return nil
	}
	return ix.names[key]
}

// Names returns the original names recorded under a canonical key.
func (ix *Index) Names(key string) []string {
	if key == "" {
		return nil
	}
	return ix.names[key]
}

// Keys returns the canonical keys in first-insertion order.
func (ix *Index) Keys() []string {
	return ix.keys
}

// Len returns the number of distinct canonical keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}
