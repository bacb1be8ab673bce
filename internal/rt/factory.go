package rt

import (
	"bytes"
	"math"

	"github.com/google/btree"
)

// factoryEntry is one row of the content-interning table: a content key
// (a discriminator byte plus the constant's encoded payload) mapped to
// the canonical boxed address. Keyed storage in a btree rather than a Go
// map keeps iteration order deterministic, which the snapshot exporter
// (snapshot.go) relies on for reproducible output.
type factoryEntry struct {
	key   []byte
	value Value
}

func lessFactoryEntry(a, b factoryEntry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Factory is the heap's content-interning table (spec.md §3.3 invariant
// 4, §4.2): at most one canonical boxed address per content-equal
// string, number, or boolean constant.
type Factory struct {
	tree *btree.BTreeG[factoryEntry]
}

func newFactory() *Factory {
	return &Factory{tree: btree.NewG(32, lessFactoryEntry)}
}

func stringKey(data []byte) []byte {
	key := make([]byte, 1+len(data))
	key[0] = 's'
	copy(key[1:], data)
	return key
}

func numberKey(f float64) []byte {
	bits := math.Float64bits(f)
	key := make([]byte, 9)
	key[0] = 'n'
	for i := 0; i < 8; i++ {
		key[1+i] = byte(bits >> (8 * i))
	}
	return key
}

func booleanKey(v bool) []byte {
	b := byte(0)
	if v {
		b = 1
	}
	return []byte{'b', b}
}

func keyFor(h *Heap, v Value) ([]byte, bool) {
	if v.IsSmallInt() {
		return nil, false
	}
	switch v.Tag() {
	case TagStringNormal, TagStringCons:
		s, _ := AsString(h, v)
		return stringKey(s.Value()), true
	case TagNumber:
		n, _ := AsNumber(v)
		return numberKey(n.Value()), true
	case TagBoolean:
		b, _ := AsBoolean(v)
		return booleanKey(b.Value()), true
	default:
		return nil, false
	}
}

// ToFactory canonicalises candidate: if the factory already holds an
// entry with equal content it is returned (the caller should discard
// candidate); otherwise candidate becomes the canonical entry and is
// returned unchanged. Values with no content key (small ints, objects,
// arrays, ...) are returned unchanged without touching the table.
func (f *Factory) ToFactory(h *Heap, candidate Value) Value {
	key, ok := keyFor(h, candidate)
	if !ok {
		return candidate
	}
	if existing, found := f.tree.Get(factoryEntry{key: key}); found {
		return existing.value
	}
	f.tree.ReplaceOrInsert(factoryEntry{key: key, value: candidate})
	return candidate
}

func (f *Factory) Len() int {
	return f.tree.Len()
}

// Each visits every canonical entry in content-key order, for snapshot
// export.
func (f *Factory) Each(fn func(key []byte, v Value)) {
	f.tree.Ascend(func(e factoryEntry) bool {
		fn(e.key, e.value)
		return true
	})
}

// CreateString returns the canonical tenured-old string for data,
// allocating a fresh one only if no content-equal string is already
// interned (spec.md §6, "Factory semantics").
func (h *Heap) CreateString(data []byte) Value {
	candidate := allocateNormalString(h, true, data)
	return h.factory.ToFactory(h, candidate)
}

func (h *Heap) CreateNumber(f float64) Value {
	candidate := allocateNumber(h, true, f)
	return h.factory.ToFactory(h, candidate)
}

func (h *Heap) CreateBoolean(v bool) Value {
	candidate := allocateBoolean(h, true, v)
	return h.factory.ToFactory(h, candidate)
}
