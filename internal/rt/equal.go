package rt

import "math"

// valuesEqual implements the equality the object map's open-addressing
// probe needs: small ints compare by value, boxed values of matching
// shape compare structurally for numbers, booleans and strings (a normal
// and a cons string with the same bytes are equal), and compare by
// identity for everything else (objects, arrays, functions, contexts).
func valuesEqual(h *Heap, a, b Value) bool {
	if a == b {
		return true
	}
	if a.IsSmallInt() != b.IsSmallInt() {
		return false
	}
	if a.IsSmallInt() {
		return a.SmallInt() == b.SmallInt()
	}
	ta, tb := a.Tag(), b.Tag()
	if ta == TagStringCons {
		ta = TagStringNormal
	}
	if tb == TagStringCons {
		tb = TagStringNormal
	}
	if ta != tb {
		return false
	}
	switch ta {
	case TagNumber:
		na, _ := AsNumber(a)
		nb, _ := AsNumber(b)
		return na.Value() == nb.Value()
	case TagBoolean:
		ba, _ := AsBoolean(a)
		bb, _ := AsBoolean(b)
		return ba.Value() == bb.Value()
	case TagStringNormal, TagStringCons:
		sa, _ := AsString(h, a)
		sb, _ := AsString(h, b)
		return string(sa.Value()) == string(sb.Value())
	default:
		return false
	}
}

// HashValue computes the probe hash for a key. Small ints and numbers
// hash their integer value or IEEE-754 bit pattern through hashU64;
// strings use their cached string hash; booleans hash to 1 or 0;
// everything else hashes by identity (its address).
func HashValue(h *Heap, v Value) uint32 {
	if v.IsSmallInt() {
		n := uint64(v.SmallInt())
		return hashU64(n)
	}
	switch v.Tag() {
	case TagStringNormal, TagStringCons:
		s, _ := AsString(h, v)
		return s.Hash()
	case TagNumber:
		n, _ := AsNumber(v)
		return hashU64(math.Float64bits(n.Value()))
	case TagBoolean:
		b, _ := AsBoolean(v)
		if b.Value() {
			return 1
		}
		return 0
	default:
		return hashU64(uint64(v))
	}
}

func hashU64(n uint64) uint32 {
	// MurmurHash3 fmix64 finalizer: cheap, decent avalanche, no dependency needed
	// for hashing an 8-byte word.
	n ^= n >> 33
	n *= 0xff51afd7ed558ccd
	n ^= n >> 33
	n *= 0xc4ceb9fe1a85ec53
	n ^= n >> 33
	h := uint32(n)
	if h == 0 {
		h = 1
	}
	return h
}
