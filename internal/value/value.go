// Package value implements the comparator layer: a total order over the
// opaque byte-string values used as scores and members throughout the
// skiplist container.
package value

import "bytes"

// Encoding tags the internal representation of a Value the way Redis
// distinguishes REDIS_ENCODING_RAW from REDIS_ENCODING_INT. Encoding never
// changes the byte-for-byte identity of a value, only how Compare treats it.
type Encoding int

const (
	EncodingString Encoding = iota
	EncodingInt
)

// Value is an opaque reference-counted byte string. Two Values holding the
// same bytes but different Encoding still compare equal under Compare; the
// encoding only enables or disables the integer fast path.
type Value struct {
	bytes    []byte
	num      int64
	encoding Encoding
	refs     int32
}

// NewString creates a string-encoded Value from raw bytes, with a single
// reference already held by the caller.
func NewString(b []byte) *Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Value{bytes: cp, encoding: EncodingString, refs: 1}
}

// NewInt creates an integer-encoded Value. The decimal text of n is also
// retained so that an integer-encoded Value still has a byte representation
// for contexts that need one (e.g. SLALL/SLRANGE replies).
func NewInt(n int64) *Value {
	return &Value{bytes: []byte(itoa(n)), num: n, encoding: EncodingInt, refs: 1}
}

// IsCanonicalInt reports whether b is the canonical decimal text of an
// int64 — the same test TryEncode uses to decide the integer fast path.
func IsCanonicalInt(b []byte) bool {
	_, ok := parseCanonicalInt(b)
	return ok
}

// TryEncode returns a Value for b, using the integer encoding when b is the
// canonical decimal text of an int64 that fits without leading zeros or a
// redundant sign — the same "short numeric string" fast path tryObjectEncoding
// applies in the original source.
func TryEncode(b []byte) *Value {
	if n, ok := parseCanonicalInt(b); ok {
		return NewInt(n)
	}
	return NewString(b)
}

// Bytes returns the byte representation of v, valid for both encodings.
func (v *Value) Bytes() []byte {
	if v == nil {
		return nil
	}
	return v.bytes
}

// Encoding reports how v is encoded.
func (v *Value) Encoding() Encoding {
	if v == nil {
		return EncodingString
	}
	return v.encoding
}

// IncrRef increments v's reference count. Called once per owner that retains
// a pointer to v beyond the call that produced it (spec.md §5: insertion
// increments twice, once for score and once for member).
func (v *Value) IncrRef() {
	if v != nil {
		v.refs++
	}
}

// DecrRef decrements v's reference count. It is a no-op accounting hook in
// this in-memory implementation — Go's GC reclaims the backing array once
// the last pointer drops — but the call sites mirror the original's
// incrRefCount/decrRefCount pairing so that a future pooled-allocator
// implementation only has to change this method.
func (v *Value) DecrRef() {
	if v != nil {
		v.refs--
	}
}

// MinSentinel is a singleton that compares strictly less than every real
// value. Produced by the "-" range-bound prefix.
var MinSentinel = &Value{bytes: []byte{}, encoding: EncodingString, refs: 1}

// MaxSentinel is a singleton that compares strictly greater than every real
// value. Produced by the "+" range-bound prefix.
var MaxSentinel = &Value{bytes: []byte{}, encoding: EncodingString, refs: 1}

// Compare implements the comparator contract of spec.md §4.1:
//   - nil vs nil: 0
//   - nil vs non-nil: nil sorts as the *greater* argument position, i.e.
//     Compare(nil, x) > 0 and Compare(x, nil) < 0 for non-nil x — matching
//     the original slCmp, not the intuitive "null is smallest" reading.
//   - both integer-encoded: signed integer comparison
//   - otherwise: lexicographic byte comparison
//   - sentinels always resolve via identity before the generic paths, since
//     they carry no orderable bytes of their own
func Compare(a, b *Value) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if a == MinSentinel {
		if b == MinSentinel {
			return 0
		}
		return -1
	}
	if b == MinSentinel {
		return 1
	}
	if a == MaxSentinel {
		if b == MaxSentinel {
			return 0
		}
		return 1
	}
	if b == MaxSentinel {
		return -1
	}

	if a.encoding == EncodingInt && b.encoding == EncodingInt {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	return bytes.Compare(a.bytes, b.bytes)
}

// Equal reports whether a and b carry the same bytes, irrespective of
// encoding — the equalStringObjects check slDelete relies on.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(a.bytes, b.bytes)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	var buf [20]byte
	i := len(buf)
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// parseCanonicalInt parses b as a decimal int64, rejecting any
// representation that wouldn't round-trip back to the same bytes via itoa
// (leading zeros, "+" sign, "-0", empty string) — the same restriction
// tryObjectEncoding applies before granting the integer encoding.
func parseCanonicalInt(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(b) {
		return 0, false
	}
	if b[i] == '0' && len(b)-i > 1 {
		return 0, false // leading zero
	}
	var n int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int64(c - '0')
		if n > (1<<63-1-d)/10 {
			return 0, false // overflow
		}
		n = n*10 + d
	}
	if neg {
		n = -n
	}
	if n == 0 && neg {
		return 0, false // "-0" is not canonical
	}
	return n, true
}
