package skiplist

import (
	"errors"

	"slserver/internal/value"
)

// ErrInvalidRange is returned by ParseRangeSpec when either bound is
// malformed: an integer-encoded argument (the prefix characters would be
// lost), an unterminated "+"/"-" sentinel, or any other grammar violation
// (spec.md §6, §7).
var ErrInvalidRange = errors.New("min or max is not valid")

// RangeSpec is a parsed (min, minExclusive, max, maxExclusive) quadruple
// (spec.md §3). Once successfully parsed it owns Min and Max until Release
// is called.
type RangeSpec struct {
	Min          *value.Value
	Max          *value.Value
	MinExclusive bool
	MaxExclusive bool
}

// Release drops RangeSpec's references to its bounds (spec.md §3, §5).
func (r *RangeSpec) Release() {
	r.Min.DecrRef()
	r.Max.DecrRef()
}

// parseBound implements the grammar of a single min/max argument
// (spec.md §6):
//
//	"+"      -> MaxSentinel, inclusive
//	"-"      -> MinSentinel, inclusive
//	"(value" -> value, exclusive
//	"[value" -> value, inclusive
//	anything else -> value as given, inclusive
//
// An integer-encoded argument is rejected by the caller (ParseRangeSpec)
// before this is reached.
func parseBound(arg []byte) (v *value.Value, exclusive bool, err error) {
	if len(arg) == 0 {
		return value.NewString(arg), false, nil
	}
	switch arg[0] {
	case '+':
		if len(arg) != 1 {
			return nil, false, ErrInvalidRange
		}
		value.MaxSentinel.IncrRef()
		return value.MaxSentinel, false, nil
	case '-':
		if len(arg) != 1 {
			return nil, false, ErrInvalidRange
		}
		value.MinSentinel.IncrRef()
		return value.MinSentinel, false, nil
	case '(':
		return value.NewString(arg[1:]), true, nil
	case '[':
		return value.NewString(arg[1:]), false, nil
	default:
		return value.NewString(arg), false, nil
	}
}

// ParseRangeSpec parses the min and max arguments of SLRANGE. Integer-
// encoded bounds are rejected since the "+"/"-"/"("/"[" prefix characters
// would otherwise be lost to numeric parsing (spec.md §6). On error any
// partial references already taken are released before returning, so the
// caller never needs to call Release after a non-nil error.
func ParseRangeSpec(minArg, maxArg []byte) (*RangeSpec, error) {
	if value.IsCanonicalInt(minArg) || value.IsCanonicalInt(maxArg) {
		return nil, ErrInvalidRange
	}

	spec := &RangeSpec{}
	var err error
	spec.Min, spec.MinExclusive, err = parseBound(minArg)
	if err != nil {
		return nil, err
	}
	spec.Max, spec.MaxExclusive, err = parseBound(maxArg)
	if err != nil {
		spec.Min.DecrRef()
		return nil, err
	}
	return spec, nil
}

// RangeLowEnd returns the first node that qualifies as the low end of
// range: the smallest node whose score is >= range.Min (strictly > when
// MinExclusive), or nil if no node qualifies (spec.md §4.7).
//
// This is a direct two-phase port of the original slRangeLowEnd/
// slRangeSmallestNode pair. Phase A's early-out deliberately compares the
// skiplist's first score against range.Max, not range.Min, despite the
// original function's header comment describing a check against the
// minimum — spec.md §9 calls this out as a documented discrepancy between
// the original's comment and its code, and directs implementers to
// replicate the code. An empty list, or a list whose very first score
// already exceeds the requested maximum, has nothing to offer either end of
// the range, so the early-out is correct; it is just oddly named.
func (sl *Skiplist) RangeLowEnd(spec *RangeSpec) *Node {
	x, foundExact := sl.rangeSmallestNode(spec)
	if x == nil {
		return nil
	}
	for spec.MinExclusive && foundExact && value.Compare(x.score, spec.Min) == 0 {
		if x.forward[0] == nil {
			return nil
		}
		x = x.forward[0]
	}
	return x
}

func (sl *Skiplist) rangeSmallestNode(spec *RangeSpec) (node *Node, foundExact bool) {
	first := sl.header.forward[0]
	if first == nil || value.Compare(first.score, spec.Max) > 0 {
		return nil, false
	}

	x := sl.header
levelLoop:
	for i := sl.level - 1; i >= 0; i-- {
		for x.forward[i] != nil {
			cmp := value.Compare(x.forward[i].score, spec.Min)
			switch {
			case cmp < 0:
				x = x.forward[i]
			case cmp == 0:
				x = x.forward[i]
				for !spec.MinExclusive && x.backward != nil && x.backward != sl.header &&
					value.Compare(x.backward.score, spec.Min) == 0 {
					x = x.backward
				}
				return x, true
			case i == 0:
				return x.forward[i], false
			default:
				continue levelLoop
			}
		}
	}
	return nil, false
}

// RangeHighEnd returns the last node that qualifies as the high end of
// range: the largest node whose score is <= range.Max (strictly < when
// MaxExclusive), or nil if no node qualifies (spec.md §4.8).
func (sl *Skiplist) RangeHighEnd(spec *RangeSpec) *Node {
	x, foundExact := sl.rangeLargestNode(spec)
	if x == nil {
		return nil
	}
	for spec.MaxExclusive && foundExact && value.Compare(x.score, spec.Max) == 0 {
		if x.backward == nil {
			return nil
		}
		x = x.backward
	}
	return x
}

func (sl *Skiplist) rangeLargestNode(spec *RangeSpec) (node *Node, foundExact bool) {
	if sl.tail == nil {
		return nil, false
	}
	if value.Compare(sl.tail.score, spec.Max) < 0 {
		return sl.tail, false
	}

	x := sl.header
levelLoop:
	for i := sl.level - 1; i >= 0; i-- {
		for x.forward[i] != nil {
			cmp := value.Compare(x.forward[i].score, spec.Max)
			switch {
			case cmp < 0:
				x = x.forward[i]
			case spec.MaxExclusive && cmp == 0:
				return x.forward[i], true
			case !spec.MaxExclusive && cmp == 0:
				next := x.forward[i].forward[i]
				if next != nil && value.Compare(next.score, spec.Max) == 0 {
					x = x.forward[i]
				} else if i == 0 {
					return x.forward[i], true
				} else {
					continue levelLoop
				}
			case i == 0:
				return x.forward[i], false
			default:
				continue levelLoop
			}
		}
	}
	return nil, false
}
