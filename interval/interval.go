// Package interval provides sets of integer symbols stored as sorted,
// non-overlapping ranges.
package interval

import (
	"fmt"
	"strings"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo int
	Hi int
}

func (iv Interval) Len() int {
	return iv.Hi - iv.Lo + 1
}

func (iv Interval) String() string {
	if iv.Lo == iv.Hi {
		return fmt.Sprintf("%d", iv.Lo)
	}
	return fmt.Sprintf("%d..%d", iv.Lo, iv.Hi)
}

// Set is a set of integers. The zero value is an empty set ready to use.
type Set struct {
	ivs []Interval
}

// Of returns a set holding the given values.
func Of(values ...int) *Set {
	s := &Set{}
	for _, v := range values {
		s.AddOne(v)
	}
	return s
}

// Range returns the set [lo, hi].
func Range(lo, hi int) *Set {
	s := &Set{}
	s.AddRange(lo, hi)
	return s
}

func (s *Set) AddOne(v int) {
	s.AddRange(v, v)
}

// AddRange adds [lo, hi], merging with adjacent and overlapping ranges.
func (s *Set) AddRange(lo, hi int) {
	if hi < lo {
		return
	}

	// first range whose end reaches lo-1 can merge with the new one
	i := 0
	for i < len(s.ivs) && s.ivs[i].Hi < lo-1 {
		i++
	}

	j := i
	for j < len(s.ivs) && s.ivs[j].Lo <= hi+1 {
		if s.ivs[j].Lo < lo {
			lo = s.ivs[j].Lo
		}
		if s.ivs[j].Hi > hi {
			hi = s.ivs[j].Hi
		}
		j++
	}

	merged := make([]Interval, 0, len(s.ivs)-(j-i)+1)
	merged = append(merged, s.ivs[:i]...)
	merged = append(merged, Interval{Lo: lo, Hi: hi})
	merged = append(merged, s.ivs[j:]...)
	s.ivs = merged
}

// AddSet adds every value of o to s.
func (s *Set) AddSet(o *Set) {
	if o == nil {
		return
	}
	for _, iv := range o.ivs {
		s.AddRange(iv.Lo, iv.Hi)
	}
}

func (s *Set) Contains(v int) bool {
	if s == nil {
		return false
	}
	lo, hi := 0, len(s.ivs)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		iv := s.ivs[mid]
		switch {
		case v < iv.Lo:
			hi = mid - 1
		case v > iv.Hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, iv := range s.ivs {
		n += iv.Len()
	}
	return n
}

func (s *Set) IsEmpty() bool {
	return s == nil || len(s.ivs) == 0
}

// Single returns the only value of a one-element set.
func (s *Set) Single() (int, bool) {
	if s == nil || len(s.ivs) != 1 || s.ivs[0].Lo != s.ivs[0].Hi {
		return 0, false
	}
	return s.ivs[0].Lo, true
}

// Complement returns the values of [lo, hi] not in s.
func (s *Set) Complement(lo, hi int) *Set {
	out := &Set{}
	next := lo
	for _, iv := range s.Intervals() {
		if iv.Hi < lo {
			continue
		}
		if iv.Lo > hi {
			break
		}
		if iv.Lo > next {
			out.AddRange(next, iv.Lo-1)
		}
		if iv.Hi+1 > next {
			next = iv.Hi + 1
		}
	}
	if next <= hi {
		out.AddRange(next, hi)
	}
	return out
}

// Values expands the set into its individual values, ascending.
func (s *Set) Values() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, s.Len())
	for _, iv := range s.ivs {
		for v := iv.Lo; v <= iv.Hi; v++ {
			out = append(out, v)
		}
	}
	return out
}

// Intervals returns a copy of the ranges making up the set.
func (s *Set) Intervals() []Interval {
	if s == nil {
		return nil
	}
	out := make([]Interval, len(s.ivs))
	copy(out, s.ivs)
	return out
}

func (s *Set) Equal(o *Set) bool {
	a, b := s.Intervals(), o.Intervals()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	parts := make([]string, 0, len(s.Intervals()))
	for _, iv := range s.Intervals() {
		parts = append(parts, iv.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
