package flowgraph

import "sort"

// RecordSet is an ordered set of record indices.
// The zero value is an empty set ready to use.
type RecordSet struct {
	order []int
	index map[int]struct{}
}

// NewRecordSet returns a set holding the given indices in ascending order.
func NewRecordSet(indices ...int) *RecordSet {
	s := &RecordSet{}
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// Add inserts i, keeping the set sorted. Adding a present index is a no-op.
func (s *RecordSet) Add(i int) {
	if s.index == nil {
		s.index = make(map[int]struct{})
	}
	if _, ok := s.index[i]; ok {
		return
	}
	s.index[i] = struct{}{}
	n := len(s.order)
	if n == 0 || s.order[n-1] < i {
		s.order = append(s.order, i)
		return
	}
	pos := sort.SearchInts(s.order, i)
	s.order = append(s.order, 0)
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = i
}

// Contains reports whether i is a member.
func (s *RecordSet) Contains(i int) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[i]
	return ok
}

// Len returns the number of members.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Indices returns a copy of the members in ascending order.
func (s *RecordSet) Indices() []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Intersects reports whether the two sets share a member.
// It walks the smaller set and stops at the first common element.
func (s *RecordSet) Intersects(other *RecordSet) bool {
	if s.Len() == 0 || other.Len() == 0 {
		return false
	}
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for _, i := range small.order {
		if _, ok := large.index[i]; ok {
			return true
		}
	}
	return false
}

// Equal reports whether both sets hold the same members.
func (s *RecordSet) Equal(other *RecordSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, v := range s.Indices() {
		if other.order[i] != v {
			return false
		}
	}
	return true
}
