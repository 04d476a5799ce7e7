package window

import "sort"

// Table counts occurrences per slice key and catalog index.
// Cells are created on first increment and never removed.
type Table struct {
	slices map[int64]map[int]uint64
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{slices: make(map[int64]map[int]uint64)}
}

// Record adds one occurrence of catalog index idx to slice key.
func (t *Table) Record(key int64, idx int) {
	counts, ok := t.slices[key]
	if !ok {
		counts = make(map[int]uint64)
		t.slices[key] = counts
	}
	counts[idx]++
}

// Count returns the occurrences of idx in slice key, 0 if none.
func (t *Table) Count(key int64, idx int) uint64 {
	return t.slices[key][idx]
}

// Slice returns a copy of the counts recorded for key.
func (t *Table) Slice(key int64) map[int]uint64 {
	out := make(map[int]uint64, len(t.slices[key]))
	for idx, n := range t.slices[key] {
		out[idx] = n
	}
	return out
}

// Total returns the sum of all counts in slice key.
func (t *Table) Total(key int64) uint64 {
	var total uint64
	for _, n := range t.slices[key] {
		total += n
	}
	return total
}

// IndexTotal returns the occurrences of idx across every slice.
func (t *Table) IndexTotal(idx int) uint64 {
	var total uint64
	for _, counts := range t.slices {
		total += counts[idx]
	}
	return total
}

// Keys returns the slice keys in ascending order.
func (t *Table) Keys() []int64 {
	keys := make([]int64, 0, len(t.slices))
	for k := range t.slices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of slices with at least one count.
func (t *Table) Len() int {
	return len(t.slices)
}
