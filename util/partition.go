package util

import (
	"sort"
	"strings"
)

// Partition of a set of keys into disjoint blocks
type Partition [][]string

// Canonical returns a copy with each block sorted and blocks ordered
// by their smallest key, so that equal partitions compare equal
func (p Partition) Canonical() Partition {
	out := make(Partition, 0, len(p))
	for _, block := range p {
		b := make([]string, len(block))
		copy(b, block)
		sort.Strings(b)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) == 0 || len(out[j]) == 0 {
			return len(out[i]) < len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

// Eq compares two partitions irrespective of block and key order
func (p Partition) Eq(other Partition) bool {
	a := p.Canonical()
	b := other.Canonical()
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := 0; j < len(a[i]); j++ {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// BlockIndex maps each key to the index of its block
func (p Partition) BlockIndex() map[string]int {
	out := make(map[string]int)
	for i, block := range p {
		for _, k := range block {
			out[k] = i
		}
	}
	return out
}

// Keys returns every key of the partition
func (p Partition) Keys() []string {
	out := make([]string, 0)
	for _, block := range p {
		out = append(out, block...)
	}
	return out
}

// IsPartitionOf checks that the blocks are non-empty, pairwise disjoint
// and cover exactly the given keys
func (p Partition) IsPartitionOf(keys []string) bool {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	seen := make(map[string]bool, len(keys))
	for _, block := range p {
		if len(block) == 0 {
			return false
		}
		for _, k := range block {
			if seen[k] || !want[k] {
				return false
			}
			seen[k] = true
		}
	}
	return len(seen) == len(want)
}

// Refines is true when every block of p is contained in some block of other
func (p Partition) Refines(other Partition) bool {
	index := other.BlockIndex()
	for _, block := range p {
		if len(block) == 0 {
			continue
		}
		b, ok := index[block[0]]
		if !ok {
			return false
		}
		for _, k := range block[1:] {
			if idx, ok := index[k]; !ok || idx != b {
				return false
			}
		}
	}
	return true
}

func (p Partition) String() string {
	blocks := make([]string, len(p))
	for i, block := range p {
		blocks[i] = "{" + strings.Join(block, ", ") + "}"
	}
	return "[" + strings.Join(blocks, " ") + "]"
}
