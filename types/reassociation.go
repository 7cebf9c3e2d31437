// Package types defines the attribute types shared by the IR ops and the shape inference.
package types

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReassociationIndices is one group of a Reassociation: a contiguous, ascending list of axes of the
// higher-rank shape that together correspond to one axis of the lower-rank shape.
type ReassociationIndices []int

// Reassociation maps the axes of the higher-rank side of an ExpandShape or CollapseShape to the axes of the
// lower-rank side. There is one group per lower-rank axis, and the groups partition the higher-rank axes, in order.
//
// Example: collapsing a tensor<8x1x4xf32> to tensor<8x4xf32> uses Reassociation{{0}, {1, 2}}.
type Reassociation []ReassociationIndices

// ReassociationFromGroupSizes creates a Reassociation with consecutive groups of the given sizes.
//
// Example: ReassociationFromGroupSizes(1, 2) returns [[0], [1, 2]].
func ReassociationFromGroupSizes(sizes ...int) Reassociation {
	r := make(Reassociation, len(sizes))
	var next int
	for groupIdx, size := range sizes {
		group := make(ReassociationIndices, size)
		for ii := range group {
			group[ii] = next
			next++
		}
		r[groupIdx] = group
	}
	return r
}

// NumHigherRankAxes returns the number of axes of the higher-rank side covered by the reassociation.
func (r Reassociation) NumHigherRankAxes() (count int) {
	for _, group := range r {
		count += len(group)
	}
	return
}

// Validate checks that the groups partition the axes [0, higherRank) exactly once, in ascending contiguous order.
// An empty reassociation is only valid for a lower-rank side of rank 0, which the caller has to check.
func (r Reassociation) Validate(higherRank int) error {
	next := 0
	for groupIdx, group := range r {
		if len(group) == 0 {
			return errors.Errorf("reassociation %s: group #%d is empty", r, groupIdx)
		}
		for _, axis := range group {
			if axis != next {
				return errors.Errorf("reassociation %s: group #%d has axis %d where axis %d was expected (groups must be contiguous and ascending)",
					r, groupIdx, axis, next)
			}
			next++
		}
	}
	if next != higherRank {
		return errors.Errorf("reassociation %s covers %d axes, but the higher-rank side has rank %d", r, next, higherRank)
	}
	return nil
}

// Clone returns a deep copy of the reassociation.
func (r Reassociation) Clone() Reassociation {
	if r == nil {
		return nil
	}
	r2 := make(Reassociation, len(r))
	for ii, group := range r {
		r2[ii] = slices.Clone(group)
	}
	return r2
}

// Equal returns whether both reassociations have the same groups.
func (r Reassociation) Equal(r2 Reassociation) bool {
	return slices.EqualFunc(r, r2, func(a, b ReassociationIndices) bool { return slices.Equal(a, b) })
}

// String implements fmt.Stringer.
func (r Reassociation) String() string {
	return r.ToMLIR()
}

// ToMLIR returns the attribute representation, e.g.: "[[0], [1, 2]]".
func (r Reassociation) ToMLIR() string {
	var sb strings.Builder
	sb.WriteString("[")
	for groupIdx, group := range r {
		if groupIdx > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for ii, axis := range group {
			if ii > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Itoa(axis))
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}
