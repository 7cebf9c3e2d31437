package reshapefold

import (
	"github.com/gomlx/tensorir/types"
)

// AxisOrigin tells where the extent of an axis of the recombined ExpandShape comes from: an axis of the
// CollapseShape source, or an axis of the original ExpandShape result.
type AxisOrigin struct {
	FromCollapseSource bool
	Axis               int
}

// Recombination is the result of swapping an ExpandShape with the CollapseShape that produces its operand.
//
// The new ExpandShape is applied to the collapse source with the Expand reassociation, its output axes having the
// extents given by Origins. The new CollapseShape is applied to that with the Collapse reassociation, and yields
// the shape of the original expansion.
type Recombination struct {
	Expand   types.Reassociation
	Collapse types.Reassociation
	Origins  []AxisOrigin
}

// RecombineReassociations computes the reassociations to swap `ExpandShape(CollapseShape(x, collapse), expand)`
// into `CollapseShape(ExpandShape(x, newExpand), newCollapse)`.
//
// Both reassociations refer to the same intermediary (lower rank) tensor, so they must have the same number of
// groups, and for every pair of groups at least one of them must have a single axis: the two reshapes must act on
// different dimensions. Otherwise, or if the reassociations are empty, it returns false.
//
// Example: collapse [[0, 1], [2]] and expand [[0], [1, 2]] of a [2, 3, 4] tensor (collapsed to [6, 4] and expanded
// to [6, 2, 2]) recombine to newExpand [[0], [1], [2, 3]] (to [2, 3, 2, 2]) and newCollapse [[0, 1], [2], [3]].
func RecombineReassociations(expand, collapse types.Reassociation) (Recombination, bool) {
	var r Recombination
	if len(expand) == 0 || len(collapse) == 0 || len(expand) != len(collapse) {
		return r, false
	}
	for groupIdx := range collapse {
		if len(collapse[groupIdx]) != 1 && len(expand[groupIdx]) != 1 {
			return r, false
		}
	}

	var index, expandIndex, collapseIndex int
	for groupIdx, collapseGroup := range collapse {
		if len(collapseGroup) != 1 {
			// Axes merged by the collapse are kept separate by the new expand, and merged later.
			newCollapseGroup := make(types.ReassociationIndices, 0, len(collapseGroup))
			for range collapseGroup {
				newCollapseGroup = append(newCollapseGroup, index)
				r.Expand = append(r.Expand, types.ReassociationIndices{index})
				r.Origins = append(r.Origins, AxisOrigin{FromCollapseSource: true, Axis: collapseIndex})
				index++
				collapseIndex++
			}
			r.Collapse = append(r.Collapse, newCollapseGroup)
			expandIndex++
			continue
		}

		// The axis is split by the expand (or kept as is).
		expandGroup := expand[groupIdx]
		newExpandGroup := make(types.ReassociationIndices, 0, len(expandGroup))
		for range expandGroup {
			newExpandGroup = append(newExpandGroup, index)
			r.Collapse = append(r.Collapse, types.ReassociationIndices{index})
			r.Origins = append(r.Origins, AxisOrigin{Axis: expandIndex})
			index++
			expandIndex++
		}
		r.Expand = append(r.Expand, newExpandGroup)
		collapseIndex++
	}
	return r, true
}
