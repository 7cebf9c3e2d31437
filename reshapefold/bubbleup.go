package reshapefold

import (
	"github.com/gomlx/tensorir"
	"github.com/gomlx/tensorir/rewrite"
	"github.com/gomlx/tensorir/types/shapes"
)

// BubbleUpExpandThroughParallelCollapse swaps an ExpandShape with the CollapseShape producing its operand, when they
// act on different dimensions.
//
//	%1 = CollapseShape(%0) [[0, 1], [2]] : [2, 3, 4] -> [6, 4]
//	%2 = ExpandShape(%1) [[0], [1, 2]] : [6, 4] -> [6, 2, 2]
//
// becomes
//
//	%3 = ExpandShape(%0) [[0], [1], [2, 3]] : [2, 3, 4] -> [2, 3, 2, 2]
//	%2 = CollapseShape(%3) [[0, 1], [2], [3]] : [2, 3, 2, 2] -> [6, 2, 2]
//
// Dynamic extents of the collapse operand are read with Dim statements.
type BubbleUpExpandThroughParallelCollapse struct{}

var _ rewrite.Pattern = BubbleUpExpandThroughParallelCollapse{}

func (BubbleUpExpandThroughParallelCollapse) Name() string {
	return "BubbleUpExpandThroughParallelCollapse"
}

func (BubbleUpExpandThroughParallelCollapse) RootOps() []tensorir.OpType {
	return []tensorir.OpType{tensorir.OpExpandShape}
}

func (p BubbleUpExpandThroughParallelCollapse) MatchAndRewrite(stmt *tensorir.Statement, rw *rewrite.Rewriter) bool {
	expand := tensorir.AsExpandShape(stmt)
	if expand == nil {
		return false
	}
	collapse := tensorir.AsCollapseShape(expand.Src().DefiningOp())
	if collapse == nil {
		return false
	}
	recombination, ok := RecombineReassociations(expand.Reassociation(), collapse.Reassociation())
	if !ok {
		return rw.NotifyMatchFailure(stmt, "reassociations %s and %s are not parallel",
			expand.Reassociation(), collapse.Reassociation())
	}

	// Extents of the new expansion.
	collapseSrc := collapse.Src()
	expandSizes := expand.MixedOutputShape()
	newExpandSizes := make([]tensorir.OpFoldResult, len(recombination.Origins))
	for i, origin := range recombination.Origins {
		if !origin.FromCollapseSource {
			newExpandSizes[i] = expandSizes[origin.Axis]
			continue
		}
		dim := collapseSrc.Shape().Dimensions[origin.Axis]
		if dim != shapes.DimDynamic {
			newExpandSizes[i] = tensorir.Static(dim)
			continue
		}
		dimValue, err := tensorir.Dim(collapseSrc, origin.Axis)
		if err != nil {
			return rw.NotifyMatchFailure(stmt, "failed to create Dim: %v", err)
		}
		newExpandSizes[i] = tensorir.Dynamic(dimValue)
	}

	newExpand, err := tensorir.ExpandShape(collapseSrc, recombination.Expand, newExpandSizes)
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "failed to create ExpandShape: %v", err)
	}
	newCollapse, err := tensorir.CollapseShape(newExpand, recombination.Collapse)
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "failed to create CollapseShape: %v", err)
	}
	if err = rw.ReplaceOp(stmt, newCollapse); err != nil {
		return rw.NotifyMatchFailure(stmt, "%v", err)
	}
	return true
}
