package reshapefold

import (
	"github.com/gomlx/tensorir"
	"github.com/gomlx/tensorir/rewrite"
	"github.com/gomlx/tensorir/shapeinference"
	"k8s.io/klog/v2"
)

// FoldExpandOfRankReducingExtract replaces an ExpandShape of a rank-reducing ExtractSlice by an ExtractSlice that
// doesn't reduce the rank, when the expansion exactly restores the dimensions the slice dropped.
//
//	%1 = ExtractSlice(%0) sizes=[1, 4] : [8, 4] -> [4]
//	%2 = ExpandShape(%1) [[0, 1]] : [4] -> [1, 4]
//
// becomes
//
//	%2 = ExtractSlice(%0) sizes=[1, 4] : [8, 4] -> [1, 4]
type FoldExpandOfRankReducingExtract struct{}

var _ rewrite.Pattern = FoldExpandOfRankReducingExtract{}

func (FoldExpandOfRankReducingExtract) Name() string {
	return "FoldExpandOfRankReducingExtract"
}

func (FoldExpandOfRankReducingExtract) RootOps() []tensorir.OpType {
	return []tensorir.OpType{tensorir.OpExpandShape}
}

func (p FoldExpandOfRankReducingExtract) MatchAndRewrite(stmt *tensorir.Statement, rw *rewrite.Rewriter) bool {
	expand := tensorir.AsExpandShape(stmt)
	if expand == nil {
		return false
	}
	extract := tensorir.AsExtractSlice(expand.Src().DefiningOp())
	if extract == nil {
		return false
	}

	// Only when the expansion can be folded away entirely, and the new slice is not rank-reducing.
	natural, err := shapeinference.ExtractSlice(extract.SourceShape(),
		extract.StaticOffsets(), extract.StaticSizes(), extract.StaticStrides())
	if err != nil || !natural.Equal(expand.ResultShape()) {
		return rw.NotifyMatchFailure(stmt, "expand result %s is not the non-reducing slice shape", expand.ResultShape())
	}

	newExtract, err := tensorir.ExtractSlice(extract.Source(),
		extract.MixedOffsets(), extract.MixedSizes(), extract.MixedStrides())
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "failed to create ExtractSlice: %v", err)
	}
	if err = rw.ReplaceOp(stmt, newExtract); err != nil {
		return rw.NotifyMatchFailure(stmt, "%v", err)
	}
	if _, err = rw.EraseIfUnused(extract.Op()); err != nil {
		klog.Warningf("%s: failed to erase ExtractSlice: %v", p.Name(), err)
	}
	return true
}

// FoldUnPaddingCollapseIntoExtract folds a CollapseShape that only removes dimensions of static size 1 into the
// ExtractSlice that produces its operand, which becomes rank-reducing.
//
//	%1 = ExtractSlice(%0) sizes=[8, 1, 4] : [8, 2, 4] -> [8, 1, 4]
//	%2 = CollapseShape(%1) [[0], [1, 2]] : [8, 1, 4] -> [8, 4]
//
// becomes
//
//	%2 = ExtractSlice(%0) sizes=[8, 1, 4] : [8, 2, 4] -> [8, 4]
//
// The ExtractSlice must have no other uses.
type FoldUnPaddingCollapseIntoExtract struct{}

var _ rewrite.Pattern = FoldUnPaddingCollapseIntoExtract{}

func (FoldUnPaddingCollapseIntoExtract) Name() string {
	return "FoldUnPaddingCollapseIntoExtract"
}

func (FoldUnPaddingCollapseIntoExtract) RootOps() []tensorir.OpType {
	return []tensorir.OpType{tensorir.OpCollapseShape}
}

func (p FoldUnPaddingCollapseIntoExtract) MatchAndRewrite(stmt *tensorir.Statement, rw *rewrite.Rewriter) bool {
	collapse := tensorir.AsCollapseShape(stmt)
	if collapse == nil {
		return false
	}
	extract := tensorir.AsExtractSlice(collapse.Src().DefiningOp())
	if extract == nil || !extract.Result().HasOneUse() {
		return false
	}

	if !shapeinference.IsRankReducedType(collapse.SrcShape(), collapse.ResultShape()) {
		return rw.NotifyMatchFailure(stmt, "expected unpadding collapse")
	}

	newExtract, err := tensorir.ExtractSliceWithShape(collapse.ResultShape(), extract.Source(),
		extract.MixedOffsets(), extract.MixedSizes(), extract.MixedStrides())
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "failed to create ExtractSlice: %v", err)
	}
	if err = rw.ReplaceOp(stmt, newExtract); err != nil {
		return rw.NotifyMatchFailure(stmt, "%v", err)
	}
	if err = rw.EraseOp(extract.Op()); err != nil {
		klog.Warningf("%s: failed to erase ExtractSlice: %v", p.Name(), err)
	}
	return true
}
