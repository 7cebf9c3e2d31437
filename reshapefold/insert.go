package reshapefold

import (
	"github.com/gomlx/tensorir"
	"github.com/gomlx/tensorir/rewrite"
	"github.com/gomlx/tensorir/shapeinference"
	"github.com/gomlx/tensorir/types/shapes"
)

var insertRootOps = []tensorir.OpType{tensorir.OpInsertSlice, tensorir.OpParallelInsertSlice}

// FoldInsertOfRankReducingInsert replaces an InsertSlice (or ParallelInsertSlice) of a CollapseShape by the insertion
// of the collapse operand, when the operand has exactly the shape of the slice sizes.
//
//	%1 = CollapseShape(%0) [[0, 1]] : [1, 4] -> [4]
//	%3 = InsertSlice(%1, %2) sizes=[1, 4] : [4] into [8, 4]
//
// becomes
//
//	%3 = InsertSlice(%0, %2) sizes=[1, 4] : [1, 4] into [8, 4]
type FoldInsertOfRankReducingInsert struct{}

var _ rewrite.Pattern = FoldInsertOfRankReducingInsert{}

func (FoldInsertOfRankReducingInsert) Name() string { return "FoldInsertOfRankReducingInsert" }

func (FoldInsertOfRankReducingInsert) RootOps() []tensorir.OpType { return insertRootOps }

func (p FoldInsertOfRankReducingInsert) MatchAndRewrite(stmt *tensorir.Statement, rw *rewrite.Rewriter) bool {
	insert := tensorir.AsInsertSliceLike(stmt)
	if insert == nil {
		return false
	}
	collapse := tensorir.AsCollapseShape(insert.Source().DefiningOp())
	if collapse == nil {
		return false
	}

	// Only when the collapse can be folded away entirely, and the new insertion is not rank-reducing.
	nonReducing := insert.Dest().Shape().WithDimensions(insert.StaticSizes()...)
	if !nonReducing.Equal(collapse.SrcShape()) {
		return rw.NotifyMatchFailure(stmt, "collapse operand %s doesn't match the slice shape %s",
			collapse.SrcShape(), nonReducing)
	}

	newInsert, err := insert.CloneWithSource(collapse.Src())
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "failed to create %s: %v", stmt.OpType, err)
	}
	if err = rw.ReplaceOpWithStatement(stmt, newInsert); err != nil {
		return rw.NotifyMatchFailure(stmt, "%v", err)
	}
	return true
}

// FoldPaddingExpandIntoInsert makes an InsertSlice (or ParallelInsertSlice) of an ExpandShape that only adds
// dimensions of static size 1 insert the expand operand directly. The insertion is modified in place.
//
//	%1 = ExpandShape(%0) [[0, 1]] : [4] -> [1, 4]
//	%3 = InsertSlice(%1, %2) sizes=[1, 4] : [1, 4] into [8, 4]
//
// becomes
//
//	%3 = InsertSlice(%0, %2) sizes=[1, 4] : [4] into [8, 4]
type FoldPaddingExpandIntoInsert struct{}

var _ rewrite.Pattern = FoldPaddingExpandIntoInsert{}

func (FoldPaddingExpandIntoInsert) Name() string { return "FoldPaddingExpandIntoInsert" }

func (FoldPaddingExpandIntoInsert) RootOps() []tensorir.OpType { return insertRootOps }

func (p FoldPaddingExpandIntoInsert) MatchAndRewrite(stmt *tensorir.Statement, rw *rewrite.Rewriter) bool {
	insert := tensorir.AsInsertSliceLike(stmt)
	if insert == nil {
		return false
	}
	expand := tensorir.AsExpandShape(insert.Source().DefiningOp())
	if expand == nil {
		return false
	}

	if !isPaddingExpansion(expand.SrcShape(), expand.ResultShape()) {
		return rw.NotifyMatchFailure(stmt, "expected rank increasing expansion")
	}

	err := rw.ModifyOpInPlace(stmt, func() error {
		return stmt.Function.SetOperand(stmt, 0, expand.Src())
	})
	if err != nil {
		return rw.NotifyMatchFailure(stmt, "%v", err)
	}
	return true
}

// isPaddingExpansion returns whether expanding from src to result only adds dimensions of static size 1.
func isPaddingExpansion(src, result shapes.Shape) bool {
	switch shapeinference.Classify(src, result) {
	case shapeinference.RankIncreasedBySingletons, shapeinference.SameShape:
		return true
	default:
		return false
	}
}
