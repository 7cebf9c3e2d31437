// Package reshapefold holds rewrite patterns that simplify chains of rank-changing tensor operations:
// ExpandShape and CollapseShape feeding (or fed by) ExtractSlice, InsertSlice and ParallelInsertSlice.
//
// The patterns only remove or add dimensions of static size 1, or reorder an ExpandShape with a CollapseShape
// that don't interact, so they never change the values computed. Each pattern is a one-shot local rewrite: to
// simplify a whole function, populate a rewrite.PatternSet and run rewrite.ApplyPatternsGreedily:
//
//	set := rewrite.NewPatternSet()
//	reshapefold.Populate(set)
//	result, err := rewrite.ApplyPatternsGreedily(fn, set, nil)
package reshapefold

import (
	"github.com/gomlx/tensorir/rewrite"
)

// PopulateReassociativeReshapeFoldingPatterns adds the patterns that fold ExpandShape and CollapseShape into
// ExtractSlice, InsertSlice and ParallelInsertSlice.
func PopulateReassociativeReshapeFoldingPatterns(set *rewrite.PatternSet) {
	set.Add(
		FoldExpandOfRankReducingExtract{},
		FoldUnPaddingCollapseIntoExtract{},
		FoldInsertOfRankReducingInsert{},
		FoldPaddingExpandIntoInsert{},
	)
}

// PopulateBubbleUpExpandShapePatterns adds the pattern that moves an ExpandShape above a CollapseShape that acts on
// different dimensions.
func PopulateBubbleUpExpandShapePatterns(set *rewrite.PatternSet) {
	set.Add(BubbleUpExpandThroughParallelCollapse{})
}

// Populate adds all the patterns of the package.
func Populate(set *rewrite.PatternSet) {
	PopulateReassociativeReshapeFoldingPatterns(set)
	PopulateBubbleUpExpandShapePatterns(set)
}
