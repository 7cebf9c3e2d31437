package shapeinference

import (
	"github.com/gomlx/tensorir/types/shapes"
)

// Relation between two shapes that may differ only by singleton (static size 1) dimensions.
// See Classify.
type Relation int

//go:generate go tool enumer -type=Relation classify.go

const (
	// Mismatch means the shapes are not related by adding or removing singleton dimensions.
	Mismatch Relation = iota

	// SameShape means the shapes are equal.
	SameShape

	// RankReducedBySingletons means the target shape is the source shape with some static dimensions of size 1
	// removed.
	RankReducedBySingletons

	// RankIncreasedBySingletons means the target shape is the source shape with some static dimensions of size 1
	// inserted.
	RankIncreasedBySingletons
)

// Classify returns how the shape `to` relates to the shape `from`.
//
// The shapes are related iff there is an order-preserving alignment of the axes of the lower-rank shape into
// the higher-rank one, such that aligned dimensions are equal (a dynamic dimension only aligns with another
// dynamic dimension) and every non-aligned dimension of the higher-rank shape is a static 1.
// Shapes with different dtypes, or with the same rank but different dimensions, are a Mismatch.
//
// It is symmetric: Classify(a, b) == RankReducedBySingletons iff Classify(b, a) == RankIncreasedBySingletons.
func Classify(from, to shapes.Shape) Relation {
	if from.DType != to.DType {
		return Mismatch
	}
	switch {
	case from.Rank() == to.Rank():
		if from.Equal(to) {
			return SameShape
		}
		return Mismatch
	case from.Rank() > to.Rank():
		if alignsBySingletons(from.Dimensions, to.Dimensions) {
			return RankReducedBySingletons
		}
		return Mismatch
	default:
		if alignsBySingletons(to.Dimensions, from.Dimensions) {
			return RankIncreasedBySingletons
		}
		return Mismatch
	}
}

// IsRankReducedType returns whether reduced is the original shape with zero or more singleton dimensions removed.
func IsRankReducedType(original, reduced shapes.Shape) bool {
	relation := Classify(original, reduced)
	return relation == SameShape || relation == RankReducedBySingletons
}

// alignsBySingletons greedily aligns the lower-rank dimensions into the higher-rank ones.
//
// Matching a static 1 of the higher-rank side eagerly is always safe, since all unmatched 1s are interchangeable.
func alignsBySingletons(higher, lower []int) bool {
	lowerIdx := 0
	for _, dim := range higher {
		if lowerIdx < len(lower) && lower[lowerIdx] == dim {
			lowerIdx++
			continue
		}
		if dim != 1 {
			return false
		}
	}
	return lowerIdx == len(lower)
}
