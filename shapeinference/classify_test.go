package shapeinference

import (
	"testing"

	"github.com/gomlx/tensorir/types/shapes"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		from, to shapes.Shape
		want     Relation
	}{
		{"same", S(F32, 8, 4), S(F32, 8, 4), SameShape},
		{"same scalar", S(F32), S(F32), SameShape},
		{"drop middle", S(F32, 8, 1, 4), S(F32, 8, 4), RankReducedBySingletons},
		{"drop all", S(F32, 1, 1), S(F32), RankReducedBySingletons},
		{"drop leading", S(F32, 1, 1, 4), S(F32, 1, 4), RankReducedBySingletons},
		{"insert", S(F32, 16, 4), S(F32, 16, 1, 4), RankIncreasedBySingletons},
		{"insert trailing", S(F32, 4), S(F32, 4, 1, 1), RankIncreasedBySingletons},
		{"dynamic aligned", SD(F32, "?", 1, 4), SD(F32, "?", 4), RankReducedBySingletons},
		{"dynamic not a singleton", SD(F32, 8, "?", 4), S(F32, 8, 4), Mismatch},
		{"dynamic vs static", SD(F32, "?", 4), S(F32, 8, 4), Mismatch},
		{"equal rank different dims", S(F32, 8, 4), S(F32, 4, 8), Mismatch},
		{"non singleton dropped", S(F32, 8, 2, 4), S(F32, 8, 4), Mismatch},
		{"reordered", S(F32, 4, 1, 8), S(F32, 8, 4), Mismatch},
		{"dtype", S(F32, 8, 1, 4), S(I32, 8, 4), Mismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.from, tc.to), "Classify(%s, %s)", tc.from, tc.to)
		})
	}
}

func TestClassifySymmetry(t *testing.T) {
	pairs := [][2]shapes.Shape{
		{S(F32, 8, 1, 4), S(F32, 8, 4)},
		{S(F32, 1, 1, 1), S(F32, 1)},
		{SD(F32, 1, "?", 1, 3), SD(F32, "?", 3)},
		{S(F32, 2, 1), S(F32, 2)},
		{S(F32, 8, 2, 4), S(F32, 8, 4)},
		{S(F32, 8, 4), S(F32, 8, 4)},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		assert.Equal(t, Classify(a, b) == RankReducedBySingletons, Classify(b, a) == RankIncreasedBySingletons,
			"symmetry broken for %s and %s", a, b)
		assert.Equal(t, Classify(b, a) == RankReducedBySingletons, Classify(a, b) == RankIncreasedBySingletons,
			"symmetry broken for %s and %s", b, a)
	}
}

func TestIsRankReducedType(t *testing.T) {
	assert.True(t, IsRankReducedType(S(F32, 8, 1, 4), S(F32, 8, 4)))
	assert.True(t, IsRankReducedType(S(F32, 8, 4), S(F32, 8, 4)))
	assert.False(t, IsRankReducedType(S(F32, 8, 4), S(F32, 8, 1, 4)))
	assert.Equal(t, "RankReducedBySingletons", RankReducedBySingletons.String())
}
