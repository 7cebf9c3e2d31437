package reshapefold

import (
	"fmt"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir"
	"github.com/gomlx/tensorir/rewrite"
	"github.com/gomlx/tensorir/types"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/google/go-cmp/cmp"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Aliases for the tests.
var (
	F32 = dtypes.Float32
	S   = shapes.Make
	SD  = shapes.MakeDynamic
	G   = types.ReassociationFromGroupSizes
	I   = tensorir.StaticIndices
)

// applyAll applies all the patterns of the package to fn, checks the function is still valid, and that a second run
// makes no changes.
func applyAll(t *testing.T, fn *tensorir.Function) rewrite.Result {
	t.Helper()
	set := rewrite.NewPatternSet()
	Populate(set)
	result := must.M1(rewrite.ApplyPatternsGreedily(fn, set, nil))
	require.NoError(t, fn.Verify())

	again := must.M1(rewrite.ApplyPatternsGreedily(fn, set, nil))
	assert.False(t, again.Changed, "a second run should have nothing to rewrite")
	return result
}

// opTypes returns the operation types of the statements of fn.
func opTypes(fn *tensorir.Function) []tensorir.OpType {
	ops := make([]tensorir.OpType, len(fn.Statements))
	for i, stmt := range fn.Statements {
		ops[i] = stmt.OpType
	}
	return ops
}

func TestPopulate(t *testing.T) {
	set := rewrite.NewPatternSet()
	PopulateReassociativeReshapeFoldingPatterns(set)
	assert.Equal(t, 4, set.Len())
	PopulateBubbleUpExpandShapePatterns(set)
	require.Equal(t, 5, set.Len())

	all := rewrite.NewPatternSet()
	Populate(all)
	var names []string
	for _, p := range all.Patterns() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"FoldExpandOfRankReducingExtract",
		"FoldUnPaddingCollapseIntoExtract",
		"FoldInsertOfRankReducingInsert",
		"FoldPaddingExpandIntoInsert",
		"BubbleUpExpandThroughParallelCollapse",
	}, names)
	assert.Len(t, all.ForOp(tensorir.OpExpandShape), 2)
	assert.Len(t, all.ForOp(tensorir.OpCollapseShape), 1)
	assert.Len(t, all.ForOp(tensorir.OpInsertSlice), 2)
	assert.Len(t, all.ForOp(tensorir.OpParallelInsertSlice), 2)
	assert.Empty(t, all.ForOp(tensorir.OpAdd))
}

func TestFoldExpandOfRankReducingExtract(t *testing.T) {
	t.Run("fold", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 4))
		row := must.M1(tensorir.ExtractSliceWithShape(S(F32, 4), x, I(3, 0), I(1, 4), I(1, 1)))
		expanded := must.M1(tensorir.ExpandShape(row, G(2), I(1, 4)))
		require.NoError(t, fn.Return(expanded))

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["FoldExpandOfRankReducingExtract"])
		require.Equal(t, []tensorir.OpType{tensorir.OpExtractSlice, tensorir.OpFuncReturn}, opTypes(fn))
		extract := tensorir.AsExtractSlice(fn.Statements[0])
		assert.Equal(t, x, extract.Source())
		assert.Equal(t, S(F32, 1, 4), extract.ResultShape())
		assert.Equal(t, []int{3, 0}, extract.StaticOffsets())
		assert.Equal(t, []int{1, 4}, extract.StaticSizes())
	})

	t.Run("requires the exact non-reducing shape", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 32, 4))
		slice := must.M1(tensorir.ExtractSlice(x, I(0, 0), I(16, 4), I(1, 1)))
		expanded := must.M1(tensorir.ExpandShape(slice, G(1, 2), I(16, 1, 4)))
		require.NoError(t, fn.Return(expanded))
		before := b.String()

		result := applyAll(t, fn)
		assert.False(t, result.Changed)
		assert.Equal(t, before, b.String())

		rw := rewrite.NewRewriter(fn)
		assert.False(t, FoldExpandOfRankReducingExtract{}.MatchAndRewrite(expanded.DefiningOp(), rw))
		assert.Contains(t, rw.FailureReason(), "not the non-reducing slice shape")
	})

	t.Run("dynamic offsets", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 4))
		offset := must.M1(fn.ConstantIndex(5))
		row := must.M1(tensorir.ExtractSliceWithShape(S(F32, 4), x,
			[]tensorir.OpFoldResult{tensorir.Dynamic(offset), tensorir.Static(0)}, I(1, 4), I(1, 1)))
		expanded := must.M1(tensorir.ExpandShape(row, G(2), I(1, 4)))
		require.NoError(t, fn.Return(expanded))

		applyAll(t, fn)
		require.Equal(t, []tensorir.OpType{tensorir.OpConstant, tensorir.OpExtractSlice, tensorir.OpFuncReturn}, opTypes(fn))
		extract := tensorir.AsExtractSlice(fn.Statements[1])
		assert.Equal(t, []tensorir.OpFoldResult{tensorir.Dynamic(offset), tensorir.Static(0)}, extract.MixedOffsets())
	})
}

func TestFoldUnPaddingCollapseIntoExtract(t *testing.T) {
	t.Run("fold", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 2, 4))
		slice := must.M1(tensorir.ExtractSlice(x, I(0, 1, 0), I(8, 1, 4), I(1, 1, 1)))
		collapsed := must.M1(tensorir.CollapseShape(slice, G(1, 2)))
		require.NoError(t, fn.Return(collapsed))

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["FoldUnPaddingCollapseIntoExtract"])
		require.Equal(t, []tensorir.OpType{tensorir.OpExtractSlice, tensorir.OpFuncReturn}, opTypes(fn))
		extract := tensorir.AsExtractSlice(fn.Statements[0])
		assert.Equal(t, S(F32, 8, 4), extract.ResultShape())
		assert.Equal(t, []int{8, 1, 4}, extract.StaticSizes())
		assert.Equal(t, x, extract.Source())
	})

	t.Run("extract with other uses", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 2, 4))
		slice := must.M1(tensorir.ExtractSlice(x, I(0, 1, 0), I(8, 1, 4), I(1, 1, 1)))
		collapsed := must.M1(tensorir.CollapseShape(slice, G(1, 2)))
		sum := must.M1(tensorir.Add(slice, slice))
		require.NoError(t, fn.Return(collapsed, sum))
		before := b.String()

		result := applyAll(t, fn)
		assert.False(t, result.Changed)
		assert.Equal(t, before, b.String())
	})

	t.Run("not an unpadding collapse", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 2, 4))
		slice := must.M1(tensorir.ExtractSlice(x, I(0, 0, 0), I(4, 2, 4), I(2, 1, 1)))
		collapsed := must.M1(tensorir.CollapseShape(slice, G(1, 2)))
		require.NoError(t, fn.Return(collapsed))

		rw := rewrite.NewRewriter(fn)
		assert.False(t, FoldUnPaddingCollapseIntoExtract{}.MatchAndRewrite(collapsed.DefiningOp(), rw))
		assert.Equal(t, "expected unpadding collapse", rw.FailureReason())
		assert.False(t, applyAll(t, fn).Changed)
	})
}

func TestFoldInsertOfRankReducingInsert(t *testing.T) {
	t.Run("InsertSlice", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		row := fn.Input(S(F32, 1, 4))
		collapsed := must.M1(tensorir.CollapseShape(row, G(2)))
		inserted := must.M1(tensorir.InsertSlice(collapsed, dest, I(6, 0), I(1, 4), I(1, 1)))
		require.NoError(t, fn.Return(inserted))

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["FoldInsertOfRankReducingInsert"])
		require.Equal(t, []tensorir.OpType{tensorir.OpInsertSlice, tensorir.OpFuncReturn}, opTypes(fn))
		insert := tensorir.AsInsertSlice(fn.Statements[0])
		assert.Equal(t, row, insert.Source())
		assert.Equal(t, dest, insert.Dest())
		assert.Equal(t, []int{6, 0}, insert.StaticOffsets())
		assert.Equal(t, insert.Result(), fn.Statements[1].Inputs[0])
	})

	t.Run("ParallelInsertSlice", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		body := fn.Closure()
		row := body.Input(S(F32, 1, 4))
		collapsed := must.M1(tensorir.CollapseShape(row, G(2)))
		_ = must.M1(body.ParallelInsertSlice(collapsed, dest, I(6, 0), I(1, 4), I(1, 1)))
		require.NoError(t, fn.Return(dest))

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["FoldInsertOfRankReducingInsert"])
		require.Equal(t, []tensorir.OpType{tensorir.OpParallelInsertSlice}, opTypes(body))
		insert := tensorir.AsParallelInsertSlice(body.Statements[0])
		assert.Equal(t, row, insert.Source())
		assert.Equal(t, dest, insert.Dest())
	})

	t.Run("collapse source doesn't match the slice", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		row := fn.Input(S(F32, 4, 1))
		collapsed := must.M1(tensorir.CollapseShape(row, G(2)))
		inserted := must.M1(tensorir.InsertSlice(collapsed, dest, I(6, 0), I(1, 4), I(1, 1)))
		require.NoError(t, fn.Return(inserted))
		assert.False(t, applyAll(t, fn).Changed)
	})
}

func TestFoldPaddingExpandIntoInsert(t *testing.T) {
	t.Run("InsertSlice", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		row := fn.Input(S(F32, 4))
		padded := must.M1(tensorir.ExpandShape(row, G(2), I(1, 4)))
		inserted := must.M1(tensorir.InsertSlice(padded, dest, I(2, 0), I(1, 4), I(1, 1)))
		require.NoError(t, fn.Return(inserted))
		insertStmt := inserted.DefiningOp()

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["FoldPaddingExpandIntoInsert"])
		require.Equal(t, []tensorir.OpType{tensorir.OpInsertSlice, tensorir.OpFuncReturn}, opTypes(fn))
		assert.Same(t, insertStmt, fn.Statements[0], "statement must be modified in place")
		assert.Equal(t, row, insertStmt.Inputs[0])
		assert.Equal(t, inserted, fn.Statements[1].Inputs[0])
	})

	t.Run("ParallelInsertSlice", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		row := fn.Input(S(F32, 4))
		padded := must.M1(tensorir.ExpandShape(row, G(2), I(1, 4)))
		body := fn.Closure()
		insertStmt := must.M1(body.ParallelInsertSlice(padded, dest, I(2, 0), I(1, 4), I(1, 1)))
		require.NoError(t, fn.Return(dest))

		applyAll(t, fn)
		require.Equal(t, []tensorir.OpType{tensorir.OpFuncReturn}, opTypes(fn), "the dead ExpandShape is erased")
		require.Len(t, body.Statements, 1)
		assert.Same(t, insertStmt, body.Statements[0])
		assert.Equal(t, row, insertStmt.Inputs[0])
	})

	t.Run("not a rank increasing expansion", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 2))
		row := fn.Input(S(F32, 4))
		split := must.M1(tensorir.ExpandShape(row, G(2), I(2, 2)))
		inserted := must.M1(tensorir.InsertSlice(split, dest, I(0, 0), I(2, 2), I(1, 1)))
		require.NoError(t, fn.Return(inserted))

		rw := rewrite.NewRewriter(fn)
		assert.False(t, FoldPaddingExpandIntoInsert{}.MatchAndRewrite(inserted.DefiningOp(), rw))
		assert.Equal(t, "expected rank increasing expansion", rw.FailureReason())
		assert.False(t, applyAll(t, fn).Changed)
	})
}

func TestBubbleUpExpandThroughParallelCollapse(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		b := tensorir.New("bubble_up")
		fn := b.Main()
		x := fn.Input(S(F32, 2, 3, 4))
		collapsed := must.M1(tensorir.CollapseShape(x, G(2, 1)))
		expanded := must.M1(tensorir.ExpandShape(collapsed, G(1, 2), I(6, 2, 2)))
		require.NoError(t, fn.Return(expanded))

		result := applyAll(t, fn)
		assert.Equal(t, 1, result.PerPattern["BubbleUpExpandThroughParallelCollapse"])
		program := string(must.M1(b.Build()))
		fmt.Printf("%s program:\n%s", t.Name(), program)
		want := `module @bubble_up {
  func.func @main(%arg0: tensor<2x3x4xf32>) -> tensor<6x2x2xf32> {
    %2 = "tensor.expand_shape"(%arg0) {reassociation = [[0], [1], [2, 3]], static_output_shape = array<i64: 2, 3, 2, 2>} : (tensor<2x3x4xf32>) -> tensor<2x3x2x2xf32>
    %3 = "tensor.collapse_shape"(%2) {reassociation = [[0, 1], [2], [3]]} : (tensor<2x3x2x2xf32>) -> tensor<6x2x2xf32>
    "func.return"(%3) : (tensor<6x2x2xf32>) -> ()
  }
}
`
		if diff := cmp.Diff(want, program); diff != "" {
			t.Errorf("program mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("split then collapse", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 6, 2, 2))
		collapsed := must.M1(tensorir.CollapseShape(x, G(1, 2)))
		expanded := must.M1(tensorir.ExpandShape(collapsed, G(2, 1), I(2, 3, 4)))
		require.NoError(t, fn.Return(expanded))

		applyAll(t, fn)
		require.Equal(t, []tensorir.OpType{tensorir.OpExpandShape, tensorir.OpCollapseShape, tensorir.OpFuncReturn}, opTypes(fn))
		expand := tensorir.AsExpandShape(fn.Statements[0])
		assert.Equal(t, x, expand.Src())
		assert.Equal(t, S(F32, 2, 3, 2, 2), expand.ResultShape())
		collapse := tensorir.AsCollapseShape(fn.Statements[1])
		assert.Equal(t, types.Reassociation{{0}, {1}, {2, 3}}, collapse.Reassociation())
		assert.Equal(t, S(F32, 2, 3, 4), collapse.ResultShape())
	})

	t.Run("dynamic", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(SD(F32, "n", 3, 4))
		collapsed := must.M1(tensorir.CollapseShape(x, G(2, 1)))
		n := must.M1(tensorir.Dim(collapsed, 0))
		expanded := must.M1(tensorir.ExpandShape(collapsed, G(1, 2),
			[]tensorir.OpFoldResult{tensorir.Dynamic(n), tensorir.Static(2), tensorir.Static(2)}))
		require.NoError(t, fn.Return(expanded))

		applyAll(t, fn)
		require.Equal(t, []tensorir.OpType{
			tensorir.OpDim, tensorir.OpExpandShape, tensorir.OpCollapseShape, tensorir.OpFuncReturn}, opTypes(fn))
		dim := fn.Statements[0]
		assert.Equal(t, x, dim.Inputs[0], "the dynamic extent is read from the collapse source")
		assert.Equal(t, 0, dim.Attributes[tensorir.AttrIndex])
		expand := tensorir.AsExpandShape(fn.Statements[1])
		assert.Equal(t, SD(F32, "n", 3, 2, 2), expand.ResultShape())
		assert.Equal(t, []tensorir.OpFoldResult{
			tensorir.Dynamic(dim.Result()), tensorir.Static(3), tensorir.Static(2), tensorir.Static(2)},
			expand.MixedOutputShape())
		assert.Equal(t, SD(F32, "n", 2, 2), fn.Statements[2].Result().Shape())
	})

	t.Run("intersecting reassociations", func(t *testing.T) {
		b := tensorir.New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 2, 3, 4))
		collapsed := must.M1(tensorir.CollapseShape(x, G(2, 1)))
		expanded := must.M1(tensorir.ExpandShape(collapsed, G(2, 1), I(3, 2, 4)))
		require.NoError(t, fn.Return(expanded))
		before := b.String()

		assert.False(t, applyAll(t, fn).Changed)
		assert.Equal(t, before, b.String())
	})
}

func TestChainOfRewrites(t *testing.T) {
	// The padding expansion is folded into the insertion first, which then inserts a collapse that cancels out.
	b := tensorir.New(t.Name())
	fn := b.Main()
	x := fn.Input(S(F32, 8, 2, 4))
	dest := fn.Input(S(F32, 16, 16))
	slice := must.M1(tensorir.ExtractSlice(x, I(3, 0, 0), I(1, 2, 4), I(1, 1, 1)))
	collapsed := must.M1(tensorir.CollapseShape(slice, G(1, 2)))
	row := must.M1(tensorir.CollapseShape(collapsed, G(2)))
	padded := must.M1(tensorir.ExpandShape(row, G(2), I(1, 8)))
	inserted := must.M1(tensorir.InsertSlice(padded, dest, I(0, 0), I(1, 8), I(1, 2)))
	require.NoError(t, fn.Return(inserted))

	result := applyAll(t, fn)
	assert.Equal(t, map[string]int{
		"FoldPaddingExpandIntoInsert":    1,
		"FoldInsertOfRankReducingInsert": 1,
	}, result.PerPattern)
	require.Equal(t, []tensorir.OpType{
		tensorir.OpExtractSlice, tensorir.OpCollapseShape, tensorir.OpInsertSlice, tensorir.OpFuncReturn}, opTypes(fn))
	insert := tensorir.AsInsertSlice(fn.Statements[2])
	assert.Equal(t, collapsed, insert.Source())
	assert.Equal(t, insert.Result(), fn.Statements[3].Inputs[0])
	assert.True(t, padded.DefiningOp().IsErased())
	assert.True(t, row.DefiningOp().IsErased())
}
