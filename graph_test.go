package tensorir

import (
	"slices"
	"testing"

	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	inserted, erased []*Statement
}

func (l *recordingListener) NotifyStatementInserted(stmt *Statement) {
	l.inserted = append(l.inserted, stmt)
}

func (l *recordingListener) NotifyStatementErased(stmt *Statement) {
	l.erased = append(l.erased, stmt)
}

func TestUses(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	x := fn.Input(S(F32, 8, 1, 4))
	collapsed := must.M1(CollapseShape(x, G(1, 2)))
	sum := must.M1(Add(collapsed, collapsed))
	body := fn.Closure()
	_ = must.M1(body.ParallelInsertSlice(collapsed, collapsed, StaticIndices(0, 0), StaticIndices(8, 4), StaticIndices(1, 1)))

	assert.Nil(t, x.DefiningOp())
	assert.Equal(t, optypes.CollapseShape, collapsed.DefiningOp().OpType)
	assert.True(t, x.HasOneUse())
	uses := collapsed.Uses()
	require.Len(t, uses, 4)
	assert.Equal(t, Use{Statement: sum.DefiningOp(), OperandIndex: 0}, uses[0])
	assert.Equal(t, Use{Statement: sum.DefiningOp(), OperandIndex: 1}, uses[1])
	assert.Equal(t, 1, uses[3].OperandIndex)
	assert.Equal(t, body, uses[3].Statement.Function)
	assert.True(t, sum.IsUnused())
	assert.True(t, IsTriviallyDead(sum.DefiningOp()))
	assert.False(t, IsTriviallyDead(collapsed.DefiningOp()))
}

func TestInsertionPoint(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	x := fn.Input(S(F32, 8, 4))
	expanded := must.M1(ExpandShape(x, G(1, 2), StaticIndices(8, 1, 4)))
	require.NoError(t, fn.Return(expanded))

	listener := &recordingListener{}
	b.SetListener(listener)
	require.NoError(t, b.SetInsertionPoint(expanded.DefiningOp()))
	dim := must.M1(Dim(x, -1))
	b.ClearInsertionPoint()
	b.SetListener(nil)

	require.Len(t, fn.Statements, 3)
	assert.Equal(t, dim.DefiningOp(), fn.Statements[0], "Dim should be inserted before the ExpandShape")
	assert.Equal(t, 1, dim.DefiningOp().Attributes[AttrIndex])
	assert.Equal(t, []*Statement{dim.DefiningOp()}, listener.inserted)
	require.NoError(t, fn.Verify())

	// Appending after return fails without an insertion point.
	_, err := Dim(x, 0)
	require.Error(t, err)
}

func TestGraphSurgery(t *testing.T) {
	t.Run("ReplaceAllUsesWith", func(t *testing.T) {
		b := New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 4))
		y := fn.Input(S(F32, 8, 4))
		z := fn.Input(S(F32, 4, 8))
		sum := must.M1(Add(x, x))
		require.NoError(t, fn.Return(sum))

		require.Error(t, fn.ReplaceAllUsesWith(x, z), "shapes differ")
		require.NoError(t, fn.ReplaceAllUsesWith(x, y))
		assert.True(t, x.IsUnused())
		assert.Equal(t, 2, y.NumUses())
		assert.Equal(t, []*Value{y, y}, sum.DefiningOp().Inputs)
		require.NoError(t, fn.Verify())
	})

	t.Run("SetOperand", func(t *testing.T) {
		b := New(t.Name())
		fn := b.Main()
		dest := fn.Input(S(F32, 8, 4))
		row := fn.Input(S(F32, 4))
		padded := must.M1(ExpandShape(row, G(2), StaticIndices(1, 4)))
		inserted := must.M1(InsertSlice(padded, dest, StaticIndices(3, 0), StaticIndices(1, 4), StaticIndices(1, 1)))
		require.NoError(t, fn.Return(inserted))

		stmt := inserted.DefiningOp()
		require.NoError(t, fn.SetOperand(stmt, 0, row))
		assert.Equal(t, row, stmt.Inputs[0])
		require.NoError(t, fn.Verify())

		// A source that doesn't fit the slice is refused, and the statement is left unchanged.
		require.Error(t, fn.SetOperand(stmt, 0, dest))
		assert.Equal(t, row, stmt.Inputs[0])
		require.Error(t, fn.SetOperand(stmt, 7, row))
	})

	t.Run("Erase", func(t *testing.T) {
		b := New(t.Name())
		fn := b.Main()
		x := fn.Input(S(F32, 8, 1, 4))
		collapsed := must.M1(CollapseShape(x, G(1, 2)))
		sum := must.M1(Add(collapsed, collapsed))
		require.NoError(t, fn.Return(x))

		listener := &recordingListener{}
		b.SetListener(listener)
		defer b.SetListener(nil)
		require.Error(t, fn.Erase(collapsed.DefiningOp()), "collapsed is still used")
		require.Error(t, fn.Erase(fn.Statements[len(fn.Statements)-1]), "return can't be erased")
		sumStmt := sum.DefiningOp()
		require.NoError(t, fn.Erase(sumStmt))
		assert.True(t, sumStmt.IsErased())
		require.NoError(t, fn.Erase(collapsed.DefiningOp()))
		assert.Len(t, fn.Statements, 1)
		assert.Len(t, listener.erased, 2)
		require.Error(t, fn.Erase(sumStmt), "already erased")
		require.NoError(t, fn.Verify())
	})
}

func TestVerify(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	x := fn.Input(S(F32, 8, 1, 4))
	collapsed := must.M1(CollapseShape(x, G(1, 2)))
	sum := must.M1(Add(collapsed, collapsed))
	require.NoError(t, fn.Return(sum))
	require.NoError(t, fn.Verify())

	// Corrupt the program: two independent problems should both be reported.
	collapsed.DefiningOp().Attributes[AttrReassociation] = G(1, 1, 1)
	fn.Statements[0], fn.Statements[1] = fn.Statements[1], fn.Statements[0]
	err := fn.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used before being defined")
	assert.Contains(t, err.Error(), "CollapseShape")
}

func TestVerifyTrackedValues(t *testing.T) {
	b := New(t.Name())
	fn := b.Main()
	x := fn.Input(S(F32, 8, 1, 4))
	collapsed := must.M1(CollapseShape(x, G(1, 2)))
	unused := must.M1(Add(x, x))
	require.NoError(t, fn.Return(collapsed))
	require.NoError(t, fn.Verify())

	// Dropping a statement without Erase leaves its output tracked.
	fn.Statements = slices.DeleteFunc(fn.Statements, func(stmt *Statement) bool { return stmt == unused.DefiningOp() })
	err := fn.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not defined by any of its statements")

	// Untracking the dangling value fixes it, but a live output must stay tracked.
	fn.values = slices.DeleteFunc(fn.values, func(v *Value) bool { return v == unused })
	require.NoError(t, fn.Verify())
	fn.values = slices.DeleteFunc(fn.values, func(v *Value) bool { return v == collapsed })
	err = fn.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not tracked by the function")
}
