package tensorir

import (
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/types"
	"github.com/gomlx/tensorir/types/shapes"
)

// ExpandShapeOp is a typed view of an ExpandShape statement.
type ExpandShapeOp struct {
	stmt *Statement
}

// AsExpandShape returns a typed view of stmt, or nil if stmt is nil or not an ExpandShape.
func AsExpandShape(stmt *Statement) *ExpandShapeOp {
	if stmt == nil || stmt.OpType != optypes.ExpandShape {
		return nil
	}
	return &ExpandShapeOp{stmt: stmt}
}

// Op returns the underlying statement.
func (op *ExpandShapeOp) Op() *Statement { return op.stmt }

// Src is the value being expanded.
func (op *ExpandShapeOp) Src() *Value { return op.stmt.Inputs[0] }

// Result of the expansion.
func (op *ExpandShapeOp) Result() *Value { return op.stmt.Outputs[0] }

func (op *ExpandShapeOp) SrcShape() shapes.Shape    { return op.Src().shape }
func (op *ExpandShapeOp) ResultShape() shapes.Shape { return op.Result().shape }

// Reassociation maps each source axis to the group of result axes.
func (op *ExpandShapeOp) Reassociation() types.Reassociation {
	return op.stmt.Attributes[AttrReassociation].(types.Reassociation)
}

// StaticOutputShape returns the result dimensions, with shapes.DimDynamic for the ones given dynamically.
func (op *ExpandShapeOp) StaticOutputShape() []int {
	return op.stmt.Attributes[AttrStaticOutputShape].([]int)
}

// MixedOutputShape returns the result dimensions, static or dynamic.
func (op *ExpandShapeOp) MixedOutputShape() []OpFoldResult {
	return getMixedValues(op.StaticOutputShape(), op.stmt.Inputs[1:])
}

// CollapseShapeOp is a typed view of a CollapseShape statement.
type CollapseShapeOp struct {
	stmt *Statement
}

// AsCollapseShape returns a typed view of stmt, or nil if stmt is nil or not a CollapseShape.
func AsCollapseShape(stmt *Statement) *CollapseShapeOp {
	if stmt == nil || stmt.OpType != optypes.CollapseShape {
		return nil
	}
	return &CollapseShapeOp{stmt: stmt}
}

func (op *CollapseShapeOp) Op() *Statement            { return op.stmt }
func (op *CollapseShapeOp) Src() *Value               { return op.stmt.Inputs[0] }
func (op *CollapseShapeOp) Result() *Value            { return op.stmt.Outputs[0] }
func (op *CollapseShapeOp) SrcShape() shapes.Shape    { return op.Src().shape }
func (op *CollapseShapeOp) ResultShape() shapes.Shape { return op.Result().shape }

// Reassociation maps each result axis to the group of source axes merged into it.
func (op *CollapseShapeOp) Reassociation() types.Reassociation {
	return op.stmt.Attributes[AttrReassociation].(types.Reassociation)
}

// sliceView holds the accessors shared by the slice operations.
// The dynamic offsets, sizes and strides are the operands starting at dynamicStart.
type sliceView struct {
	stmt         *Statement
	dynamicStart int
}

// Op returns the underlying statement.
func (v sliceView) Op() *Statement { return v.stmt }

func (v sliceView) StaticOffsets() []int { return v.stmt.Attributes[AttrStaticOffsets].([]int) }
func (v sliceView) StaticSizes() []int   { return v.stmt.Attributes[AttrStaticSizes].([]int) }
func (v sliceView) StaticStrides() []int { return v.stmt.Attributes[AttrStaticStrides].([]int) }

func (v sliceView) MixedOffsets() []OpFoldResult {
	start := v.dynamicStart
	return getMixedValues(v.StaticOffsets(), v.stmt.Inputs[start:])
}

func (v sliceView) MixedSizes() []OpFoldResult {
	start := v.dynamicStart + countDynamic(v.StaticOffsets())
	return getMixedValues(v.StaticSizes(), v.stmt.Inputs[start:])
}

func (v sliceView) MixedStrides() []OpFoldResult {
	start := v.dynamicStart + countDynamic(v.StaticOffsets()) + countDynamic(v.StaticSizes())
	return getMixedValues(v.StaticStrides(), v.stmt.Inputs[start:])
}

// numDynamicOperands is the number of operands expected after dynamicStart.
func (v sliceView) numDynamicOperands() int {
	return countDynamic(v.StaticOffsets()) + countDynamic(v.StaticSizes()) + countDynamic(v.StaticStrides())
}

// ExtractSliceOp is a typed view of an ExtractSlice statement.
type ExtractSliceOp struct {
	sliceView
}

// AsExtractSlice returns a typed view of stmt, or nil if stmt is nil or not an ExtractSlice.
func AsExtractSlice(stmt *Statement) *ExtractSliceOp {
	if stmt == nil || stmt.OpType != optypes.ExtractSlice {
		return nil
	}
	return &ExtractSliceOp{sliceView{stmt: stmt, dynamicStart: 1}}
}

func (op *ExtractSliceOp) Source() *Value            { return op.stmt.Inputs[0] }
func (op *ExtractSliceOp) Result() *Value            { return op.stmt.Outputs[0] }
func (op *ExtractSliceOp) SourceShape() shapes.Shape { return op.Source().shape }
func (op *ExtractSliceOp) ResultShape() shapes.Shape { return op.Result().shape }

// InsertSliceLike is implemented by the views of InsertSlice and ParallelInsertSlice, which share the same shape
// semantics.
type InsertSliceLike interface {
	// Op returns the underlying statement.
	Op() *Statement

	// Source is the value inserted.
	Source() *Value

	// Dest is the tensor where Source is inserted.
	Dest() *Value

	StaticSizes() []int
	MixedOffsets() []OpFoldResult
	MixedSizes() []OpFoldResult
	MixedStrides() []OpFoldResult

	// CloneWithSource creates a new statement of the same kind, with the same destination and parameters, but
	// inserting src instead. It is created at the builder's insertion point.
	CloneWithSource(src *Value) (*Statement, error)
}

// AsInsertSliceLike returns a view of an InsertSlice or ParallelInsertSlice statement, or nil for other statements.
func AsInsertSliceLike(stmt *Statement) InsertSliceLike {
	if insert := AsInsertSlice(stmt); insert != nil {
		return insert
	}
	if insert := AsParallelInsertSlice(stmt); insert != nil {
		return insert
	}
	return nil
}

// InsertSliceOp is a typed view of an InsertSlice statement.
type InsertSliceOp struct {
	sliceView
}

var _ InsertSliceLike = (*InsertSliceOp)(nil)

// AsInsertSlice returns a typed view of stmt, or nil if stmt is nil or not an InsertSlice.
func AsInsertSlice(stmt *Statement) *InsertSliceOp {
	if stmt == nil || stmt.OpType != optypes.InsertSlice {
		return nil
	}
	return &InsertSliceOp{sliceView{stmt: stmt, dynamicStart: 2}}
}

func (op *InsertSliceOp) Source() *Value { return op.stmt.Inputs[0] }
func (op *InsertSliceOp) Dest() *Value   { return op.stmt.Inputs[1] }
func (op *InsertSliceOp) Result() *Value { return op.stmt.Outputs[0] }

// CloneWithSource implements InsertSliceLike.
func (op *InsertSliceOp) CloneWithSource(src *Value) (*Statement, error) {
	result, err := InsertSlice(src, op.Dest(), op.MixedOffsets(), op.MixedSizes(), op.MixedStrides())
	if err != nil {
		return nil, err
	}
	return result.stmt, nil
}

// ParallelInsertSliceOp is a typed view of a ParallelInsertSlice statement.
type ParallelInsertSliceOp struct {
	sliceView
}

var _ InsertSliceLike = (*ParallelInsertSliceOp)(nil)

// AsParallelInsertSlice returns a typed view of stmt, or nil if stmt is nil or not a ParallelInsertSlice.
func AsParallelInsertSlice(stmt *Statement) *ParallelInsertSliceOp {
	if stmt == nil || stmt.OpType != optypes.ParallelInsertSlice {
		return nil
	}
	return &ParallelInsertSliceOp{sliceView{stmt: stmt, dynamicStart: 2}}
}

func (op *ParallelInsertSliceOp) Source() *Value { return op.stmt.Inputs[0] }
func (op *ParallelInsertSliceOp) Dest() *Value   { return op.stmt.Inputs[1] }

// CloneWithSource implements InsertSliceLike.
func (op *ParallelInsertSliceOp) CloneWithSource(src *Value) (*Statement, error) {
	return op.stmt.Function.ParallelInsertSlice(src, op.Dest(), op.MixedOffsets(), op.MixedSizes(), op.MixedStrides())
}
