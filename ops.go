package tensorir

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/shapeinference"
	"github.com/gomlx/tensorir/types"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// Attribute names used by the tensor operations.
const (
	AttrReassociation     = "reassociation"
	AttrStaticOutputShape = "static_output_shape"
	AttrStaticOffsets     = "static_offsets"
	AttrStaticSizes       = "static_sizes"
	AttrStaticStrides     = "static_strides"
	AttrIndex             = "index"
)

// Empty creates an uninitialized tensor of the given shape.
// One scalar Int64 value must be given for each dynamic dimension of the shape, in order.
func (fn *Function) Empty(shape shapes.Shape, dynamicDims ...*Value) (*Value, error) {
	op := optypes.Empty
	if !shape.Ok() {
		return nil, errors.Errorf("%s: invalid shape %s", op, shape)
	}
	if numDynamic := shape.NumDynamicDims(); numDynamic != len(dynamicDims) {
		return nil, errors.Errorf("%s: shape %s has %d dynamic dimensions, but %d values were given",
			op, shape, numDynamic, len(dynamicDims))
	}
	if err := checkIndexValues(op, dynamicDims); err != nil {
		return nil, err
	}
	stmt, err := newStatement(fn, op, []shapes.Shape{shape.Clone()}, dynamicDims...)
	if err != nil {
		return nil, err
	}
	return stmt.Outputs[0], nil
}

// checkIndexValues checks that the values can be used as dynamic indices: scalar Int64.
func checkIndexValues(op optypes.OpType, values []*Value) error {
	indexShape := shapes.Make(dtypes.Int64)
	for i, v := range values {
		if v == nil {
			return errors.Errorf("%s: dynamic index #%d is nil", op, i)
		}
		if !v.shape.Equal(indexShape) {
			return errors.Errorf("%s: dynamic index #%d (%s) must be a scalar Int64, got %s", op, i, v, v.shape)
		}
	}
	return nil
}

// Dim returns the size of the given axis of x, as a scalar Int64 value.
// Negative axes are counted from the end.
func Dim(x *Value, axis int) (*Value, error) {
	op := optypes.Dim
	adjustedAxis, err := shapeinference.AdjustAxisToRank(axis, x.shape.Rank())
	if err != nil {
		return nil, errors.WithMessagef(err, "%s(%s, %d)", op, x.shape, axis)
	}
	stmt, err := newStatement(nil, op, []shapes.Shape{shapes.Make(dtypes.Int64)}, x)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = map[string]any{AttrIndex: adjustedAxis}
	return stmt.Outputs[0], nil
}

// Add returns the element-wise sum of lhs and rhs, which must have the same shape.
func Add(lhs, rhs *Value) (*Value, error) {
	op := optypes.Add
	if !lhs.shape.Equal(rhs.shape) {
		return nil, errors.Errorf("%s: operands must have the same shape, got %s and %s", op, lhs.shape, rhs.shape)
	}
	stmt, err := newStatement(nil, op, []shapes.Shape{lhs.shape.Clone()}, lhs, rhs)
	if err != nil {
		return nil, err
	}
	return stmt.Outputs[0], nil
}

// ExpandShape reshapes src to a higher rank: each axis of src is split into the group of output axes given by the
// reassociation.
//
// The outputShape has one entry per output axis, and dynamic entries are given as scalar Int64 values.
//
// Example: ExpandShape(x, [[0], [1, 2]], [8, 1, 4]) on x of shape [8, 4] returns a value of shape [8, 1, 4].
func ExpandShape(src *Value, reassociation types.Reassociation, outputShape []OpFoldResult) (*Value, error) {
	op := optypes.ExpandShape
	staticOutputShape, dynamicOutputShape, err := dispatchIndexOpFoldResults("output_shape", outputShape)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", op)
	}
	output, err := shapeinference.ExpandShape(src.shape, reassociation, staticOutputShape)
	if err != nil {
		return nil, err
	}
	inputs := append([]*Value{src}, dynamicOutputShape...)
	stmt, err := newStatement(nil, op, []shapes.Shape{output}, inputs...)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = map[string]any{
		AttrReassociation:     reassociation.Clone(),
		AttrStaticOutputShape: staticOutputShape,
	}
	return stmt.Outputs[0], nil
}

// CollapseShape reshapes src to a lower rank: each group of axes of the reassociation is merged into one output
// axis.
//
// Example: CollapseShape(x, [[0], [1, 2]]) on x of shape [8, 1, 4] returns a value of shape [8, 4].
func CollapseShape(src *Value, reassociation types.Reassociation) (*Value, error) {
	op := optypes.CollapseShape
	output, err := shapeinference.CollapseShape(src.shape, reassociation)
	if err != nil {
		return nil, err
	}
	stmt, err := newStatement(nil, op, []shapes.Shape{output}, src)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = map[string]any{AttrReassociation: reassociation.Clone()}
	return stmt.Outputs[0], nil
}

// sliceParams holds the offsets, sizes and strides of a slice operation, split in static and dynamic parts.
type sliceParams struct {
	staticOffsets, staticSizes, staticStrides    []int
	dynamicOffsets, dynamicSizes, dynamicStrides []*Value
}

func newSliceParams(op optypes.OpType, offsets, sizes, strides []OpFoldResult) (p sliceParams, err error) {
	p.staticOffsets, p.dynamicOffsets, err = dispatchIndexOpFoldResults("offsets", offsets)
	if err != nil {
		return p, errors.WithMessagef(err, "%s", op)
	}
	p.staticSizes, p.dynamicSizes, err = dispatchIndexOpFoldResults("sizes", sizes)
	if err != nil {
		return p, errors.WithMessagef(err, "%s", op)
	}
	p.staticStrides, p.dynamicStrides, err = dispatchIndexOpFoldResults("strides", strides)
	if err != nil {
		return p, errors.WithMessagef(err, "%s", op)
	}
	return p, nil
}

// operands returns the given leading operands followed by the dynamic parameters.
func (p sliceParams) operands(leading ...*Value) []*Value {
	operands := make([]*Value, 0, len(leading)+len(p.dynamicOffsets)+len(p.dynamicSizes)+len(p.dynamicStrides))
	operands = append(operands, leading...)
	operands = append(operands, p.dynamicOffsets...)
	operands = append(operands, p.dynamicSizes...)
	operands = append(operands, p.dynamicStrides...)
	return operands
}

func (p sliceParams) attributes() map[string]any {
	return map[string]any{
		AttrStaticOffsets: p.staticOffsets,
		AttrStaticSizes:   p.staticSizes,
		AttrStaticStrides: p.staticStrides,
	}
}

// ExtractSlice extracts the sub-tensor of src starting at offsets, with the given sizes and strides (one entry
// per axis of src). The result has the same rank as src, with the dimensions given by sizes.
//
// See ExtractSliceWithShape for a rank-reducing version.
func ExtractSlice(src *Value, offsets, sizes, strides []OpFoldResult) (*Value, error) {
	op := optypes.ExtractSlice
	params, err := newSliceParams(op, offsets, sizes, strides)
	if err != nil {
		return nil, err
	}
	output, err := shapeinference.ExtractSlice(src.shape, params.staticOffsets, params.staticSizes, params.staticStrides)
	if err != nil {
		return nil, err
	}
	return addExtractSlice(src, params, output)
}

// ExtractSliceWithShape is like ExtractSlice, but the result shape is given explicitly: it can be the natural
// result shape, or a rank-reduced version of it, with dimensions of static size 1 dropped.
//
// Example: extracting sizes [1, 4] from a [8, 4] tensor with resultShape [4] returns the row as a vector.
func ExtractSliceWithShape(resultShape shapes.Shape, src *Value, offsets, sizes, strides []OpFoldResult) (*Value, error) {
	op := optypes.ExtractSlice
	params, err := newSliceParams(op, offsets, sizes, strides)
	if err != nil {
		return nil, err
	}
	err = shapeinference.ExtractSliceWithShape(src.shape, params.staticOffsets, params.staticSizes, params.staticStrides, resultShape)
	if err != nil {
		return nil, err
	}
	return addExtractSlice(src, params, resultShape.Clone())
}

func addExtractSlice(src *Value, params sliceParams, output shapes.Shape) (*Value, error) {
	stmt, err := newStatement(nil, optypes.ExtractSlice, []shapes.Shape{output}, params.operands(src)...)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = params.attributes()
	return stmt.Outputs[0], nil
}

// InsertSlice returns dest with the slice at offsets (with the given sizes and strides) replaced by src.
//
// The shape of src must match sizes, or be a rank-reduced version of it (dimensions of static size 1 dropped).
func InsertSlice(src, dest *Value, offsets, sizes, strides []OpFoldResult) (*Value, error) {
	op := optypes.InsertSlice
	params, err := newSliceParams(op, offsets, sizes, strides)
	if err != nil {
		return nil, err
	}
	output, err := shapeinference.InsertSlice(src.shape, dest.shape, params.staticOffsets, params.staticSizes, params.staticStrides)
	if err != nil {
		return nil, err
	}
	stmt, err := newStatement(nil, op, []shapes.Shape{output}, params.operands(src, dest)...)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = params.attributes()
	return stmt.Outputs[0], nil
}

// ParallelInsertSlice is the InsertSlice of a parallel region: the closure fn (the body executed in parallel)
// writes src into the slice of the shared dest tensor. It has no outputs.
//
// It can only be used in closures, see Function.Closure.
func (fn *Function) ParallelInsertSlice(src, dest *Value, offsets, sizes, strides []OpFoldResult) (*Statement, error) {
	op := optypes.ParallelInsertSlice
	params, err := newSliceParams(op, offsets, sizes, strides)
	if err != nil {
		return nil, err
	}
	_, err = shapeinference.InsertSlice(src.shape, dest.shape, params.staticOffsets, params.staticSizes, params.staticStrides)
	if err != nil {
		return nil, err
	}
	stmt, err := newStatement(fn, op, nil, params.operands(src, dest)...)
	if err != nil {
		return nil, err
	}
	stmt.Attributes = params.attributes()
	return stmt, nil
}
