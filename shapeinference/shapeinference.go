// Package shapeinference calculates the shape resulting from the tensor reshape and slicing operations and
// validates their inputs.
//
// It is used by the IR builder to validate new statements, by the verifier to re-check existing ones, and by the
// rewrite rules to decide whether two shapes are related by singleton dimensions only (see Classify).
//
// Static index arrays (offsets, sizes, strides and output shapes) use shapes.DimDynamic for the entries that are
// given by dynamic values.
package shapeinference

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/types"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// AdjustAxisToRank returns a positive axis, adjusting negative numbers to the correct rank.
func AdjustAxisToRank(axis, rank int) (int, error) {
	if axis < -rank || axis >= rank {
		return -1, errors.Errorf("axis %d is out of range for the rank %d", axis, rank)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}

// ExtractSlice returns the natural (non rank-reducing) shape of an ExtractSlice on the operand: one axis per
// operand axis, with the dimension given by the static size (or dynamic).
//
// It checks that offsets, sizes, and strides have one entry per operand axis, and that the static entries address
// a region inside the operand. Strides must be positive.
func ExtractSlice(operand shapes.Shape, offsets, sizes, strides []int) (output shapes.Shape, err error) {
	if err = checkSliceParams("ExtractSlice", operand, offsets, sizes, strides); err != nil {
		return shapes.Invalid(), err
	}
	return operand.WithDimensions(sizes...), nil
}

// ExtractSliceWithShape validates an ExtractSlice that declares the output shape explicitly: it must be the natural
// shape (see ExtractSlice) or a rank-reduced version of it, where only static dimensions of size 1 were dropped.
func ExtractSliceWithShape(operand shapes.Shape, offsets, sizes, strides []int, output shapes.Shape) error {
	natural, err := ExtractSlice(operand, offsets, sizes, strides)
	if err != nil {
		return err
	}
	if !IsRankReducedType(natural, output) {
		return errors.Errorf("ExtractSlice: output shape %s is not the slice shape %s nor a rank-reduced version of it",
			output, natural)
	}
	return nil
}

// InsertSlice returns the output shape of an InsertSlice (or ParallelInsertSlice) of source into dest, which is the
// shape of dest.
//
// The static sizes, taken as a shape with the dest dtype, must be equal to the source shape, or the source shape
// may be a rank-reduced version of it (only static dimensions of size 1 missing).
func InsertSlice(source, dest shapes.Shape, offsets, sizes, strides []int) (output shapes.Shape, err error) {
	if err = checkSliceParams("InsertSlice", dest, offsets, sizes, strides); err != nil {
		return shapes.Invalid(), err
	}
	if source.DType != dest.DType {
		return shapes.Invalid(), errors.Errorf("InsertSlice: source %s and destination %s must have the same dtype",
			source, dest)
	}
	sizesShape := dest.WithDimensions(sizes...)
	if !IsRankReducedType(sizesShape, source) {
		return shapes.Invalid(), errors.Errorf("InsertSlice: source shape %s doesn't match the slice sizes %s (nor a rank-reduced version of it)",
			source, sizesShape)
	}
	return dest.Clone(), nil
}

// checkSliceParams validates the offsets, sizes and strides of a slice of the given shape.
// Only static entries are checked, dynamic ones are resolved at execution time.
func checkSliceParams(opName string, operand shapes.Shape, offsets, sizes, strides []int) error {
	if operand.DType == dtypes.InvalidDType {
		return errors.Errorf("%s: invalid operand shape %s", opName, operand)
	}
	rank := operand.Rank()
	if len(offsets) != rank {
		return errors.Errorf("%s: len(offsets)=%d, but operand rank is %d", opName, len(offsets), rank)
	}
	if len(sizes) != rank {
		return errors.Errorf("%s: len(sizes)=%d, but operand rank is %d", opName, len(sizes), rank)
	}
	if len(strides) != rank {
		return errors.Errorf("%s: len(strides)=%d, but operand rank is %d", opName, len(strides), rank)
	}
	for axis := range rank {
		offset, size, stride := offsets[axis], sizes[axis], strides[axis]
		if offset < 0 && offset != shapes.DimDynamic {
			return errors.Errorf("%s: offset must be non-negative, got offsets[%d]=%d for operand shape %s",
				opName, axis, offset, operand)
		}
		if size < 0 && size != shapes.DimDynamic {
			return errors.Errorf("%s: size must be non-negative, got sizes[%d]=%d for operand shape %s",
				opName, axis, size, operand)
		}
		if stride <= 0 && stride != shapes.DimDynamic {
			return errors.Errorf("%s: stride must be positive, but got strides[%d]=%d for operand shape %s",
				opName, axis, stride, operand)
		}
		dim := operand.Dimensions[axis]
		if dim == shapes.DimDynamic || offset == shapes.DimDynamic || size == shapes.DimDynamic || stride == shapes.DimDynamic {
			continue
		}
		if size == 0 {
			if offset > dim {
				return errors.Errorf("%s: offset %d is out of bounds for axis %d with size %d (operand shape %s)",
					opName, offset, axis, dim, operand)
			}
			continue
		}
		// Index of the last element read.
		last := offset + (size-1)*stride
		if last >= dim {
			return errors.Errorf("%s: slice (offset=%d, size=%d, stride=%d) is out of bounds for axis %d with size %d (operand shape %s)",
				opName, offset, size, stride, axis, dim, operand)
		}
	}
	return nil
}

// ExpandShape validates an ExpandShape of operand to the given output dimensions and returns the output shape.
//
// The reassociation has one group per operand axis, and its groups partition the output axes.
// For groups where all dimensions are static, the product of the group must match the operand dimension.
// A dynamic operand dimension requires at least one dynamic dimension in its group, and a static one requires
// a fully static group.
func ExpandShape(operand shapes.Shape, reassociation types.Reassociation, outputDims []int) (output shapes.Shape, err error) {
	if operand.DType == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("ExpandShape: invalid operand shape %s", operand)
	}
	output = operand.WithDimensions(outputDims...)
	if err = checkReshape("ExpandShape", output, operand, reassociation); err != nil {
		return shapes.Invalid(), err
	}
	return output, nil
}

// CollapseShape returns the output shape of collapsing the operand with the given reassociation: each group of
// operand axes is merged into one output axis, with the product of the dimensions, or dynamic if any of the
// dimensions in the group is dynamic.
func CollapseShape(operand shapes.Shape, reassociation types.Reassociation) (output shapes.Shape, err error) {
	if operand.DType == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("CollapseShape: invalid operand shape %s", operand)
	}
	dims := make([]int, len(reassociation))
	for groupIdx, group := range reassociation {
		size := 1
		for _, axis := range group {
			if axis < 0 || axis >= operand.Rank() {
				return shapes.Invalid(), errors.Errorf("CollapseShape: reassociation %s refers to axis %d, but operand %s has rank %d",
					reassociation, axis, operand, operand.Rank())
			}
			dim := operand.Dimensions[axis]
			if dim == shapes.DimDynamic || size == shapes.DimDynamic {
				size = shapes.DimDynamic
				continue
			}
			size *= dim
		}
		dims[groupIdx] = size
	}
	output = operand.WithDimensions(dims...)
	if err = checkReshape("CollapseShape", operand, output, reassociation); err != nil {
		return shapes.Invalid(), err
	}
	return output, nil
}

// checkReshape validates a reassociation between the higher and lower rank shapes.
func checkReshape(opName string, higher, lower shapes.Shape, reassociation types.Reassociation) error {
	if higher.DType != lower.DType {
		return errors.Errorf("%s: shapes %s and %s must have the same dtype", opName, higher, lower)
	}
	if len(reassociation) == 0 {
		// Only a scalar can be reshaped to/from a shape of singleton dimensions without groups.
		if lower.Rank() != 0 {
			return errors.Errorf("%s: empty reassociation requires a scalar, got %s", opName, lower)
		}
		for _, dim := range higher.Dimensions {
			if dim != 1 {
				return errors.Errorf("%s: empty reassociation requires all dimensions to be 1, got %s", opName, higher)
			}
		}
		return nil
	}
	if len(reassociation) != lower.Rank() {
		return errors.Errorf("%s: reassociation %s has %d groups, but the lower-rank shape %s has rank %d",
			opName, reassociation, len(reassociation), lower, lower.Rank())
	}
	if err := reassociation.Validate(higher.Rank()); err != nil {
		return errors.WithMessagef(err, "%s(%s <-> %s)", opName, higher, lower)
	}
	for groupIdx, group := range reassociation {
		lowerDim := lower.Dimensions[groupIdx]
		product, numDynamic := 1, 0
		for _, axis := range group {
			dim := higher.Dimensions[axis]
			if dim == shapes.DimDynamic {
				numDynamic++
				continue
			}
			product *= dim
		}
		if lowerDim == shapes.DimDynamic {
			if numDynamic == 0 {
				return errors.Errorf("%s: dimension %d of %s is dynamic, but group %v of %s is fully static",
					opName, groupIdx, lower, group, higher)
			}
			continue
		}
		if numDynamic > 0 {
			return errors.Errorf("%s: dimension %d of %s is static, but group %v of %s has dynamic dimensions",
				opName, groupIdx, lower, group, higher)
		}
		if product != lowerDim {
			return errors.Errorf("%s: group %v of %s has %d elements, but dimension %d of %s is %d",
				opName, group, higher, product, groupIdx, lower, lowerDim)
		}
	}
	return nil
}
