// Package shapes defines Shape, the ranked tensor type used by the IR: an element DType and a list of
// dimensions, where each dimension is either a known non-negative extent or DimDynamic.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. Its size is its dimension (or extent).
//   - Static dimension: an extent known while building/rewriting the IR.
//   - Dynamic dimension: an extent only known at execution time, represented by DimDynamic.
//   - Singleton dimension: a static dimension of extent exactly 1.
package shapes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/utils"
	"github.com/pkg/errors"
)

// DimDynamic marks an axis whose extent is unresolved. It is also used for dynamic entries of static index
// arrays (offsets, sizes, strides and output shapes) in the ops' attributes.
const DimDynamic = -1

// Shape of a ranked tensor value.
//
// Use Make or MakeDynamic to create a new shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
// Dimensions can be DimDynamic, but otherwise must be >= 0, or it panics.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim < 0 && dim != DimDynamic {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with a negative dimension", s)
		}
	}
	return s
}

// MakeDynamic is like Make, but the dimensions are given as any: an int for a static dimension, or the string "?"
// (or any other string) for a dynamic one.
//
// Example:
//
//	shapes.MakeDynamic(dtypes.Float32, "?", 512) // tensor<?x512xf32>
func MakeDynamic(dtype dtypes.DType, dimensions ...any) Shape {
	dims := make([]int, len(dimensions))
	for axis, d := range dimensions {
		switch v := d.(type) {
		case int:
			dims[axis] = v
		case string:
			dims[axis] = DimDynamic
		default:
			exceptions.Panicf("shapes.MakeDynamic(): invalid dimension %v (%T) for axis %d, only int or string accepted",
				d, d, axis)
		}
	}
	return Make(dtype, dims...)
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// IsDynamic returns whether any of the dimensions is dynamic.
func (s Shape) IsDynamic() bool {
	return slices.Contains(s.Dimensions, DimDynamic)
}

// IsDynamicDim returns whether the given axis is dynamic. It accepts negative axes, like Dim.
func (s Shape) IsDynamicDim(axis int) bool {
	return s.Dim(axis) == DimDynamic
}

// NumDynamicDims returns the number of dynamic dimensions.
func (s Shape) NumDynamicDims() (count int) {
	for _, dim := range s.Dimensions {
		if dim == DimDynamic {
			count++
		}
	}
	return
}

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Size returns the number of elements of the shape, or DimDynamic if any of the dimensions is dynamic.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		if dim == DimDynamic {
			return DimDynamic
		}
		size *= dim
	}
	return size
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
// A dynamic dimension is only equal to another dynamic dimension.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// WithDimensions returns a shape with the same DType and the given dimensions.
func (s Shape) WithDimensions(dimensions ...int) Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(dimensions)}
}

// Check that the shape has the given dtype and dimensions, and returns an error otherwise.
func (s Shape) Check(dtype dtypes.DType, dimensions ...int) error {
	if s.DType != dtype {
		return errors.Errorf("shape %s has dtype %s, expected %s", s, s.DType, dtype)
	}
	if !slices.Equal(s.Dimensions, dimensions) {
		return errors.Errorf("shape %s has dimensions %v, expected %v", s, s.Dimensions, dimensions)
	}
	return nil
}

// String implements fmt.Stringer, pretty-prints the shape.
// Dynamic dimensions are printed as "?".
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for axis, dim := range s.Dimensions {
		parts[axis] = dimToString(dim)
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// ToMLIR returns the MLIR ranked tensor type representation of the shape, e.g. "tensor<8x?x4xf32>".
func (s Shape) ToMLIR() string {
	var sb strings.Builder
	sb.WriteString("tensor<")
	for _, dim := range s.Dimensions {
		sb.WriteString(dimToString(dim))
		sb.WriteString("x")
	}
	sb.WriteString(utils.DTypeToMLIR(s.DType))
	sb.WriteString(">")
	return sb.String()
}

func dimToString(dim int) string {
	if dim == DimDynamic {
		return "?"
	}
	return strconv.Itoa(dim)
}
