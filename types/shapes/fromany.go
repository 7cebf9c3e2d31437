package shapes

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// FromAnyValue attempts to convert a Go "any" value to its expected shape.
// Accepted values are plain-old-data (POD) types (ints, floats, complex, float16.Float16), slices (or multiple
// level of slices) of POD.
//
// Example:
//
//	shape, err := shapes.FromAnyValue([][]float64{{0, 0}}) // (Float64)[1 2]
func FromAnyValue(v any) (Shape, error) {
	if v == nil {
		return Invalid(), errors.New("cannot take the shape of a nil value")
	}
	var shape Shape
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return Invalid(), errors.Errorf("value with empty slice not valid for shape conversion: %T -- it wouldn't be possible to figure out the inner dimensions", v)
		}
		shape.Dimensions = append(shape.Dimensions, rv.Len())
		rv = rv.Index(0)
	}
	shape.DType = dtypes.FromGoType(rv.Type())
	if shape.DType == dtypes.InvalidDType {
		return Invalid(), errors.Errorf("cannot convert type %q to a valid shape (maybe type not supported yet?)", rv.Type())
	}
	if err := checkRegular(reflect.ValueOf(v), shape.Dimensions); err != nil {
		return Invalid(), err
	}
	return shape, nil
}

// checkRegular verifies that every sub-slice has the dimensions taken from the first elements.
func checkRegular(rv reflect.Value, dims []int) error {
	if len(dims) == 0 {
		return nil
	}
	if rv.Len() != dims[0] {
		return errors.Errorf("sub-slices have irregular shapes, found length %d where %d was expected", rv.Len(), dims[0])
	}
	for ii := range rv.Len() {
		if err := checkRegular(rv.Index(ii), dims[1:]); err != nil {
			return err
		}
	}
	return nil
}
