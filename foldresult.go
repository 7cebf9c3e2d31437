package tensorir

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// OpFoldResult is a "mixed" index: either a static integer or a dynamic scalar value (of dtype Int64) computed
// by the program.
//
// Operations store them split: a static array attribute where the dynamic entries are shapes.DimDynamic, plus
// the dynamic values as trailing operands, in order.
type OpFoldResult struct {
	// Static value, if Value is nil.
	Static int

	// Value holds the dynamic value, if not nil.
	Value *Value
}

// Static creates a static OpFoldResult.
func Static(i int) OpFoldResult {
	return OpFoldResult{Static: i}
}

// Dynamic creates a dynamic OpFoldResult from a scalar Int64 value.
func Dynamic(v *Value) OpFoldResult {
	return OpFoldResult{Value: v}
}

// StaticIndices converts a list of integers to static OpFoldResults.
func StaticIndices(indices ...int) []OpFoldResult {
	results := make([]OpFoldResult, len(indices))
	for i, index := range indices {
		results[i] = Static(index)
	}
	return results
}

// IsStatic returns whether the index is known statically.
func (r OpFoldResult) IsStatic() bool {
	return r.Value == nil
}

// String implements fmt.Stringer.
func (r OpFoldResult) String() string {
	if r.IsStatic() {
		return fmt.Sprintf("%d", r.Static)
	}
	return r.Value.String()
}

func mixedToString(mixed []OpFoldResult) string {
	parts := make([]string, len(mixed))
	for i, r := range mixed {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// dispatchIndexOpFoldResults splits mixed indices into the static array (with shapes.DimDynamic for dynamic
// entries) and the list of dynamic values.
func dispatchIndexOpFoldResults(name string, mixed []OpFoldResult) (static []int, dynamic []*Value, err error) {
	static = make([]int, len(mixed))
	for i, r := range mixed {
		if r.IsStatic() {
			if r.Static < 0 {
				return nil, nil, errors.Errorf("%s[%d]=%d: static indices must be non-negative", name, i, r.Static)
			}
			static[i] = r.Static
			continue
		}
		if !r.Value.shape.Equal(shapes.Make(dtypes.Int64)) {
			return nil, nil, errors.Errorf("%s[%d]=%s: dynamic indices must be scalar Int64 values, got %s",
				name, i, r.Value, r.Value.shape)
		}
		static[i] = shapes.DimDynamic
		dynamic = append(dynamic, r.Value)
	}
	return static, dynamic, nil
}

// getMixedValues is the inverse of dispatchIndexOpFoldResults: it combines the static array and the dynamic
// values back into mixed indices.
func getMixedValues(static []int, dynamic []*Value) []OpFoldResult {
	mixed := make([]OpFoldResult, len(static))
	var dynamicIdx int
	for i, s := range static {
		if s == shapes.DimDynamic {
			mixed[i] = Dynamic(dynamic[dynamicIdx])
			dynamicIdx++
			continue
		}
		mixed[i] = Static(s)
	}
	return mixed
}

// countDynamic returns the number of shapes.DimDynamic entries.
func countDynamic(static []int) (count int) {
	for _, s := range static {
		if s == shapes.DimDynamic {
			count++
		}
	}
	return
}
