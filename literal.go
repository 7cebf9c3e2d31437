package tensorir

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/gomlx/tensorir/types/shapes"
	"github.com/x448/float16"
)

// tensorLiteral is the value of a Constant statement: a Go scalar or (multi-level) slice, and its shape.
type tensorLiteral struct {
	value any
	shape shapes.Shape
}

func newTensorLiteral(value any, shape shapes.Shape) tensorLiteral {
	return tensorLiteral{value: value, shape: shape}
}

// ToMLIR renders the literal as a dense attribute, e.g.: "dense<[[1.0, 2.0]]> : tensor<1x2xf32>".
func (l tensorLiteral) ToMLIR() string {
	var sb strings.Builder
	sb.WriteString("dense<")
	writeLiteralValue(&sb, reflect.ValueOf(l.value))
	sb.WriteString("> : ")
	sb.WriteString(l.shape.ToMLIR())
	return sb.String()
}

func writeLiteralValue(sb *strings.Builder, rv reflect.Value) {
	if rv.Kind() == reflect.Slice {
		sb.WriteString("[")
		for ii := range rv.Len() {
			if ii > 0 {
				sb.WriteString(", ")
			}
			writeLiteralValue(sb, rv.Index(ii))
		}
		sb.WriteString("]")
		return
	}
	sb.WriteString(scalarToMLIR(rv.Interface()))
}

// scalarToMLIR formats one element of a literal.
func scalarToMLIR(v any) string {
	switch x := v.(type) {
	case float16.Float16:
		return floatToMLIR(float64(x.Float32()))
	case float32:
		return floatToMLIR(float64(x))
	case float64:
		return floatToMLIR(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func floatToMLIR(f float64) string {
	switch {
	case math.IsNaN(f):
		return "0x7FC00000"
	case math.IsInf(f, 1):
		return "0x7F800000"
	case math.IsInf(f, -1):
		return "0xFF800000"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		// Integer values need a decimal point.
		return fmt.Sprintf("%.1f", f)
	default:
		return fmt.Sprintf("%g", f)
	}
}
