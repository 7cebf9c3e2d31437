package tensorir

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gomlx/tensorir/internal/optypes"
	"golang.org/x/exp/maps"
)

// Statement represents a single operation line in the program.
type Statement struct {
	// Function that owns the statement.
	Function *Function

	// OpType is the type of the operation.
	OpType optypes.OpType

	// Inputs to the operation.
	Inputs []*Value

	// Attributes of the operation.
	Attributes map[string]any

	// Outputs of the operation. It may be nil for operations like func.return.
	Outputs []*Value

	// erased is set once the statement is removed from its function.
	erased bool
}

// IsErased returns whether the statement was removed from its function.
func (s *Statement) IsErased() bool {
	return s.erased
}

// Result returns the only output of the statement, or nil if it doesn't have exactly one output.
func (s *Statement) Result() *Value {
	if len(s.Outputs) != 1 {
		return nil
	}
	return s.Outputs[0]
}

// Operand returns the input at position idx, or nil if out of range.
func (s *Statement) Operand(idx int) *Value {
	if idx < 0 || idx >= len(s.Inputs) {
		return nil
	}
	return s.Inputs[idx]
}

// Write writes a string representation of the statement to the given writer, in MLIR generic format.
func (s *Statement) Write(writer io.Writer, indentation string) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	we := func(e elementWriter) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		err = e.Write(writer, indentation)
	}

	// Output values are written first:
	w("%s", indentation)
	if len(s.Outputs) > 0 {
		for i, output := range s.Outputs {
			if i > 0 {
				w(", ")
			}
			we(output)
		}
		w(" = ")
	}

	// Write op name and arguments:
	w("%q(", s.OpType.ToMLIR())
	for i, input := range s.Inputs {
		if i > 0 {
			w(", ")
		}
		we(input)
	}
	w(")")

	// Write attributes, sorted by name so the output is deterministic:
	if len(s.Attributes) > 0 {
		w(" {")
		keys := maps.Keys(s.Attributes)
		slices.Sort(keys)
		for i, key := range keys {
			if i > 0 {
				w(", ")
			}
			w("%s = %s", key, literalToMLIR(s.Attributes[key]))
		}
		w("}")
	}

	// Write signature:
	w(" : (")
	for i, input := range s.Inputs {
		if i > 0 {
			w(", ")
		}
		w("%s", input.shape.ToMLIR())
	}
	w(")")
	w(" -> ")
	if len(s.Outputs) == 0 {
		w("()")
	} else {
		// There are outputs: we use "(" and ")" only if there are more than one.
		if len(s.Outputs) > 1 {
			w("(")
		}
		for i, output := range s.Outputs {
			if i > 0 {
				w(", ")
			}
			w("%s", output.shape.ToMLIR())
		}
		if len(s.Outputs) > 1 {
			w(")")
		}
	}
	return err
}

// String implements fmt.Stringer.
func (s *Statement) String() string {
	var sb strings.Builder
	if err := s.Write(&sb, ""); err != nil {
		return fmt.Sprintf("Statement(%s): failed to write: %v", s.OpType, err)
	}
	return sb.String()
}

type hasToMLIR interface {
	ToMLIR() string
}

// literalToMLIR converts a literal value, usually used in attributes, to its MLIR string representation.
func literalToMLIR(attr any) string {
	switch v := attr.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case int, int64:
		return fmt.Sprintf("%d : i64", v)
	case int32:
		return fmt.Sprintf("%d : i32", v)
	case []int:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = fmt.Sprintf("%d", x)
		}
		return fmt.Sprintf("array<i64: %s>", strings.Join(parts, ", "))
	case bool:
		if v {
			return "true"
		}
		return "false"

	case hasToMLIR:
		// For types that implement their own conversion to MLIR, use that.
		return v.ToMLIR()

	default:
		return fmt.Sprintf("Unknown literal type: %T %#v", v, v)
	}
}
