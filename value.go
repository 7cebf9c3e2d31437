package tensorir

import (
	"fmt"
	"io"

	"github.com/gomlx/tensorir/types/shapes"
)

// Value represents a value in a program, like `%0` or `%arg0`.
// It has a name, a shape, the function that owns it and, except for function inputs, the statement defining it.
type Value struct {
	fn          *Function
	stmt        *Statement // Defining statement, nil for function inputs.
	outputIndex int
	shape       shapes.Shape
	name        string // Composed of letters, digits and underscore.
}

// Use of a value: the statement consuming it and the operand position.
type Use struct {
	Statement    *Statement
	OperandIndex int
}

// Shape returns the shape of the value.
func (v *Value) Shape() shapes.Shape {
	return v.shape
}

// Function owning the value.
func (v *Value) Function() *Function {
	return v.fn
}

// DefiningOp returns the statement that produces this value, or nil if it is a function input.
func (v *Value) DefiningOp() *Statement {
	return v.stmt
}

// OutputIndex returns the position of the value in the outputs of its defining statement.
func (v *Value) OutputIndex() int {
	return v.outputIndex
}

// Uses returns all the uses of the value, in the function that owns it and its closures, in program order.
// A statement using the value in two operands counts as two uses.
func (v *Value) Uses() []Use {
	var uses []Use
	if v.fn == nil {
		return nil
	}
	v.fn.walk(func(stmt *Statement) {
		for operandIdx, input := range stmt.Inputs {
			if input == v {
				uses = append(uses, Use{Statement: stmt, OperandIndex: operandIdx})
			}
		}
	})
	return uses
}

// NumUses returns the number of uses of the value. See Uses.
func (v *Value) NumUses() int {
	return len(v.Uses())
}

// HasOneUse returns whether the value is used exactly once.
func (v *Value) HasOneUse() bool {
	return v.NumUses() == 1
}

// IsUnused returns whether nothing uses the value.
func (v *Value) IsUnused() bool {
	return v.NumUses() == 0
}

// Write writes the value in MLIR text format to the given writer.
func (v *Value) Write(w io.Writer, indentation string) error {
	_ = indentation
	_, err := fmt.Fprintf(w, "%%%s", v.name)
	return err
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return "%" + v.name
}

// NamedValue creates a new named value with the given shape.
// These are meant to be used as inputs for functions, see Builder.NewFunction.
func NamedValue(name string, shape shapes.Shape) *Value {
	return &Value{
		shape: shape,
		name:  NormalizeIdentifier(name),
	}
}
