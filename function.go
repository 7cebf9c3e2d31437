package tensorir

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// Function is a `func.func` of the module, or a closure (a nested region) of another Function.
//
// Statements are kept in program order, and rewrites edit the slice in place.
type Function struct {
	Builder *Builder

	// Name without the "@" sigil.
	Name string

	Inputs  []*Value
	Outputs []shapes.Shape

	// Statements of the body, in program order. The func.return, once added, is always last.
	Statements []*Statement

	// values defined in this function: inputs and statement results. Erased statements drop theirs.
	values []*Value

	// Parent is the enclosing function of a closure, nil for top-level functions.
	Parent   *Function
	closures []*Function

	// Counters for generated names. Only the root of a closure tree uses them, so names are unique across
	// nested regions.
	nextArgID, nextTmpID, nextClosureID int

	// Returned is set by Return. Without an insertion point, no statements can be appended afterwards.
	Returned bool
}

// findRootFn returns the top-level function holding fn.
func (fn *Function) findRootFn() *Function {
	rootFn := fn
	for rootFn.Parent != nil {
		rootFn = rootFn.Parent
	}
	return rootFn
}

// IsAncestorOf returns whether fn is other or one of its parents.
func (fn *Function) IsAncestorOf(other *Function) bool {
	for f := other; f != nil; f = f.Parent {
		if f == fn {
			return true
		}
	}
	return false
}

// Closures returns the closures created by this function.
func (fn *Function) Closures() []*Function {
	return fn.closures
}

// newValue allocates the next temporary name ("%0", "%1", ...) from the root function.
func (fn *Function) newValue(shape shapes.Shape) (v *Value) {
	rootFn := fn.findRootFn()
	v = &Value{
		fn:    fn,
		name:  strconv.Itoa(rootFn.nextTmpID),
		shape: shape,
	}
	rootFn.nextTmpID++
	fn.values = append(fn.values, v)
	return v
}

// Input appends a new argument named "arg<N>" to the function signature. Use NamedInput to pick the name.
func (fn *Function) Input(shape shapes.Shape) *Value {
	rootFn := fn.findRootFn()
	value := fn.NamedInput(fmt.Sprintf("arg%d", rootFn.nextArgID), shape)
	rootFn.nextArgID++
	return value
}

// NamedInput appends a new argument with the given name, normalized with NormalizeIdentifier.
//
// The name must not collide with other values: "<N>" and "arg<N>" are taken by generated names.
func (fn *Function) NamedInput(name string, shape shapes.Shape) *Value {
	value := &Value{
		fn:    fn,
		name:  NormalizeIdentifier(name),
		shape: shape,
	}
	fn.Inputs = append(fn.Inputs, value)
	fn.values = append(fn.values, value)
	return value
}

// Constant creates a new constant statement from a Go value and returns the resulting value.
//
// The value can be a scalar or a (multi-level) slice of a supported Go type, including float16.Float16.
// The shape is taken from the value, see shapes.FromAnyValue.
func (fn *Function) Constant(value any) (*Value, error) {
	shape, err := shapes.FromAnyValue(value)
	if err != nil {
		return nil, errors.WithMessagef(err, "Constant(%T)", value)
	}
	target, err := fn.Builder.targetFunction(optypes.Constant, fn)
	if err != nil {
		return nil, err
	}
	stmt := target.addOp(optypes.Constant, shape)
	stmt.Attributes = map[string]any{"value": newTensorLiteral(value, shape)}
	return stmt.Outputs[0], nil
}

// ConstantIndex creates a scalar Int64 constant, used as a dynamic offset, size, stride or dimension.
func (fn *Function) ConstantIndex(index int) (*Value, error) {
	target, err := fn.Builder.targetFunction(optypes.Constant, fn)
	if err != nil {
		return nil, err
	}
	stmt := target.addOp(optypes.Constant, shapes.Make(dtypes.Int64))
	stmt.Attributes = map[string]any{"value": int64(index)}
	return stmt.Outputs[0], nil
}

// Return terminates the function with a func.return of the given values, which also fixes the function's
// output types. It can be called only once, and the values must be defined in fn itself.
func (fn *Function) Return(firstValue *Value, otherValues ...*Value) error {
	if fn.Returned {
		return errors.Errorf("Function.Return already called for %q", fn.Name)
	}
	allValues := make([]*Value, 1, len(otherValues)+1)
	allValues[0] = firstValue
	allValues = append(allValues, otherValues...)
	outputShapes := make([]shapes.Shape, len(allValues))
	for i, value := range allValues {
		if value == nil || value.fn != fn {
			return errors.Errorf("Function.Return given values that are not owned by the function %q", fn.Name)
		}
		outputShapes[i] = value.shape
	}
	fn.Outputs = outputShapes
	fn.Returned = true

	stmt := &Statement{
		Function: fn,
		OpType:   optypes.FuncReturn,
		Inputs:   allValues,
	}
	fn.Statements = append(fn.Statements, stmt)
	fn.Builder.notifyInserted(stmt)
	return nil
}

// Closure creates an unnamed closure function, used as the body of loops and parallel regions.
// Statements of the closure can use values of its parent functions.
//
// Some operations, like ParallelInsertSlice, can only be used in closures.
func (fn *Function) Closure() *Function {
	rootFn := fn.findRootFn()

	// The name is only for debugging purposes.
	name := fmt.Sprintf("closure%d", rootFn.nextClosureID)
	rootFn.nextClosureID++
	closureFn := fn.Builder.NewFunction(name)
	closureFn.Parent = fn
	fn.closures = append(fn.closures, closureFn)
	return closureFn
}

// walk calls visit for every statement of the function and of its closures, in program order.
// The list of statements is copied before visiting, so visit can change the function.
func (fn *Function) walk(visit func(stmt *Statement)) {
	for _, stmt := range append([]*Statement(nil), fn.Statements...) {
		visit(stmt)
	}
	for _, closure := range fn.closures {
		closure.walk(visit)
	}
}

// Walk calls visit for every statement of the function and of its closures, in program order.
// Statements inserted while walking are not visited, and statements erased are still visited (check
// Statement.IsErased).
func (fn *Function) Walk(visit func(stmt *Statement)) {
	fn.walk(visit)
}

// Write the function as MLIR code, with the given indentation.
func (fn *Function) Write(writer io.Writer, indentation string) error {
	// w and we stop writing after the first error.
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	we := func(e elementWriter, indentation string) {
		if err != nil {
			return
		}
		err = e.Write(writer, indentation)
	}
	nextIndent := indentation + IndentationStep

	normalFunction := fn.Parent == nil
	if normalFunction {
		w("%sfunc.func @%s(", indentation, fn.Name)
	} else {
		w("%s^%s(", indentation, fn.Name)
	}
	for i, input := range fn.Inputs {
		if i > 0 {
			w(", ")
		}
		we(input, nextIndent)
		w(": %s", input.shape.ToMLIR())
	}
	if normalFunction {
		w(") -> ")
		if len(fn.Outputs) != 1 {
			w("(")
		}
		for i, output := range fn.Outputs {
			if i > 0 {
				w(", ")
			}
			w("%s", output.ToMLIR())
		}
		if len(fn.Outputs) != 1 {
			w(")")
		}
		w(" {\n")
	} else {
		w("):\n")
	}

	for _, stmt := range fn.Statements {
		we(stmt, nextIndent)
		w("\n")
	}
	for _, closure := range fn.closures {
		we(closure, nextIndent)
	}

	if normalFunction {
		w("%s}", indentation)
	}
	return err
}
