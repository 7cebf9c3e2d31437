package tensorir

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/internal/utils"
	"github.com/gomlx/tensorir/shapeinference"
	"github.com/gomlx/tensorir/types"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Verify checks the function and its closures, and returns all the problems found, combined with multierr.
//
// It checks that every operand is defined before it is used (or in an enclosing function), that the shapes of
// every statement are consistent with its operands and attributes, and that the return statement is the last one.
// The values tracked by the function must be exactly its inputs and the outputs of its statements.
func (fn *Function) Verify() error {
	var err error
	visible := utils.MakeSet[*Value]()
	for parent := fn.Parent; parent != nil; parent = parent.Parent {
		visible.Insert(parent.values...)
	}
	visible.Insert(fn.Inputs...)

	for idx, stmt := range fn.Statements {
		if stmt.Function != fn {
			err = multierr.Append(err, errors.Errorf("function %q: statement #%d (%s) is owned by another function",
				fn.Name, idx, stmt.OpType))
		}
		if stmt.erased {
			err = multierr.Append(err, errors.Errorf("function %q: statement #%d (%s) was erased",
				fn.Name, idx, stmt.OpType))
		}
		for operandIdx, input := range stmt.Inputs {
			if input == nil || !visible.Has(input) {
				err = multierr.Append(err, errors.Errorf("function %q: operand #%d of statement #%d (%s) is used before "+
					"being defined, or it is not visible", fn.Name, operandIdx, idx, stmt.OpType))
			}
		}
		for outputIdx, output := range stmt.Outputs {
			if output.stmt != stmt || output.outputIndex != outputIdx || output.fn != fn {
				err = multierr.Append(err, errors.Errorf("function %q: output #%d of statement #%d (%s) is inconsistent",
					fn.Name, outputIdx, idx, stmt.OpType))
			}
			visible.Insert(output)
		}
		if stmt.OpType == optypes.FuncReturn && idx != len(fn.Statements)-1 {
			err = multierr.Append(err, errors.Errorf("function %q: return must be the last statement", fn.Name))
		}
		if stmtErr := verifyStatement(stmt); stmtErr != nil {
			err = multierr.Append(err, errors.WithMessagef(stmtErr, "function %q, statement #%d", fn.Name, idx))
		}
	}
	defined := utils.SetWith(fn.Inputs...)
	for _, stmt := range fn.Statements {
		defined.Insert(stmt.Outputs...)
	}
	if tracked := utils.SetWith(fn.values...); !tracked.Equal(defined) {
		for v := range tracked.Sub(defined) {
			err = multierr.Append(err, errors.Errorf("function %q: value %s is not defined by any of its statements",
				fn.Name, v))
		}
		for v := range defined.Sub(tracked) {
			err = multierr.Append(err, errors.Errorf("function %q: value %s is not tracked by the function", fn.Name, v))
		}
	}
	if fn.Returned {
		if len(fn.Statements) == 0 || fn.Statements[len(fn.Statements)-1].OpType != optypes.FuncReturn {
			err = multierr.Append(err, errors.Errorf("function %q returned, but return is not its last statement", fn.Name))
		}
	}
	for _, closure := range fn.closures {
		err = multierr.Append(err, closure.Verify())
	}
	return err
}

// attribute returns the attribute of the statement with the given name, if it has the expected type.
func attribute[T any](stmt *Statement, name string) (T, error) {
	value, ok := stmt.Attributes[name].(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("%s: missing or invalid attribute %q (%T)", stmt.OpType, name, stmt.Attributes[name])
	}
	return value, nil
}

// verifyStatement re-infers the shapes of the statement from its operands and attributes, and checks that they match
// its outputs.
func verifyStatement(stmt *Statement) error {
	op := stmt.OpType
	checkOutputs := func(expected ...shapes.Shape) error {
		if len(stmt.Outputs) != len(expected) {
			return errors.Errorf("%s: expected %d outputs, got %d", op, len(expected), len(stmt.Outputs))
		}
		for i, shape := range expected {
			if !stmt.Outputs[i].shape.Equal(shape) {
				return errors.Errorf("%s: output #%d has shape %s, but %s was expected", op, i, stmt.Outputs[i].shape, shape)
			}
		}
		return nil
	}
	checkNumInputs := func(n int) error {
		if len(stmt.Inputs) != n {
			return errors.Errorf("%s: expected %d operands, got %d", op, n, len(stmt.Inputs))
		}
		return nil
	}

	switch op {
	case optypes.FuncReturn:
		if len(stmt.Inputs) == 0 {
			return errors.Errorf("%s: requires at least one value", op)
		}
		for i, input := range stmt.Inputs {
			if i < len(stmt.Function.Outputs) && !input.shape.Equal(stmt.Function.Outputs[i]) {
				return errors.Errorf("%s: value #%d has shape %s, but the function returns %s",
					op, i, input.shape, stmt.Function.Outputs[i])
			}
		}
		return checkOutputs()

	case optypes.Constant:
		if err := checkNumInputs(0); err != nil {
			return err
		}
		if len(stmt.Outputs) != 1 {
			return errors.Errorf("%s: expected 1 output, got %d", op, len(stmt.Outputs))
		}
		return nil

	case optypes.Empty:
		if len(stmt.Outputs) != 1 {
			return errors.Errorf("%s: expected 1 output, got %d", op, len(stmt.Outputs))
		}
		if err := checkNumInputs(stmt.Outputs[0].shape.NumDynamicDims()); err != nil {
			return err
		}
		return checkIndexValues(op, stmt.Inputs)

	case optypes.Dim:
		if err := checkNumInputs(1); err != nil {
			return err
		}
		axis, err := attribute[int](stmt, AttrIndex)
		if err != nil {
			return err
		}
		if axis < 0 || axis >= stmt.Inputs[0].shape.Rank() {
			return errors.Errorf("%s: axis %d out of range for %s", op, axis, stmt.Inputs[0].shape)
		}
		return checkOutputs(shapes.Make(dtypes.Int64))

	case optypes.Add:
		if err := checkNumInputs(2); err != nil {
			return err
		}
		if !stmt.Inputs[0].shape.Equal(stmt.Inputs[1].shape) {
			return errors.Errorf("%s: operands must have the same shape, got %s and %s",
				op, stmt.Inputs[0].shape, stmt.Inputs[1].shape)
		}
		return checkOutputs(stmt.Inputs[0].shape)

	case optypes.ExpandShape:
		reassociation, err := attribute[types.Reassociation](stmt, AttrReassociation)
		if err != nil {
			return err
		}
		staticOutputShape, err := attribute[[]int](stmt, AttrStaticOutputShape)
		if err != nil {
			return err
		}
		if err = checkNumInputs(1 + countDynamic(staticOutputShape)); err != nil {
			return err
		}
		if err = checkIndexValues(op, stmt.Inputs[1:]); err != nil {
			return err
		}
		output, err := shapeinference.ExpandShape(stmt.Inputs[0].shape, reassociation, staticOutputShape)
		if err != nil {
			return err
		}
		return checkOutputs(output)

	case optypes.CollapseShape:
		reassociation, err := attribute[types.Reassociation](stmt, AttrReassociation)
		if err != nil {
			return err
		}
		if err = checkNumInputs(1); err != nil {
			return err
		}
		output, err := shapeinference.CollapseShape(stmt.Inputs[0].shape, reassociation)
		if err != nil {
			return err
		}
		return checkOutputs(output)

	case optypes.ExtractSlice, optypes.InsertSlice, optypes.ParallelInsertSlice:
		return verifySliceStatement(stmt, checkNumInputs, checkOutputs)

	default:
		return errors.Errorf("unknown operation %s", op)
	}
}

func verifySliceStatement(stmt *Statement, checkNumInputs func(int) error, checkOutputs func(...shapes.Shape) error) error {
	op := stmt.OpType
	var view sliceView
	view.stmt = stmt
	view.dynamicStart = 2
	if op == optypes.ExtractSlice {
		view.dynamicStart = 1
	}
	offsets, err := attribute[[]int](stmt, AttrStaticOffsets)
	if err != nil {
		return err
	}
	sizes, err := attribute[[]int](stmt, AttrStaticSizes)
	if err != nil {
		return err
	}
	strides, err := attribute[[]int](stmt, AttrStaticStrides)
	if err != nil {
		return err
	}
	if err = checkNumInputs(view.dynamicStart + view.numDynamicOperands()); err != nil {
		return err
	}
	if err = checkIndexValues(op, stmt.Inputs[view.dynamicStart:]); err != nil {
		return err
	}

	switch op {
	case optypes.ExtractSlice:
		if len(stmt.Outputs) != 1 {
			return errors.Errorf("%s: expected 1 output, got %d", op, len(stmt.Outputs))
		}
		return shapeinference.ExtractSliceWithShape(stmt.Inputs[0].shape, offsets, sizes, strides, stmt.Outputs[0].shape)
	case optypes.InsertSlice:
		output, err := shapeinference.InsertSlice(stmt.Inputs[0].shape, stmt.Inputs[1].shape, offsets, sizes, strides)
		if err != nil {
			return err
		}
		return checkOutputs(output)
	default:
		if stmt.Function == nil || stmt.Function.Parent == nil {
			return errors.Errorf("%s can only be used in closures", op)
		}
		if _, err := shapeinference.InsertSlice(stmt.Inputs[0].shape, stmt.Inputs[1].shape, offsets, sizes, strides); err != nil {
			return err
		}
		return checkOutputs()
	}
}
