package tensorir

import (
	"slices"

	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/types/shapes"
	"github.com/pkg/errors"
)

// operandsFunction returns the innermost function among the ones owning the operands: the operands of a statement
// must all be visible from it, so their functions must form a chain of ancestors.
func operandsFunction(op optypes.OpType, operands ...*Value) (*Function, error) {
	var fn *Function
	for i, operand := range operands {
		if operand == nil {
			return nil, errors.Errorf("operation %s: operand #%d is nil", op, i)
		}
		if operand.fn == nil {
			return nil, errors.Errorf("operation %s: operand #%d (%s) is not part of any function", op, i, operand)
		}
		switch {
		case fn == nil || fn.IsAncestorOf(operand.fn):
			fn = operand.fn
		case operand.fn.IsAncestorOf(fn):
			// fn already sees the operand.
		default:
			return nil, errors.Errorf("operation %s: operands are from unrelated functions (%q and %q)",
				op, fn.Name, operand.fn.Name)
		}
	}
	return fn, nil
}

// targetFunction returns the function where a new statement of the given op should be added: the function of the
// insertion point, if one is set, or fn otherwise.
// The values of fn must be visible from the returned function.
func (b *Builder) targetFunction(op optypes.OpType, fn *Function) (*Function, error) {
	if b.insertionPoint == nil {
		if fn.Returned {
			return nil, errors.Errorf("cannot add operation %s after returning, in function %q", op, fn.Name)
		}
		return fn, nil
	}
	target := b.insertionPoint.Function
	if !fn.IsAncestorOf(target) {
		return nil, errors.Errorf("cannot add operation %s at the insertion point in function %q, because the operands "+
			"are from function %q, which is not visible there", op, target.Name, fn.Name)
	}
	return target, nil
}

// newStatement creates a statement in the function selected by the insertion point, or by fn, or by the operands
// if fn is nil.
func newStatement(fn *Function, op optypes.OpType, outputShapes []shapes.Shape, inputs ...*Value) (*Statement, error) {
	if len(inputs) > 0 {
		operandsFn, err := operandsFunction(op, inputs...)
		if err != nil {
			return nil, err
		}
		if fn == nil {
			fn = operandsFn
		} else if !operandsFn.IsAncestorOf(fn) {
			return nil, errors.Errorf("operation %s: operands from function %q are not visible from function %q",
				op, operandsFn.Name, fn.Name)
		}
	}
	if fn == nil {
		return nil, errors.Errorf("operation %s: no function given", op)
	}
	target, err := fn.Builder.targetFunction(op, fn)
	if err != nil {
		return nil, err
	}
	if op == optypes.ParallelInsertSlice && target.Parent == nil {
		return nil, errors.Errorf("operation %s can only be used in closures, not in function %q", op, target.Name)
	}
	return target.addMultiOp(op, outputShapes, inputs), nil
}

// addOp adds a new operation with one output to the function.
func (fn *Function) addOp(opType optypes.OpType, outputShape shapes.Shape, inputs ...*Value) *Statement {
	return fn.addMultiOp(opType, []shapes.Shape{outputShape}, inputs)
}

// addMultiOp adds a new operation to the function, before the insertion point if it is in this function, or at
// the end otherwise.
func (fn *Function) addMultiOp(opType optypes.OpType, outputShapes []shapes.Shape, inputs []*Value) *Statement {
	outputs := make([]*Value, len(outputShapes))
	stmt := &Statement{
		Function: fn,
		OpType:   opType,
		Inputs:   slices.Clone(inputs),
		Outputs:  outputs,
	}
	for i, shape := range outputShapes {
		outputs[i] = fn.newValue(shape)
		outputs[i].stmt = stmt
		outputs[i].outputIndex = i
	}
	pos := len(fn.Statements)
	if ip := fn.Builder.insertionPoint; ip != nil && ip.Function == fn {
		if idx := slices.Index(fn.Statements, ip); idx >= 0 {
			pos = idx
		}
	}
	fn.Statements = slices.Insert(fn.Statements, pos, stmt)
	fn.Builder.notifyInserted(stmt)
	return stmt
}

func (b *Builder) notifyInserted(stmt *Statement) {
	if b.listener != nil {
		b.listener.NotifyStatementInserted(stmt)
	}
}

func (b *Builder) notifyErased(stmt *Statement) {
	if b.listener != nil {
		b.listener.NotifyStatementErased(stmt)
	}
}

// ReplaceAllUsesWith makes every statement that uses oldValue use newValue instead, in fn and its closures.
//
// The values must have the same shape, and newValue must be visible wherever oldValue is used.
func (fn *Function) ReplaceAllUsesWith(oldValue, newValue *Value) error {
	if oldValue == nil || newValue == nil {
		return errors.New("ReplaceAllUsesWith requires non-nil values")
	}
	if oldValue.fn != fn {
		return errors.Errorf("ReplaceAllUsesWith: value %s is not owned by function %q", oldValue, fn.Name)
	}
	if !newValue.fn.IsAncestorOf(fn) {
		return errors.Errorf("ReplaceAllUsesWith: new value %s (function %q) is not visible from function %q",
			newValue, newValue.fn.Name, fn.Name)
	}
	if !oldValue.shape.Equal(newValue.shape) {
		return errors.Errorf("ReplaceAllUsesWith: cannot replace %s (shape %s) with %s (shape %s)",
			oldValue, oldValue.shape, newValue, newValue.shape)
	}
	for _, use := range oldValue.Uses() {
		use.Statement.Inputs[use.OperandIndex] = newValue
	}
	return nil
}

// SetOperand changes the operand at position idx of the statement to value.
// The new operand must be visible from the statement's function, and the statement must remain valid with it:
// e.g. the source of an InsertSlice can be replaced by a rank-reduced version of it.
func (fn *Function) SetOperand(stmt *Statement, idx int, value *Value) error {
	if stmt.Function != fn || stmt.erased {
		return errors.Errorf("SetOperand: statement %s is not part of function %q", stmt.OpType, fn.Name)
	}
	if idx < 0 || idx >= len(stmt.Inputs) {
		return errors.Errorf("SetOperand: operand index %d out of range for %s with %d operands",
			idx, stmt.OpType, len(stmt.Inputs))
	}
	if value == nil || value.fn == nil || !value.fn.IsAncestorOf(fn) {
		return errors.Errorf("SetOperand: value %v is not visible from function %q", value, fn.Name)
	}
	old := stmt.Inputs[idx]
	stmt.Inputs[idx] = value
	if err := verifyStatement(stmt); err != nil {
		stmt.Inputs[idx] = old
		return errors.WithMessagef(err, "SetOperand: cannot replace operand #%d of %s by %s", idx, stmt.OpType, value)
	}
	return nil
}

// IsTriviallyDead returns whether the statement has no side effects and none of its outputs are used.
func IsTriviallyDead(stmt *Statement) bool {
	if stmt.erased || stmt.OpType.HasSideEffects() || len(stmt.Outputs) == 0 {
		return false
	}
	for _, output := range stmt.Outputs {
		if !output.IsUnused() {
			return false
		}
	}
	return true
}

// Erase removes the statement from the function. It fails if any of its outputs is still used, or if it is the
// function return.
func (fn *Function) Erase(stmt *Statement) error {
	if stmt.Function != fn || stmt.erased {
		return errors.Errorf("Erase: statement %s is not part of function %q", stmt.OpType, fn.Name)
	}
	if stmt.OpType == optypes.FuncReturn {
		return errors.Errorf("Erase: cannot erase the return statement of function %q", fn.Name)
	}
	for _, output := range stmt.Outputs {
		if numUses := output.NumUses(); numUses > 0 {
			return errors.Errorf("Erase: output %s of %s still has %d uses", output, stmt.OpType, numUses)
		}
	}
	idx := slices.Index(fn.Statements, stmt)
	if idx < 0 {
		return errors.Errorf("Erase: statement %s not found in function %q", stmt.OpType, fn.Name)
	}
	fn.Statements = slices.Delete(fn.Statements, idx, idx+1)
	fn.values = slices.DeleteFunc(fn.values, func(v *Value) bool { return v.stmt == stmt })
	stmt.erased = true
	if fn.Builder.insertionPoint == stmt {
		fn.Builder.insertionPoint = nil
	}
	fn.Builder.notifyErased(stmt)
	return nil
}
