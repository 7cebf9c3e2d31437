package rewrite

import (
	"fmt"
	"slices"

	"github.com/gomlx/tensorir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Rewriter is given to patterns to change the program. It tracks the statements created, modified and erased by
// the pattern being applied, so the driver can roll back a declined attempt and revisit the affected statements.
//
// New statements are created with the tensorir op constructors: the driver sets the insertion point just before
// the statement being rewritten.
type Rewriter struct {
	fn      *tensorir.Function
	builder *tensorir.Builder

	pattern  Pattern
	created  []*tensorir.Statement
	modified []*tensorir.Statement
	erased   []*tensorir.Statement

	// previousOperands are the values no longer used by erased or modified statements: their producers may have
	// become dead.
	previousOperands []*tensorir.Value

	committed     bool
	failureReason string
}

var _ tensorir.Listener = (*Rewriter)(nil)

// NewRewriter creates a Rewriter for the function fn (and its closures).
// Usually, one doesn't need to create one: ApplyPatternsGreedily creates it.
func NewRewriter(fn *tensorir.Function) *Rewriter {
	return &Rewriter{
		fn:      fn,
		builder: fn.Builder,
	}
}

// Function being rewritten.
func (rw *Rewriter) Function() *tensorir.Function {
	return rw.fn
}

// FailureReason returns the reason given to the last NotifyMatchFailure, during the current pattern application.
func (rw *Rewriter) FailureReason() string {
	return rw.failureReason
}

// NotifyStatementInserted implements tensorir.Listener.
func (rw *Rewriter) NotifyStatementInserted(stmt *tensorir.Statement) {
	rw.created = append(rw.created, stmt)
}

// NotifyStatementErased implements tensorir.Listener.
func (rw *Rewriter) NotifyStatementErased(stmt *tensorir.Statement) {
	rw.erased = append(rw.erased, stmt)
	rw.previousOperands = append(rw.previousOperands, stmt.Inputs...)
}

// begin prepares the rewriter for an application of pattern on stmt.
func (rw *Rewriter) begin(pattern Pattern, stmt *tensorir.Statement) error {
	rw.pattern = pattern
	rw.created = rw.created[:0]
	rw.modified = rw.modified[:0]
	rw.erased = rw.erased[:0]
	rw.previousOperands = rw.previousOperands[:0]
	rw.committed = false
	rw.failureReason = ""
	rw.builder.SetListener(rw)
	return rw.builder.SetInsertionPoint(stmt)
}

// end restores the builder after a pattern application.
func (rw *Rewriter) end() {
	rw.builder.ClearInsertionPoint()
	rw.builder.SetListener(nil)
}

// rollback erases the statements created by a pattern that declined, in reverse order of creation.
func (rw *Rewriter) rollback() error {
	if rw.committed {
		return errors.Errorf("pattern %q declined after changing the program", rw.pattern.Name())
	}
	created := slices.Clone(rw.created)
	for _, stmt := range slices.Backward(created) {
		if stmt.IsErased() {
			continue
		}
		if err := stmt.Function.Erase(stmt); err != nil {
			return errors.WithMessagef(err, "failed to roll back statement created by pattern %q", rw.pattern.Name())
		}
	}
	rw.created = rw.created[:0]
	rw.erased = rw.erased[:0]
	rw.previousOperands = rw.previousOperands[:0]
	return nil
}

// ReplaceOp replaces all uses of the outputs of stmt by the given values (one per output), and erases stmt.
func (rw *Rewriter) ReplaceOp(stmt *tensorir.Statement, values ...*tensorir.Value) error {
	if len(values) != len(stmt.Outputs) {
		return errors.Errorf("ReplaceOp(%s): %d replacement values given for %d outputs",
			stmt.OpType, len(values), len(stmt.Outputs))
	}
	fn := stmt.Function
	for i, output := range stmt.Outputs {
		if err := fn.ReplaceAllUsesWith(output, values[i]); err != nil {
			return errors.WithMessagef(err, "ReplaceOp(%s)", stmt.OpType)
		}
		rw.committed = true
	}
	if err := fn.Erase(stmt); err != nil {
		return errors.WithMessagef(err, "ReplaceOp(%s)", stmt.OpType)
	}
	rw.committed = true
	klog.V(2).Infof("rewrite: %s replaced %s", rw.patternName(), stmt.OpType)
	return nil
}

// ReplaceOpWithStatement replaces stmt by newStmt, which must have the same number of outputs.
// If both have no outputs (e.g. ParallelInsertSlice), stmt is simply erased.
func (rw *Rewriter) ReplaceOpWithStatement(stmt, newStmt *tensorir.Statement) error {
	return rw.ReplaceOp(stmt, newStmt.Outputs...)
}

// ModifyOpInPlace changes stmt with the given function, preserving its identity (its outputs and uses).
// If modify returns an error the statement is considered unchanged.
func (rw *Rewriter) ModifyOpInPlace(stmt *tensorir.Statement, modify func() error) error {
	operands := slices.Clone(stmt.Inputs)
	if err := modify(); err != nil {
		return errors.WithMessagef(err, "ModifyOpInPlace(%s)", stmt.OpType)
	}
	rw.committed = true
	rw.modified = append(rw.modified, stmt)
	rw.previousOperands = append(rw.previousOperands, operands...)
	klog.V(2).Infof("rewrite: %s modified %s in place", rw.patternName(), stmt.OpType)
	return nil
}

// EraseOp erases stmt, which must have no uses.
func (rw *Rewriter) EraseOp(stmt *tensorir.Statement) error {
	if err := stmt.Function.Erase(stmt); err != nil {
		return err
	}
	rw.committed = true
	return nil
}

// EraseIfUnused erases stmt if it is trivially dead, and returns whether it was erased.
func (rw *Rewriter) EraseIfUnused(stmt *tensorir.Statement) (bool, error) {
	if !tensorir.IsTriviallyDead(stmt) {
		return false, nil
	}
	if err := rw.EraseOp(stmt); err != nil {
		return false, err
	}
	return true, nil
}

// NotifyMatchFailure records why the pattern did not apply to stmt, and returns false, so patterns can decline with
// `return rw.NotifyMatchFailure(stmt, "reason")`.
//
// The reason is only informative (logged with klog verbosity 2), it has no effect on the rewriting.
func (rw *Rewriter) NotifyMatchFailure(stmt *tensorir.Statement, format string, args ...any) bool {
	rw.failureReason = fmt.Sprintf(format, args...)
	if klog.V(2).Enabled() {
		klog.Infof("rewrite: %s declined %s: %s", rw.patternName(), stmt.OpType, rw.failureReason)
	}
	return false
}

func (rw *Rewriter) patternName() string {
	if rw.pattern == nil {
		return "<no pattern>"
	}
	return rw.pattern.Name()
}
