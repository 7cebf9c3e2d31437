package rewrite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/tensorir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Result of ApplyPatternsGreedily.
type Result struct {
	// Changed is true if any statement was rewritten or erased.
	Changed bool

	// Rewrites is the number of successful pattern applications.
	Rewrites int

	// Erased is the number of dead statements removed.
	Erased int

	// PerPattern counts the successful applications per pattern name.
	PerPattern map[string]int
}

// worklist is a FIFO of statements, without repetitions.
type worklist struct {
	queue  []*tensorir.Statement
	queued map[*tensorir.Statement]bool
}

func (w *worklist) push(stmts ...*tensorir.Statement) {
	for _, stmt := range stmts {
		if stmt == nil || stmt.IsErased() || w.queued[stmt] {
			continue
		}
		w.queued[stmt] = true
		w.queue = append(w.queue, stmt)
	}
}

func (w *worklist) pop() *tensorir.Statement {
	stmt := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, stmt)
	return stmt
}

// pushUsers adds the statements using the given values.
func (w *worklist) pushUsers(values ...*tensorir.Value) {
	for _, v := range values {
		for _, use := range v.Uses() {
			w.push(use.Statement)
		}
	}
}

// pushProducers adds the statements defining the given values.
func (w *worklist) pushProducers(values ...*tensorir.Value) {
	for _, v := range values {
		w.push(v.DefiningOp())
	}
}

// ApplyPatternsGreedily applies the patterns of the set to the statements of fn and its closures, until no
// pattern applies anymore.
//
// Statements are visited in program order first; after a rewrite, the statements created or modified, their
// users, and the producers of erased statements' operands are revisited. For each statement, the patterns for its
// operation are tried in the order they were added to the set, and the first one that succeeds is taken.
//
// Once Config.MaxIterations rewrites were applied, the remaining worklist is still drained (dead statements are
// erased), and an error is returned only if a pattern still applies: the one extra rewrite is kept.
//
// A pattern that panics with an error is rolled back and the error is returned.
// If config is nil, DefaultConfig is used.
func ApplyPatternsGreedily(fn *tensorir.Function, set *PatternSet, config *Config) (result Result, err error) {
	if config == nil {
		config = DefaultConfig()
	}
	result.PerPattern = make(map[string]int)
	rw := NewRewriter(fn)
	builder := fn.Builder
	previousListener := builder.SetListener(nil)
	defer builder.SetListener(previousListener)

	work := &worklist{queued: make(map[*tensorir.Statement]bool)}
	fn.Walk(func(stmt *tensorir.Statement) { work.push(stmt) })

	for len(work.queue) > 0 {
		stmt := work.pop()
		if stmt.IsErased() {
			continue
		}
		if config.deadCodeElimination && tensorir.IsTriviallyDead(stmt) {
			operands := stmt.Inputs
			if err = stmt.Function.Erase(stmt); err != nil {
				return result, err
			}
			klog.V(2).Infof("rewrite: erased dead %s", stmt.OpType)
			result.Erased++
			result.Changed = true
			work.pushProducers(operands...)
			continue
		}

		limitReached := config.maxIterations > 0 && result.Rewrites >= config.maxIterations
		for _, pattern := range set.ForOp(stmt.OpType) {
			var applied bool
			applied, err = applyPattern(rw, pattern, stmt)
			if err != nil {
				return result, err
			}
			if !applied {
				continue
			}
			if limitReached {
				return result, errors.Errorf("ApplyPatternsGreedily(%q): no fixpoint reached after %d rewrites, "+
					"pattern %q still applies to %s", fn.Name, result.Rewrites, pattern.Name(), stmt.OpType)
			}
			result.Rewrites++
			result.PerPattern[pattern.Name()]++
			result.Changed = true

			// Revisit everything affected by the rewrite.
			for _, created := range rw.created {
				if created.IsErased() {
					continue
				}
				work.push(created)
				work.pushUsers(created.Outputs...)
			}
			for _, modified := range rw.modified {
				if modified.IsErased() {
					continue
				}
				work.push(modified)
				work.pushUsers(modified.Outputs...)
			}
			work.pushProducers(rw.previousOperands...)
			if !stmt.IsErased() {
				work.push(stmt)
			}
			break
		}
	}

	if klog.V(1).Enabled() {
		klog.Infof("rewrite: function %q: %d rewrites, %d dead statements erased, per pattern: %v",
			fn.Name, result.Rewrites, result.Erased, result.PerPattern)
	}
	return result, nil
}

// applyPattern tries one pattern on stmt, rolling back the statements it created if it declines.
func applyPattern(rw *Rewriter, pattern Pattern, stmt *tensorir.Statement) (applied bool, err error) {
	if err = rw.begin(pattern, stmt); err != nil {
		rw.end()
		return false, err
	}
	panicErr := exceptions.TryCatch[error](func() {
		applied = pattern.MatchAndRewrite(stmt, rw)
	})
	rw.end()
	if panicErr != nil {
		if rollbackErr := rw.rollback(); rollbackErr != nil {
			klog.Errorf("rewrite: %v", rollbackErr)
		}
		return false, errors.WithMessagef(panicErr, "pattern %q panicked on %s", pattern.Name(), stmt.OpType)
	}
	if !applied {
		if err = rw.rollback(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
