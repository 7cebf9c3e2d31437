// Package rewrite applies local rewrite patterns to the functions of a tensorir program.
//
// A Pattern matches one statement (its root) and either declines, leaving the program untouched, or rewrites
// it through the Rewriter. The greedy driver, ApplyPatternsGreedily, applies the patterns of a PatternSet until
// none of them matches anymore.
package rewrite

import (
	"github.com/gomlx/tensorir"
)

// Pattern is a local rewrite rule.
type Pattern interface {
	// Name of the pattern, used for logging and in Result.PerPattern.
	Name() string

	// RootOps lists the operations the pattern can match. If empty, the pattern is tried on every statement.
	RootOps() []tensorir.OpType

	// MatchAndRewrite tries to rewrite the statement, with the builder insertion point set just before it.
	//
	// It returns false if the pattern doesn't apply: in which case it must not have changed existing
	// statements (new statements it created are erased by the driver).
	MatchAndRewrite(stmt *tensorir.Statement, rw *Rewriter) bool
}

// PatternSet is an ordered collection of patterns. Patterns are tried in the order they were added.
//
// It is meant to be populated once and then only read, so it can be shared.
type PatternSet struct {
	patterns []Pattern
	byOp     map[tensorir.OpType][]Pattern
	anyOp    []Pattern
}

// NewPatternSet creates an empty PatternSet.
func NewPatternSet() *PatternSet {
	return &PatternSet{
		byOp: make(map[tensorir.OpType][]Pattern),
	}
}

// Add patterns to the set. It returns the set itself, so calls can be chained.
func (s *PatternSet) Add(patterns ...Pattern) *PatternSet {
	if s.byOp == nil {
		s.byOp = make(map[tensorir.OpType][]Pattern)
	}
	for _, p := range patterns {
		s.patterns = append(s.patterns, p)
		rootOps := p.RootOps()
		if len(rootOps) == 0 {
			s.anyOp = append(s.anyOp, p)
			for op := range s.byOp {
				s.byOp[op] = append(s.byOp[op], p)
			}
			continue
		}
		for _, op := range rootOps {
			if _, found := s.byOp[op]; !found {
				s.byOp[op] = append([]Pattern(nil), s.anyOp...)
			}
			s.byOp[op] = append(s.byOp[op], p)
		}
	}
	return s
}

// Patterns returns all the patterns, in the order they were added.
func (s *PatternSet) Patterns() []Pattern {
	return s.patterns
}

// Len returns the number of patterns in the set.
func (s *PatternSet) Len() int {
	return len(s.patterns)
}

// ForOp returns the patterns that can match a statement of the given operation, in the order they were added.
func (s *PatternSet) ForOp(op tensorir.OpType) []Pattern {
	if patterns, found := s.byOp[op]; found {
		return patterns
	}
	return s.anyOp
}
