// Package optypes defines OpType and lists the supported operations.
package optypes

import (
	"fmt"

	"github.com/gomlx/tensorir/internal/utils"
)

// OpType is an enum of the operations the IR can hold.
type OpType int

//go:generate go tool enumer -type=OpType optypes.go

const (
	Invalid OpType = iota
	FuncReturn
	Constant
	Empty
	Dim
	Add

	ExpandShape
	CollapseShape
	ExtractSlice
	InsertSlice
	ParallelInsertSlice

	// Last is not an operation: it marks the number of OpType values.
	Last
)

var (
	// mlirMappings maps OpType to the corresponding MLIR name, when the default
	// "tensor.<snake case>" doesn't work.
	mlirMappings = map[OpType]string{
		FuncReturn: "func.return",
		Constant:   "arith.constant",
		Add:        "arith.addf",
	}
)

// ToMLIR returns the MLIR name of the operation.
func (op OpType) ToMLIR() string {
	name, ok := mlirMappings[op]
	if !ok {
		name = fmt.Sprintf("tensor.%s", utils.ToSnakeCase(op.String()))
	}
	return name
}

// HasSideEffects returns whether a statement of this op type must be kept even if its results are not used.
func (op OpType) HasSideEffects() bool {
	return op == FuncReturn || op == ParallelInsertSlice
}
