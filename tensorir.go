// Package tensorir holds a small SSA intermediate representation (IR) of tensor programs, focused on the
// rank-changing tensor operations: ExpandShape, CollapseShape, ExtractSlice, InsertSlice and ParallelInsertSlice.
//
// Among its features:
//
//   - Builder API: a Builder holds Functions, each a list of Statements that consume and produce Values.
//   - Shape inference and validation of every new statement (see package shapeinference).
//   - Def/use queries (Value.DefiningOp, Value.Uses) and the graph surgery primitives needed by rewrite drivers:
//     insertion points, ReplaceAllUsesWith, SetOperand and Erase.
//   - A verifier (Function.Verify) and rendering to MLIR generic text format, for debugging and tests.
//
// The rewrite rules that simplify chains of reshapes live in package reshapefold, and the driver that applies
// them to a fixpoint in package rewrite.
package tensorir

import (
	"github.com/gomlx/tensorir/internal/optypes"
	"github.com/gomlx/tensorir/internal/utils"
)

// NormalizeIdentifier converts the name of an identifier (function name or function input parameter
// name, etc.) to a valid one: only letters, digits, and underscores are allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	return utils.NormalizeIdentifier(name)
}

// OpType identifies the operation of a Statement.
type OpType = optypes.OpType

// Operation types, for users of the package outside this module (e.g. to implement rewrite patterns).
const (
	OpFuncReturn          = optypes.FuncReturn
	OpConstant            = optypes.Constant
	OpEmpty               = optypes.Empty
	OpDim                 = optypes.Dim
	OpAdd                 = optypes.Add
	OpExpandShape         = optypes.ExpandShape
	OpCollapseShape       = optypes.CollapseShape
	OpExtractSlice        = optypes.ExtractSlice
	OpInsertSlice         = optypes.InsertSlice
	OpParallelInsertSlice = optypes.ParallelInsertSlice
)
