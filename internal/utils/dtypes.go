package utils

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
)

// mlirElementTypes maps dtypes to MLIR builtin element types. Signed integers are signless in MLIR.
var mlirElementTypes = map[dtypes.DType]string{
	dtypes.Bool:       "i1",
	dtypes.S8:         "i8",
	dtypes.S16:        "i16",
	dtypes.S32:        "i32",
	dtypes.S64:        "i64",
	dtypes.U8:         "ui8",
	dtypes.U16:        "ui16",
	dtypes.U32:        "ui32",
	dtypes.U64:        "ui64",
	dtypes.F16:        "f16",
	dtypes.BFloat16:   "bf16",
	dtypes.F32:        "f32",
	dtypes.F64:        "f64",
	dtypes.Complex64:  "complex<f32>",
	dtypes.Complex128: "complex<f64>",
}

// DTypeToMLIR returns the MLIR builtin element type name for the dtype.
// Unsupported dtypes render as "unknown_dtype<name>", which the MLIR parser rejects.
func DTypeToMLIR(dtype dtypes.DType) string {
	if name, found := mlirElementTypes[dtype]; found {
		return name
	}
	return fmt.Sprintf("unknown_dtype<%s>", dtype)
}
