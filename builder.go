package tensorir

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/pkg/errors"
)

// Builder is used to construct a program (or "Module") of tensor operations.
// See details in New.
type Builder struct {
	name string

	// functions holds all the functions created in the builder's scope, including closures.
	functions []*Function

	// insertionPoint, if set, is the statement before which new statements are inserted.
	insertionPoint *Statement

	// listener is notified of statements inserted or erased, if set.
	listener Listener
}

// Listener is notified about changes to the program. It is used by rewrite drivers to track the statements
// created by a rewrite.
type Listener interface {
	// NotifyStatementInserted is called after a new statement is added to a function.
	NotifyStatementInserted(stmt *Statement)

	// NotifyStatementErased is called after a statement is removed from its function.
	NotifyStatementErased(stmt *Statement)
}

// New creates a new Builder object holding a program in construction.
//
// From a builder you can create functions.
// For each function you create operations (ops) one by one, until you defined the desired computation.
//
// Once you are all set, call Builder.Build and it will return the program in MLIR generic text format.
func New(name string) *Builder {
	return &Builder{
		name: name,
	}
}

// elementWriter represents elements of the program that know how to write themselves.
type elementWriter interface {
	Write(w io.Writer, indentation string) error
}

// NewFunction creates a new function and adds it to the program.
//
// The function name must be unique in the program.
//
// The inputs are the values that the function will receive as arguments, usually created with NamedValue.
// You can also add new inputs later by calling Function.Input.
//
// The function body is defined by calling ops on the function object.
func (b *Builder) NewFunction(name string, inputs ...*Value) *Function {
	fn := &Function{
		Builder: b,
		Name:    name,
		Inputs:  inputs,
		values:  slices.Clone(inputs),
	}
	for _, input := range inputs {
		input.fn = fn
	}
	b.functions = append(b.functions, fn)
	return fn
}

const MainFunctionName = "main"

// Main creates the main function of the program.
// It is an alias to Builder.NewFunction("main", inputs...).
func (b *Builder) Main(inputs ...*Value) *Function {
	return b.NewFunction(MainFunctionName, inputs...)
}

// Functions returns the functions of the program, including closures.
func (b *Builder) Functions() []*Function {
	return b.functions
}

const IndentationStep = "  "

// SetListener sets (or clears, if nil) the listener notified of changes to the program.
// It returns the previous listener.
func (b *Builder) SetListener(listener Listener) Listener {
	previous := b.listener
	b.listener = listener
	return previous
}

// SetInsertionPoint makes new statements be inserted just before stmt, in stmt's function, instead of appended
// to the end of the function of their operands.
//
// While an insertion point is set, statements can be added to functions that already returned.
func (b *Builder) SetInsertionPoint(stmt *Statement) error {
	if stmt == nil || stmt.Function == nil || stmt.Function.Builder != b {
		return errors.New("SetInsertionPoint requires a statement that is part of a function of this builder")
	}
	if stmt.erased {
		return errors.Errorf("SetInsertionPoint on erased statement %s", stmt.OpType)
	}
	b.insertionPoint = stmt
	return nil
}

// ClearInsertionPoint resets the insertion point: new statements are appended to the end of their functions.
func (b *Builder) ClearInsertionPoint() {
	b.insertionPoint = nil
}

// InsertionPoint returns the current insertion point, or nil if none is set.
func (b *Builder) InsertionPoint() *Statement {
	return b.insertionPoint
}

// Write the program (a readable string) to the given writer.
//
// It will write incomplete programs (without a main function or empty statements) without an error
// to help debugging.
//
// See Builder.Build to check and output the program.
func (b *Builder) Write(writer io.Writer) error {
	// w and we are no-ops after the first error.
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

	w("module @%s {\n", NormalizeIdentifier(b.name))
	var count int
	for _, fn := range b.functions {
		if fn.Parent != nil {
			continue
		}
		if count > 0 {
			w("\n\n")
		}
		we(fn, IndentationStep) // Indent functions inside module
		count++
	}
	w("\n}\n") // Close module block
	return err
}

// Build checks the validity and builds the program.
//
// If you want the output of an incomplete program (without the checking), use Builder.Write instead.
func (b *Builder) Build() ([]byte, error) {
	hasMain := false
	for _, fn := range b.functions {
		if fn.Name == MainFunctionName {
			hasMain = true
		}
		if len(fn.Statements) == 0 {
			return nil, errors.Errorf("function %q has no statements", fn.Name)
		}
		if fn.Parent != nil {
			// Verified with their parent.
			continue
		}
		if err := fn.Verify(); err != nil {
			return nil, errors.WithMessagef(err, "invalid function %q", fn.Name)
		}
	}
	if !hasMain {
		return nil, errors.New("program must have a main function")
	}

	var buf bytes.Buffer
	err := b.Write(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String implements fmt.Stringer, it returns the (possibly incomplete) program text.
func (b *Builder) String() string {
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		return fmt.Sprintf("Builder(%q): failed to write: %v", b.name, err)
	}
	return buf.String()
}
