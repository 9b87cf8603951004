// Package evalerr builds the evaluator's first-class error values
// (spec.md §4.8, §7): a "plain" error is an ordinary KindError context
// value with a closed-vocabulary kind tag and a message, readable and
// storable like any other value; "raising" one lifts it to the error
// antiform a dispatcher hands to action.ThrownBounce, and the
// trampoline converts an unhandled raise into a Go error as it unwinds
// (spec.md §4.8 "a dispatcher signals failure by returning a
// raised-error bounce"). Grounded on the teacher's
// internal/errors/errors.go chainable SentraError builder (NewSyntaxError
// / NewRuntimeError / WithSource / WithStack), replaced here with a
// context-value builder since this runtime represents every compound
// value — including an error — as a ctx.Context rather than a bespoke
// Go struct; github.com/pkg/errors supplies Go-level stack traces for
// this package's own internal error returns, which is a separate
// concern from the spec-level error values the evaluator manipulates.
package evalerr

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

// fields interns this package's own fixed vocabulary of field-name and
// kind-tag symbols: "kind", "message", and the closed Kind constants
// below. These never need to share identity with a runtime's own
// symbol.Table — an error value's "kind" key only ever has to compare
// equal to itself, so evalerr keeps a private table rather than asking
// every caller to thread its own tbl through just to build an error.
var fields = symbol.New()

var (
	symKind    = fields.Intern("kind")
	symMessage = fields.Intern("message")
)

// Kind is the closed vocabulary of error categories spec.md §7 names.
// It is stored as a word in an error value's "kind" field, so two
// errors of the same Kind compare equal the way any two same-named
// words do.
type Kind string

const (
	BadMake         Kind = "bad-make"
	Overflow        Kind = "overflow"
	ZeroDivide      Kind = "zero-divide"
	OutOfRange      Kind = "out-of-range"
	Invalid         Kind = "invalid"
	InvalidCompare  Kind = "invalid-compare"
	InvalidType     Kind = "invalid-type"
	UnexpectedType  Kind = "unexpected-type"
	BadAntiform     Kind = "bad-antiform"
	BadPoke         Kind = "bad-poke"
	NoArg           Kind = "no-arg"
	NoPortAction    Kind = "no-port-action"
	BadExtension    Kind = "bad-extension"
	NativeUnloaded  Kind = "native-unloaded"
	NeedNonNull     Kind = "need-non-null"
	MathArgs        Kind = "math-args"
	TypeLimit       Kind = "type-limit"
	InvalidPart     Kind = "invalid-part"
	VarargsTakeLast Kind = "varargs-take-last"
	VarargsNoLook   Kind = "varargs-no-look"
	Positive        Kind = "positive"
	IllegalAction   Kind = "illegal-action"
	// User marks an error raised by a script itself (a `fail` or
	// similar user-facing native), as opposed to one the runtime
	// raised on the script's behalf.
	User Kind = "user"
	// Veto is not a user-visible failure: reductions and other
	// collection-builders use it internally to cancel a partial
	// result without a message ever reaching a catch handler (spec.md
	// §7 "a veto cancels the enclosing collection, not the program").
	Veto Kind = "veto"
)

// New builds a plain error value: a KindError context with a "kind"
// word field and a "message" text field. The result is an ordinary
// inert value until Raise lifts it.
func New(pool *memory.Pool, kind Kind, message string) cell.Cell {
	c := ctx.New(pool, ctx.KindError, 2)
	c.Append(pool, symKind, cell.Word(cell.KindWord, fields.Intern(string(kind))))
	msg := cell.NewText(len(message))
	msg.AsStub().Dynamic.AppendBytes([]byte(message))
	c.Append(pool, symMessage, msg)
	return c.Archetype()
}

// Newf is New with fmt.Sprintf-style formatting of the message.
func Newf(pool *memory.Pool, kind Kind, format string, args ...any) cell.Cell {
	return New(pool, kind, fmt.Sprintf(format, args...))
}

// Raise lifts a plain error value to the antiform a dispatcher returns
// through action.ThrownBounce to signal active failure propagation.
func Raise(errVal cell.Cell) cell.Cell { return cell.RaisedError(errVal) }

// RaiseNew is the common case at a native's call site: build a plain
// error value and raise it in one step.
func RaiseNew(pool *memory.Pool, kind Kind, message string) cell.Cell {
	return Raise(New(pool, kind, message))
}

// RaiseNewf is RaiseNew with fmt.Sprintf-style formatting.
func RaiseNewf(pool *memory.Pool, kind Kind, format string, args ...any) cell.Cell {
	return Raise(Newf(pool, kind, format, args...))
}

// IsRaised reports whether c is an active (antiform) error.
func IsRaised(c cell.Cell) bool { return c.IsRaisedError() }

// Plain converts a raised error back into an ordinary inert value
// (spec.md §4.8 "converting a thrown error into a plain value is
// explicit").
func Plain(c cell.Cell) cell.Cell { return c.PlainError() }

// FromCell recovers the underlying *ctx.Context of an error value,
// raised or plain, so its fields can be inspected with Get/IndexOf.
// Mirrors action.FromCell's stub-recovery idiom: the context's private
// kind tag is never consulted here, only its varlist/keylist pair, so
// reconstructing a bare *ctx.Context around the stub is safe.
func FromCell(c cell.Cell) (*ctx.Context, bool) {
	if c.Kind != cell.KindError {
		return nil, false
	}
	return &ctx.Context{Varlist: c.AsStub()}, true
}

// KindOf reports the closed error-kind tag stored in an error value's
// "kind" field.
func KindOf(c cell.Cell) (Kind, bool) {
	ec, ok := FromCell(c)
	if !ok {
		return "", false
	}
	v, ok := ec.Get(symKind)
	if !ok || v.Kind != cell.KindWord {
		return "", false
	}
	return Kind(v.Symbol().String()), true
}

// MessageOf reports the human-readable text stored in an error value's
// "message" field.
func MessageOf(c cell.Cell) (string, bool) {
	ec, ok := FromCell(c)
	if !ok {
		return "", false
	}
	v, ok := ec.Get(symMessage)
	if !ok {
		return "", false
	}
	return string(v.AsStub().Dynamic.Bytes()), true
}

// Wrap attaches kind context and a Go-level stack trace to err, for a
// component that needs to log or return a plain Go error rather than
// an evaluator error value (e.g. internal/module's load pipeline). It
// does not itself build a spec-level error value. A nil err passes
// through unchanged, matching github.com/pkg/errors.Wrap's own
// contract.
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrapf(err, "evalerr: %s", kind)
}
