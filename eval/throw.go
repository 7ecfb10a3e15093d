package eval

import (
	"errors"
	"fmt"

	"github.com/lunfardo314/easyeval"
)

// reservedLabel is the payload of the internal throw labels. Labels compare by identity
type reservedLabel string

func (r reservedLabel) Label() string {
	return string(r)
}

var (
	labelUnwind = reservedLabel("unwind")
	labelRedo   = reservedLabel("redo")
	labelError  = reservedLabel("error")
	labelHalt   = reservedLabel("halt")
)

var (
	// UnwindLabel makes the target Level return the thrown value as its result
	UnwindLabel = easyeval.ActionValue(&labelUnwind)
	// RedoLabel makes the target Level re-enter fulfillment under the thrown phase
	RedoLabel = easyeval.ActionValue(&labelRedo)
	// ErrorLabel marks a thrown failure. The value is an error value holding *Error
	ErrorLabel = easyeval.ActionValue(&labelError)
	// HaltLabel is thrown by the safepoint when the runtime is halted. It can't be caught
	HaltLabel = easyeval.ActionValue(&labelHalt)
)

// Throw is the non-local signal travelling up the Level stack as a Go error
type Throw struct {
	Label easyeval.Value
	Value easyeval.Value
	// Target is the Level claiming unwind and redo throws
	Target *Level
	gen    uint64
}

func (t *Throw) Error() string {
	if e, ok := t.failure(); ok {
		return e.Error()
	}
	if t.IsHalt() {
		return "halted"
	}
	return fmt.Sprintf("uncaught throw %s with %s", t.Label.String(), t.Value.String())
}

// Unwrap exposes the structured error of a thrown failure
func (t *Throw) Unwrap() error {
	if e, ok := t.failure(); ok {
		return e
	}
	return nil
}

func (t *Throw) failure() (*Error, bool) {
	if !t.IsError() || t.Value.Kind() != easyeval.KindError {
		return nil, false
	}
	e, ok := t.Value.Err().(*Error)
	return e, ok
}

func (t *Throw) IsError() bool {
	return easyeval.Equal(t.Label, ErrorLabel)
}

func (t *Throw) IsHalt() bool {
	return easyeval.Equal(t.Label, HaltLabel)
}

// IsReserved is true for the labels which user-level catch must not claim
func (t *Throw) IsReserved() bool {
	return easyeval.Equal(t.Label, UnwindLabel) || easyeval.Equal(t.Label, RedoLabel) || t.IsHalt()
}

// claimedBy tells if the unwind or redo throw targets the current invocation of the level
func (t *Throw) claimedBy(l *Level) bool {
	return t.Target == l && t.gen == l.gen
}

func NewThrow(label, value easyeval.Value) *Throw {
	return &Throw{Label: label, Value: value}
}

func ThrowError(e *Error) error {
	return &Throw{Label: ErrorLabel, Value: easyeval.ErrorValue(e)}
}

// UnwindTo makes a throw which the level returns as its output
func UnwindTo(l *Level, v easyeval.Value) error {
	return &Throw{Label: UnwindLabel, Value: v, Target: l, gen: l.gen}
}

// RedoUnder makes a throw which re-enters the level's fulfillment under the phase
func RedoUnder(l *Level, phase *Action) error {
	return &Throw{Label: RedoLabel, Value: easyeval.ActionValue(phase), Target: l, gen: l.gen}
}

// AsThrow finds the throw in the error chain
func AsThrow(err error) (*Throw, bool) {
	var ret *Throw
	if errors.As(err, &ret) {
		return ret, true
	}
	return nil, false
}

// Catchable tells if a user-level catch may claim the error
func Catchable(err error) (*Throw, bool) {
	t, ok := AsThrow(err)
	if !ok || t.IsReserved() {
		return nil, false
	}
	return t, true
}
