package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lunfardo314/easyeval"
)

type ErrorKind uint8

const (
	MissingArgument = ErrorKind(iota + 1)
	TypeMismatch
	BadRefinementRevoke
	NotVariadic
	UnboundName
	ExpressionBarrierViolation
	InvalidDispatchResult
	BadRefinement
	BadPath
	StackOverflow
	VarargsExpired
	BadPhase
	Failure
)

var errorKindNames = map[ErrorKind]string{
	MissingArgument:            "missing-argument",
	TypeMismatch:               "type-mismatch",
	BadRefinementRevoke:        "bad-refinement-revoke",
	NotVariadic:                "not-variadic",
	UnboundName:                "unbound-name",
	ExpressionBarrierViolation: "expression-barrier",
	InvalidDispatchResult:      "invalid-dispatch-result",
	BadRefinement:              "bad-refinement",
	BadPath:                    "bad-path",
	StackOverflow:              "stack-overflow",
	VarargsExpired:             "varargs-expired",
	BadPhase:                   "bad-phase",
	Failure:                    "failure",
}

func (k ErrorKind) String() string {
	if ret, ok := errorKindNames[k]; ok {
		return ret
	}
	return fmt.Sprintf("error-kind(%d)", k)
}

// Error is the structured error value carried by thrown failures
type Error struct {
	Kind    ErrorKind
	Action  string
	Param   string
	Value   easyeval.Value
	HasVal  bool
	Message string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Action != "" {
		sb.WriteString(" in '" + e.Action + "'")
	}
	if e.Param != "" {
		sb.WriteString(" param '" + e.Param + "'")
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	return sb.String()
}

// Is makes errors.Is match by kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Action == "" && t.Param == "" && t.Message == ""
}

// Kinded is a template for errors.Is, e.g. errors.Is(err, eval.Kinded(eval.TypeMismatch))
func Kinded(k ErrorKind) error {
	return &Error{Kind: k}
}

// AsError finds the structured error in a thrown failure or plain error chain
func AsError(err error) (*Error, bool) {
	var ret *Error
	if errors.As(err, &ret) {
		return ret, true
	}
	return nil, false
}

// ErrorKindOf returns the kind of the structured error or zero
func ErrorKindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return 0
}

func (l *Level) actionLabel() string {
	if l.original == nil {
		return ""
	}
	if l.label != "" {
		return l.label
	}
	return l.original.label
}

func (l *Level) paramName(i int) string {
	if l.original == nil || i < 0 || i >= len(l.original.params) {
		return ""
	}
	return l.original.params[i].Name
}

func (l *Level) errMissingArgument(i int) error {
	return l.fail(&Error{
		Kind:    MissingArgument,
		Action:  l.actionLabel(),
		Param:   l.paramName(i),
		Message: "argument is missing",
	})
}

func (l *Level) errBarrier(i int) error {
	return l.fail(&Error{
		Kind:    ExpressionBarrierViolation,
		Action:  l.actionLabel(),
		Param:   l.paramName(i),
		Message: "expression barrier hit where a value was expected",
	})
}

func (l *Level) errTypeMismatch(i int, v easyeval.Value) error {
	return l.fail(&Error{
		Kind:    TypeMismatch,
		Action:  l.actionLabel(),
		Param:   l.paramName(i),
		Value:   v,
		HasVal:  true,
		Message: fmt.Sprintf("%s is not allowed, expected %s", v.Describe(), l.original.params[i].Types),
	})
}

func (l *Level) errBadRevoke(i int, v easyeval.Value) error {
	return l.fail(&Error{
		Kind:    BadRefinementRevoke,
		Action:  l.actionLabel(),
		Param:   l.paramName(i),
		Value:   v,
		HasVal:  true,
		Message: "all arguments of a revoked or unused refinement must be null",
	})
}

func (l *Level) errNotVariadic(i int, v easyeval.Value) error {
	return l.fail(&Error{
		Kind:    NotVariadic,
		Action:  l.actionLabel(),
		Param:   l.paramName(i),
		Value:   v,
		HasVal:  true,
		Message: fmt.Sprintf("variadic parameter got %s", v.Describe()),
	})
}

func (l *Level) errBadRefinement(name, msg string) error {
	return l.fail(&Error{
		Kind:    BadRefinement,
		Action:  l.actionLabel(),
		Param:   name,
		Message: msg,
	})
}

func errUnbound(sym string, cause error) *Error {
	return &Error{
		Kind:    UnboundName,
		Value:   easyeval.Word(sym),
		HasVal:  true,
		Message: cause.Error(),
	}
}

func errBadPath(path easyeval.Value, msg string) *Error {
	return &Error{
		Kind:    BadPath,
		Value:   path,
		HasVal:  true,
		Message: msg,
	}
}

// Fail makes a thrown user failure
func Fail(format string, args ...interface{}) error {
	return ThrowError(&Error{
		Kind:    Failure,
		Message: fmt.Sprintf(format, args...),
	})
}

// Raise makes the error travel as a thrown failure. Structured errors keep their kind
func Raise(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsThrow(err); ok {
		return err
	}
	if e, ok := AsError(err); ok {
		return ThrowError(e)
	}
	return ThrowError(&Error{Kind: Failure, Message: err.Error()})
}

func (l *Level) fail(e *Error) error {
	if l.rt.cfg.Trace {
		l.rt.log.Debugf("failure at depth %d: %v", l.depth, e)
	}
	return ThrowError(e)
}
