package eval

import (
	"encoding/binary"
	"fmt"

	"github.com/lunfardo314/easyeval"
	"golang.org/x/crypto/blake2b"
)

type ParamClass uint8

const (
	ParamNormal = ParamClass(iota)
	ParamTight
	ParamHardQuote
	ParamSoftQuote
	ParamRefinement
	ParamLocal
	ParamReturn
	ParamVariadic
)

var paramClassNames = [...]string{
	ParamNormal:     "normal",
	ParamTight:      "tight",
	ParamHardQuote:  "hard-quote",
	ParamSoftQuote:  "soft-quote",
	ParamRefinement: "refinement",
	ParamLocal:      "local",
	ParamReturn:     "return",
	ParamVariadic:   "variadic",
}

func (c ParamClass) String() string {
	if int(c) < len(paramClassNames) {
		return paramClassNames[c]
	}
	return "???"
}

// consumes is true for the classes which take input from the feed
func (c ParamClass) consumes() bool {
	switch c {
	case ParamNormal, ParamTight, ParamHardQuote, ParamSoftQuote:
		return true
	}
	return false
}

// IsQuoting is true for the classes which take the next value literally
func (c ParamClass) IsQuoting() bool {
	return c == ParamHardQuote || c == ParamSoftQuote
}

type Param struct {
	Name  string
	Class ParamClass
	Types easyeval.TypeSet
	// Endable parameters receive the missing value at end of input or at a barrier
	Endable bool
	// Skippable left-quoting parameters give up priority when the left value doesn't type check.
	// A skipped parameter holds null
	Skippable bool
	// Pull is the class used by a variadic parameter to take values
	Pull ParamClass

	owner int
}

// Owner is the index of the refinement the parameter belongs to, -1 if none
func (p *Param) Owner() int {
	return p.owner
}

// Result is the sentinel returned by a behavior
type Result uint8

const (
	// ResultOut means the behavior wrote the level output
	ResultOut = Result(iota)
	// ResultThrown goes together with a non-nil *Throw error
	ResultThrown
	// ResultRedoChecked re-enters fulfillment type checking the args under the current phase
	ResultRedoChecked
	// ResultRedoUnchecked runs the current phase with args as they are
	ResultRedoUnchecked
	// ResultInvisible means nothing observable was produced
	ResultInvisible
	numResults
)

type Behavior func(l *Level) (Result, error)

// Action is an invocable unit. It is immutable after creation: composition makes new actions
type Action struct {
	label    string
	params   []Param
	behavior Behavior
	exemplar []Arg
	// base is the action whose paramlist and phase this one derives from
	base   *Action
	infix  bool
	defers bool
	fp     [32]byte
}

func NewAction(label string, params []Param, behavior Behavior) (*Action, error) {
	if behavior == nil {
		return nil, fmt.Errorf("NewAction '%s': behavior can't be nil", label)
	}
	ps := make([]Param, len(params))
	copy(ps, params)
	if err := linkParams(ps); err != nil {
		return nil, fmt.Errorf("NewAction '%s': %v", label, err)
	}
	ret := &Action{
		label:    label,
		params:   ps,
		behavior: behavior,
	}
	ret.fp = fingerprint(ps)
	return ret, nil
}

func MustNewAction(label string, params []Param, behavior Behavior) *Action {
	ret, err := NewAction(label, params, behavior)
	if err != nil {
		panic(err)
	}
	return ret
}

func linkParams(ps []Param) error {
	names := make(map[string]struct{})
	owner := -1
	returns := 0
	for i := range ps {
		p := &ps[i]
		if p.Name == "" {
			return fmt.Errorf("param #%d has no name", i)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("duplicate param '%s'", p.Name)
		}
		names[p.Name] = struct{}{}
		switch p.Class {
		case ParamRefinement:
			owner = i
			p.owner = -1
		case ParamLocal:
			owner = -1
			p.owner = -1
		case ParamReturn:
			if returns++; returns > 1 {
				return fmt.Errorf("more than one return param")
			}
			owner = -1
			p.owner = -1
		case ParamVariadic:
			if !p.Pull.consumes() {
				return fmt.Errorf("variadic param '%s' has wrong pull class %s", p.Name, p.Pull)
			}
			p.owner = owner
		default:
			if p.Class > ParamVariadic {
				return fmt.Errorf("param '%s' has unknown class", p.Name)
			}
			p.owner = owner
		}
		if p.Skippable && (!p.Class.IsQuoting() || i != firstArg(ps)) {
			return fmt.Errorf("only the first quoting param can be skippable: '%s'", p.Name)
		}
	}
	return nil
}

// firstArg is the index of the first param which takes an argument, -1 if none
func firstArg(ps []Param) int {
	for i := range ps {
		if ps[i].Class.consumes() || ps[i].Class == ParamVariadic {
			if ps[i].owner >= 0 {
				return -1
			}
			return i
		}
		if ps[i].Class == ParamRefinement {
			return -1
		}
	}
	return -1
}

// fingerprint identifies the paramlist. Actions sharing it can be phases of each other
func fingerprint(ps []Param) [32]byte {
	var buf []byte
	var tmp [8]byte
	for i := range ps {
		buf = append(buf, ps[i].Name...)
		buf = append(buf, 0, byte(ps[i].Class), byte(ps[i].Pull))
		binary.BigEndian.PutUint64(tmp[:], uint64(ps[i].Types))
		buf = append(buf, tmp[:]...)
		if ps[i].Endable {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return blake2b.Sum256(buf)
}

func (a *Action) Label() string {
	return a.label
}

func (a *Action) Params() []Param {
	return a.params
}

func (a *Action) IsInfix() bool {
	return a.infix
}

func (a *Action) Defers() bool {
	return a.defers
}

func (a *Action) Fingerprint() [32]byte {
	return a.fp
}

// ParamIndex finds the parameter by name, -1 if not found
func (a *Action) ParamIndex(name string) int {
	for i := range a.params {
		if a.params[i].Name == name {
			return i
		}
	}
	return -1
}

// Root follows the derivation to the action which is not derived from any
func (a *Action) Root() *Action {
	ret := a
	for ret.base != nil {
		ret = ret.base
	}
	return ret
}

// Exemplar returns the specialized value of the param, if any
func (a *Action) Exemplar(i int) (easyeval.Value, bool) {
	if a.exemplar == nil || a.exemplar[i].State != ArgFilled {
		return easyeval.Value{}, false
	}
	return a.exemplar[i].Value, true
}

// LeftParam is the param receiving the left operand, -1 if the action can't take one
func (a *Action) LeftParam() int {
	for i := range a.params {
		if _, specialized := a.Exemplar(i); specialized {
			continue
		}
		switch {
		case a.params[i].Class == ParamRefinement:
			return -1
		case a.params[i].Class.consumes():
			return i
		}
	}
	return -1
}

// Related tells if the phase can run against args fulfilled for the action: both derive
// from the same action and share the paramlist
func (a *Action) Related(phase *Action) bool {
	return a.fp == phase.fp && a.Root() == phase.Root()
}

func (a *Action) derive(label string) *Action {
	ret := *a
	ret.label = label
	ret.base = a
	return &ret
}

// Value wraps the action into a value
func (a *Action) Value() easyeval.Value {
	return easyeval.ActionValue(a)
}

// ActionOf extracts the action from the value
func ActionOf(v easyeval.Value) (*Action, bool) {
	if v.Kind() != easyeval.KindAction || v.IsQuoted() || v.IsAntiform() {
		return nil, false
	}
	ret, ok := v.Action().(*Action)
	return ret, ok
}
