package eval

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
)

// Specialize makes an action with params pre-filled by the values. Refinements take logic
// values. Specializing an argument of a refinement turns the refinement on
func Specialize(a *Action, label string, values map[string]easyeval.Value) (*Action, error) {
	for name := range values {
		if a.ParamIndex(name) < 0 {
			return nil, &Error{Kind: BadRefinement, Action: a.label, Param: name, Message: "no such param to specialize"}
		}
	}
	ex := make([]Arg, len(a.params))
	copy(ex, a.exemplar)
	for i := range a.params {
		p := &a.params[i]
		v, ok := values[p.Name]
		if !ok {
			continue
		}
		if ex[i].State == ArgFilled {
			return nil, &Error{Kind: BadRefinement, Action: a.label, Param: p.Name, Message: "param is already specialized"}
		}
		switch p.Class {
		case ParamReturn:
			return nil, &Error{Kind: BadRefinement, Action: a.label, Param: p.Name, Message: "return can't be specialized"}
		case ParamRefinement:
			if v.IsTruthy() {
				v = easyeval.Logic(true)
			} else {
				v = easyeval.Null()
			}
		case ParamLocal:
		case ParamVariadic:
			if _, ok := VarargsOf(v); !ok {
				return nil, &Error{Kind: NotVariadic, Action: a.label, Param: p.Name, Value: v, HasVal: true, Message: "varargs expected"}
			}
		default:
			if p.owner >= 0 {
				switch {
				case ex[p.owner].State != ArgFilled:
					ex[p.owner] = Arg{Value: easyeval.Logic(true), State: ArgFilled, Checked: true}
				case !ex[p.owner].Value.IsTruthy():
					return nil, &Error{Kind: BadRefinementRevoke, Action: a.label, Param: p.Name, Value: v, HasVal: true,
						Message: "refinement is specialized as unused"}
				}
			}
			if v.IsMissing() || !p.Types.Check(v) {
				return nil, &Error{Kind: TypeMismatch, Action: a.label, Param: p.Name, Value: v, HasVal: true,
					Message: fmt.Sprintf("%s is not allowed, expected %s", v.Describe(), p.Types)}
			}
		}
		ex[i] = Arg{Value: v, State: ArgFilled, Checked: true}
	}
	ret := a.derive(label)
	ret.exemplar = ex
	return ret, nil
}

// Adapt makes an action which runs the prelude in the frame of the call, then the adaptee
// with the args as the prelude left them, type checked again
func Adapt(a *Action, label string, prelude easyeval.Value, b binding.Binding) *Action {
	ret := a.derive(label)
	ret.behavior = func(l *Level) (Result, error) {
		if _, err := l.DoBlock(prelude, l.Frame(b)); err != nil {
			return ResultThrown, err
		}
		if err := l.SetPhase(a); err != nil {
			return ResultThrown, err
		}
		return ResultRedoChecked, nil
	}
	return ret
}

// Chain makes an action which runs the actions as a pipeline: the first takes the args of
// the call, each next one takes the output of the previous one as its only argument
func Chain(label string, acts ...*Action) (*Action, error) {
	if len(acts) == 0 {
		return nil, fmt.Errorf("Chain '%s': no actions", label)
	}
	for _, a := range acts[1:] {
		if a.LeftParam() < 0 {
			return nil, fmt.Errorf("Chain '%s': '%s' takes no argument", label, a.label)
		}
	}
	first := acts[0]
	rest := make([]*Action, len(acts)-1)
	copy(rest, acts[1:])
	ret := first.derive(label)
	ret.behavior = func(l *Level) (Result, error) {
		if err := l.SetPhase(first); err != nil {
			return ResultThrown, err
		}
		l.PushChain(rest...)
		return ResultRedoUnchecked, nil
	}
	return ret, nil
}

// Enfix makes the infix version of the action. Deferring infix actions let the argument
// being fulfilled finish first and take the output of the whole invocation
func Enfix(a *Action, label string, defers bool) (*Action, error) {
	if a.LeftParam() < 0 {
		return nil, fmt.Errorf("Enfix '%s': '%s' takes no argument", label, a.label)
	}
	ret := a.derive(label)
	ret.infix = true
	ret.defers = defers
	return ret, nil
}
