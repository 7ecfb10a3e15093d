package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/eval"
)

// MakeFunc makes the action running the body in the frame of its invocation. The frame is
// chained to the binding the function is made in. Unless the spec block declares 'return:' the
// function gets one: 'return' unwinds the invocation with the value
func MakeFunc(label string, spec, body easyeval.Value, b binding.Binding) (*eval.Action, error) {
	if body.Kind() != easyeval.KindBlock || body.IsQuoted() || body.IsAntiform() {
		return nil, fmt.Errorf("func '%s': body must be a block, got %s", label, body.Describe())
	}
	params, err := ParseSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("func '%s': %v", label, err)
	}
	hasReturn := false
	for i := range params {
		if params[i].Class == eval.ParamReturn {
			hasReturn = true
			break
		}
	}
	if !hasReturn {
		params = append(params, eval.Param{Name: "return", Class: eval.ParamReturn})
	}
	return eval.NewAction(label, params, func(l *eval.Level) (eval.Result, error) {
		ret, err := l.DoBlock(body, l.Frame(b))
		if err != nil {
			return eval.ResultThrown, err
		}
		return l.Return(ret)
	})
}

func evalFunc(l *eval.Level) (eval.Result, error) {
	act, err := MakeFunc("func", l.Arg("spec"), l.Arg("body"), l.Binding())
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(act.Value())
}

func evalDoes(l *eval.Level) (eval.Result, error) {
	act, err := MakeFunc("does", easyeval.Block(), l.Arg("body"), l.Binding())
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(act.Value())
}
