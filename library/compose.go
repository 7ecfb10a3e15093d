package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/eval"
)

func actionArg(l *eval.Level, name string) *eval.Action {
	ret, ok := eval.ActionOf(l.Arg(name))
	if !ok {
		panic(fmt.Errorf("'%s' must be an action", name))
	}
	return ret
}

// evalSpecialize runs the definition block in a context where the parameters are variables.
// The parameters assigned there become the exemplar of the new action
func evalSpecialize(l *eval.Level) (eval.Result, error) {
	act := actionArg(l, "action")
	ctx := binding.NewContext(l.Binding())
	params := act.Params()
	for i := range params {
		if params[i].Class == eval.ParamReturn {
			continue
		}
		if _, already := act.Exemplar(i); already {
			continue
		}
		ctx.Set(params[i].Name, easyeval.Missing())
	}
	if _, err := l.DoBlock(l.Arg("def"), ctx); err != nil {
		return eval.ResultThrown, err
	}
	values := make(map[string]easyeval.Value)
	for _, sym := range ctx.Words() {
		if v, _ := ctx.Get(sym); !v.IsMissing() {
			values[sym] = v
		}
	}
	ret, err := eval.Specialize(act, act.Label(), values)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret.Value())
}

func evalAdapt(l *eval.Level) (eval.Result, error) {
	act := actionArg(l, "action")
	return l.Return(eval.Adapt(act, act.Label(), l.Arg("prelude"), l.Binding()).Value())
}

func evalChain(l *eval.Level) (eval.Result, error) {
	vals, err := reduce(l, l.Arg("pipeline"))
	if err != nil {
		return eval.ResultThrown, err
	}
	acts := make([]*eval.Action, len(vals))
	for i, v := range vals {
		var ok bool
		if acts[i], ok = eval.ActionOf(v); !ok {
			return eval.ResultThrown, fmt.Errorf("chain: action expected, got %s", v.Describe())
		}
	}
	ret, err := eval.Chain("chain", acts...)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret.Value())
}

func evalEnfix(l *eval.Level) (eval.Result, error) {
	act := actionArg(l, "action")
	ret, err := eval.Enfix(act, act.Label(), l.HasRefinement("defer"))
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret.Value())
}

// evalRun invokes the action with the arguments following it at the callsite
func evalRun(l *eval.Level) (eval.Result, error) {
	ret, err := l.Invoke(actionArg(l, "action"), l.Feed(), nil)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalSumOf(l *eval.Level) (eval.Result, error) {
	va, err := l.Varargs("values")
	if err != nil {
		return eval.ResultThrown, err
	}
	sum := easyeval.Integer(0)
	for {
		v, ok, err := va.Take()
		if err != nil {
			return eval.ResultThrown, err
		}
		if !ok {
			return l.Return(sum)
		}
		if sum, err = arith(opAdd, sum, v); err != nil {
			return eval.ResultThrown, err
		}
	}
}

func evalMakeVarargs(l *eval.Level) (eval.Result, error) {
	return l.Return(eval.NewBlockVarargs(l.Arg("block"), l.Binding()).Value())
}
