package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/eval"
)

func evalIf(l *eval.Level) (eval.Result, error) {
	cond := l.Arg("condition")
	if !cond.IsTruthy() {
		return l.Return(easyeval.Null())
	}
	ret, err := runBranch(l, l.Arg("branch"), cond)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalEither(l *eval.Level) (eval.Result, error) {
	cond := l.Arg("condition")
	branch := l.Arg("false-branch")
	if cond.IsTruthy() {
		branch = l.Arg("true-branch")
	}
	ret, err := runBranch(l, branch, cond)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalElse(l *eval.Level) (eval.Result, error) {
	opt := l.Arg("optional")
	if !opt.IsNull() {
		return l.Return(opt)
	}
	ret, err := runBranch(l, l.Arg("branch"), opt)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalThen(l *eval.Level) (eval.Result, error) {
	opt := l.Arg("optional")
	if opt.IsNullish() {
		return l.Return(opt)
	}
	ret, err := runBranch(l, l.Arg("branch"), opt)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalDo(l *eval.Level) (eval.Result, error) {
	src := l.Arg("source")
	var ret easyeval.Value
	var err error
	if act, ok := eval.ActionOf(src); ok {
		ret, err = l.Invoke(act, l.Feed(), nil)
	} else {
		ret, err = l.DoBlock(src, nil)
	}
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalThe(l *eval.Level) (eval.Result, error) {
	return l.Return(l.Arg("value"))
}

func evalQuote(l *eval.Level) (eval.Result, error) {
	return l.Return(l.Arg("value").Quote(1))
}

// evalComment serves both 'comment' and 'elide': the argument is taken and nothing is produced
func evalComment(_ *eval.Level) (eval.Result, error) {
	return eval.ResultInvisible, nil
}

// evalCatch returns the value thrown with the matching label, or the result of the block
// if nothing was thrown. Failures are not caught, it is what 'trap' is for
func evalCatch(l *eval.Level) (eval.Result, error) {
	ret, err := l.DoBlock(l.Arg("block"), nil)
	if err == nil {
		return l.Return(ret)
	}
	t, ok := eval.Catchable(err)
	if !ok || t.IsError() {
		return eval.ResultThrown, err
	}
	want := easyeval.Blank()
	if l.HasRefinement("name") {
		want = l.Arg("label")
	}
	if !easyeval.Equal(t.Label, want) {
		return eval.ResultThrown, err
	}
	return l.Return(t.Value)
}

func evalThrow(l *eval.Level) (eval.Result, error) {
	label := easyeval.Blank()
	if l.HasRefinement("name") {
		label = l.Arg("label")
	}
	return eval.ResultThrown, eval.NewThrow(label, l.Arg("value"))
}

// evalTrap returns the error value of a failure raised in the block, null if there was none
func evalTrap(l *eval.Level) (eval.Result, error) {
	_, err := l.DoBlock(l.Arg("block"), nil)
	if err == nil {
		return l.Return(easyeval.Null())
	}
	if t, ok := eval.AsThrow(err); ok && t.IsError() {
		return l.Return(t.Value)
	}
	return eval.ResultThrown, err
}

func evalFail(l *eval.Level) (eval.Result, error) {
	reason := l.Arg("reason")
	switch reason.Kind() {
	case easyeval.KindText:
		return eval.ResultThrown, eval.Fail("%s", reason.Str())
	case easyeval.KindError:
		return eval.ResultThrown, eval.Raise(reason.Err())
	}
	return eval.ResultThrown, eval.Fail("%s", reason.Symbol())
}

func evalHalt(_ *eval.Level) (eval.Result, error) {
	return eval.ResultThrown, eval.NewThrow(eval.HaltLabel, easyeval.Null())
}

func evalProbe(l *eval.Level) (eval.Result, error) {
	v := l.Arg("value")
	l.Logger().Infof("probe: %s", v.String())
	return l.Return(v)
}

// evalDefault assigns the result of the branch to the variable, unless it has a value already
func evalDefault(l *eval.Level) (eval.Result, error) {
	sym := l.Arg("target").Symbol()
	if ptr, err := l.Binding().Resolve(sym); err == nil && !ptr.IsNullish() {
		return l.Return(*ptr)
	}
	v, err := l.DoBlock(l.Arg("branch"), nil)
	if err != nil {
		return eval.ResultThrown, err
	}
	ptr, err := binding.Assign(l.Binding(), sym)
	if err != nil {
		return eval.ResultThrown, err
	}
	*ptr = v
	return l.Return(v)
}

// evalRedo restarts the invocation whose frame binds the word. It runs again the phase it was
// running, or the phase given by /other, with the args as they are now
func evalRedo(l *eval.Level) (eval.Result, error) {
	sym := l.Arg("target").Symbol()
	frame, ok := eval.FrameOf(l.Binding(), sym)
	if !ok {
		return eval.ResultThrown, fmt.Errorf("'%s' is not bound to a frame", sym)
	}
	phase := frame.Phase()
	if l.HasRefinement("other") {
		phase, _ = eval.ActionOf(l.Arg("phase"))
	}
	return eval.ResultThrown, eval.RedoUnder(frame, phase)
}

func evalWhile(l *eval.Level) (eval.Result, error) {
	ret := easyeval.Null()
	for {
		if err := l.Safepoint(); err != nil {
			return eval.ResultThrown, err
		}
		cond, err := l.DoBlock(l.Arg("condition"), nil)
		if err != nil {
			return eval.ResultThrown, err
		}
		if !cond.IsTruthy() {
			return l.Return(ret)
		}
		if ret, err = l.DoBlock(l.Arg("body"), nil); err != nil {
			return eval.ResultThrown, err
		}
	}
}

func evalForever(l *eval.Level) (eval.Result, error) {
	for {
		if err := l.Safepoint(); err != nil {
			return eval.ResultThrown, err
		}
		if _, err := l.DoBlock(l.Arg("body"), nil); err != nil {
			return eval.ResultThrown, err
		}
	}
}

func evalRepeat(l *eval.Level) (eval.Result, error) {
	ret := easyeval.Null()
	var err error
	for i := int64(0); i < l.Arg("count").Int(); i++ {
		if err = l.Safepoint(); err != nil {
			return eval.ResultThrown, err
		}
		if ret, err = l.DoBlock(l.Arg("body"), nil); err != nil {
			return eval.ResultThrown, err
		}
	}
	return l.Return(ret)
}

func evalReduce(l *eval.Level) (eval.Result, error) {
	vals, err := reduce(l, l.Arg("block"))
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(easyeval.Block(vals...))
}

func evalGet(l *eval.Level) (eval.Result, error) {
	ptr, err := l.Binding().Resolve(l.Arg("source").Symbol())
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(*ptr)
}

func evalSet(l *eval.Level) (eval.Result, error) {
	ptr, err := binding.Assign(l.Binding(), l.Arg("target").Symbol())
	if err != nil {
		return eval.ResultThrown, err
	}
	*ptr = l.Arg("value")
	return l.Return(*ptr)
}

func evalTypeOf(l *eval.Level) (eval.Result, error) {
	v := l.Arg("value")
	switch {
	case v.IsNullish():
		return l.Return(easyeval.Null())
	case v.IsQuoted():
		return l.Return(easyeval.Word("quoted!"))
	}
	return l.Return(easyeval.Word(v.Kind().String()))
}
