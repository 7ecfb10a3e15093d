package eval

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/load"
	"github.com/lunfardo314/easyeval/util/testutil"
	"github.com/stretchr/testify/require"
)

var intType = easyeval.Types(easyeval.KindInteger)

func binaryInt(label string, class ParamClass, fun func(a, b int64) int64) *Action {
	return MustNewAction(label, []Param{
		{Name: "a", Class: class, Types: intType},
		{Name: "b", Class: class, Types: intType},
	}, func(l *Level) (Result, error) {
		return l.Return(easyeval.Integer(fun(l.ArgAt(0).Int(), l.ArgAt(1).Int())))
	})
}

func unaryInt(label string, class ParamClass, fun func(a int64) int64) *Action {
	return MustNewAction(label, []Param{
		{Name: "n", Class: class, Types: intType},
	}, func(l *Level) (Result, error) {
		return l.Return(easyeval.Integer(fun(l.ArgAt(0).Int())))
	})
}

func constant(label string, v easyeval.Value) *Action {
	return MustNewAction(label, nil, func(l *Level) (Result, error) {
		return l.Return(v)
	})
}

func mustEnfix(a *Action, label string, defers bool) *Action {
	ret, err := Enfix(a, label, defers)
	if err != nil {
		panic(err)
	}
	return ret
}

func blankIfNull(v easyeval.Value) easyeval.Value {
	if v.IsNull() {
		return easyeval.Blank()
	}
	return v
}

// refined takes three refinements with one argument each and returns the arguments as a block
var refined = MustNewAction("refined", []Param{
	{Name: "a", Class: ParamRefinement},
	{Name: "x", Types: intType | easyeval.TsNull},
	{Name: "b", Class: ParamRefinement},
	{Name: "y", Types: intType | easyeval.TsNull},
	{Name: "c", Class: ParamRefinement},
	{Name: "z", Types: intType | easyeval.TsNull},
}, func(l *Level) (Result, error) {
	return l.Return(easyeval.Block(blankIfNull(l.Arg("x")), blankIfNull(l.Arg("y")), blankIfNull(l.Arg("z"))))
})

func testContext() *binding.Context {
	ctx := binding.NewContext(nil)
	add := binaryInt("add", ParamNormal, func(a, b int64) int64 { return a + b })
	mul := binaryInt("mul", ParamNormal, func(a, b int64) int64 { return a * b })
	tadd := binaryInt("tadd", ParamTight, func(a, b int64) int64 { return a + b })
	ctx.Set("add", add.Value())
	ctx.Set("mul", mul.Value())
	ctx.Set("tadd", tadd.Value())
	ctx.Set("plus", mustEnfix(add, "plus", false).Value())
	ctx.Set("times", mustEnfix(mul, "times", false).Value())
	ctx.Set("tplus", mustEnfix(tadd, "tplus", false).Value())
	ctx.Set("neg", unaryInt("neg", ParamNormal, func(a int64) int64 { return -a }).Value())
	ctx.Set("tneg", unaryInt("tneg", ParamTight, func(a int64) int64 { return -a }).Value())
	ctx.Set("nothing", constant("nothing", easyeval.Null()).Value())
	ctx.Set("t", easyeval.Logic(true))
	ctx.Set("f", easyeval.Logic(false))
	ctx.Set("refined", refined.Value())
	ctx.Set("vanish", MustNewAction("vanish", nil, func(l *Level) (Result, error) {
		return ResultInvisible, nil
	}).Value())

	cond := MustNewAction("cond", []Param{
		{Name: "condition"},
		{Name: "branch", Types: intType},
	}, func(l *Level) (Result, error) {
		if l.Arg("condition").IsTruthy() {
			return l.Return(l.Arg("branch"))
		}
		return l.Return(easyeval.Null())
	})
	ctx.Set("cond", cond.Value())
	otherwise := MustNewAction("otherwise", []Param{
		{Name: "optional", Types: intType | easyeval.TsNull},
		{Name: "fallback", Types: intType},
	}, func(l *Level) (Result, error) {
		if l.Arg("optional").IsNull() {
			return l.Return(l.Arg("fallback"))
		}
		return l.Return(l.Arg("optional"))
	})
	ctx.Set("otherwise", mustEnfix(otherwise, "otherwise", true).Value())
	ctx.Set("sum3", MustNewAction("sum3", []Param{
		{Name: "x", Types: intType},
		{Name: "y", Types: intType},
		{Name: "z", Types: intType},
	}, func(l *Level) (Result, error) {
		return l.Return(easyeval.Integer(l.ArgAt(0).Int() + l.ArgAt(1).Int() + l.ArgAt(2).Int()))
	}).Value())

	hard := MustNewAction("hard", []Param{{Name: "w", Class: ParamHardQuote}}, func(l *Level) (Result, error) {
		return l.Return(l.Arg("w"))
	})
	ctx.Set("hard", hard.Value())
	ctx.Set("ql", mustEnfix(hard, "ql", false).Value())
	soft := MustNewAction("soft", []Param{{Name: "w", Class: ParamSoftQuote}}, func(l *Level) (Result, error) {
		return l.Return(l.Arg("w"))
	})
	ctx.Set("soft", soft.Value())
	ctx.Set("sl", mustEnfix(soft, "sl", false).Value())
	ctx.Set("blk", load.MustLoad("a 1 b 2"))
	return ctx
}

func newTestRuntime(t *testing.T, ctx *binding.Context, cfg ...Config) *Runtime {
	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if ctx == nil {
		ctx = testContext()
	}
	rt, err := NewRuntime(ctx, c, testutil.NewLogger(c.Trace))
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func doSource(t *testing.T, rt *Runtime, src string) (easyeval.Value, error) {
	return rt.Do(testutil.Load(t, src))
}

func requireResult(t *testing.T, rt *Runtime, mold, src string) {
	ret, err := doSource(t, rt, src)
	require.NoError(t, err)
	require.EqualValues(t, mold, ret.String())
}

func requireErrorKind(t *testing.T, rt *Runtime, kind ErrorKind, src string) error {
	_, err := doSource(t, rt, src)
	require.Error(t, err)
	require.True(t, errors.Is(err, Kinded(kind)), "expected %s, got %v", kind, err)
	return err
}

func TestStep(t *testing.T) {
	rt := newTestRuntime(t, nil)
	t.Run("1", func(t *testing.T) {
		requireResult(t, rt, "3", "1 2 3")
		requireResult(t, rt, "~[]~", "")
		requireResult(t, rt, `"abc"`, `"abc"`)
		require.Nil(t, rt.Top())
	})
	t.Run("words", func(t *testing.T) {
		requireResult(t, rt, "10", "x: 10 x")
		requireResult(t, rt, "11", "x: y: 11 y")
		requireResult(t, rt, "#[action add]", ":add")
		requireResult(t, rt, "foo", "'foo")
		requireResult(t, rt, "'foo", "''foo")
		requireErrorKind(t, rt, UnboundName, "unknown-word")
		requireErrorKind(t, rt, MissingArgument, "x:")
		requireErrorKind(t, rt, ExpressionBarrierViolation, "x: , 1")
	})
	t.Run("groups", func(t *testing.T) {
		requireResult(t, rt, "3", "(add 1 2)")
		requireResult(t, rt, "5", "(1 (2) 5)")
		requireResult(t, rt, "2", "1 () 2")
	})
	t.Run("commas", func(t *testing.T) {
		requireResult(t, rt, "2", "1, 2")
		requireErrorKind(t, rt, ExpressionBarrierViolation, "add 1, 2")
		requireErrorKind(t, rt, MissingArgument, "add 1")
	})
	t.Run("invisible", func(t *testing.T) {
		requireResult(t, rt, "1", "1 vanish")
		requireResult(t, rt, "3", "add 1 vanish 2")
		requireResult(t, rt, "~[]~", "vanish")
	})
	t.Run("paths", func(t *testing.T) {
		requireResult(t, rt, "2", "blk/b")
		requireResult(t, rt, "1", "blk/2")
		requireResult(t, rt, "~null~", "blk/9")
		requireResult(t, rt, "1", ":blk/a")
		requireResult(t, rt, "/a", "/a")
		requireErrorKind(t, rt, BadPath, ":add/foo")
		requireErrorKind(t, rt, BadPath, "x: 1 x/1")
		requireErrorKind(t, rt, BadRefinement, "add/foo 1 2")
	})
}

func TestInfix(t *testing.T) {
	rt := newTestRuntime(t, nil)
	t.Run("normal right argument takes the lookahead", func(t *testing.T) {
		requireResult(t, rt, "14", "2 plus 3 times 4")
		requireResult(t, rt, "-5", "neg 2 plus 3")
	})
	t.Run("tight", func(t *testing.T) {
		requireResult(t, rt, "20", "2 tplus 3 times 4")
		requireResult(t, rt, "1", "tneg 2 plus 3")
		requireResult(t, rt, "10", "tadd 1 2 plus 7")
	})
	t.Run("expression start", func(t *testing.T) {
		err := requireErrorKind(t, rt, MissingArgument, "plus 1")
		e, ok := AsError(err)
		require.True(t, ok)
		require.EqualValues(t, "plus", e.Action)
		require.EqualValues(t, "a", e.Param)
	})
	t.Run("quoting left", func(t *testing.T) {
		requireResult(t, rt, "foo", "foo ql")
		requireResult(t, rt, "3", "(add 1 2) sl")
		requireResult(t, rt, "foo", "foo sl")
		requireResult(t, rt, "(add 1 2)", "hard (add 1 2)")
		requireResult(t, rt, "3", "soft (add 1 2)")
	})
	t.Run("skippable", func(t *testing.T) {
		act := MustNewAction("skip", []Param{
			{Name: "w", Class: ParamHardQuote, Types: easyeval.Types(easyeval.KindWord), Skippable: true},
			{Name: "n", Types: intType},
		}, func(l *Level) (Result, error) {
			return l.Return(easyeval.Block(blankIfNull(l.Arg("w")), l.Arg("n")))
		})
		act = mustEnfix(act, "skip", false)
		require.True(t, quotesLeft(act, easyeval.Word("x")))
		require.False(t, quotesLeft(act, easyeval.Integer(1)))

		plus, _ := ActionOf(*mustResolve(t, rt, "plus"))
		require.False(t, quotesLeft(plus, easyeval.Word("x")))

		ctx := testContext()
		ctx.Set("skip", act.Value())
		rt1 := newTestRuntime(t, ctx)
		requireResult(t, rt1, "[foo 2]", "foo skip 2")
		requireResult(t, rt1, "[_ 2]", "1 skip 2")
		requireResult(t, rt1, "[_ 5]", "(add 1 2) skip 5")
		requireErrorKind(t, rt1, TypeMismatch, "add 1 2 skip 5")
	})
	t.Run("evaluated value is not quoted", func(t *testing.T) {
		requireResult(t, rt, "3", "add 1 2")
		requireErrorKind(t, rt, MissingArgument, "add 1 2 ql")
		requireResult(t, rt, "(add 1 2)", "(add 1 2) ql")
	})
	t.Run("deferral", func(t *testing.T) {
		requireResult(t, rt, "8", "add 1 cond f 5 otherwise 7")
		requireResult(t, rt, "6", "add 1 cond t 5 otherwise 7")
		requireResult(t, rt, "7", "nothing otherwise 7")
		requireResult(t, rt, "11", "sum3 1 nothing otherwise 7 3")
		requireResult(t, rt, "6", "sum3 1 2 otherwise 7 3")
	})
}

func mustResolve(t *testing.T, rt *Runtime, sym string) *easyeval.Value {
	ret, err := rt.Root().Resolve(sym)
	require.NoError(t, err)
	return ret
}

var permutations = [][]string{
	{"a", "b", "c"},
	{"a", "c", "b"},
	{"b", "a", "c"},
	{"b", "c", "a"},
	{"c", "a", "b"},
	{"c", "b", "a"},
}

func TestRefinements(t *testing.T) {
	rt := newTestRuntime(t, nil)
	t.Run("1", func(t *testing.T) {
		requireResult(t, rt, "[_ _ _]", "refined")
		requireResult(t, rt, "[1 _ _]", "refined/a 1")
		requireResult(t, rt, "[_ _ 3]", "refined/c 3")
		requireResult(t, rt, "[1 _ 3]", "refined/a/c 1 3")
	})
	t.Run("order of request is order of consumption", func(t *testing.T) {
		values := map[string]string{"a": "1", "b": "2", "c": "3"}
		for _, perm := range permutations {
			args := make([]string, len(perm))
			for i, r := range perm {
				args[i] = values[r]
			}
			src := fmt.Sprintf("refined/%s %s", strings.Join(perm, "/"), strings.Join(args, " "))
			requireResult(t, rt, "[1 2 3]", src)
		}
		requireResult(t, rt, "[1 _ 3]", "refined/c/a 3 1")
	})
	t.Run("revoke", func(t *testing.T) {
		requireResult(t, rt, "[_ _ _]", "refined/a nothing")
		requireResult(t, rt, "[_ 2 _]", "refined/a/b nothing 2")
		requireResult(t, rt, "[_ 2 _]", "refined/b/a 2 nothing")
	})
	t.Run("unused refinement consumes nothing", func(t *testing.T) {
		requireResult(t, rt, "[5 _ _]", "refined/a 5")
		// the call ends without arguments, 5 is the next expression
		requireResult(t, rt, "5", "refined 5")
		requireResult(t, rt, "[_ _ _]", "5 refined")
		requireErrorKind(t, rt, TypeMismatch, "add refined 5")
	})
	t.Run("bad", func(t *testing.T) {
		requireErrorKind(t, rt, BadRefinement, "refined/q 1")
		requireErrorKind(t, rt, BadRefinement, "refined/a/a 1 2")
		requireErrorKind(t, rt, BadPath, "refined/1 1")
		requireErrorKind(t, rt, TypeMismatch, `refined/b "x"`)
		requireErrorKind(t, rt, MissingArgument, "refined/c")
	})
}

func TestFulfillment(t *testing.T) {
	rt := newTestRuntime(t, nil)
	t.Run("type mismatch", func(t *testing.T) {
		err := requireErrorKind(t, rt, TypeMismatch, `add 1 "x"`)
		e, ok := AsError(err)
		require.True(t, ok)
		require.EqualValues(t, "add", e.Action)
		require.EqualValues(t, "b", e.Param)
		require.True(t, e.HasVal)
		require.EqualValues(t, `"x"`, e.Value.String())
		require.Contains(t, err.Error(), "type-mismatch in 'add' param 'b'")
		_, isThrow := AsThrow(err)
		require.True(t, isThrow)
	})
	t.Run("endable", func(t *testing.T) {
		ctx := testContext()
		ctx.Set("opt", MustNewAction("opt", []Param{
			{Name: "v", Types: intType, Endable: true},
		}, func(l *Level) (Result, error) {
			if l.Arg("v").IsMissing() {
				return l.Return(easyeval.Text("end"))
			}
			return l.Return(l.Arg("v"))
		}).Value())
		rt1 := newTestRuntime(t, ctx)
		requireResult(t, rt1, `"end"`, "opt")
		requireResult(t, rt1, `"end"`, "(opt ,)")
		requireResult(t, rt1, "5", "opt 5")
	})
	t.Run("type check only redo", func(t *testing.T) {
		var first []Arg
		dispatched := 0
		act := MustNewAction("again", []Param{
			{Name: "n", Types: intType},
			{Name: "r", Class: ParamRefinement},
			{Name: "m", Types: intType | easyeval.TsNull},
		}, func(l *Level) (Result, error) {
			dispatched++
			if dispatched == 1 {
				require.EqualValues(t, SourceParams, l.Special())
				first = l.Args()
				return ResultRedoChecked, nil
			}
			require.EqualValues(t, SourceArgs, l.Special())
			require.Equal(t, first, l.Args())
			return l.Return(easyeval.Integer(int64(dispatched)))
		})
		ctx := testContext()
		ctx.Set("again", act.Value())
		rt1 := newTestRuntime(t, ctx)

		for _, src := range []string{"again/r 1 2", "again 1", "again/r 1 nothing"} {
			dispatched = 0
			requireResult(t, rt1, "2", src)
		}
	})
	t.Run("changed args are type checked again", func(t *testing.T) {
		redone := false
		act := MustNewAction("change", []Param{
			{Name: "n", Types: intType},
		}, func(l *Level) (Result, error) {
			if redone {
				return l.Return(l.Arg("n"))
			}
			redone = true
			l.SetArg("n", easyeval.Text("x"))
			return ResultRedoChecked, nil
		})
		ctx := testContext()
		ctx.Set("change", act.Value())
		rt1 := newTestRuntime(t, ctx)
		requireErrorKind(t, rt1, TypeMismatch, "change 1")
	})
	t.Run("level", func(t *testing.T) {
		var seen *Level
		act := MustNewAction("inspect", []Param{{Name: "n"}}, func(l *Level) (Result, error) {
			seen = l
			require.EqualValues(t, "alias", l.Label())
			require.EqualValues(t, "inspect", l.Original().Label())
			require.True(t, l.Phase() == l.Original())
			require.True(t, l.Runtime().Top() == l)
			require.NotNil(t, l.Prior())
			require.True(t, l.Depth() > 0)
			require.EqualValues(t, StateDispatching, l.State())
			require.EqualValues(t, 1, l.NumArgs())
			require.EqualValues(t, ArgFilled, l.ArgState("n"))
			return l.Return(l.Arg("n"))
		})
		ctx := testContext()
		ctx.Set("alias", act.Value())
		rt1 := newTestRuntime(t, ctx)
		requireResult(t, rt1, "1", "alias 1")
		require.NotNil(t, seen)
		require.EqualValues(t, StateDone, seen.State())
		require.Nil(t, rt1.Top())
	})
}

func TestFrame(t *testing.T) {
	t.Run("1", func(t *testing.T) {
		body := testutil.Load(t, "n: add n 1 tmp: mul n 10 tmp")
		act := MustNewAction("framed", []Param{{Name: "n", Types: intType}}, func(l *Level) (Result, error) {
			frame := l.Frame(nil)
			owner, ok := FrameOf(frame, "n")
			require.True(t, ok)
			require.True(t, owner == l)
			_, ok = FrameOf(frame, "add")
			require.False(t, ok)

			ret, err := l.DoBlock(body, frame)
			if err != nil {
				return ResultThrown, err
			}
			require.EqualValues(t, 2, l.Arg("n").Int())
			return l.Return(ret)
		})
		ctx := testContext()
		ctx.Set("framed", act.Value())
		rt := newTestRuntime(t, ctx)
		requireResult(t, rt, "20", "framed 1")
		_, defined := ctx.Get("tmp")
		require.False(t, defined)
	})
}
