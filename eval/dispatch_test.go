package eval

import (
	"errors"
	"testing"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/util/testutil"
	"github.com/stretchr/testify/require"
)

func TestThrow(t *testing.T) {
	toss := MustNewAction("toss", []Param{{Name: "label", Class: ParamHardQuote}}, func(l *Level) (Result, error) {
		return ResultThrown, NewThrow(l.Arg("label"), easyeval.Integer(7))
	})
	t.Run("travels unchanged", func(t *testing.T) {
		ctx := testContext()
		ctx.Set("toss", toss.Value())
		rt := newTestRuntime(t, ctx)
		_, err := doSource(t, rt, "add 1 (add 2 toss foo)")
		require.Error(t, err)
		thr, ok := AsThrow(err)
		require.True(t, ok)
		require.True(t, easyeval.Equal(easyeval.Word("foo"), thr.Label))
		require.EqualValues(t, 7, thr.Value.Int())
		require.False(t, thr.IsError())
		require.False(t, thr.IsReserved())
		require.EqualValues(t, 0, ErrorKindOf(err))
		_, catchable := Catchable(err)
		require.True(t, catchable)
		require.Nil(t, rt.Top())
	})
	t.Run("plain errors are raised as failures", func(t *testing.T) {
		ctx := testContext()
		ctx.Set("broken", MustNewAction("broken", nil, func(l *Level) (Result, error) {
			return ResultThrown, errors.New("something broke")
		}).Value())
		ctx.Set("panicky", MustNewAction("panicky", nil, func(l *Level) (Result, error) {
			panic("boom")
		}).Value())
		ctx.Set("failing", MustNewAction("failing", nil, func(l *Level) (Result, error) {
			return ResultThrown, Fail("value %d is wrong", 5)
		}).Value())
		rt := newTestRuntime(t, ctx)

		err := requireErrorKind(t, rt, Failure, "broken")
		e, _ := AsError(err)
		require.EqualValues(t, "broken", e.Action)
		require.Contains(t, err.Error(), "something broke")

		err = requireErrorKind(t, rt, Failure, "add 1 panicky")
		require.Contains(t, err.Error(), "boom")

		err = requireErrorKind(t, rt, Failure, "failing")
		require.Contains(t, err.Error(), "value 5 is wrong")
		thr, ok := AsThrow(err)
		require.True(t, ok)
		require.True(t, thr.IsError())
		require.False(t, thr.IsReserved())
	})
	t.Run("raise", func(t *testing.T) {
		require.NoError(t, Raise(nil))
		err := Raise(errors.New("x"))
		require.True(t, errors.Is(err, Kinded(Failure)))
		err = Raise(&Error{Kind: BadPhase})
		require.True(t, errors.Is(err, Kinded(BadPhase)))
		thr := NewThrow(easyeval.Word("a"), easyeval.Integer(1))
		require.True(t, Raise(thr) == error(thr))
	})
}

func TestUnwind(t *testing.T) {
	var leaked easyeval.Value
	body := testutil.Load(t, "return 5 add 1 2")
	act := MustNewAction("returning", []Param{
		{Name: "return", Class: ParamReturn},
	}, func(l *Level) (Result, error) {
		leaked = l.Arg("return")
		if _, err := l.DoBlock(body, l.Frame(nil)); err != nil {
			return ResultThrown, err
		}
		return l.Return(easyeval.Integer(0))
	})
	ctx := testContext()
	ctx.Set("returning", act.Value())
	rt := newTestRuntime(t, ctx)

	t.Run("1", func(t *testing.T) {
		requireResult(t, rt, "6", "add 1 returning")
	})
	t.Run("stale return", func(t *testing.T) {
		ctx.Set("leaked", leaked)
		_, err := doSource(t, rt, "leaked 1")
		require.Error(t, err)
		thr, ok := AsThrow(err)
		require.True(t, ok)
		require.True(t, easyeval.Equal(UnwindLabel, thr.Label))
		require.True(t, thr.IsReserved())
		_, catchable := Catchable(err)
		require.False(t, catchable)
	})
}

func TestRedo(t *testing.T) {
	params := []Param{{Name: "n", Types: intType}}
	hundred := MustNewAction("hundred", params, func(l *Level) (Result, error) {
		return l.Return(easyeval.Integer(l.Arg("n").Int() * 100))
	})
	add := binaryInt("add", ParamNormal, func(a, b int64) int64 { return a + b })
	ctx := testContext()
	redoing := hundred.derive("redoing")
	redoing.behavior = func(l *Level) (Result, error) {
		if l.Phase() == hundred {
			t.Fatalf("phase is not switched")
		}
		return ResultThrown, RedoUnder(l, hundred)
	}
	ctx.Set("redoing", redoing.Value())
	ctx.Set("wrong-phase", MustNewAction("wrong-phase", params, func(l *Level) (Result, error) {
		return ResultThrown, RedoUnder(l, add)
	}).Value())
	unchecked := hundred.derive("unchecked")
	unchecked.behavior = func(l *Level) (Result, error) {
		if err := l.SetPhase(hundred); err != nil {
			return ResultThrown, err
		}
		return ResultRedoUnchecked, nil
	}
	ctx.Set("unchecked", unchecked.Value())
	// same paramlist, not derived from hundred
	ctx.Set("twin", MustNewAction("twin", params, func(l *Level) (Result, error) {
		return ResultThrown, RedoUnder(l, hundred)
	}).Value())
	ctx.Set("set-wrong", MustNewAction("set-wrong", params, func(l *Level) (Result, error) {
		if err := l.SetPhase(add); err != nil {
			return ResultThrown, err
		}
		return ResultRedoUnchecked, nil
	}).Value())
	rt := newTestRuntime(t, ctx)

	t.Run("1", func(t *testing.T) {
		requireResult(t, rt, "300", "redoing 3")
		requireResult(t, rt, "400", "unchecked 4")
	})
	t.Run("bad phase", func(t *testing.T) {
		requireErrorKind(t, rt, BadPhase, "wrong-phase 3")
		requireErrorKind(t, rt, BadPhase, "twin 3")
		requireErrorKind(t, rt, Failure, "set-wrong 3")
	})
	t.Run("related", func(t *testing.T) {
		redoing, _ := ActionOf(*mustResolve(t, rt, "redoing"))
		require.True(t, redoing.Related(hundred))
		require.True(t, hundred.Related(redoing))
		require.False(t, redoing.Related(add))
		twin, _ := ActionOf(*mustResolve(t, rt, "twin"))
		require.EqualValues(t, hundred.Fingerprint(), twin.Fingerprint())
		require.False(t, twin.Related(hundred))
	})
}

func TestInvalidDispatchResult(t *testing.T) {
	bad := MustNewAction("bad", nil, func(l *Level) (Result, error) {
		return Result(99), nil
	})
	thrownNothing := MustNewAction("thrown-nothing", nil, func(l *Level) (Result, error) {
		return ResultThrown, nil
	})
	wrapped := testutil.Load(t, "add 1 bad")
	wrap := MustNewAction("wrap", nil, func(l *Level) (Result, error) {
		ret, err := l.DoBlock(wrapped, nil)
		if err != nil {
			return ResultThrown, err
		}
		return l.Return(ret)
	})
	setup := func(cfg Config) *Runtime {
		ctx := testContext()
		ctx.Set("bad", bad.Value())
		ctx.Set("thrown-nothing", thrownNothing.Value())
		ctx.Set("wrap", wrap.Value())
		return newTestRuntime(t, ctx, cfg)
	}
	t.Run("unchecked", func(t *testing.T) {
		rt := setup(DefaultConfig())
		for _, src := range []string{"bad", "thrown-nothing", "add 1 bad", "wrap"} {
			_, err := doSource(t, rt, src)
			require.Error(t, err)
			require.EqualValues(t, InvalidDispatchResult, ErrorKindOf(err))
			_, isThrow := AsThrow(err)
			require.False(t, isThrow)
			require.Nil(t, rt.Top())
		}
	})
	t.Run("checked", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Checked = true
		rt := setup(cfg)
		for _, src := range []string{"bad", "wrap"} {
			code := testutil.Load(t, src)
			require.Panics(t, func() {
				_, _ = rt.Do(code)
			})
			require.Nil(t, rt.Top())
		}
	})
}

func TestVarargs(t *testing.T) {
	var handle *Varargs
	total := MustNewAction("total", []Param{
		{Name: "values", Class: ParamVariadic, Pull: ParamNormal, Types: intType},
	}, func(l *Level) (Result, error) {
		va, err := l.Varargs("values")
		if err != nil {
			return ResultThrown, err
		}
		handle = va
		sum := int64(0)
		for {
			v, ok, err := va.Take()
			if err != nil {
				return ResultThrown, err
			}
			if !ok {
				return l.Return(easyeval.Integer(sum))
			}
			sum += v.Int()
		}
	})
	quoting := MustNewAction("quoting", []Param{
		{Name: "values", Class: ParamVariadic, Pull: ParamHardQuote},
	}, func(l *Level) (Result, error) {
		va, err := l.Varargs("values")
		if err != nil {
			return ResultThrown, err
		}
		ret := make([]easyeval.Value, 0)
		for !va.IsEnd() {
			v, _, err := va.Take()
			if err != nil {
				return ResultThrown, err
			}
			ret = append(ret, v)
		}
		return l.Return(easyeval.Block(ret...))
	})
	ctx := testContext()
	ctx.Set("total", total.Value())
	ctx.Set("quoting", quoting.Value())
	rt := newTestRuntime(t, ctx)

	t.Run("1", func(t *testing.T) {
		requireResult(t, rt, "6", "total 1 2 3")
		requireResult(t, rt, "0", "total")
		requireResult(t, rt, "10", "total 1 plus 2 3 4")
		requireResult(t, rt, "5", "(total 1 2, 5)")
		requireResult(t, rt, "[a (b) c]", "quoting a (b) c")
		requireErrorKind(t, rt, TypeMismatch, `total 1 "x"`)
	})
	t.Run("expired", func(t *testing.T) {
		requireResult(t, rt, "3", "total 1 2")
		require.NotNil(t, handle)
		require.True(t, handle.Phase() == total)
		_, _, err := handle.Take()
		require.True(t, errors.Is(err, Kinded(VarargsExpired)))

		_, _, err = NewBlockVarargs(easyeval.Block(easyeval.Integer(1)), nil).Take()
		require.True(t, errors.Is(err, Kinded(VarargsExpired)))
	})
	t.Run("specialized", func(t *testing.T) {
		_, err := Specialize(total, "total", map[string]easyeval.Value{"values": easyeval.Integer(1)})
		require.True(t, errors.Is(err, Kinded(NotVariadic)))

		blk := NewBlockVarargs(testutil.Load(t, "1 add 1 1 3"), rt.Root())
		fixed, err := Specialize(total, "fixed", map[string]easyeval.Value{"values": blk.Value()})
		require.NoError(t, err)
		ctx.Set("fixed", fixed.Value())
		requireResult(t, rt, "6", "fixed")
		require.NotNil(t, blk.Param())
		require.EqualValues(t, "values", blk.Param().Name)
	})
	t.Run("not variadic", func(t *testing.T) {
		ctx.Set("wrong", MustNewAction("wrong", []Param{{Name: "n"}}, func(l *Level) (Result, error) {
			if _, err := l.Varargs("n"); err != nil {
				return ResultThrown, err
			}
			return l.Return(easyeval.Blank())
		}).Value())
		requireErrorKind(t, rt, NotVariadic, "wrong 1")
	})
}

func TestCompose(t *testing.T) {
	ctx := testContext()
	rt := newTestRuntime(t, ctx)
	add, _ := ActionOf(*mustResolve(t, rt, "add"))
	neg, _ := ActionOf(*mustResolve(t, rt, "neg"))
	nothing, _ := ActionOf(*mustResolve(t, rt, "nothing"))

	t.Run("specialize", func(t *testing.T) {
		add10, err := Specialize(add, "add10", map[string]easyeval.Value{"a": easyeval.Integer(10)})
		require.NoError(t, err)
		require.True(t, add10.Root() == add)
		require.EqualValues(t, 1, add10.LeftParam())
		v, ok := add10.Exemplar(0)
		require.True(t, ok)
		require.EqualValues(t, 10, v.Int())
		ctx.Set("add10", add10.Value())
		requireResult(t, rt, "15", "add10 5")

		plus10, err := Enfix(add10, "plus10", false)
		require.NoError(t, err)
		ctx.Set("plus10", plus10.Value())
		requireResult(t, rt, "17", "7 plus10")

		_, err = Specialize(add10, "x", map[string]easyeval.Value{"a": easyeval.Integer(1)})
		require.True(t, errors.Is(err, Kinded(BadRefinement)))
		_, err = Specialize(add, "x", map[string]easyeval.Value{"q": easyeval.Integer(1)})
		require.True(t, errors.Is(err, Kinded(BadRefinement)))
		_, err = Specialize(add, "x", map[string]easyeval.Value{"a": easyeval.Text("1")})
		require.True(t, errors.Is(err, Kinded(TypeMismatch)))
	})
	t.Run("specialize refinements", func(t *testing.T) {
		withX, err := Specialize(refined, "with-x", map[string]easyeval.Value{"x": easyeval.Integer(1)})
		require.NoError(t, err)
		ctx.Set("with-x", withX.Value())
		requireResult(t, rt, "[1 _ _]", "with-x")
		requireResult(t, rt, "[1 _ 3]", "with-x/c 3")
		requireErrorKind(t, rt, BadRefinement, "with-x/a 1")

		noA, err := Specialize(refined, "no-a", map[string]easyeval.Value{"a": easyeval.Logic(false)})
		require.NoError(t, err)
		_, err = Specialize(noA, "x", map[string]easyeval.Value{"x": easyeval.Integer(1)})
		require.True(t, errors.Is(err, Kinded(BadRefinementRevoke)))
	})
	t.Run("adapt", func(t *testing.T) {
		adapted := Adapt(add, "add-adapted", testutil.Load(t, "a: mul a 10"), nil)
		ctx.Set("add-adapted", adapted.Value())
		requireResult(t, rt, "12", "add-adapted 1 2")

		broken := Adapt(add, "broken", testutil.Load(t, `a: "x"`), nil)
		ctx.Set("broken", broken.Value())
		requireErrorKind(t, rt, TypeMismatch, "broken 1 2")
	})
	t.Run("chain", func(t *testing.T) {
		chained, err := Chain("chained", add, neg, neg, neg)
		require.NoError(t, err)
		ctx.Set("chained", chained.Value())
		requireResult(t, rt, "-3", "chained 1 2")
		requireResult(t, rt, "0", "add 3 chained 1 2")

		_, err = Chain("empty")
		require.Error(t, err)
		_, err = Chain("wrong", add, nothing)
		require.Error(t, err)
	})
	t.Run("enfix", func(t *testing.T) {
		_, err := Enfix(nothing, "x", false)
		require.Error(t, err)
		deferring, err := Enfix(neg, "deferring", true)
		require.NoError(t, err)
		require.True(t, deferring.IsInfix())
		require.True(t, deferring.Defers())
		require.False(t, neg.IsInfix())
	})
}

func TestNewAction(t *testing.T) {
	behavior := func(l *Level) (Result, error) { return ResultInvisible, nil }
	t.Run("1", func(t *testing.T) {
		_, err := NewAction("x", nil, nil)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: ""}}, behavior)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: "a"}, {Name: "a"}}, behavior)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: "r1", Class: ParamReturn}, {Name: "r2", Class: ParamReturn}}, behavior)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: "v", Class: ParamVariadic, Pull: ParamLocal}}, behavior)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: "a"}, {Name: "b", Class: ParamHardQuote, Skippable: true}}, behavior)
		require.Error(t, err)
		_, err = NewAction("x", []Param{{Name: "a", Class: ParamNormal, Skippable: true}}, behavior)
		require.Error(t, err)
	})
	t.Run("params", func(t *testing.T) {
		act := MustNewAction("x", []Param{
			{Name: "a"},
			{Name: "r", Class: ParamRefinement},
			{Name: "b"},
			{Name: "tmp", Class: ParamLocal},
			{Name: "c"},
		}, behavior)
		ps := act.Params()
		require.EqualValues(t, -1, ps[0].Owner())
		require.EqualValues(t, 1, ps[2].Owner())
		require.EqualValues(t, -1, ps[4].Owner())
		require.EqualValues(t, 4, act.ParamIndex("c"))
		require.EqualValues(t, -1, act.ParamIndex("q"))
		require.EqualValues(t, 0, act.LeftParam())

		same := MustNewAction("y", act.Params(), behavior)
		require.EqualValues(t, act.Fingerprint(), same.Fingerprint())
		require.False(t, act.Related(same))
		derived, err := Enfix(act, "x-infix", false)
		require.NoError(t, err)
		require.True(t, act.Related(derived))
		require.True(t, derived.Root() == act)
		other := MustNewAction("z", act.Params()[:2], behavior)
		require.False(t, act.Related(other))

		refinementFirst := MustNewAction("w", []Param{{Name: "r", Class: ParamRefinement}, {Name: "a"}}, behavior)
		require.EqualValues(t, -1, refinementFirst.LeftParam())
	})
}
