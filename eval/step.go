package eval

import (
	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/feed"
)

// gotten is the lookup cached in the feed for the value at its current position
type gotten struct {
	sym string
	ptr *easyeval.Value
}

// peekLookup resolves the word at the current feed position and caches the lookup in the
// feed. Returns nil if the word is unbound
func (l *Level) peekLookup(sym string) *easyeval.Value {
	if ret := l.cachedLookup(sym); ret != nil {
		return ret
	}
	ret, err := l.binding.Resolve(sym)
	if err != nil {
		return nil
	}
	l.feed.SetGotten(gotten{sym: sym, ptr: ret})
	return ret
}

// cachedLookup is the lookup done while peeking the current feed position, if any
func (l *Level) cachedLookup(sym string) *easyeval.Value {
	if g, ok := l.feed.Gotten(); ok {
		if cached, ok := g.(gotten); ok && cached.sym == sym {
			return cached.ptr
		}
	}
	return nil
}

func (l *Level) resolve(sym string) (*easyeval.Value, error) {
	ret, err := l.binding.Resolve(sym)
	if err != nil {
		return nil, ThrowError(errUnbound(sym, err))
	}
	return ret, nil
}

// doAll evaluates the feed to its end. The output is the last value produced,
// stale if every expression vanished
func (l *Level) doAll() error {
	var result easyeval.Value
	produced := false
	for !l.feed.IsEnd() {
		if err := l.step(); err != nil {
			return err
		}
		if !l.stale {
			result = l.Out
			produced = true
		}
	}
	if produced {
		l.Out, l.stale = result, false
	} else {
		l.Out, l.stale = easyeval.Void(), true
	}
	return nil
}

// step evaluates one expression from the feed, with lookahead.
// The output stays stale if the expression vanished or nothing was left to evaluate
func (l *Level) step() error {
	l.state = StateInitial
	l.stale = true
	l.deferralUsed = false
	safepoint := l.sequence
	for {
		switch l.state {
		case StateInitial:
			if safepoint {
				if err := l.rt.safepoint(); err != nil {
					return err
				}
			}
			retrigger, err := l.stepCurrent()
			if err != nil {
				return err
			}
			if retrigger {
				// vanished without being an expression: go on with the next token
				safepoint = false
				continue
			}
			l.state = StateLookingAhead

		case StateLookingAhead:
			if err := l.lookahead(); err != nil {
				return err
			}
			l.state = StateDone

		case StateDone:
			return nil

		default:
			panic("step: wrong state " + l.state.String())
		}
	}
}

// stepCurrent evaluates the value at the feed position. It returns true if the
// evaluation vanished and the step has to continue with the next value
func (l *Level) stepCurrent() (bool, error) {
	v, ok := l.feed.Peek()
	if !ok {
		l.state = StateDone
		return false, nil
	}
	if v.Kind() == easyeval.KindComma && !v.IsQuoted() {
		if !l.sequence {
			// barrier is left in the feed for the consumer to report
			l.state = StateDone
			return false, nil
		}
		l.feed.Advance()
		l.state = StateDone
		return false, nil
	}
	var cur *easyeval.Value
	if v.Kind() == easyeval.KindWord && !v.IsQuoted() {
		cur = l.cachedLookup(v.Symbol())
	}
	l.feed.Advance()

	if done, invisible, err := l.lookbehind(v); done || err != nil {
		return invisible, err
	}

	if v.IsQuoted() {
		l.setOut(v.Unquote())
		return false, nil
	}
	switch v.Kind() {
	case easyeval.KindWord:
		if cur == nil {
			var err error
			if cur, err = l.resolve(v.Symbol()); err != nil {
				return false, err
			}
		}
		if act, ok := ActionOf(*cur); ok {
			var left *easyeval.Value
			if act.infix {
				missing := easyeval.Missing()
				left = &missing
			}
			return l.invokeInto(act, v.Symbol(), nil, left)
		}
		l.setOut(*cur)

	case easyeval.KindSetWord:
		val, err := l.evalAssigned(v)
		if err != nil {
			return false, err
		}
		ptr, err := binding.Assign(l.binding, v.Symbol())
		if err != nil {
			return false, ThrowError(errUnbound(v.Symbol(), err))
		}
		*ptr = val
		l.setOut(val)

	case easyeval.KindGetWord:
		ptr, err := l.resolve(v.Symbol())
		if err != nil {
			return false, err
		}
		l.setOut(*ptr)

	case easyeval.KindGroup:
		sub, err := l.rt.push(l, feed.FromValue(v), l.binding)
		if err != nil {
			return false, err
		}
		sub.sequence = true
		err = sub.doAll()
		l.rt.drop(sub)
		if err != nil {
			return false, err
		}
		if sub.stale {
			// an empty or vanishing group doesn't produce a value for the lookahead to take
			return !l.sequence, nil
		}
		l.setOut(sub.Out)

	case easyeval.KindPath, easyeval.KindGetPath:
		act, requested, out, err := l.evalPath(v)
		if err != nil {
			return false, err
		}
		if act != nil && v.Kind() == easyeval.KindPath {
			return l.invokeInto(act, pathLabel(v), requested, nil)
		}
		if act != nil {
			out = act.Value()
		}
		l.setOut(out)

	case easyeval.KindAction:
		act, ok := ActionOf(v)
		if !ok {
			l.setOut(v)
			return false, nil
		}
		var left *easyeval.Value
		if act.infix {
			missing := easyeval.Missing()
			left = &missing
		}
		return l.invokeInto(act, act.label, nil, left)

	default:
		l.setOut(v)
	}
	return false, nil
}

func (l *Level) setOut(v easyeval.Value) {
	l.Out = v
	l.stale = false
}

// evalAssigned evaluates the expression following a set-word
func (l *Level) evalAssigned(sw easyeval.Value) (easyeval.Value, error) {
	if err := l.checkInput(sw.Symbol()); err != nil {
		return easyeval.Value{}, err
	}
	sub, err := l.rt.push(l, l.feed, l.binding)
	if err != nil {
		return easyeval.Value{}, err
	}
	defer l.rt.drop(sub)
	if err = sub.step(); err != nil {
		return easyeval.Value{}, err
	}
	if sub.stale {
		return easyeval.Value{}, l.checkInput(sw.Symbol())
	}
	return sub.Out, nil
}

// checkInput fails if there is no value at the feed position for the set-word
func (l *Level) checkInput(sym string) error {
	v, ok := l.feed.Peek()
	switch {
	case !ok:
		return l.fail(&Error{Kind: MissingArgument, Param: sym, Message: "nothing to assign"})
	case v.Kind() == easyeval.KindComma && !v.IsQuoted():
		return l.fail(&Error{Kind: ExpressionBarrierViolation, Param: sym, Message: "barrier in assignment"})
	}
	return nil
}

// evalSoft evaluates one value which is evaluated on demand by soft quoting: group, get-word, get-path
func (l *Level) evalSoft(v easyeval.Value, b binding.Binding) (easyeval.Value, error) {
	sub, err := l.rt.push(l, feed.FromValues(v), b)
	if err != nil {
		return easyeval.Value{}, err
	}
	defer l.rt.drop(sub)
	sub.noLookahead = true
	if err = sub.step(); err != nil {
		return easyeval.Value{}, err
	}
	return sub.Result(), nil
}

func isSoftEvaluated(v easyeval.Value) bool {
	if v.IsQuoted() || v.IsAntiform() {
		return false
	}
	switch v.Kind() {
	case easyeval.KindGroup, easyeval.KindGetWord, easyeval.KindGetPath:
		return true
	}
	return false
}

// DoBlock evaluates the array-like value to its end in a new level. Nil binding means the
// binding of the level. A vanishing evaluation results in void
func (l *Level) DoBlock(v easyeval.Value, b binding.Binding) (easyeval.Value, error) {
	if b == nil {
		b = l.binding
	}
	sub, err := l.rt.push(l, feed.FromValue(v), b)
	if err != nil {
		return easyeval.Value{}, err
	}
	defer l.rt.drop(sub)
	sub.sequence = true
	if err = sub.doAll(); err != nil {
		return easyeval.Value{}, err
	}
	return sub.Result(), nil
}

// DoStep evaluates one expression from the feed in a new level, with lookahead.
// ok == false means the feed is at end or at a barrier
func (l *Level) DoStep(f *feed.Feed, b binding.Binding) (v easyeval.Value, ok bool, err error) {
	if b == nil {
		b = l.binding
	}
	sub, err := l.rt.push(l, f, b)
	if err != nil {
		return easyeval.Value{}, false, err
	}
	defer l.rt.drop(sub)
	if err = sub.step(); err != nil {
		return easyeval.Value{}, false, err
	}
	if sub.stale {
		return easyeval.Value{}, false, nil
	}
	return sub.Out, true, nil
}
