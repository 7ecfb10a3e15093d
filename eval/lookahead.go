package eval

import (
	"github.com/lunfardo314/easyeval"
)

// peekInfix finds an infix action at the feed position
func (l *Level) peekInfix() (*Action, string, bool) {
	v, ok := l.feed.Peek()
	if !ok || v.Kind() != easyeval.KindWord || v.IsQuoted() {
		return nil, "", false
	}
	ptr := l.peekLookup(v.Symbol())
	if ptr == nil {
		return nil, "", false
	}
	act, ok := ActionOf(*ptr)
	if !ok || !act.infix {
		return nil, "", false
	}
	return act, v.Symbol(), true
}

// quotesLeft tells if the infix action takes precedence over evaluation of the value on its left.
// It depends only on the class of the left param and the type of the value
func quotesLeft(act *Action, v easyeval.Value) bool {
	i := act.LeftParam()
	if i < 0 {
		return false
	}
	p := &act.params[i]
	if !p.Class.IsQuoting() {
		return false
	}
	if p.Skippable && !p.Types.Check(v) {
		return false
	}
	return true
}

// lookbehind gives a left-quoting infix action following the value the priority to take
// the value unevaluated
func (l *Level) lookbehind(v easyeval.Value) (done bool, invisible bool, err error) {
	if v.Kind() == easyeval.KindComma && !v.IsQuoted() {
		return false, false, nil
	}
	act, label, ok := l.peekInfix()
	if !ok || !quotesLeft(act, v) {
		return false, false, nil
	}
	l.feed.Advance()
	left := v
	if act.params[act.LeftParam()].Class == ParamSoftQuote && isSoftEvaluated(v) {
		if left, err = l.evalSoft(v, l.binding); err != nil {
			return true, false, err
		}
	}
	if l.rt.cfg.Trace {
		l.rt.log.Debugf("'%s' quotes left %s", label, v.String())
	}
	invisible, err = l.invokeInto(act, label, nil, &left)
	return true, invisible, err
}

// lookahead offers the output to the infix actions following it, as long as they take it
func (l *Level) lookahead() error {
	for {
		if l.noLookahead || l.stale {
			return nil
		}
		act, label, ok := l.peekInfix()
		if !ok || act.LeftParam() < 0 {
			return nil
		}
		left := l.Out
		if act.params[act.LeftParam()].Class.IsQuoting() {
			// an evaluated value can't be quoted. A skippable param is skipped
			if !act.params[act.LeftParam()].Skippable {
				return nil
			}
			left = easyeval.Null()
		}
		if act.defers && l.argOf != nil && !l.deferralUsed {
			// the invocation being fulfilled resumes the infix once the argument is finalized
			l.argOf.deferred = l.argIdx
			if l.rt.cfg.Trace {
				l.rt.log.Debugf("'%s' deferred at '%s' param #%d", label, l.argOf.actionLabel(), l.argIdx)
			}
			return nil
		}
		l.feed.Advance()
		out := l.Out
		invisible, err := l.invokeInto(act, label, nil, &left)
		if err != nil {
			return err
		}
		if invisible {
			l.setOut(out)
		}
	}
}
