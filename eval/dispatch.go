package eval

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/feed"
	"github.com/lunfardo314/unitrie/common"
)

// invokeInto runs the action in a new invocation level and writes the result into the output.
// left is the left operand of an infix call, nil for prefix calls
func (l *Level) invokeInto(act *Action, label string, requested []string, left *easyeval.Value) (invisible bool, err error) {
	sub, err := l.rt.push(l, l.feed, l.binding)
	if err != nil {
		return false, err
	}
	defer l.rt.drop(sub)

	sub.begin(act, label, requested, left)
	if l.rt.cfg.Trace {
		l.rt.log.Debugf("invoke '%s' at depth %d, refinements: %v", sub.actionLabel(), sub.depth, requested)
	}
	if err = sub.run(); err != nil {
		return false, err
	}
	if sub.deferredLeft {
		l.deferralUsed = true
	}
	if sub.invisible {
		return true, nil
	}
	l.setOut(sub.Out)
	return false, nil
}

// Invoke runs the action with arguments taken from the feed. It is how natives call actions
// they receive as arguments
func (l *Level) Invoke(act *Action, f *feed.Feed, left *easyeval.Value) (easyeval.Value, error) {
	sub, err := l.rt.push(l, f, l.binding)
	if err != nil {
		return easyeval.Value{}, err
	}
	defer l.rt.drop(sub)
	sub.sequence = false
	invisible, err := sub.invokeInto(act, act.label, nil, left)
	if err != nil {
		return easyeval.Value{}, err
	}
	if invisible {
		return easyeval.Void(), nil
	}
	return sub.Out, nil
}

func (l *Level) begin(act *Action, label string, requested []string, left *easyeval.Value) {
	l.original = act
	l.phase = act
	l.label = label
	l.requested = requested
	l.hasLeft = false
	if left != nil {
		l.left = *left
		l.hasLeft = true
	}
	l.special = SourceParams
	l.exemplar = nil
	if act.exemplar != nil {
		l.special = SourceExemplar
		l.exemplar = act.exemplar
	}
	l.state = StateInitial
}

// run is the state machine of an invocation
func (l *Level) run() error {
	for {
		switch l.state {
		case StateInitial:
			if err := l.prepare(); err != nil {
				return err
			}
			l.state = StateFulfillingParameter

		case StateFulfillingParameter:
			if err := l.fulfill(); err != nil {
				return err
			}

		case StateAwaitingDeferredInfix:
			if err := l.resumeDeferred(); err != nil {
				return err
			}
			l.state = StateFulfillingParameter

		case StateDispatching:
			if err := l.dispatch(); err != nil {
				return err
			}

		case StateHandlingRedo:
			l.retypecheck()
			l.state = StateFulfillingParameter

		case StateDone:
			return nil

		default:
			return l.invalidState()
		}
	}
}

func (l *Level) retypecheck() {
	l.special = SourceArgs
	l.exemplar = nil
	l.requested = nil
	l.pickups = nil
	l.pickupIdx = -1
	l.param = 0
	l.deferred = -1
	l.hasLeft = false
}

// dispatch runs the behavior of the phase and interprets its result
func (l *Level) dispatch() error {
	phase := l.phase
	var res Result
	err := common.CatchPanicOrError(func() error {
		var err1 error
		res, err1 = phase.behavior(l)
		return err1
	})
	if err != nil {
		t, ok := AsThrow(err)
		if !ok {
			if l.rt.aborted {
				// consistency violation in a nested level of a checked runtime
				panic(err)
			}
			if e, ok := AsError(err); ok {
				if e.Kind == InvalidDispatchResult {
					return err
				}
				if e.Action == "" {
					e.Action = l.actionLabel()
				}
				return l.fail(e)
			}
			return l.fail(&Error{Kind: Failure, Action: l.actionLabel(), Message: err.Error()})
		}
		if !t.claimedBy(l) {
			return err
		}
		if easyeval.Equal(t.Label, UnwindLabel) {
			l.setOut(t.Value)
			return l.finishPhase()
		}
		return l.redoUnder(t.Value)
	}

	switch res {
	case ResultOut:
		return l.finishPhase()
	case ResultRedoChecked:
		l.state = StateHandlingRedo
	case ResultRedoUnchecked:
		l.state = StateDispatching
	case ResultInvisible:
		l.invisible = true
		l.state = StateDone
	default:
		// ResultThrown without a throw is as wrong as an unknown result
		return l.invalidResult(res)
	}
	if l.rt.cfg.Trace && l.state != StateDone {
		l.rt.log.Debugf("'%s' redo, phase '%s', checked: %v", l.actionLabel(), l.phase.label, l.state == StateHandlingRedo)
	}
	return nil
}

// finishPhase runs the next chained action on the output or completes the invocation
func (l *Level) finishPhase() error {
	if l.chain == nil || l.chain.Len() == 0 {
		l.state = StateDone
		return nil
	}
	next := l.chain.PopFront()
	if next.LeftParam() < 0 {
		return l.fail(&Error{
			Kind:    BadPhase,
			Action:  next.label,
			Message: "chained action takes no argument",
		})
	}
	out := l.Out
	chain := l.chain
	l.begin(next, next.label, nil, &out)
	l.chain = chain
	// chained actions take nothing from the callsite
	l.feed = feed.Empty()
	return nil
}

func (l *Level) redoUnder(phaseValue easyeval.Value) error {
	phase, ok := ActionOf(phaseValue)
	if !ok || !l.original.Related(phase) {
		return l.fail(&Error{
			Kind:    BadPhase,
			Action:  l.actionLabel(),
			Value:   phaseValue,
			HasVal:  true,
			Message: "redo phase must share the paramlist",
		})
	}
	l.phase = phase
	l.state = StateHandlingRedo
	return nil
}

func (l *Level) invalidResult(res Result) error {
	msg := fmt.Sprintf("'%s' returned invalid dispatch result %d", l.phase.label, res)
	if l.rt.cfg.Checked {
		l.rt.aborted = true
		common.Assert(false, "%s", msg)
	}
	l.rt.log.Errorf("%s", msg)
	return &Error{Kind: InvalidDispatchResult, Action: l.actionLabel(), Message: msg}
}

func (l *Level) invalidState() error {
	msg := fmt.Sprintf("'%s' in wrong state %s", l.actionLabel(), l.state)
	if l.rt.cfg.Checked {
		l.rt.aborted = true
		common.Assert(false, "%s", msg)
	}
	return &Error{Kind: InvalidDispatchResult, Action: l.actionLabel(), Message: msg}
}

// returner makes the definitional return of the invocation: it unwinds to this level
func (l *Level) returner() *Action {
	return MustNewAction("return", []Param{{
		Name:    "value",
		Class:   ParamNormal,
		Types:   easyeval.TsAnyValue | easyeval.TsNull | easyeval.TsVoid,
		Endable: true,
	}}, func(r *Level) (Result, error) {
		v := r.Arg("value")
		if v.IsMissing() {
			v = easyeval.Void()
		}
		return ResultThrown, UnwindTo(l, v)
	})
}
