package eval

import (
	"github.com/lunfardo314/easyeval"
)

// prepare allocates the argument slots and computes the refinement plan once per invocation.
// Refinements requested in the order of declaration are fulfilled in place during the first
// pass. The rest are recorded as pickups and fulfilled in the second pass in the order they
// were requested, so the order of the request is the order of consumption
func (l *Level) prepare() error {
	params := l.original.params
	l.args = make([]Arg, len(params))
	for i := range l.args {
		l.args[i].Value = easyeval.Null()
	}
	l.param = 0
	l.pickups = nil
	l.pickupIdx = -1
	l.deferred = -1
	l.deferredLeft = false
	l.invisible = false

	requested := make(map[string]struct{}, len(l.requested))
	for _, name := range l.requested {
		i := l.original.ParamIndex(name)
		if i < 0 || params[i].Class != ParamRefinement {
			return l.errBadRefinement(name, "no such refinement")
		}
		if _, dup := requested[name]; dup {
			return l.errBadRefinement(name, "refinement is requested twice")
		}
		if _, specialized := l.specialized(i); specialized {
			return l.errBadRefinement(name, "refinement is specialized")
		}
		requested[name] = struct{}{}
	}
	next := 0
	for i := range params {
		if params[i].Class != ParamRefinement {
			continue
		}
		if _, ok := requested[params[i].Name]; !ok {
			continue
		}
		if l.requested[next] == params[i].Name {
			l.args[i].Value = easyeval.Logic(true)
			next++
			continue
		}
		l.args[i].State = ArgPickup
	}
	for _, name := range l.requested[next:] {
		l.pickups = append(l.pickups, l.original.ParamIndex(name))
	}
	return nil
}

// specialized returns the pre-filled value of the slot, depending on the specialization source
func (l *Level) specialized(i int) (easyeval.Value, bool) {
	switch l.special {
	case SourceArgs:
		return l.args[i].Value, true
	case SourceExemplar:
		if l.exemplar[i].State == ArgFilled {
			return l.exemplar[i].Value, true
		}
	}
	return easyeval.Value{}, false
}

// fulfill fills the args left to right, then the pickups. It leaves the state
// awaiting deferred infix if an argument is waiting for it
func (l *Level) fulfill() error {
	for {
		if l.param >= len(l.args) || (l.pickupIdx >= 0 && l.original.params[l.param].owner != l.pickups[l.pickupIdx]) {
			if !l.nextPickup() {
				break
			}
			continue
		}
		ok, err := l.fulfillParam(l.param)
		if err != nil {
			return err
		}
		if !ok {
			l.state = StateAwaitingDeferredInfix
			return nil
		}
		l.param++
	}
	if l.deferred >= 0 {
		// the deferred infix stays in the feed. It will take the output of this invocation
		i := l.deferred
		l.deferred = -1
		l.deferredLeft = true
		if err := l.finishArg(i, l.args[i].Value); err != nil {
			return err
		}
	}
	l.state = StateDispatching
	return nil
}

// nextPickup starts fulfillment of the next refinement requested out of order
func (l *Level) nextPickup() bool {
	if l.pickupIdx+1 >= len(l.pickups) {
		return false
	}
	l.pickupIdx++
	offset := l.pickups[l.pickupIdx]
	l.args[offset] = Arg{Value: easyeval.Logic(true), State: ArgFilled, Checked: true}
	l.param = offset + 1
	return true
}

// fulfillParam fills one slot. Returns false if the slot needs input while a deferred infix is pending
func (l *Level) fulfillParam(i int) (bool, error) {
	p := &l.original.params[i]
	a := &l.args[i]

	if l.special == SourceArgs {
		return true, l.recheck(i)
	}
	if v, ok := l.specialized(i); ok {
		return true, l.fillSpecialized(i, v)
	}
	switch p.Class {
	case ParamLocal:
		*a = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
		return true, nil
	case ParamReturn:
		*a = Arg{Value: l.returner().Value(), State: ArgFilled, Checked: true}
		return true, nil
	case ParamRefinement:
		if a.State == ArgPickup {
			return true, nil
		}
		if a.Value.IsTruthy() {
			*a = Arg{Value: easyeval.Logic(true), State: ArgFilled, Checked: true}
		} else {
			*a = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
		}
		return true, nil
	}
	if p.owner >= 0 {
		ref := &l.args[p.owner]
		switch {
		case ref.State == ArgPickup:
			// second pass
			return true, nil
		case ref.State == ArgRevoked:
			// the expression is still consumed, it must be null
		case !ref.Value.IsTruthy():
			*a = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
			return true, nil
		}
	}
	if p.Class == ParamVariadic {
		*a = Arg{Value: easyeval.VarargsValue(newFeedVarargs(l, i)), State: ArgFilled, Checked: true}
		return true, nil
	}
	if l.hasLeft {
		l.hasLeft = false
		if p.Skippable && l.left.IsNull() {
			// skipped left operand
			*a = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
			return true, nil
		}
		return true, l.finishArg(i, l.left)
	}
	if l.deferred >= 0 {
		return false, nil
	}
	return true, l.consume(i)
}

// consume takes the argument from the feed according to the param class
func (l *Level) consume(i int) error {
	p := &l.original.params[i]
	v, ok := l.feed.Peek()
	switch {
	case !ok:
		return l.missing(i, false)
	case v.Kind() == easyeval.KindComma && !v.IsQuoted():
		return l.missing(i, true)
	}
	switch p.Class {
	case ParamHardQuote:
		l.feed.Advance()
		return l.finishArg(i, v)
	case ParamSoftQuote:
		l.feed.Advance()
		if isSoftEvaluated(v) {
			var err error
			if v, err = l.evalSoft(v, l.binding); err != nil {
				return err
			}
		}
		return l.finishArg(i, v)
	}

	sub, err := l.rt.push(l, l.feed, l.binding)
	if err != nil {
		return err
	}
	sub.argOf = l
	sub.argIdx = i
	sub.noLookahead = p.Class == ParamTight
	err = sub.step()
	out, stale := sub.Out, sub.stale
	l.rt.drop(sub)
	if err != nil {
		return err
	}
	if stale {
		v, ok = l.feed.Peek()
		return l.missing(i, ok && v.Kind() == easyeval.KindComma && !v.IsQuoted())
	}
	if l.deferred == i {
		l.args[i] = Arg{Value: out, State: ArgPending}
		return nil
	}
	return l.finishArg(i, out)
}

// missing handles end of input or a barrier where the argument was expected
func (l *Level) missing(i int, barrier bool) error {
	if l.original.params[i].Endable {
		l.args[i] = Arg{Value: easyeval.Missing(), State: ArgFilled, Checked: true}
		return nil
	}
	if barrier {
		return l.errBarrier(i)
	}
	return l.errMissingArgument(i)
}

// finishArg applies refinement revocation rules and type checks the argument
func (l *Level) finishArg(i int, v easyeval.Value) error {
	p := &l.original.params[i]
	if p.owner >= 0 {
		ref := &l.args[p.owner]
		switch {
		case ref.State == ArgRevoked || !ref.Value.IsTruthy():
			if !v.IsNullish() {
				return l.errBadRevoke(i, v)
			}
			l.args[i] = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
			return nil
		case i == p.owner+1 && v.IsNullish():
			*ref = Arg{Value: easyeval.Null(), State: ArgRevoked, Checked: true}
			l.args[i] = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
			return nil
		}
	}
	if v.IsMissing() {
		if !p.Endable {
			return l.errMissingArgument(i)
		}
		l.args[i] = Arg{Value: v, State: ArgFilled, Checked: true}
		return nil
	}
	if !p.Types.Check(v) {
		return l.errTypeMismatch(i, v)
	}
	l.args[i] = Arg{Value: v, State: ArgFilled, Checked: true}
	return nil
}

// fillSpecialized takes the slot value from the exemplar
func (l *Level) fillSpecialized(i int, v easyeval.Value) error {
	p := &l.original.params[i]
	switch p.Class {
	case ParamRefinement:
		if v.IsTruthy() {
			l.args[i] = Arg{Value: easyeval.Logic(true), State: ArgFilled, Checked: true}
		} else {
			l.args[i] = Arg{Value: easyeval.Null(), State: ArgFilled, Checked: true}
		}
		return nil
	case ParamLocal:
		l.args[i] = Arg{Value: v, State: ArgFilled, Checked: true}
		return nil
	case ParamReturn:
		l.args[i] = Arg{Value: l.returner().Value(), State: ArgFilled, Checked: true}
		return nil
	case ParamVariadic:
		va, ok := VarargsOf(v)
		if !ok {
			return l.errNotVariadic(i, v)
		}
		va.retag(l, i)
		l.args[i] = Arg{Value: v, State: ArgFilled, Checked: true}
		return nil
	}
	return l.finishArg(i, v)
}

// recheck type checks the slot in place. Values are neither evaluated nor replaced
func (l *Level) recheck(i int) error {
	p := &l.original.params[i]
	a := &l.args[i]
	switch p.Class {
	case ParamLocal, ParamReturn:
		a.Checked = true
		return nil
	case ParamRefinement:
		if a.State != ArgRevoked {
			a.State = ArgFilled
		}
		a.Checked = true
		return nil
	case ParamVariadic:
		va, ok := VarargsOf(a.Value)
		if !ok {
			return l.errNotVariadic(i, a.Value)
		}
		va.retag(l, i)
		a.Checked = true
		return nil
	}
	v := a.Value
	if p.owner >= 0 {
		ref := &l.args[p.owner]
		switch {
		case !ref.Value.IsTruthy():
			if !v.IsNullish() {
				return l.errBadRevoke(i, v)
			}
			a.Checked = true
			return nil
		case i == p.owner+1 && v.IsNullish():
			ref.Value = easyeval.Null()
			ref.State = ArgRevoked
			a.Checked = true
			return nil
		}
	}
	if v.IsMissing() {
		if !p.Endable {
			return l.errMissingArgument(i)
		}
	} else if !p.Types.Check(v) {
		return l.errTypeMismatch(i, v)
	}
	a.State = ArgFilled
	a.Checked = true
	return nil
}

// resumeDeferred runs the deferred infix on the pending argument and finalizes it
func (l *Level) resumeDeferred() error {
	i := l.deferred
	l.deferred = -1
	sub, err := l.rt.push(l, l.feed, l.binding)
	if err != nil {
		return err
	}
	defer l.rt.drop(sub)
	sub.argOf = l
	sub.argIdx = i
	sub.deferralUsed = true
	sub.setOut(l.args[i].Value)
	if err = sub.lookahead(); err != nil {
		return err
	}
	return l.finishArg(i, sub.Out)
}
