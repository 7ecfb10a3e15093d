package eval

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/feed"
)

// Varargs is the handle bound to a variadic parameter. It pulls values on demand either from
// the feed of the invocation or from a block. The handle is tagged with the param and the
// phase it is bound under and re-tagged each time fulfillment runs over it
type Varargs struct {
	// level is the invocation which owns the feed, or which the block handle was bound to
	level *Level
	gen   uint64
	feed  *feed.Feed
	// bnd is the binding for block-backed handles
	bnd   binding.Binding
	block bool

	param int
	phase *Action
}

func newFeedVarargs(l *Level, i int) *Varargs {
	return &Varargs{
		level: l,
		gen:   l.gen,
		feed:  l.feed,
		param: i,
		phase: l.phase,
	}
}

// NewBlockVarargs makes a handle taking values from the block. It can be passed where a
// variadic argument is expected, e.g. in a specialization
func NewBlockVarargs(blk easyeval.Value, b binding.Binding) *Varargs {
	return &Varargs{
		feed:  feed.FromValue(blk),
		bnd:   b,
		block: true,
		param: -1,
	}
}

// VarargsOf extracts the handle from the value
func VarargsOf(v easyeval.Value) (*Varargs, bool) {
	if v.Kind() != easyeval.KindVarargs || v.IsQuoted() || v.IsAntiform() {
		return nil, false
	}
	ret, ok := v.Ext().(*Varargs)
	return ret, ok
}

func (va *Varargs) Value() easyeval.Value {
	return easyeval.VarargsValue(va)
}

func (va *Varargs) retag(l *Level, i int) {
	va.param = i
	va.phase = l.phase
	if va.block {
		va.level = l
		va.gen = l.gen
	}
}

// Phase is the action the handle is currently bound under
func (va *Varargs) Phase() *Action {
	return va.phase
}

// Param is the param the handle is bound to, nil if not bound yet
func (va *Varargs) Param() *Param {
	if va.level == nil || va.param < 0 {
		return nil
	}
	return &va.level.original.params[va.param]
}

func (va *Varargs) alive() bool {
	return va.level != nil && va.level.gen == va.gen && va.level.state != StateDone
}

func (va *Varargs) expired() error {
	msg := "varargs handle is not bound"
	if va.level != nil {
		msg = fmt.Sprintf("varargs of '%s' used after the call finished", va.level.actionLabel())
	}
	return ThrowError(&Error{Kind: VarargsExpired, Message: msg})
}

// IsEnd tells if there is nothing more to take: end of input or a barrier
func (va *Varargs) IsEnd() bool {
	v, ok := va.feed.Peek()
	return !ok || (v.Kind() == easyeval.KindComma && !v.IsQuoted())
}

// Take pulls the next value the way the param's pull class takes arguments.
// ok == false at end of input or at a barrier
func (va *Varargs) Take() (v easyeval.Value, ok bool, err error) {
	if !va.alive() {
		return easyeval.Value{}, false, va.expired()
	}
	if va.IsEnd() {
		return easyeval.Value{}, false, nil
	}
	l := va.level
	p := &l.original.params[va.param]
	b := l.binding
	if va.block {
		b = va.bnd
	}

	v, _ = va.feed.Peek()
	switch p.Pull {
	case ParamHardQuote:
		va.feed.Advance()
	case ParamSoftQuote:
		va.feed.Advance()
		if isSoftEvaluated(v) {
			if v, err = l.rt.top.evalSoft(v, b); err != nil {
				return easyeval.Value{}, false, err
			}
		}
	default:
		sub, err := l.rt.push(l.rt.top, va.feed, b)
		if err != nil {
			return easyeval.Value{}, false, err
		}
		sub.noLookahead = p.Pull == ParamTight
		err = sub.step()
		out, stale := sub.Out, sub.stale
		l.rt.drop(sub)
		if err != nil {
			return easyeval.Value{}, false, err
		}
		if stale {
			return easyeval.Value{}, false, nil
		}
		v = out
	}
	if !p.Types.Check(v) {
		return easyeval.Value{}, false, l.errTypeMismatch(va.param, v)
	}
	return v, true, nil
}

// Varargs returns the handle bound to the variadic param
func (l *Level) Varargs(name string) (*Varargs, error) {
	v := l.Arg(name)
	ret, ok := VarargsOf(v)
	if !ok {
		return nil, l.errNotVariadic(l.argIndex(name), v)
	}
	return ret, nil
}
