package eval

import (
	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
)

// frameBinding exposes the argument slots of an invocation as variables. Words which are
// not params resolve in the parent. Assignment to a word bound nowhere creates a variable
// local to the frame
type frameBinding struct {
	l      *Level
	parent binding.Binding
	extra  *binding.Context
}

// Frame makes the binding of the invocation's args, chained to the parent
func (l *Level) Frame(parent binding.Binding) binding.Binding {
	if parent == nil {
		parent = l.rt.root
	}
	return &frameBinding{l: l, parent: parent}
}

func (f *frameBinding) Resolve(sym string) (*easyeval.Value, error) {
	if i := f.l.original.ParamIndex(sym); i >= 0 {
		return &f.l.args[i].Value, nil
	}
	if f.extra != nil {
		if ret, err := f.extra.Resolve(sym); err == nil {
			return ret, nil
		}
	}
	return f.parent.Resolve(sym)
}

func (f *frameBinding) Define(sym string) *easyeval.Value {
	if f.extra == nil {
		f.extra = binding.NewContext(nil)
	}
	return f.extra.Define(sym)
}

// FrameOf finds the invocation whose frame binds the word, following the chain of frames
func FrameOf(b binding.Binding, sym string) (*Level, bool) {
	for {
		f, ok := b.(*frameBinding)
		if !ok {
			return nil, false
		}
		if f.l.original.ParamIndex(sym) >= 0 {
			return f.l, true
		}
		b = f.parent
	}
}
