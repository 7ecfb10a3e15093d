package feed

import (
	"github.com/gammazero/deque"
	"github.com/lunfardo314/easyeval"
)

// Generator produces the next value of a generator-backed feed. ok == false means end
type Generator func() (v easyeval.Value, ok bool)

// Feed is a sequential cursor over values. It is either backed by an array or
// by a generator. A generator feed buffers what was peeked and is single-pass.
// The feed also caches one pre-resolved item (the "gotten") for the value at the
// current position, so a lookup done while peeking is not repeated when the
// value is consumed
type Feed struct {
	arr   *easyeval.Array
	index int

	gen     Generator
	buf     *deque.Deque[easyeval.Value]
	genDone bool

	gotten      interface{}
	gottenValid bool
}

func FromArray(arr *easyeval.Array, index int) *Feed {
	return &Feed{
		arr:   arr,
		index: index,
	}
}

// FromValue makes a feed over an array-like value from its position
func FromValue(v easyeval.Value) *Feed {
	arr, idx := v.Array()
	return FromArray(arr, idx)
}

func FromValues(vals ...easyeval.Value) *Feed {
	return FromArray(easyeval.NewArray(vals...), 0)
}

func FromGenerator(gen Generator) *Feed {
	return &Feed{
		gen: gen,
		buf: new(deque.Deque[easyeval.Value]),
	}
}

// Empty is a feed which is at end from the start
func Empty() *Feed {
	return FromArray(nil, 0)
}

// Peek returns the value at the current position or ok == false at end
func (f *Feed) Peek() (easyeval.Value, bool) {
	if f.gen != nil {
		if !f.fill(1) {
			return easyeval.Value{}, false
		}
		return f.buf.Front(), true
	}
	if f.index >= f.arr.Len() {
		return easyeval.Value{}, false
	}
	return f.arr.At(f.index), true
}

func (f *Feed) IsEnd() bool {
	_, ok := f.Peek()
	return !ok
}

// Advance moves the cursor. It invalidates the gotten of the previous position
func (f *Feed) Advance() {
	f.InvalidateGotten()
	if f.gen != nil {
		if f.fill(1) {
			f.buf.PopFront()
		}
		return
	}
	if f.index < f.arr.Len() {
		f.index++
	}
}

func (f *Feed) Gotten() (interface{}, bool) {
	return f.gotten, f.gottenValid
}

func (f *Feed) SetGotten(g interface{}) {
	f.gotten = g
	f.gottenValid = true
}

// InvalidateGotten must be called whenever a binding may have changed since the lookup
func (f *Feed) InvalidateGotten() {
	f.gotten = nil
	f.gottenValid = false
}

// fill makes sure at least n values are buffered
func (f *Feed) fill(n int) bool {
	for f.buf.Len() < n {
		if f.genDone {
			return false
		}
		v, ok := f.gen()
		if !ok {
			f.genDone = true
			return false
		}
		f.buf.PushBack(v)
	}
	return true
}
