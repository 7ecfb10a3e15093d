package eval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/feed"
	"github.com/lunfardo314/easyeval/util/signalqueue"
	"github.com/lunfardo314/easyeval/util/waitingroom"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Runtime owns the Level stack. Evaluation is single-threaded: Do and friends must be
// called from one goroutine at a time. Halt, HaltAfter and Signal are safe to call from
// any goroutine, they take effect at the next safepoint
type Runtime struct {
	cfg  Config
	log  *zap.SugaredLogger
	root binding.Binding

	top       *Level
	gen       uint64
	countdown int
	ctx       context.Context
	aborted   bool

	interrupt atomic.Bool
	halted    atomic.Bool
	signals   *signalqueue.SignalQueue[func() error]

	wrMutex sync.Mutex
	wr      *waitingroom.WaitingRoom
}

func NewRuntime(root binding.Binding, cfg Config, log *zap.SugaredLogger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if root == nil {
		root = binding.NewContext(nil)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runtime{
		cfg:       cfg,
		log:       log.Named("eval"),
		root:      root,
		countdown: cfg.SafepointInterval,
		signals:   signalqueue.New[func() error](),
	}, nil
}

func (r *Runtime) Config() Config {
	return r.cfg
}

func (r *Runtime) Logger() *zap.SugaredLogger {
	return r.log
}

func (r *Runtime) Root() binding.Binding {
	return r.root
}

// Top is the innermost level, nil when idle
func (r *Runtime) Top() *Level {
	return r.top
}

// Do evaluates the block or group to its end in the root binding
func (r *Runtime) Do(code easyeval.Value) (easyeval.Value, error) {
	return r.DoContext(context.Background(), code)
}

// DoContext is Do with cancellation honored at safepoints
func (r *Runtime) DoContext(ctx context.Context, code easyeval.Value) (easyeval.Value, error) {
	if !code.Kind().IsArrayLike() || code.IsQuoted() || code.IsAntiform() {
		return easyeval.Value{}, fmt.Errorf("Do: block or group expected, got %s", code.Describe())
	}
	return r.DoFeed(ctx, feed.FromValue(code), r.root)
}

// DoFeed evaluates the feed to its end. Uncaught throws are returned as *Throw errors
func (r *Runtime) DoFeed(ctx context.Context, f *feed.Feed, b binding.Binding) (easyeval.Value, error) {
	if r.top != nil {
		return easyeval.Value{}, fmt.Errorf("DoFeed: runtime is already evaluating")
	}
	if b == nil {
		b = r.root
	}
	r.ctx = ctx
	r.aborted = false
	defer func() {
		r.ctx = nil
	}()
	l, err := r.push(nil, f, b)
	if err != nil {
		return easyeval.Value{}, err
	}
	l.sequence = true
	defer r.drop(l)

	if err = l.doAll(); err != nil {
		if t, ok := AsThrow(err); ok && t.IsHalt() {
			r.log.Infof("evaluation halted")
		} else {
			r.log.Infof("uncaught: %v", err)
		}
		return easyeval.Value{}, err
	}
	return l.Result(), nil
}

// Halt makes the evaluation throw the uncatchable halt at the next safepoint
func (r *Runtime) Halt() {
	r.halted.Store(true)
	r.interrupt.Store(true)
}

// HaltAfter posts a halt after the timeout. The returned function cancels it
func (r *Runtime) HaltAfter(d time.Duration) (cancel func()) {
	wr := r.waitingRoom()
	ticket := wr.CallDelayed(d, r.Halt)
	return func() {
		wr.Cancel(ticket)
	}
}

// waitingRoom starts the deadline poller on first use
func (r *Runtime) waitingRoom() *waitingroom.WaitingRoom {
	r.wrMutex.Lock()
	defer r.wrMutex.Unlock()

	if r.wr == nil {
		r.wr = waitingroom.Create(r.cfg.HaltPollPeriod)
	}
	return r.wr
}

// Signal queues interrupt work to run at the next safepoint. An error returned by it is
// raised as a failure at the point of evaluation
func (r *Runtime) Signal(fun func() error) {
	if r.signals.Push(fun) {
		r.interrupt.Store(true)
	}
}

// Close stops background facilities of the runtime
func (r *Runtime) Close() {
	r.wrMutex.Lock()
	if r.wr != nil {
		r.wr.Stop()
	}
	r.wrMutex.Unlock()
	r.signals.Close()
}

func (r *Runtime) push(prior *Level, f *feed.Feed, b binding.Binding) (*Level, error) {
	depth := 0
	if prior != nil {
		depth = prior.depth + 1
	}
	if depth >= r.cfg.MaxDepth {
		return nil, ThrowError(&Error{
			Kind:    StackOverflow,
			Message: fmt.Sprintf("maximum level depth %d exceeded", r.cfg.MaxDepth),
		})
	}
	r.gen++
	ret := &Level{
		rt:       r,
		prior:    prior,
		depth:    depth,
		gen:      r.gen,
		Out:      easyeval.Void(),
		stale:    true,
		feed:     f,
		binding:  b,
		deferred: -1,
	}
	r.top = ret
	return ret, nil
}

func (r *Runtime) drop(l *Level) {
	l.release()
	r.top = l.prior
}

// safepoint runs at the start of each expression of a sequence. Interrupt work runs when
// the countdown expires or when an interrupt was posted
func (r *Runtime) safepoint() error {
	r.countdown--
	if r.countdown > 0 && !r.interrupt.Load() {
		return nil
	}
	r.countdown = r.cfg.SafepointInterval
	r.interrupt.Store(false)
	return r.service()
}

func (r *Runtime) service() error {
	var err error
	r.signals.Drain(func(fun func() error) bool {
		err = fun()
		return err == nil
	})
	if r.signals.Len() > 0 {
		r.interrupt.Store(true)
	}
	if err != nil {
		if _, ok := AsThrow(err); ok {
			return err
		}
		return ThrowError(&Error{Kind: Failure, Message: err.Error()})
	}
	if r.halted.Swap(false) {
		return &Throw{Label: HaltLabel, Value: easyeval.Null()}
	}
	if r.ctx != nil {
		select {
		case <-r.ctx.Done():
			r.log.Infof("context done: %v", r.ctx.Err())
			return &Throw{Label: HaltLabel, Value: easyeval.Text(r.ctx.Err().Error())}
		default:
		}
	}
	return nil
}

// Safepoint lets natives looping without evaluating expressions service interrupts
func (l *Level) Safepoint() error {
	return l.rt.safepoint()
}

// Result is the output of a finished sequence level, void when nothing was produced
func (l *Level) Result() easyeval.Value {
	if l.stale {
		return easyeval.Void()
	}
	return l.Out
}
