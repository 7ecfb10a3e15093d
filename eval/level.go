package eval

import (
	"fmt"

	"github.com/gammazero/deque"
	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/feed"
	"go.uber.org/zap"
)

type ArgState uint8

const (
	ArgUnfilled = ArgState(iota)
	ArgFilled
	// ArgPickup marks a refinement requested out of order, to be fulfilled in the second pass
	ArgPickup
	// ArgRevoked marks a refinement nulled by its first argument
	ArgRevoked
	// ArgPending marks a slot waiting for a deferred infix to finish it
	ArgPending
)

var argStateNames = [...]string{
	ArgUnfilled: "unfilled",
	ArgFilled:   "filled",
	ArgPickup:   "pickup",
	ArgRevoked:  "revoked",
	ArgPending:  "pending",
}

func (s ArgState) String() string {
	if int(s) < len(argStateNames) {
		return argStateNames[s]
	}
	return "???"
}

// Arg is the argument slot parallel to a param
type Arg struct {
	Value   easyeval.Value
	State   ArgState
	Checked bool
}

// SpecialSource tells where pre-filled argument values come from
type SpecialSource uint8

const (
	// SourceParams means nothing is pre-filled, every argument comes from the feed
	SourceParams = SpecialSource(iota)
	// SourceArgs means the args are already filled and only need type checking
	SourceArgs
	// SourceExemplar means specialized args come from the action's exemplar
	SourceExemplar
)

func (s SpecialSource) String() string {
	switch s {
	case SourceParams:
		return "params"
	case SourceArgs:
		return "args"
	case SourceExemplar:
		return "exemplar"
	}
	return "???"
}

type State uint8

const (
	StateInitial = State(iota)
	StateLookingAhead
	StateFulfillingParameter
	StateAwaitingDeferredInfix
	StateDispatching
	StateHandlingRedo
	StateDone
)

var stateNames = [...]string{
	StateInitial:               "initial",
	StateLookingAhead:          "looking-ahead",
	StateFulfillingParameter:   "fulfilling-parameter",
	StateAwaitingDeferredInfix: "awaiting-deferred-infix",
	StateDispatching:           "dispatching",
	StateHandlingRedo:          "handling-redo",
	StateDone:                  "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "???"
}

// Level is one frame of evaluation. A stepping level evaluates expressions from its feed,
// an invocation level fulfills and dispatches one action call
type Level struct {
	rt    *Runtime
	prior *Level
	depth int
	gen   uint64

	Out easyeval.Value
	// stale output is not a real value: nothing was produced yet or the last
	// expression vanished
	stale bool

	feed    *feed.Feed
	binding binding.Binding
	state   State

	// stepping
	sequence     bool
	noLookahead  bool
	argOf        *Level
	argIdx       int
	deferralUsed bool

	// invocation
	original  *Action
	phase     *Action
	label     string
	args      []Arg
	param     int
	special   SpecialSource
	exemplar  []Arg
	requested []string
	// pickups are the offsets of the refinements requested out of order, in the order
	// of the request. They are fulfilled in the second pass
	pickups   []int
	pickupIdx int
	// deferred is the slot waiting for a deferred infix, -1 if none
	deferred     int
	deferredLeft bool
	left         easyeval.Value
	hasLeft      bool
	invisible    bool
	chain        *deque.Deque[*Action]
}

func (l *Level) Runtime() *Runtime {
	return l.rt
}

func (l *Level) Prior() *Level {
	return l.prior
}

func (l *Level) Depth() int {
	return l.depth
}

func (l *Level) Feed() *feed.Feed {
	return l.feed
}

func (l *Level) Binding() binding.Binding {
	return l.binding
}

func (l *Level) State() State {
	return l.state
}

func (l *Level) IsStale() bool {
	return l.stale
}

func (l *Level) Logger() *zap.SugaredLogger {
	return l.rt.log
}

// Label is the name the action was invoked by
func (l *Level) Label() string {
	return l.actionLabel()
}

// Original is the action being invoked
func (l *Level) Original() *Action {
	return l.original
}

// Phase is the action whose behavior is running
func (l *Level) Phase() *Action {
	return l.phase
}

func (l *Level) Special() SpecialSource {
	return l.special
}

// SetPhase switches the behavior run by the next redo. The phase must share the paramlist
func (l *Level) SetPhase(phase *Action) error {
	if !l.original.Related(phase) {
		return fmt.Errorf("SetPhase: '%s' is not a phase of '%s'", phase.label, l.original.label)
	}
	l.phase = phase
	return nil
}

// PushChain appends the actions to be run on the output of the current phase
func (l *Level) PushChain(acts ...*Action) {
	if l.chain == nil {
		l.chain = new(deque.Deque[*Action])
	}
	for _, a := range acts {
		l.chain.PushBack(a)
	}
}

func (l *Level) NumArgs() int {
	return len(l.args)
}

func (l *Level) argIndex(name string) int {
	ret := l.original.ParamIndex(name)
	if ret < 0 {
		panic(fmt.Errorf("'%s' has no param '%s'", l.actionLabel(), name))
	}
	return ret
}

// Arg is the value of the argument by param name
func (l *Level) Arg(name string) easyeval.Value {
	return l.args[l.argIndex(name)].Value
}

func (l *Level) ArgAt(i int) easyeval.Value {
	return l.args[i].Value
}

func (l *Level) ArgState(name string) ArgState {
	return l.args[l.argIndex(name)].State
}

// SetArg overwrites the argument. A checked redo will type check it again
func (l *Level) SetArg(name string, v easyeval.Value) {
	i := l.argIndex(name)
	l.args[i].Value = v
	l.args[i].Checked = false
}

// HasRefinement tells if the refinement is in use
func (l *Level) HasRefinement(name string) bool {
	i := l.argIndex(name)
	if l.original.params[i].Class != ParamRefinement {
		panic(fmt.Errorf("'%s' is not a refinement of '%s'", name, l.actionLabel()))
	}
	return l.args[i].Value.IsTruthy()
}

// Args returns a copy of the argument slots
func (l *Level) Args() []Arg {
	ret := make([]Arg, len(l.args))
	copy(ret, l.args)
	return ret
}

// Return writes the output
func (l *Level) Return(v easyeval.Value) (Result, error) {
	l.Out = v
	l.stale = false
	return ResultOut, nil
}

func (l *Level) release() {
	l.state = StateDone
	l.exemplar = nil
	l.requested = nil
	l.pickups = nil
	l.chain = nil
}
