package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/binding"
	"github.com/lunfardo314/easyeval/eval"
	"github.com/lunfardo314/easyeval/feed"
	"github.com/lunfardo314/easyeval/load"
)

type nativeDescriptor struct {
	sym    string
	spec   string
	infix  bool
	defers bool
	action *eval.Action
}

// extension is an action defined in the language itself, on top of the natives
type extension struct {
	sym    string
	source string
}

type libraryData struct {
	natives    []*nativeDescriptor
	byName     map[string]*nativeDescriptor
	extensions []extension
}

var theLibrary = &libraryData{
	byName: make(map[string]*nativeDescriptor),
}

func init() {
	// control
	Native("if", "condition [<opt> any-value!] branch [block! action!]", evalIf)
	Native("either", "condition [<opt> any-value!] true-branch [block! action!] false-branch [block! action!]", evalEither)
	// 'else' and 'then' let the argument they follow finish, so they apply to the whole call on the left
	EnfixNative("else", "optional [<opt> <void> any-value!] branch [block! action!]", true, evalElse)
	EnfixNative("then", "optional [<opt> <void> any-value!] branch [block! action!]", true, evalThen)
	Native("do", "source [block! group! action!]", evalDo)
	Native("the", "'value", evalThe)
	Native("quote", "value [any-value!]", evalQuote)
	Native("comment", "'discarded", evalComment)
	Native("elide", "discarded [<opt> <void> any-value!]", evalComment)
	Native("catch", "block [block!] /name label [word! action! blank!]", evalCatch)
	Native("throw", "value [<opt> <void> any-value!] /name label [word! action! blank!]", evalThrow)
	Native("trap", "block [block!]", evalTrap)
	Native("fail", "reason [text! word! error!]", evalFail)
	Native("halt", "", evalHalt)
	Native("probe", "value [<opt> <void> any-value!]", evalProbe)
	EnfixNative("default", "'target [set-word!] branch [block!]", false, evalDefault)
	Native("redo", "target [word!] /other phase [action!]", evalRedo)

	// loops
	Native("while", "condition [block!] body [block!]", evalWhile)
	Native("forever", "body [block!]", evalForever)
	Native("repeat", "count [integer!] body [block!]", evalRepeat)

	// words and blocks
	Native("reduce", "block [block!]", evalReduce)
	Native("get", "source [word!]", evalGet)
	Native("set", "target [word!] value [<opt> any-value!]", evalSet)
	Native("type-of", "value [<opt> <void> any-value!]", evalTypeOf)

	// actions
	Native("func", "spec [block!] body [block!]", evalFunc)
	Native("does", "body [block!]", evalDoes)
	Native("specialize", "action [action!] def [block!]", evalSpecialize)
	Native("adapt", "action [action!] prelude [block!]", evalAdapt)
	Native("chain", "pipeline [block!]", evalChain)
	Native("enfix", "action [action!] /defer", evalEnfix)
	Native("run", "action [action!]", evalRun)

	// variadics
	Native("sum-of", "values [<...> number!]", evalSumOf)
	Native("make-varargs", "block [block!]", evalMakeVarargs)

	// math and comparison
	Native("add", "value1 [number!] value2 [number!]", evalAdd)
	Native("subtract", "value1 [number!] value2 [number!]", evalSubtract)
	Native("multiply", "value1 [number!] value2 [number!]", evalMultiply)
	Native("divide", "value1 [number!] value2 [number!]", evalDivide)
	Native("equal?", "value1 [<opt> any-value!] value2 [<opt> any-value!]", evalEqual)
	Native("not-equal?", "value1 [<opt> any-value!] value2 [<opt> any-value!]", evalNotEqual)
	Native("lesser?", "value1 [number! text!] value2 [number! text!]", evalLesser)
	Native("greater?", "value1 [number! text!] value2 [number! text!]", evalGreater)
	Native("lesser-or-equal?", "value1 [number! text!] value2 [number! text!]", evalLesserOrEqual)
	Native("greater-or-equal?", "value1 [number! text!] value2 [number! text!]", evalGreaterOrEqual)
	Native("not", "value [<opt> <void> any-value!]", evalNot)
	// operators evaluate left to right: the right operand doesn't look ahead
	EnfixNative("+", "value1 [number!] value2 [<tight> number!]", false, evalAdd)
	EnfixNative("-", "value1 [number!] value2 [<tight> number!]", false, evalSubtract)
	EnfixNative("*", "value1 [number!] value2 [<tight> number!]", false, evalMultiply)
	EnfixNative("/", "value1 [number!] value2 [<tight> number!]", false, evalDivide)
	EnfixNative("=", "value1 [<opt> any-value!] value2 [<opt> <tight> any-value!]", false, evalEqual)
	EnfixNative("<>", "value1 [<opt> any-value!] value2 [<opt> <tight> any-value!]", false, evalNotEqual)
	EnfixNative("<", "value1 [number! text!] value2 [<tight> number! text!]", false, evalLesser)
	EnfixNative(">", "value1 [number! text!] value2 [<tight> number! text!]", false, evalGreater)
	EnfixNative("<=", "value1 [number! text!] value2 [<tight> number! text!]", false, evalLesserOrEqual)
	EnfixNative(">=", "value1 [number! text!] value2 [<tight> number! text!]", false, evalGreaterOrEqual)

	// formulas over binary data
	Native("formula", "source [text!] args [block!]", evalFormula)
	FormulaNative("blake2b", "blake2b($0)", "data")
	FormulaNative("concat-binary", "concat($0,$1)", "data1", "data2")

	// defined in terms of the above
	Extend("unless", "func [condition [<opt> any-value!] branch [block! action!]] [if not :condition :branch]")
	Extend("negate", "func [value [number!]] [subtract 0 value]")
	Extend("abs", "func [value [number!]] [either value < 0 [negate value] [value]]")
}

func mustUniqueName(sym string) {
	if _, found := theLibrary.byName[sym]; found {
		panic(fmt.Errorf("repeating native name '%s'", sym))
	}
	for _, ext := range theLibrary.extensions {
		if ext.sym == sym {
			panic(fmt.Errorf("repeating native name '%s'", sym))
		}
	}
}

// Native registers the action implemented by the behavior. The spec block is in the parameter dialect
func Native(sym, spec string, fun eval.Behavior) *eval.Action {
	return register(sym, spec, fun, false, false)
}

// EnfixNative registers the infix action. Deferring actions take the whole call on their left
func EnfixNative(sym, spec string, defers bool, fun eval.Behavior) *eval.Action {
	return register(sym, spec, fun, true, defers)
}

func register(sym, spec string, fun eval.Behavior, infix, defers bool) *eval.Action {
	mustUniqueName(sym)
	params, err := ParseSpec(load.MustLoad("[" + spec + "]").Items()[0])
	if err != nil {
		panic(fmt.Errorf("native '%s': %v", sym, err))
	}
	act := eval.MustNewAction(sym, params, fun)
	if infix {
		if act, err = eval.Enfix(act, sym, defers); err != nil {
			panic(err)
		}
	}
	dscr := &nativeDescriptor{
		sym:    sym,
		spec:   spec,
		infix:  infix,
		defers: defers,
		action: act,
	}
	theLibrary.natives = append(theLibrary.natives, dscr)
	theLibrary.byName[sym] = dscr
	return act
}

// Extend registers the action defined by the source. The source is evaluated in the
// library context when it is created and must produce an action
func Extend(sym, source string) {
	mustUniqueName(sym)
	theLibrary.extensions = append(theLibrary.extensions, extension{sym: sym, source: source})
}

// NativeByName returns the registered native action
func NativeByName(sym string) (*eval.Action, bool) {
	dscr, ok := theLibrary.byName[sym]
	if !ok {
		return nil, false
	}
	return dscr.action, true
}

// New creates the library context with all natives and extensions. It is the root
// binding for user contexts
func New() (*binding.Context, error) {
	ret := binding.NewContext(nil)
	ret.Set("true", easyeval.Logic(true))
	ret.Set("false", easyeval.Logic(false))
	ret.Set("null", easyeval.Null())
	for _, dscr := range theLibrary.natives {
		ret.Set(dscr.sym, dscr.action.Value())
	}
	if len(theLibrary.extensions) == 0 {
		return ret, nil
	}
	rt, err := eval.NewRuntime(ret, eval.DefaultConfig(), nil)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	for _, ext := range theLibrary.extensions {
		code, err := load.Load(ext.source)
		if err != nil {
			return nil, fmt.Errorf("extension '%s': %v", ext.sym, err)
		}
		v, err := rt.Do(code)
		if err != nil {
			return nil, fmt.Errorf("extension '%s': %v", ext.sym, err)
		}
		if _, ok := eval.ActionOf(v); !ok {
			return nil, fmt.Errorf("extension '%s' must produce an action, got %s", ext.sym, v.Describe())
		}
		ret.Set(ext.sym, v)
	}
	return ret, nil
}

func MustNew() *binding.Context {
	ret, err := New()
	if err != nil {
		panic(err)
	}
	return ret
}

// runBranch runs the block, or the action taking the argument if it has a parameter for it.
// A branch which ran never returns null, so 'else' doesn't take it for a branch not taken
func runBranch(l *eval.Level, branch, arg easyeval.Value) (easyeval.Value, error) {
	var ret easyeval.Value
	var err error
	if act, ok := eval.ActionOf(branch); ok {
		var left *easyeval.Value
		if act.LeftParam() >= 0 {
			left = &arg
		}
		ret, err = l.Invoke(act, feed.Empty(), left)
	} else {
		ret, err = l.DoBlock(branch, nil)
	}
	if err != nil {
		return easyeval.Value{}, err
	}
	if ret.IsNull() {
		ret = easyeval.Void()
	}
	return ret, nil
}

// reduce evaluates the expressions of the block. Vanishing expressions and commas are skipped
func reduce(l *eval.Level, block easyeval.Value) ([]easyeval.Value, error) {
	f := feed.FromValue(block)
	ret := make([]easyeval.Value, 0)
	for !f.IsEnd() {
		if v, _ := f.Peek(); v.Kind() == easyeval.KindComma && !v.IsQuoted() {
			f.Advance()
			continue
		}
		v, ok, err := l.DoStep(f, nil)
		if err != nil {
			return nil, err
		}
		if !ok || v.IsVoid() {
			continue
		}
		if v.IsAntiform() {
			return nil, fmt.Errorf("reduce: %s can't be put into a block", v.Describe())
		}
		ret = append(ret, v)
	}
	return ret, nil
}
