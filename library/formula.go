package library

import (
	"encoding/binary"
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/eval"
	"github.com/lunfardo314/easyfl"
)

// formulaArg converts the value to the byte form taken by formulas. Integers which fit
// into a byte are 1 byte long, other integers are 8 bytes big-endian
func formulaArg(v easyeval.Value) ([]byte, error) {
	if v.IsQuoted() || v.IsAntiform() {
		return nil, fmt.Errorf("formula can't take %s", v.Describe())
	}
	switch v.Kind() {
	case easyeval.KindBinary:
		return v.Bytes(), nil
	case easyeval.KindText:
		return []byte(v.Str()), nil
	case easyeval.KindLogic:
		if v.Bool() {
			return []byte{0xff}, nil
		}
		return []byte{}, nil
	case easyeval.KindInteger:
		n := v.Int()
		if 0 <= n && n < 256 {
			return []byte{byte(n)}, nil
		}
		var ret [8]byte
		binary.BigEndian.PutUint64(ret[:], uint64(n))
		return ret[:], nil
	}
	return nil, fmt.Errorf("formula can't take %s", v.Describe())
}

func runFormula(source string, args []easyeval.Value) (easyeval.Value, error) {
	data := make([][]byte, len(args))
	var err error
	for i := range args {
		if data[i], err = formulaArg(args[i]); err != nil {
			return easyeval.Value{}, err
		}
	}
	ret, err := easyfl.EvalFromSource(easyfl.NewGlobalDataNoTrace(nil), source, data...)
	if err != nil {
		return easyeval.Value{}, fmt.Errorf("formula '%s': %v", source, err)
	}
	return easyeval.Binary(ret), nil
}

// evalFormula evaluates the formula with the reduced block as its arguments $0, $1...
func evalFormula(l *eval.Level) (eval.Result, error) {
	args, err := reduce(l, l.Arg("args"))
	if err != nil {
		return eval.ResultThrown, err
	}
	ret, err := runFormula(l.Arg("source").Str(), args)
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

// FormulaAction makes the action whose behavior is the formula over its params
func FormulaAction(sym, source string, params ...string) (*eval.Action, error) {
	ps := make([]eval.Param, len(params))
	for i, name := range params {
		ps[i] = eval.Param{
			Name:  name,
			Class: eval.ParamNormal,
			Types: easyeval.Types(easyeval.KindBinary, easyeval.KindText, easyeval.KindInteger, easyeval.KindLogic),
		}
	}
	return eval.NewAction(sym, ps, func(l *eval.Level) (eval.Result, error) {
		args := make([]easyeval.Value, len(params))
		for i := range params {
			args[i] = l.ArgAt(i)
		}
		ret, err := runFormula(source, args)
		if err != nil {
			return eval.ResultThrown, err
		}
		return l.Return(ret)
	})
}

// FormulaNative registers the formula as a native
func FormulaNative(sym, source string, params ...string) *eval.Action {
	mustUniqueName(sym)
	act, err := FormulaAction(sym, source, params...)
	if err != nil {
		panic(err)
	}
	dscr := &nativeDescriptor{
		sym:    sym,
		spec:   source,
		action: act,
	}
	theLibrary.natives = append(theLibrary.natives, dscr)
	theLibrary.byName[sym] = dscr
	return act
}
