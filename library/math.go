package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/eval"
)

type arithOp byte

const (
	opAdd = arithOp(iota)
	opSubtract
	opMultiply
	opDivide
)

// arith keeps integers integer as long as the result is exact, otherwise it goes decimal
func arith(op arithOp, v1, v2 easyeval.Value) (easyeval.Value, error) {
	if v1.Kind() == easyeval.KindInteger && v2.Kind() == easyeval.KindInteger {
		a, b := v1.Int(), v2.Int()
		switch op {
		case opAdd:
			return easyeval.Integer(a + b), nil
		case opSubtract:
			return easyeval.Integer(a - b), nil
		case opMultiply:
			return easyeval.Integer(a * b), nil
		case opDivide:
			if b == 0 {
				return easyeval.Value{}, fmt.Errorf("division by zero")
			}
			if a%b == 0 {
				return easyeval.Integer(a / b), nil
			}
		}
	}
	a, b := v1.Float(), v2.Float()
	switch op {
	case opAdd:
		return easyeval.Decimal(a + b), nil
	case opSubtract:
		return easyeval.Decimal(a - b), nil
	case opMultiply:
		return easyeval.Decimal(a * b), nil
	}
	if b == 0 {
		return easyeval.Value{}, fmt.Errorf("division by zero")
	}
	return easyeval.Decimal(a / b), nil
}

func arithNative(l *eval.Level, op arithOp) (eval.Result, error) {
	ret, err := arith(op, l.Arg("value1"), l.Arg("value2"))
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(ret)
}

func evalAdd(l *eval.Level) (eval.Result, error) {
	return arithNative(l, opAdd)
}

func evalSubtract(l *eval.Level) (eval.Result, error) {
	return arithNative(l, opSubtract)
}

func evalMultiply(l *eval.Level) (eval.Result, error) {
	return arithNative(l, opMultiply)
}

func evalDivide(l *eval.Level) (eval.Result, error) {
	return arithNative(l, opDivide)
}

func isNumber(v easyeval.Value) bool {
	return easyeval.TsNumber.Check(v)
}

func equalValues(v1, v2 easyeval.Value) bool {
	if isNumber(v1) && isNumber(v2) {
		return v1.Float() == v2.Float()
	}
	return easyeval.Equal(v1, v2)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compare returns -1, 0 or 1. Numbers compare with numbers, text with text
func compare(v1, v2 easyeval.Value) (int, error) {
	switch {
	case isNumber(v1) && isNumber(v2):
		if v1.Kind() == easyeval.KindInteger && v2.Kind() == easyeval.KindInteger {
			return cmpInt(v1.Int(), v2.Int()), nil
		}
		return cmpFloat(v1.Float(), v2.Float()), nil
	case v1.Kind() == easyeval.KindText && v2.Kind() == easyeval.KindText && !v1.IsQuoted() && !v2.IsQuoted():
		switch {
		case v1.Str() < v2.Str():
			return -1, nil
		case v1.Str() > v2.Str():
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("can't compare %s with %s", v1.Describe(), v2.Describe())
}

func compareNative(l *eval.Level, fun func(c int) bool) (eval.Result, error) {
	c, err := compare(l.Arg("value1"), l.Arg("value2"))
	if err != nil {
		return eval.ResultThrown, err
	}
	return l.Return(easyeval.Logic(fun(c)))
}

func evalEqual(l *eval.Level) (eval.Result, error) {
	return l.Return(easyeval.Logic(equalValues(l.Arg("value1"), l.Arg("value2"))))
}

func evalNotEqual(l *eval.Level) (eval.Result, error) {
	return l.Return(easyeval.Logic(!equalValues(l.Arg("value1"), l.Arg("value2"))))
}

func evalLesser(l *eval.Level) (eval.Result, error) {
	return compareNative(l, func(c int) bool { return c < 0 })
}

func evalGreater(l *eval.Level) (eval.Result, error) {
	return compareNative(l, func(c int) bool { return c > 0 })
}

func evalLesserOrEqual(l *eval.Level) (eval.Result, error) {
	return compareNative(l, func(c int) bool { return c <= 0 })
}

func evalGreaterOrEqual(l *eval.Level) (eval.Result, error) {
	return compareNative(l, func(c int) bool { return c >= 0 })
}

func evalNot(l *eval.Level) (eval.Result, error) {
	return l.Return(easyeval.Logic(!l.Arg("value").IsTruthy()))
}
