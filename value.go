package easyeval

import (
	"bytes"
	"fmt"
)

// Invocable is the payload of an action value. It is implemented by the evaluator's Action,
// the value model only needs its label for molding
type Invocable interface {
	Label() string
}

// Value is a tagged datum. It can be wrapped into any number of quote levels.
// Antiforms are the unstable states of a value: they never appear in source arrays
// and cannot be stored in blocks.
type Value struct {
	kind   Kind
	quotes int
	anti   bool

	num  int64
	dec  float64
	str  string
	bin  []byte
	arr  *Array
	idx  int
	act  Invocable
	err  error
	ext  interface{}
	flag bool
}

const (
	symNull    = "null"
	symMissing = "end"
)

func Blank() Value {
	return Value{kind: KindBlank}
}

func Integer(n int64) Value {
	return Value{kind: KindInteger, num: n}
}

func Decimal(f float64) Value {
	return Value{kind: KindDecimal, dec: f}
}

func Logic(b bool) Value {
	return Value{kind: KindLogic, flag: b}
}

func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

func Binary(data []byte) Value {
	return Value{kind: KindBinary, bin: data}
}

func Tag(s string) Value {
	return Value{kind: KindTag, str: s}
}

func Word(sym string) Value {
	return Value{kind: KindWord, str: sym}
}

func SetWord(sym string) Value {
	return Value{kind: KindSetWord, str: sym}
}

func GetWord(sym string) Value {
	return Value{kind: KindGetWord, str: sym}
}

func Comma() Value {
	return Value{kind: KindComma}
}

func Block(items ...Value) Value {
	return Value{kind: KindBlock, arr: NewArray(items...)}
}

func Group(items ...Value) Value {
	return Value{kind: KindGroup, arr: NewArray(items...)}
}

func Path(items ...Value) Value {
	return Value{kind: KindPath, arr: NewArray(items...)}
}

func GetPath(items ...Value) Value {
	return Value{kind: KindGetPath, arr: NewArray(items...)}
}

// Refinement is the '/word' form used in parameter specs, a path with a blank head
func Refinement(sym string) Value {
	return Path(Blank(), Word(sym))
}

// AtIndex makes an array-like value of the kind k positioned at idx of arr
func AtIndex(k Kind, arr *Array, idx int) Value {
	if !k.IsArrayLike() {
		panic(fmt.Errorf("AtIndex: %s is not array-like", k))
	}
	return Value{kind: k, arr: arr, idx: idx}
}

func ActionValue(a Invocable) Value {
	return Value{kind: KindAction, act: a}
}

func ErrorValue(err error) Value {
	return Value{kind: KindError, err: err}
}

// VarargsValue wraps a variadic handle. The handle type is owned by the evaluator
func VarargsValue(h interface{}) Value {
	return Value{kind: KindVarargs, ext: h}
}

// Null is the antiform of the word 'null'. It is the value of unused refinements and locals
func Null() Value {
	return Value{kind: KindWord, str: symNull, anti: true}
}

// Missing is what an end-tolerant parameter receives when there is no input
func Missing() Value {
	return Value{kind: KindWord, str: symMissing, anti: true}
}

// Void is the empty pack. It is what vanishing evaluations produce
func Void() Value {
	return Value{kind: KindBlock, arr: NewArray(), anti: true}
}

// Pack is a multi-return antiform
func Pack(items ...Value) Value {
	return Value{kind: KindBlock, arr: NewArray(items...), anti: true}
}

// Raised is an error in flight
func Raised(err error) Value {
	return Value{kind: KindError, err: err, anti: true}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Quotes() int {
	return v.quotes
}

func (v Value) IsQuoted() bool {
	return v.quotes > 0
}

// Quote adds n quote levels
func (v Value) Quote(n int) Value {
	if v.anti {
		panic("Quote: antiforms can't be quoted")
	}
	v.quotes += n
	return v
}

// Unquote removes one quote level
func (v Value) Unquote() Value {
	if v.quotes == 0 {
		panic("Unquote: value is not quoted")
	}
	v.quotes--
	return v
}

// Plain returns the value with all quote levels removed
func (v Value) Plain() Value {
	v.quotes = 0
	return v
}

func (v Value) IsAntiform() bool {
	return v.anti
}

func (v Value) IsNull() bool {
	return v.anti && v.kind == KindWord && v.str == symNull
}

func (v Value) IsMissing() bool {
	return v.anti && v.kind == KindWord && v.str == symMissing
}

func (v Value) IsVoid() bool {
	return v.anti && v.kind == KindBlock && v.arr.Len() == v.idx
}

// IsNullish is true for the values which revoke a refinement
func (v Value) IsNullish() bool {
	return v.IsNull() || v.IsVoid()
}

// IsInert is true for values which evaluate to themselves
func (v Value) IsInert() bool {
	if v.quotes > 0 || v.anti {
		return false
	}
	switch v.kind {
	case KindWord, KindSetWord, KindGetWord, KindPath, KindGetPath, KindGroup, KindComma, KindAction:
		return false
	}
	return true
}

// IsTruthy follows the conditional logic: null, void, blank and false are falsey
func (v Value) IsTruthy() bool {
	if v.IsNullish() || v.IsMissing() {
		return false
	}
	if v.quotes > 0 {
		return true
	}
	switch v.kind {
	case KindBlank:
		return false
	case KindLogic:
		return v.flag
	}
	return true
}

func (v Value) Int() int64 {
	v.mustKind(KindInteger)
	return v.num
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindDecimal:
		return v.dec
	case KindInteger:
		return float64(v.num)
	}
	panic(fmt.Errorf("Float: number expected, got %s", v.kind))
}

func (v Value) Bool() bool {
	v.mustKind(KindLogic)
	return v.flag
}

// String payload of text and tag values
func (v Value) Str() string {
	if v.kind != KindText && v.kind != KindTag {
		panic(fmt.Errorf("Str: text or tag expected, got %s", v.kind))
	}
	return v.str
}

func (v Value) Bytes() []byte {
	v.mustKind(KindBinary)
	return v.bin
}

// Symbol of word-like values
func (v Value) Symbol() string {
	if !v.kind.IsWordLike() {
		panic(fmt.Errorf("Symbol: word expected, got %s", v.kind))
	}
	return v.str
}

// Array returns the underlying array and the position of an array-like value
func (v Value) Array() (*Array, int) {
	if !v.kind.IsArrayLike() {
		panic(fmt.Errorf("Array: array-like value expected, got %s", v.kind))
	}
	return v.arr, v.idx
}

// Items returns the elements from the value's position to the tail
func (v Value) Items() []Value {
	arr, idx := v.Array()
	return arr.Slice(idx)
}

func (v Value) Action() Invocable {
	v.mustKind(KindAction)
	return v.act
}

func (v Value) Err() error {
	v.mustKind(KindError)
	return v.err
}

func (v Value) Ext() interface{} {
	v.mustKind(KindVarargs)
	return v.ext
}

// WithKind converts between kinds sharing the payload, e.g. word to set-word or group to block
func (v Value) WithKind(k Kind) Value {
	if v.kind.IsWordLike() != k.IsWordLike() || v.kind.IsArrayLike() != k.IsArrayLike() {
		panic(fmt.Errorf("WithKind: can't convert %s to %s", v.kind, k))
	}
	v.kind = k
	return v
}

func (v Value) mustKind(k Kind) {
	if v.kind != k || v.anti {
		panic(fmt.Errorf("%s expected, got %s", k, v.describe()))
	}
}

func (v Value) describe() string {
	if v.anti {
		return "antiform " + v.kind.String()
	}
	if v.quotes > 0 {
		return "quoted " + v.kind.String()
	}
	return v.kind.String()
}

// Describe is the kind description used in error messages
func (v Value) Describe() string {
	if v.IsNull() {
		return "null"
	}
	if v.IsVoid() {
		return "void"
	}
	if v.IsMissing() {
		return "end"
	}
	return v.describe()
}

// Equal compares values structurally. Actions and varargs compare by identity
func Equal(v1, v2 Value) bool {
	if v1.kind != v2.kind || v1.quotes != v2.quotes || v1.anti != v2.anti {
		return false
	}
	switch v1.kind {
	case KindBlank, KindComma:
		return true
	case KindInteger:
		return v1.num == v2.num
	case KindDecimal:
		return v1.dec == v2.dec
	case KindLogic:
		return v1.flag == v2.flag
	case KindText, KindTag, KindWord, KindSetWord, KindGetWord:
		return v1.str == v2.str
	case KindBinary:
		return bytes.Equal(v1.bin, v2.bin)
	case KindAction:
		return v1.act == v2.act
	case KindError:
		return v1.err == v2.err
	case KindVarargs:
		return v1.ext == v2.ext
	}
	i1, i2 := v1.Items(), v2.Items()
	if len(i1) != len(i2) {
		return false
	}
	for i := range i1 {
		if !Equal(i1[i], i2[i]) {
			return false
		}
	}
	return true
}
