package easyeval

import "strings"

// TypeSet is a parameter type constraint: one bit per kind plus the bits for
// antiforms and quoted values. The zero TypeSet accepts any non-antiform value
type TypeSet uint64

const (
	TsNull = TypeSet(1) << (iota + 56)
	TsVoid
	TsQuoted

	TsAnyElement = TypeSet(1)<<NumKinds - 1
	TsAnyValue   = TsAnyElement | TsQuoted
	TsNumber     = TypeSet(1)<<KindInteger | TypeSet(1)<<KindDecimal
	TsAnyWord    = TypeSet(1)<<KindWord | TypeSet(1)<<KindSetWord | TypeSet(1)<<KindGetWord
	TsAnyArray   = TypeSet(1)<<KindPath | TypeSet(1)<<KindGetPath | TypeSet(1)<<KindGroup | TypeSet(1)<<KindBlock
)

var pseudoTypes = map[string]TypeSet{
	"any-value!":   TsAnyValue,
	"any-element!": TsAnyElement,
	"number!":      TsNumber,
	"any-word!":    TsAnyWord,
	"any-array!":   TsAnyArray,
	"quoted!":      TsQuoted,
}

func Types(kinds ...Kind) TypeSet {
	var ret TypeSet
	for _, k := range kinds {
		ret |= TypeSet(1) << k
	}
	return ret
}

// TypeSetByName resolves a type word of the parameter spec dialect
func TypeSetByName(name string) (TypeSet, bool) {
	if k, ok := KindByName(name); ok {
		return Types(k), true
	}
	ts, ok := pseudoTypes[name]
	return ts, ok
}

func (ts TypeSet) Has(k Kind) bool {
	return ts&(TypeSet(1)<<k) != 0
}

// Check tells if the value satisfies the constraint
func (ts TypeSet) Check(v Value) bool {
	switch {
	case v.IsNull():
		return ts&TsNull != 0
	case v.IsVoid():
		return ts&TsVoid != 0
	case v.anti:
		return false
	case ts&^(TsNull|TsVoid) == 0:
		return true
	case v.quotes > 0:
		return ts&TsQuoted != 0
	}
	return ts.Has(v.kind)
}

func (ts TypeSet) String() string {
	if ts&^(TsNull|TsVoid) == 0 {
		ts |= TsAnyValue
	}
	var names []string
	if ts&TsAnyElement == TsAnyElement {
		names = append(names, "any-element!")
	} else {
		for k := Kind(0); k < NumKinds; k++ {
			if ts.Has(k) {
				names = append(names, k.String())
			}
		}
	}
	if ts&TsQuoted != 0 {
		names = append(names, "quoted!")
	}
	if ts&TsNull != 0 {
		names = append(names, "<opt>")
	}
	if ts&TsVoid != 0 {
		names = append(names, "<void>")
	}
	return "[" + strings.Join(names, " ") + "]"
}
