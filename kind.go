package easyeval

type Kind uint8

const (
	KindBlank = Kind(iota)
	KindInteger
	KindDecimal
	KindLogic
	KindText
	KindBinary
	KindTag
	KindWord
	KindSetWord
	KindGetWord
	KindPath
	KindGetPath
	KindGroup
	KindBlock
	KindComma
	KindAction
	KindError
	KindVarargs
	NumKinds
)

var kindNames = [...]string{
	KindBlank:   "blank",
	KindInteger: "integer",
	KindDecimal: "decimal",
	KindLogic:   "logic",
	KindText:    "text",
	KindBinary:  "binary",
	KindTag:     "tag",
	KindWord:    "word",
	KindSetWord: "set-word",
	KindGetWord: "get-word",
	KindPath:    "path",
	KindGetPath: "get-path",
	KindGroup:   "group",
	KindBlock:   "block",
	KindComma:   "comma",
	KindAction:  "action",
	KindError:   "error",
	KindVarargs: "varargs",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k] + "!"
	}
	return "???"
}

// KindByName finds kind by its type word, e.g. 'integer!'
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n+"!" == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsWordLike is true for the kinds carrying a symbol
func (k Kind) IsWordLike() bool {
	return k == KindWord || k == KindSetWord || k == KindGetWord
}

// IsArrayLike is true for the kinds carrying an array
func (k Kind) IsArrayLike() bool {
	switch k {
	case KindPath, KindGetPath, KindGroup, KindBlock:
		return true
	}
	return false
}
