package easyeval

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// String molds the value into its source-like representation
func (v Value) String() string {
	var sb strings.Builder
	v.mold(&sb)
	return sb.String()
}

// Mold molds values separated by spaces
func Mold(vals ...Value) string {
	var sb strings.Builder
	moldItems(&sb, vals)
	return sb.String()
}

func (v Value) mold(sb *strings.Builder) {
	if v.anti {
		switch {
		case v.IsVoid():
			sb.WriteString("~[]~")
			return
		case v.kind == KindWord:
			sb.WriteString("~" + v.str + "~")
			return
		}
		sb.WriteString("~")
		v.anti = false
		v.mold(sb)
		sb.WriteString("~")
		return
	}
	sb.WriteString(strings.Repeat("'", v.quotes))
	switch v.kind {
	case KindBlank:
		sb.WriteString("_")
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case KindDecimal:
		sb.WriteString(strconv.FormatFloat(v.dec, 'g', -1, 64))
	case KindLogic:
		sb.WriteString(strconv.FormatBool(v.flag))
	case KindText:
		sb.WriteString(strconv.Quote(v.str))
	case KindBinary:
		sb.WriteString("#{" + strings.ToUpper(hex.EncodeToString(v.bin)) + "}")
	case KindTag:
		sb.WriteString("<" + v.str + ">")
	case KindWord:
		sb.WriteString(v.str)
	case KindSetWord:
		sb.WriteString(v.str + ":")
	case KindGetWord:
		sb.WriteString(":" + v.str)
	case KindPath, KindGetPath:
		if v.kind == KindGetPath {
			sb.WriteString(":")
		}
		for i, e := range v.Items() {
			if i > 0 {
				sb.WriteString("/")
			}
			if i == 0 && e.kind == KindBlank && e.quotes == 0 {
				continue
			}
			e.mold(sb)
		}
	case KindGroup:
		sb.WriteString("(")
		moldItems(sb, v.Items())
		sb.WriteString(")")
	case KindBlock:
		sb.WriteString("[")
		moldItems(sb, v.Items())
		sb.WriteString("]")
	case KindComma:
		sb.WriteString(",")
	case KindAction:
		sb.WriteString("#[action " + v.act.Label() + "]")
	case KindError:
		sb.WriteString("#[error " + strconv.Quote(v.err.Error()) + "]")
	case KindVarargs:
		sb.WriteString("#[varargs]")
	}
}

func moldItems(sb *strings.Builder, vals []Value) {
	for i, e := range vals {
		if i > 0 {
			sb.WriteString(" ")
		}
		e.mold(sb)
	}
}
