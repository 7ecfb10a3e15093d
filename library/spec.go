package library

import (
	"fmt"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/eval"
)

// ParseSpec reads the parameter dialect:
//
//	word        normal parameter
//	'word       hard quoted
//	:word       soft quoted
//	/word       refinement. The parameters following it are its arguments
//	return:     definitional return
//	<local>     the words following it are locals
//
// A block following a parameter constrains it: type words and the tags
// <opt> <void> <end> <skip> <tight> <...>. Text strings are ignored
func ParseSpec(spec easyeval.Value) ([]eval.Param, error) {
	if spec.Kind() != easyeval.KindBlock || spec.IsQuoted() || spec.IsAntiform() {
		return nil, fmt.Errorf("spec must be a block, got %s", spec.Describe())
	}
	ret := make([]eval.Param, 0)
	locals := false
	for _, v := range spec.Items() {
		if v.IsQuoted() && (v.Quotes() > 1 || v.Kind() != easyeval.KindWord) {
			return nil, fmt.Errorf("wrong spec item %s", v.String())
		}
		switch v.Kind() {
		case easyeval.KindText:
			continue
		case easyeval.KindTag:
			if v.Str() != "local" {
				return nil, fmt.Errorf("unexpected tag %s", v.String())
			}
			locals = true
			continue
		case easyeval.KindBlock:
			if len(ret) == 0 {
				return nil, fmt.Errorf("type block %s doesn't follow a parameter", v.String())
			}
			if err := parseTypes(&ret[len(ret)-1], v); err != nil {
				return nil, err
			}
			continue
		}
		p := eval.Param{Class: eval.ParamNormal}
		switch {
		case locals:
			if v.Kind() != easyeval.KindWord || v.IsQuoted() {
				return nil, fmt.Errorf("local must be a word, got %s", v.String())
			}
			p.Class = eval.ParamLocal
			p.Name = v.Symbol()
		case v.Kind() == easyeval.KindWord && v.IsQuoted():
			p.Class = eval.ParamHardQuote
			p.Name = v.Symbol()
		case v.Kind() == easyeval.KindWord:
			p.Name = v.Symbol()
		case v.Kind() == easyeval.KindGetWord:
			p.Class = eval.ParamSoftQuote
			p.Name = v.Symbol()
		case v.Kind() == easyeval.KindSetWord:
			if v.Symbol() != "return" {
				return nil, fmt.Errorf("only 'return:' is allowed, got %s", v.String())
			}
			p.Class = eval.ParamReturn
			p.Name = "return"
		case v.Kind() == easyeval.KindPath:
			items := v.Items()
			if len(items) != 2 || items[0].Kind() != easyeval.KindBlank || items[1].Kind() != easyeval.KindWord || items[1].IsQuoted() {
				return nil, fmt.Errorf("wrong refinement %s", v.String())
			}
			p.Class = eval.ParamRefinement
			p.Name = items[1].Symbol()
		default:
			return nil, fmt.Errorf("wrong spec item %s", v.String())
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func parseTypes(p *eval.Param, types easyeval.Value) error {
	switch p.Class {
	case eval.ParamRefinement, eval.ParamLocal, eval.ParamReturn:
		return fmt.Errorf("%s '%s' can't be constrained", p.Class, p.Name)
	}
	variadic := false
	for _, t := range types.Items() {
		switch {
		case t.Kind() == easyeval.KindWord && !t.IsQuoted():
			ts, ok := easyeval.TypeSetByName(t.Symbol())
			if !ok {
				return fmt.Errorf("param '%s': unknown type %s", p.Name, t.Symbol())
			}
			p.Types |= ts
		case t.Kind() == easyeval.KindTag && !t.IsQuoted():
			switch t.Str() {
			case "opt":
				p.Types |= easyeval.TsNull
			case "void":
				p.Types |= easyeval.TsVoid
			case "end":
				p.Endable = true
			case "skip":
				p.Skippable = true
			case "tight":
				if p.Class != eval.ParamNormal {
					return fmt.Errorf("param '%s': only normal params can be tight", p.Name)
				}
				p.Class = eval.ParamTight
			case "...":
				variadic = true
			default:
				return fmt.Errorf("param '%s': unknown tag %s", p.Name, t.String())
			}
		case t.Kind() == easyeval.KindText:
		default:
			return fmt.Errorf("param '%s': wrong type spec %s", p.Name, t.String())
		}
	}
	if variadic {
		p.Pull = p.Class
		p.Class = eval.ParamVariadic
	}
	return nil
}
