package eval

import (
	"github.com/lunfardo314/easyeval"
)

func pathLabel(path easyeval.Value) string {
	items := path.Items()
	if len(items) > 0 && items[0].Kind().IsWordLike() {
		return items[0].Symbol()
	}
	return path.String()
}

// evalPath resolves the path. If it leads to an action, the segments following it are the
// requested refinements. Paths with a blank head are refinement literals and evaluate to themselves
func (l *Level) evalPath(path easyeval.Value) (act *Action, requested []string, out easyeval.Value, err error) {
	items := path.Items()
	if len(items) == 0 {
		return nil, nil, easyeval.Value{}, ThrowError(errBadPath(path, "empty path"))
	}
	head := items[0]
	var cur easyeval.Value
	switch {
	case head.Kind() == easyeval.KindBlank && !head.IsQuoted():
		return nil, nil, path.WithKind(easyeval.KindPath), nil
	case head.Kind() == easyeval.KindWord && !head.IsQuoted():
		ptr, err := l.resolve(head.Symbol())
		if err != nil {
			return nil, nil, easyeval.Value{}, err
		}
		cur = *ptr
	case head.Kind() == easyeval.KindGroup && !head.IsQuoted():
		if cur, err = l.DoBlock(head, nil); err != nil {
			return nil, nil, easyeval.Value{}, err
		}
	default:
		return nil, nil, easyeval.Value{}, ThrowError(errBadPath(path, "path must start with a word or a group"))
	}

	for i := 1; i < len(items); i++ {
		if a, ok := ActionOf(cur); ok {
			for _, seg := range items[i:] {
				if seg.Kind() != easyeval.KindWord || seg.IsQuoted() {
					return nil, nil, easyeval.Value{}, ThrowError(errBadPath(path, "refinement must be a word, got "+seg.String()))
				}
				requested = append(requested, seg.Symbol())
			}
			if path.Kind() == easyeval.KindGetPath {
				return nil, nil, easyeval.Value{}, ThrowError(errBadPath(path, "get-path can't request refinements"))
			}
			return a, requested, easyeval.Value{}, nil
		}
		if cur, err = l.pick(path, cur, items[i]); err != nil {
			return nil, nil, easyeval.Value{}, err
		}
	}
	if a, ok := ActionOf(cur); ok {
		return a, nil, easyeval.Value{}, nil
	}
	return nil, nil, cur, nil
}

// pick selects from a block or group: by 1-based position for integers, the value
// following the word for words. Out of range picks are null
func (l *Level) pick(path, from, seg easyeval.Value) (easyeval.Value, error) {
	if from.IsQuoted() || from.IsAntiform() || (from.Kind() != easyeval.KindBlock && from.Kind() != easyeval.KindGroup) {
		return easyeval.Value{}, ThrowError(errBadPath(path, "can't pick from "+from.Describe()))
	}
	if seg.Kind() == easyeval.KindGroup && !seg.IsQuoted() {
		var err error
		if seg, err = l.DoBlock(seg, nil); err != nil {
			return easyeval.Value{}, err
		}
	}
	items := from.Items()
	switch {
	case seg.Kind() == easyeval.KindInteger && !seg.IsQuoted():
		n := seg.Int()
		if n < 1 || n > int64(len(items)) {
			return easyeval.Null(), nil
		}
		return items[n-1], nil
	case seg.Kind() == easyeval.KindWord && !seg.IsQuoted():
		for i := 0; i+1 < len(items); i++ {
			if items[i].Kind().IsWordLike() && !items[i].IsQuoted() && items[i].Symbol() == seg.Symbol() {
				return items[i+1], nil
			}
		}
		return easyeval.Null(), nil
	}
	return easyeval.Value{}, ThrowError(errBadPath(path, "can't pick by "+seg.Describe()))
}
