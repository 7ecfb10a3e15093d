package load

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/lunfardo314/easyeval"
)

// Load reads the source into a block of values. It knows the lexical forms the evaluator
// deals with: blocks, groups, commas, text, integers, decimals, #{hex} binaries, tags,
// quoted values, words, set-words, get-words, paths and the blank '_'.
// ';' comments out the rest of the line
func Load(src string) (easyeval.Value, error) {
	r := &reader{src: src}
	items, err := r.readItems(0)
	if err != nil {
		return easyeval.Value{}, err
	}
	return easyeval.Block(items...), nil
}

func MustLoad(src string) easyeval.Value {
	ret, err := Load(src)
	if err != nil {
		panic(err)
	}
	return ret
}

type reader struct {
	src string
	pos int
}

func (r *reader) errorf(format string, args ...interface{}) error {
	line := strings.Count(r.src[:r.pos], "\n") + 1
	return fmt.Errorf("load @ line %d: %s", line, fmt.Sprintf(format, args...))
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '[', ']', '(', ')', ',', '"', ';':
		return true
	}
	return false
}

func (r *reader) skipSpaces() {
	for r.pos < len(r.src) {
		switch r.src[r.pos] {
		case ' ', '\t', '\n', '\r':
			r.pos++
		case ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

// readItems reads values up to the closing bracket, or to the end of source if closing is 0
func (r *reader) readItems(closing byte) ([]easyeval.Value, error) {
	ret := make([]easyeval.Value, 0)
	for {
		r.skipSpaces()
		if r.pos >= len(r.src) {
			if closing != 0 {
				return nil, r.errorf("missing '%c'", closing)
			}
			return ret, nil
		}
		switch c := r.src[r.pos]; c {
		case ']', ')':
			if c != closing {
				return nil, r.errorf("unexpected '%c'", c)
			}
			r.pos++
			return ret, nil
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
}

func (r *reader) readValue() (easyeval.Value, error) {
	quotes := 0
	for r.pos < len(r.src) && r.src[r.pos] == '\'' {
		quotes++
		r.pos++
	}
	if r.pos >= len(r.src) {
		return easyeval.Value{}, r.errorf("nothing to quote")
	}
	var ret easyeval.Value
	switch c := r.src[r.pos]; c {
	case '[', '(':
		r.pos++
		closing := byte(']')
		if c == '(' {
			closing = ')'
		}
		items, err := r.readItems(closing)
		if err != nil {
			return easyeval.Value{}, err
		}
		if c == '[' {
			ret = easyeval.Block(items...)
		} else {
			ret = easyeval.Group(items...)
		}
	case ',':
		r.pos++
		ret = easyeval.Comma()
	case '"':
		s, err := r.readText()
		if err != nil {
			return easyeval.Value{}, err
		}
		ret = easyeval.Text(s)
	case ' ', '\t', '\n', '\r', ';', ']', ')':
		return easyeval.Value{}, r.errorf("nothing to quote")
	default:
		start := r.pos
		for r.pos < len(r.src) && !isDelimiter(r.src[r.pos]) {
			r.pos++
		}
		var err error
		if ret, err = parseToken(r.src[start:r.pos]); err != nil {
			return easyeval.Value{}, r.errorf("%v", err)
		}
	}
	if quotes > 0 {
		ret = ret.Quote(quotes)
	}
	return ret, nil
}

func (r *reader) readText() (string, error) {
	start := r.pos
	r.pos++
	for r.pos < len(r.src) {
		switch r.src[r.pos] {
		case '\\':
			r.pos += 2
			continue
		case '"':
			r.pos++
			ret, err := strconv.Unquote(r.src[start:r.pos])
			if err != nil {
				return "", r.errorf("wrong text %s: %v", r.src[start:r.pos], err)
			}
			return ret, nil
		case '\n':
			return "", r.errorf("unterminated text")
		}
		r.pos++
	}
	return "", r.errorf("unterminated text")
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func looksNumeric(tok string) bool {
	if tok[0] == '-' || tok[0] == '+' {
		tok = tok[1:]
	}
	return len(tok) > 0 && isDigit(tok[0])
}

func parseToken(tok string) (easyeval.Value, error) {
	switch {
	case tok == "_":
		return easyeval.Blank(), nil
	case looksNumeric(tok):
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return easyeval.Integer(n), nil
		}
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return easyeval.Decimal(f), nil
		}
		return easyeval.Value{}, fmt.Errorf("wrong number '%s'", tok)
	case strings.HasPrefix(tok, "#{"):
		if !strings.HasSuffix(tok, "}") {
			return easyeval.Value{}, fmt.Errorf("wrong binary '%s'", tok)
		}
		data, err := hex.DecodeString(tok[2 : len(tok)-1])
		if err != nil {
			return easyeval.Value{}, fmt.Errorf("wrong binary '%s': %v", tok, err)
		}
		return easyeval.Binary(data), nil
	case len(tok) > 2 && tok[0] == '<' && tok[len(tok)-1] == '>':
		return easyeval.Tag(tok[1 : len(tok)-1]), nil
	case len(tok) > 1 && tok[0] == ':':
		if strings.Contains(tok[1:], "/") {
			items, err := parsePath(tok[1:])
			if err != nil {
				return easyeval.Value{}, err
			}
			return easyeval.GetPath(items...), nil
		}
		return easyeval.GetWord(tok[1:]), nil
	case len(tok) > 1 && tok[len(tok)-1] == ':':
		if strings.Contains(tok, "/") {
			return easyeval.Value{}, fmt.Errorf("set-paths are not supported: '%s'", tok)
		}
		return easyeval.SetWord(tok[:len(tok)-1]), nil
	case strings.Contains(tok, "/") && strings.Trim(tok, "/") != "":
		items, err := parsePath(tok)
		if err != nil {
			return easyeval.Value{}, err
		}
		return easyeval.Path(items...), nil
	}
	return easyeval.Word(tok), nil
}

// parsePath splits the path into segments. An empty head makes the refinement form '/word'
func parsePath(tok string) ([]easyeval.Value, error) {
	segs := strings.Split(tok, "/")
	ret := make([]easyeval.Value, 0, len(segs))
	for i, seg := range segs {
		switch {
		case seg == "" && i == 0:
			ret = append(ret, easyeval.Blank())
		case seg == "":
			return nil, fmt.Errorf("empty path segment in '%s'", tok)
		case looksNumeric(seg):
			n, err := strconv.ParseInt(seg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("wrong path segment '%s' in '%s'", seg, tok)
			}
			ret = append(ret, easyeval.Integer(n))
		default:
			ret = append(ret, easyeval.Word(seg))
		}
	}
	return ret, nil
}
