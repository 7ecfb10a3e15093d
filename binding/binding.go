package binding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lunfardo314/easyeval"
)

var ErrUnbound = errors.New("word is not bound")

// Binding resolves a name to the location of its variable
type Binding interface {
	Resolve(sym string) (*easyeval.Value, error)
}

// Definer is implemented by bindings which can create a variable on assignment
type Definer interface {
	Define(sym string) *easyeval.Value
}

// Context is a chained table of variables. It plays the role of the library and
// user contexts; the evaluator only sees it through Binding
type Context struct {
	parent Binding
	vars   map[string]*easyeval.Value
}

func NewContext(parent Binding) *Context {
	return &Context{
		parent: parent,
		vars:   make(map[string]*easyeval.Value),
	}
}

func (c *Context) Resolve(sym string) (*easyeval.Value, error) {
	if ret, ok := c.vars[sym]; ok {
		return ret, nil
	}
	if c.parent != nil {
		return c.parent.Resolve(sym)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnbound, sym)
}

// Define creates the variable in this context, initialized to null, unless it exists
func (c *Context) Define(sym string) *easyeval.Value {
	if ret, ok := c.vars[sym]; ok {
		return ret
	}
	ret := new(easyeval.Value)
	*ret = easyeval.Null()
	c.vars[sym] = ret
	return ret
}

// Set assigns the variable in this context, creating it if needed
func (c *Context) Set(sym string, v easyeval.Value) {
	*c.Define(sym) = v
}

func (c *Context) Get(sym string) (easyeval.Value, bool) {
	ret, ok := c.vars[sym]
	if !ok {
		return easyeval.Value{}, false
	}
	return *ret, true
}

// Words lists the symbols defined in this context, sorted
func (c *Context) Words() []string {
	ret := make([]string, 0, len(c.vars))
	for sym := range c.vars {
		ret = append(ret, sym)
	}
	sort.Strings(ret)
	return ret
}

// Assign resolves the variable for assignment. Unbound words are defined in the
// innermost binding which can define them
func Assign(b Binding, sym string) (*easyeval.Value, error) {
	ret, err := b.Resolve(sym)
	if err == nil {
		return ret, nil
	}
	if !errors.Is(err, ErrUnbound) {
		return nil, err
	}
	if d, ok := b.(Definer); ok {
		return d.Define(sym), nil
	}
	return nil, err
}
