package easyeval

import "fmt"

// Array is the storage of blocks, groups and paths. Values referencing the same array
// at different positions share it
type Array struct {
	items []Value
}

func NewArray(items ...Value) *Array {
	for i := range items {
		if items[i].anti {
			panic(fmt.Errorf("NewArray: antiform %s can't be an array element", items[i].Describe()))
		}
	}
	return &Array{items: items}
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

func (a *Array) At(idx int) Value {
	return a.items[idx]
}

// Slice returns elements from idx to the tail. The slice is shared with the array
func (a *Array) Slice(idx int) []Value {
	if a == nil || idx >= len(a.items) {
		return nil
	}
	return a.items[idx:]
}

func (a *Array) Append(v Value) {
	if v.anti {
		panic(fmt.Errorf("Append: antiform %s can't be an array element", v.Describe()))
	}
	a.items = append(a.items, v)
}

func (a *Array) ForEach(fun func(i int, v Value) bool) {
	for i := 0; i < a.Len(); i++ {
		if !fun(i, a.items[i]) {
			break
		}
	}
}
