package vm

// GlobalsTable is an optional name-indexed vector of Variants, gated
// by Config.GlobalsTable — a script that never declares globals pays
// nothing for the feature. Unlike the locals stack, slots are never
// implicitly created by Set: a global must be declared with AddGlobal
// first.
type GlobalsTable struct {
	data    []Variant
	indexOf map[string]int
}

func NewGlobalsTable() *GlobalsTable {
	return &GlobalsTable{indexOf: make(map[string]int)}
}

// AddGlobal declares a new global slot initialized to init and returns
// its slot index. Redeclaring an existing name is a programming error.
func (g *GlobalsTable) AddGlobal(name string, init Variant) int {
	if _, exists := g.indexOf[name]; exists {
		panic("vm: duplicate global declaration: " + name)
	}
	idx := len(g.data)
	g.data = append(g.data, init)
	g.indexOf[name] = idx
	return idx
}

// GetGlobal returns the named global and true, or (Null, false) if it
// was never declared.
func (g *GlobalsTable) GetGlobal(name string) (Variant, bool) {
	idx, ok := g.indexOf[name]
	if !ok {
		return Null, false
	}
	return g.data[idx], true
}

// SetGlobal overwrites an existing global and reports whether it
// existed. It never creates a new slot.
func (g *GlobalsTable) SetGlobal(name string, v Variant) bool {
	idx, ok := g.indexOf[name]
	if !ok {
		return false
	}
	g.data[idx] = v
	return true
}

// GetSlot/SetSlot address a global by its resolved slot index, the
// path STORE_GLOBAL/LOAD_GLOBAL opcodes take once a compiler has
// resolved names to indices ahead of time.
func (g *GlobalsTable) GetSlot(idx int) Variant    { return g.data[idx] }
func (g *GlobalsTable) SetSlot(idx int, v Variant) { g.data[idx] = v }
func (g *GlobalsTable) Len() int                   { return len(g.data) }

// Roots yields every declared global so the GC can trace it.
func (g *GlobalsTable) Roots(yield func(*Variant)) {
	for i := range g.data {
		yield(&g.data[i])
	}
}
