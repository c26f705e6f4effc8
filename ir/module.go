package ir

// Annotation is one entry of the module-level annotation array that source
// attributes are lowered into before lifting moves them onto functions.
type Annotation struct {
	Function *Function
	Text     string
}

// Constructor is one entry of the module's global-constructor list: a
// function to be run at image-load time, in ascending Priority order.
type Constructor struct {
	Func     *Function
	Priority int
}

// Module is the whole-program (well, whole-translation-unit) container the
// pass operates on: named-symbol lookup, a global annotation array, and a
// constructor list, matching the narrow surface the pass actually needs from
// the host compiler's module type (see the package doc for ir).
type Module struct {
	Name string

	order     []*Function
	byName    map[string]*Function
	Types     map[string]*IRType // named opaque struct types, e.g. "tm_opaque"
	Annotations []Annotation
	Constructors []Constructor
}

func NewModule(name string) *Module {
	return &Module{
		Name:   name,
		byName: map[string]*Function{},
		Types:  map[string]*IRType{},
	}
}

// AddFunction registers f under its current name. Panics on a duplicate
// name, since the IR assumes one definition per symbol per module.
func (m *Module) AddFunction(f *Function) {
	if _, exists := m.byName[f.Name]; exists {
		panic("ir: duplicate function " + f.Name)
	}
	f.module = m
	m.byName[f.Name] = f
	m.order = append(m.order, f)
}

// Rename changes f's name from oldName to newName and moves its entry in the
// module's symbol table to match. Used by discovery's rename-substitute
// handling, which renames a function in place.
func (m *Module) Rename(f *Function, oldName, newName string) {
	delete(m.byName, oldName)
	f.Name = newName
	m.byName[newName] = f
}

func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Functions returns every function in the module, in the stable order they
// were added (the pass never depends on this order for correctness, only
// tests rely on it for determinism).
func (m *Module) Functions() []*Function {
	return m.order
}

func (m *Module) AddAnnotation(f *Function, text string) {
	m.Annotations = append(m.Annotations, Annotation{Function: f, Text: text})
}

// AppendConstructor adds fn to the module's global-constructor list at the
// given priority. Lower priorities run first.
func (m *Module) AppendConstructor(fn *Function, priority int) {
	m.Constructors = append(m.Constructors, Constructor{Func: fn, Priority: priority})
}

// NamedType registers (or looks up) an opaque struct type by name, mirroring
// Module::getTypeByName in the host framework.
func (m *Module) NamedType(name string) (*IRType, bool) {
	t, ok := m.Types[name]
	return t, ok
}

func (m *Module) DeclareType(name string) *IRType {
	t := OpaqueStruct(name)
	m.Types[name] = t
	return t
}
