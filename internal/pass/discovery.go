package pass

import (
	"github.com/mfs409/llvm-transmem/ir"
	"golang.org/x/exp/slices"
)

// genericLambdaWrapper is the single library-provided symbol that also
// happens to match the lambda shape (exactly one tm_opaque* argument out of
// two total), but must never itself be treated as a discovery root: it is
// the type-erased std::function call operator, not a programmer-written
// lambda body.
const genericLambdaWrapper = "_ZNKSt8functionIFvP9tm_opaqueEEclES1_"

// discoverAnnotated seeds the pure set with the fixed runtime entry points
// that must never be cloned, applies any configured overrides, then walks
// every function definition looking for tm_function roots and tm_pure/
// tm_rename_ markers. A tm_rename_<name> definition is renamed to tm_<name>
// and pushed as a root.
func discoverAnnotated(s *State) {
	attachAnnotations(s.Module)

	for _, name := range []string{SymExecute, SymExecuteC, SymExecuteCInternal, SymFunctionBaseDtor} {
		if fn, ok := s.Module.Function(name); ok {
			s.pureSet[fn] = true
		}
	}
	for _, name := range s.Config.DiscoveryPureOverrides {
		if fn, ok := s.Module.Function(name); ok {
			s.pureSet[fn] = true
		}
	}

	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		switch {
		case fn.HasAttr(AttrFunction):
			s.push(fn)
		case fn.HasAttr(AttrPure):
			s.pureSet[fn] = true
		}
		if fn.RenameOf != "" {
			s.Module.Rename(fn, fn.Name, ClonePrefix+fn.RenameOf)
			s.push(fn)
			if orig, ok := s.Module.Function(fn.RenameOf); ok {
				s.renameMap[fn] = orig
			}
		}
	}
}

// discoverCAPI pushes the concrete function bodies passed as the second
// argument of every direct call to the C region-launch symbol.
func discoverCAPI(s *State) {
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		for _, in := range ir.CallSitesTo(fn, SymExecuteC) {
			if len(in.Args) < 2 {
				continue
			}
			if c, ok := in.Args[1].(*ir.Constant); ok && c.Function != nil && !c.Function.IsDeclaration() {
				s.push(c.Function)
			}
		}
	}
}

// discoverLambda pushes every function definition whose signature matches
// the lambda shape: exactly two parameters, exactly one of which is a
// pointer to the tm_opaque sentinel type, excluding the generic wrapper.
func discoverLambda(s *State) {
	opaque, ok := s.Module.NamedType(SymOpaqueStruct)
	if !ok {
		return
	}
	opaquePtr := ir.PointerTo(opaque)
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() || fn.Name == genericLambdaWrapper {
			continue
		}
		if len(fn.Sig.Params) != 2 {
			continue
		}
		matches := 0
		for _, p := range fn.Sig.Params {
			if p.Equal(opaquePtr) {
				matches++
			}
		}
		if matches == 1 {
			s.push(fn)
			s.lambdas[fn] = true
		}
	}
}

// discoverConstructor finds every call to the tm_ctor marker, pushes its
// enclosing function as a root, and records the call site for deletion
// (constructors are discovered by the presence of the marker call, not by
// anything the runtime needs to see at the call site itself).
func discoverConstructor(s *State) {
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		for _, in := range ir.CallSitesTo(fn, SymCtorMarker) {
			s.push(fn)
			s.ctorSites = append(s.ctorSites, in)
		}
	}
}

// eraseConstructorMarkers removes every discovered tm_ctor call site. Run
// once, after discovery, so that earlier phases can still see the markers.
func eraseConstructorMarkers(s *State) {
	for _, in := range s.ctorSites {
		ir.Erase(in)
	}
}

// push appends fn to the worklist unless it is already waiting there,
// keeping the queue free of the duplicate entries that repeated call sites
// to the same function would otherwise pile up before the first visit
// marks it seen.
func (s *State) push(fn *ir.Function) {
	if slices.Contains(s.worklist, fn) {
		return
	}
	s.worklist = append(s.worklist, fn)
}
