package pass

import "github.com/mfs409/llvm-transmem/ir"

// defaultCtorPriority matches LLVM's appendToGlobalCtors default (no
// explicit priority requested): both the synthesized clone-table
// registration and any programmer tm_ctor functions run at this priority,
// so relative order among same-priority entries falls back to append
// order, and the registration function is always appended first.
const defaultCtorPriority = 65535

// emitStaticInitializer builds tm_initialization, a void() function that
// calls tm_register_clone(origin, clone) once for every discovered
// (origin, clone) pair, and appends it to the module's constructor list.
// Pure functions register too, as an identity mapping (origin == clone):
// translate_call needs that entry to resolve a pure function pointer the
// same way it resolves any other. Programmer-marked tm_ctor functions are
// appended after the registration function, so the clone table is always
// populated before any of them can run.
func emitStaticInitializer(s *State) {
	init := ir.NewFunction(SymStaticInit, &ir.Signature{Result: ir.VoidType()})
	init.Linkage = "internal"
	entry := init.AppendBlock("entry")

	opaque := s.Sigs.OpaquePtr()
	for _, ff := range s.Functions() {
		if ff.Clone == nil {
			continue
		}
		originPtr := castFuncToOpaque(entry, ff.Origin, opaque)
		clonePtr := castFuncToOpaque(entry, ff.Clone, opaque)
		ir.AppendInstr(entry, ir.NewCall("", s.Sigs.RegisterClone(), []ir.Value{originPtr, clonePtr}, ir.VoidType()))
	}
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})

	s.Module.AddFunction(init)
	s.Module.AppendConstructor(init, defaultCtorPriority)

	for _, fn := range discoveredConstructorFunctions(s) {
		s.Module.AppendConstructor(fn, defaultCtorPriority)
	}
}

func castFuncToOpaque(b *ir.BasicBlock, fn *ir.Function, opaque *ir.IRType) *ir.Instr {
	cast := &ir.Instr{Kind: ir.KindCast, Name: fn.Name + ".fnptr", Ret: opaque,
		Operand: ir.FuncConstant(fn), ToType: opaque, Comment: "bitcast"}
	ir.AppendInstr(b, cast)
	return cast
}

// discoveredConstructorFunctions returns the clone (if one was created) or
// else the origin for every function reached via the tm_ctor discovery
// root, so that a programmer-marked startup routine runs in its
// instrumented form.
func discoveredConstructorFunctions(s *State) []*ir.Function {
	seen := map[*ir.Function]bool{}
	var out []*ir.Function
	for _, in := range s.ctorSites {
		fn := in.Block().Parent
		origin := fn
		for o, ff := range s.functionMap {
			if ff.Clone == fn || o == fn {
				origin = o
				break
			}
		}
		ff, ok := s.functionMap[origin]
		target := origin
		if ok && ff.Clone != nil {
			target = ff.Clone
		}
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}
