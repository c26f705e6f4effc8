package pass

import (
	"github.com/mfs409/llvm-transmem/ir"
	"golang.org/x/exp/slices"
)

// instrumentBodies runs instrumentFunctionBody over every discovered clone.
// Pure functions and rename-substitutes have Clone set but must not be
// rewritten (a rename-substitute is the programmer's own hand-verified
// body; a pure function's "clone" is itself, kept only so call sites can
// find it without a branch).
func instrumentBodies(s *State) {
	for _, clone := range instrumentableClones(s) {
		instrumentFunctionBody(s, clone)
	}
}

// instrumentFunctionBody rewrites every instruction of fn in place according
// to the table in the design document: memory accesses are redirected
// through typed runtime helpers where a canonical type code exists, calls
// are redirected to the callee's clone, and anything that can't be safely
// interpreted is left untouched behind a serialization marker.
func instrumentFunctionBody(s *State, fn *ir.Function) {
	for _, b := range fn.Blocks {
		// Snapshot: insertions during the loop (markers, helper calls) must
		// not be revisited as if they were original instructions.
		original := slices.Clone(b.Instrs)
		for _, in := range original {
			instrumentInstruction(s, in)
		}
	}
}

func instrumentInstruction(s *State, in *ir.Instr) {
	switch in.Kind {
	case ir.KindLoad:
		instrumentLoad(s, in)
	case ir.KindStore:
		instrumentStore(s, in)
	case ir.KindAtomicRMW, ir.KindAtomicCAS, ir.KindFence:
		insertUnsafeBefore(s, in)
	case ir.KindCall, ir.KindInvoke:
		instrumentCall(s, in)
	default:
		// Control flow, address computation, casts, and phis pass through
		// unchanged: they do not themselves touch memory the runtime needs
		// to mediate.
	}
}

func instrumentLoad(s *State, in *ir.Instr) {
	if in.Volatile || in.Atomic {
		insertUnsafeBefore(s, in)
		return
	}
	if !s.Config.InstrumentReads {
		return
	}
	helper := s.Sigs.Load(in.Ret)
	if helper == nil {
		insertUnsafeBefore(s, in)
		return
	}
	call := ir.NewCall(in.Name, helper, []ir.Value{in.Addr}, in.Ret)
	ir.ReplaceInstr(in, call)
}

func instrumentStore(s *State, in *ir.Instr) {
	if in.Volatile || in.Atomic {
		insertUnsafeBefore(s, in)
		return
	}
	helper := s.Sigs.Store(in.StoredValue.Type())
	if helper == nil {
		insertUnsafeBefore(s, in)
		return
	}
	call := ir.NewCall("", helper, []ir.Value{in.StoredValue, in.Addr}, ir.VoidType())
	ir.ReplaceInstr(in, call)
}

func instrumentCall(s *State, in *ir.Instr) {
	if in.IsIndirectCall() {
		rewriteIndirectCall(s, in)
		return
	}
	if !in.IsDirectCall() {
		return
	}
	name := in.Callee.Name

	if isKnownIntrinsic(name) {
		if isSerializationOnlyIntrinsic(name) {
			insertUnsafeBefore(s, in)
		}
		return
	}
	if ExceptionHelpers[name] {
		insertUnsafeBefore(s, in)
		return
	}
	if name == SymCommitHandler {
		return
	}
	if name == SymScopeBegin || name == SymScopeEnd {
		// Left as an ordinary direct call: discoverAllScopeRegions matches
		// these by callee name after body instrumentation runs, and a
		// translate_call rewrite would turn this into an indirect call the
		// matcher no longer recognizes.
		return
	}
	if helperName, ok := MemoryHelpers[name]; ok {
		if helperFn, ok2 := s.Module.Function(helperName); ok2 {
			in.Callee = helperFn
		}
		return
	}
	if s.pureSet[in.Callee] {
		// Covers both discovered pure functions and the fixed runtime entry
		// points discoverAnnotated seeds the set with (tm_execute,
		// tm_execute_c, the std::function dtor): those are declaration-only
		// and never reachable through discoverReachable's callee walk, so
		// functionMap never holds an entry for them to match against below.
		return
	}
	if ff, ok := s.functionMap[in.Callee]; ok {
		if ff.Clone != nil {
			in.Callee = ff.Clone
		}
		return
	}
	// Unknown callee reachable only because it slipped past discovery
	// (e.g. a declaration-only external symbol defined in another
	// translation unit): no clone exists here to redirect to directly, so
	// fall back to the same dynamic clone-table lookup an indirect call
	// gets, rather than leave the uninstrumented call in place.
	translateDirectCall(s, in)
}

// rewriteIndirectCall redirects a computed-callee call through the
// runtime's clone-table lookup: the original function pointer is looked up
// via translate_call, and the result (bitcast back to the original pointer
// type) becomes the new callee operand. If no origin/clone pair was ever
// registered for the pointer at runtime, translate_call returns its input
// unchanged, so untransformed call targets keep working.
func rewriteIndirectCall(s *State, in *ir.Instr) {
	redirectThroughTranslateCall(s, in, in.CalleeValue)
}

// translateDirectCall applies the same runtime lookup to a direct call/
// invoke whose callee has no clone in this translation unit: the callee
// symbol itself (rather than a computed pointer) is bitcast to opaque,
// looked up, and bitcast back, turning the call into an indirect one
// through the looked-up value.
func translateDirectCall(s *State, in *ir.Instr) {
	redirectThroughTranslateCall(s, in, ir.FuncConstant(in.Callee))
	in.Callee = nil
}

func redirectThroughTranslateCall(s *State, in *ir.Instr, calleeValue ir.Value) {
	opaque := s.Sigs.OpaquePtr()
	origType := calleeValue.Type()

	toOpaque := &ir.Instr{Kind: ir.KindCast, Name: in.Name + ".opq", Ret: opaque, Operand: calleeValue, ToType: opaque, Comment: "bitcast"}
	ir.InsertBefore(in, toOpaque)

	lookup := ir.NewCall(in.Name+".tgt", s.Sigs.TranslateCall(), []ir.Value{toOpaque}, opaque)
	ir.InsertBefore(in, lookup)

	back := &ir.Instr{Kind: ir.KindCast, Name: in.Name + ".fn", Ret: origType, Operand: lookup, ToType: origType, Comment: "bitcast"}
	ir.InsertBefore(in, back)

	in.CalleeValue = back
}

func insertUnsafeBefore(s *State, in *ir.Instr) {
	marker := ir.NewCall("", s.Sigs.Unsafe(), nil, ir.VoidType())
	ir.InsertBefore(in, marker)
}
