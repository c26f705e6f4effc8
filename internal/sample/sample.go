// Package sample builds a small, hand-wired module that exercises every
// discovery path the instrumentation pass recognizes: an annotated root, a
// pure function, a rename-substitute, the C API, the lambda API, an RAII
// scope region, and a programmer-marked constructor. It exists for the CLI
// demo and for the pass's own integration tests, which would otherwise need
// a real frontend to produce a module from source.
package sample

import (
	"github.com/mfs409/llvm-transmem/internal/pass"
	"github.com/mfs409/llvm-transmem/ir"
)

// BuildModule constructs a fresh sample module. Each call returns an
// independent Module so that tests can instrument one copy without
// affecting another.
func BuildModule() *ir.Module {
	m := ir.NewModule("sample")
	m.DeclareType(pass.SymOpaqueStruct)

	i32 := ir.IntType(32)
	i32p := ir.PointerTo(i32)

	buildCounters(m, i32, i32p)
	buildRenameSubstitute(m, i32)
	buildLambda(m, i32p)
	buildCAPI(m, i32p)
	buildRAII(m, i32, i32p)
	buildConstructor(m)

	return m
}

// buildCounters wires up the plain tm_function / tm_pure path: a root
// function that loads, calls a pure helper, and stores back.
func buildCounters(m *ir.Module, i32, i32p *ir.IRType) {
	pureHelper := ir.NewFunction("helper_scale", &ir.Signature{
		Params: []*ir.IRType{i32}, Result: i32,
	})
	pureBody := pureHelper.AppendBlock("entry")
	ir.AppendInstr(pureBody, &ir.Instr{Kind: ir.KindRet, Operand: pureHelper.Args[0]})
	m.AddFunction(pureHelper)
	m.AddAnnotation(pureHelper, pass.AttrPure)

	incr := ir.NewFunction("increment_counter", &ir.Signature{
		Params: []*ir.IRType{i32p, i32}, Result: ir.VoidType(),
	})
	entry := incr.AppendBlock("entry")
	ptrArg, deltaArg := incr.Args[0], incr.Args[1]

	load := ir.NewLoad("old", ptrArg, i32)
	ir.AppendInstr(entry, load)

	scaled := ir.NewCall("scaled", pureHelper, []ir.Value{deltaArg}, i32)
	ir.AppendInstr(entry, scaled)

	sum := &ir.Instr{Kind: ir.KindOther, Name: "sum", Ret: i32, Operand: load, StoredValue: scaled, Comment: "add"}
	ir.AppendInstr(entry, sum)

	ir.AppendInstr(entry, ir.NewStore(ptrArg, sum))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})

	m.AddFunction(incr)
	m.AddAnnotation(incr, pass.AttrFunction)
}

// buildRenameSubstitute wires a tm_rename_<name> definition standing in for
// an externally declared symbol, plus a root that calls the external name
// so the substitution has a call site to redirect.
func buildRenameSubstitute(m *ir.Module, i32 *ir.IRType) {
	extern := ir.NewFunction("legacy_checksum", &ir.Signature{Params: []*ir.IRType{i32}, Result: i32})
	extern.Linkage = "external"
	m.AddFunction(extern)

	verified := ir.NewFunction("checksum_verified", &ir.Signature{Params: []*ir.IRType{i32}, Result: i32})
	verified.RenameOf = "legacy_checksum"
	body := verified.AppendBlock("entry")
	ir.AppendInstr(body, &ir.Instr{Kind: ir.KindRet, Operand: verified.Args[0]})
	m.AddFunction(verified)

	caller := ir.NewFunction("checksum_and_log", &ir.Signature{Params: []*ir.IRType{i32}, Result: i32})
	centry := caller.AppendBlock("entry")
	call := ir.NewCall("sum", extern, []ir.Value{caller.Args[0]}, i32)
	ir.AppendInstr(centry, call)
	ir.AppendInstr(centry, &ir.Instr{Kind: ir.KindRet, Operand: call})
	m.AddFunction(caller)
	m.AddAnnotation(caller, pass.AttrFunction)
}

// buildLambda wires a function matching the lambda API's discovery shape:
// exactly two parameters, one of them a tm_opaque*.
func buildLambda(m *ir.Module, i32p *ir.IRType) {
	opaque, _ := m.NamedType(pass.SymOpaqueStruct)
	opaquePtr := ir.PointerTo(opaque)

	lambda := ir.NewFunction("closure_body", &ir.Signature{
		Params: []*ir.IRType{i32p, opaquePtr}, Result: ir.VoidType(),
	})
	entry := lambda.AppendBlock("entry")
	load := ir.NewLoad("captured", lambda.Args[0], ir.IntType(32))
	ir.AppendInstr(entry, load)
	ir.AppendInstr(entry, ir.NewStore(lambda.Args[0], load))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(lambda)
}

// buildCAPI wires a launcher that calls tm_execute_c with a concrete worker
// function as its second argument, the shape discoverCAPI looks for.
func buildCAPI(m *ir.Module, i32p *ir.IRType) {
	opaque, _ := m.NamedType(pass.SymOpaqueStruct)
	opaquePtr := ir.PointerTo(opaque)

	worker := ir.NewFunction("tx_worker", &ir.Signature{Params: []*ir.IRType{i32p}, Result: ir.VoidType()})
	wentry := worker.AppendBlock("entry")
	load := ir.NewLoad("v", worker.Args[0], ir.IntType(32))
	ir.AppendInstr(wentry, load)
	ir.AppendInstr(wentry, ir.NewStore(worker.Args[0], load))
	ir.AppendInstr(wentry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(worker)

	executeC := ir.NewFunction(pass.SymExecuteC, &ir.Signature{
		Params: []*ir.IRType{ir.IntType(32), opaquePtr, opaquePtr}, Result: ir.VoidType(),
	})
	executeC.Linkage = "external"
	m.AddFunction(executeC)

	launcher := ir.NewFunction("launch_worker", &ir.Signature{Params: []*ir.IRType{i32p}, Result: ir.VoidType()})
	lentry := launcher.AppendBlock("entry")
	args := []ir.Value{
		ir.IntConstant(32, 0),
		ir.FuncConstant(worker),
		ir.NullPointer(opaque),
	}
	ir.AppendInstr(lentry, ir.NewCall("", executeC, args, ir.VoidType()))
	ir.AppendInstr(lentry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(launcher)
}

// buildRAII wires a function using the scope-begin/scope-end marker pair
// around a load/store, the shape discoverScopeRegions matches.
func buildRAII(m *ir.Module, i32, i32p *ir.IRType) {
	scopeBegin := ir.NewFunction(pass.SymScopeBegin, &ir.Signature{Result: ir.VoidType()})
	scopeBegin.Linkage = "external"
	m.AddFunction(scopeBegin)

	scopeEnd := ir.NewFunction(pass.SymScopeEnd, &ir.Signature{Result: ir.VoidType()})
	scopeEnd.Linkage = "external"
	m.AddFunction(scopeEnd)

	guarded := ir.NewFunction("guarded_update", &ir.Signature{Params: []*ir.IRType{i32p, i32}, Result: ir.VoidType()})
	entry := guarded.AppendBlock("entry")
	ptrArg, valArg := guarded.Args[0], guarded.Args[1]

	ir.AppendInstr(entry, ir.NewCall("", scopeBegin, nil, ir.VoidType()))
	load := ir.NewLoad("old", ptrArg, i32)
	ir.AppendInstr(entry, load)
	sum := &ir.Instr{Kind: ir.KindOther, Name: "sum", Ret: i32, Operand: load, StoredValue: valArg, Comment: "add"}
	ir.AppendInstr(entry, sum)
	ir.AppendInstr(entry, ir.NewStore(ptrArg, sum))
	ir.AppendInstr(entry, ir.NewCall("", scopeEnd, nil, ir.VoidType()))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})

	m.AddFunction(guarded)
}

// buildConstructor wires a function carrying the tm_ctor discovery marker.
func buildConstructor(m *ir.Module) {
	ctorMarker := ir.NewFunction(pass.SymCtorMarker, &ir.Signature{Result: ir.VoidType()})
	ctorMarker.Linkage = "external"
	m.AddFunction(ctorMarker)

	startup := ir.NewFunction("startup_init", &ir.Signature{Result: ir.VoidType()})
	entry := startup.AppendBlock("entry")
	ir.AppendInstr(entry, ir.NewCall("", ctorMarker, nil, ir.VoidType()))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(startup)
}
