package pass

import (
	"testing"

	"github.com/mfs409/llvm-transmem/ir"
)

func TestRewriteCAPILaunchRedirectsToInternalForm(t *testing.T) {
	m, s := newTestState()
	s.Sigs.Init(m)
	opaque := m.DeclareType(SymOpaqueStruct)
	opaquePtr := ir.PointerTo(opaque)

	worker := ir.NewFunction("worker", &ir.Signature{Result: ir.VoidType()})
	worker.AppendBlock("entry")
	m.AddFunction(worker)
	clone := worker.Clone("tm_worker")
	m.AddFunction(clone)
	s.functionMap[worker] = &FunctionFeatures{Origin: worker, Clone: clone}

	executeC := ir.NewFunction(SymExecuteC, &ir.Signature{
		Params: []*ir.IRType{ir.IntType(32), opaquePtr, opaquePtr}, Result: ir.VoidType(),
	})
	executeC.Linkage = "external"
	m.AddFunction(executeC)

	launcher := ir.NewFunction("launch", &ir.Signature{Result: ir.VoidType()})
	entry := launcher.AppendBlock("entry")
	call := ir.NewCall("", executeC, []ir.Value{
		ir.IntConstant(32, 0),
		ir.FuncConstant(worker),
		ir.NullPointer(opaque),
	}, ir.VoidType())
	ir.AppendInstr(entry, call)
	m.AddFunction(launcher)

	rewriteCAPILaunch(s, call)

	if call.Callee != s.Sigs.ExecuteCInternal() {
		t.Fatalf("launch call should be redirected to the internal form, callee = %s", call.Callee.Name)
	}
	if len(call.Args) != 4 {
		t.Fatalf("expected 4 args (flags, origin fnptr, trailing arg, clone fnptr), got %d", len(call.Args))
	}
	cloneArg, ok := call.Args[3].(*ir.Constant)
	if !ok || cloneArg.Function != clone {
		t.Fatalf("last argument should be the clone's function pointer, got %+v", call.Args[3])
	}
}

func TestRewriteCAPILaunchLeavesUnknownWorkerAlone(t *testing.T) {
	m, s := newTestState()
	s.Sigs.Init(m)
	opaque := m.DeclareType(SymOpaqueStruct)

	worker := ir.NewFunction("not_discovered", &ir.Signature{Result: ir.VoidType()})
	worker.AppendBlock("entry")
	m.AddFunction(worker)

	executeC := ir.NewFunction(SymExecuteC, &ir.Signature{
		Params: []*ir.IRType{ir.IntType(32), ir.PointerTo(opaque), ir.PointerTo(opaque)}, Result: ir.VoidType(),
	})
	executeC.Linkage = "external"
	m.AddFunction(executeC)

	launcher := ir.NewFunction("launch", &ir.Signature{Result: ir.VoidType()})
	entry := launcher.AppendBlock("entry")
	call := ir.NewCall("", executeC, []ir.Value{
		ir.IntConstant(32, 0),
		ir.FuncConstant(worker),
		ir.NullPointer(opaque),
	}, ir.VoidType())
	ir.AppendInstr(entry, call)
	m.AddFunction(launcher)

	rewriteCAPILaunch(s, call)

	if call.Callee != executeC {
		t.Fatal("a launch whose worker was never discovered/cloned must be left untouched")
	}
}
