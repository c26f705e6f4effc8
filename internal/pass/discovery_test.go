package pass

import (
	"testing"

	"github.com/mfs409/llvm-transmem/ir"
)

func buildRoot(m *ir.Module, name string) *ir.Function {
	fn := ir.NewFunction(name, &ir.Signature{Result: ir.VoidType()})
	entry := fn.AppendBlock("entry")
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(fn)
	return fn
}

func newTestState() (*ir.Module, *State) {
	m := ir.NewModule("t")
	s := NewState(m, DefaultConfig())
	return m, s
}

func TestDiscoverAnnotatedRoot(t *testing.T) {
	m, s := newTestState()
	fn := buildRoot(m, "work")
	m.AddAnnotation(fn, AttrFunction)

	discoverAnnotated(s)

	if len(s.worklist) != 1 || s.worklist[0] != fn {
		t.Fatalf("expected work to be pushed as a root, worklist = %v", s.worklist)
	}
}

func TestDiscoverAnnotatedPure(t *testing.T) {
	m, s := newTestState()
	fn := buildRoot(m, "is_safe")
	m.AddAnnotation(fn, AttrPure)

	discoverAnnotated(s)

	if !s.pureSet[fn] {
		t.Fatal("tm_pure function should be in the pure set")
	}
	if len(s.worklist) != 0 {
		t.Fatal("a pure function is not itself a discovery root")
	}
}

func TestDiscoverAnnotatedRename(t *testing.T) {
	m, s := newTestState()
	original := buildRoot(m, "libc_qsort")
	renamed := buildRoot(m, "qsort_checked")
	renamed.RenameOf = "libc_qsort"

	discoverAnnotated(s)

	if len(s.worklist) != 1 || s.worklist[0] != renamed {
		t.Fatalf("rename-substitute should be pushed as a root, worklist = %v", s.worklist)
	}
	if s.renameMap[renamed] != original {
		t.Fatal("rename map should point the renamed definition at the original symbol")
	}
}

func TestDiscoverCAPI(t *testing.T) {
	m, s := newTestState()
	worker := buildRoot(m, "worker")
	executeC := ir.NewFunction(SymExecuteC, &ir.Signature{
		Params: []*ir.IRType{ir.IntType(32), ir.OpaquePtr(), ir.OpaquePtr()}, Result: ir.VoidType(),
	})
	executeC.Linkage = "external"
	m.AddFunction(executeC)

	launcher := ir.NewFunction("launcher", &ir.Signature{Result: ir.VoidType()})
	entry := launcher.AppendBlock("entry")
	call := ir.NewCall("", executeC, []ir.Value{
		ir.IntConstant(32, 0),
		ir.FuncConstant(worker),
		ir.NullPointer(ir.IntType(8)),
	}, ir.VoidType())
	ir.AppendInstr(entry, call)
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(launcher)

	discoverCAPI(s)

	if len(s.worklist) != 1 || s.worklist[0] != worker {
		t.Fatalf("C API launch should discover its worker function, worklist = %v", s.worklist)
	}
}

func TestDiscoverLambda(t *testing.T) {
	m, s := newTestState()
	opaque := m.DeclareType(SymOpaqueStruct)
	opaquePtr := ir.PointerTo(opaque)

	lambda := ir.NewFunction("closure", &ir.Signature{
		Params: []*ir.IRType{ir.PointerTo(ir.IntType(32)), opaquePtr}, Result: ir.VoidType(),
	})
	lambda.AppendBlock("entry")
	m.AddFunction(lambda)

	notLambda := ir.NewFunction("two_opaques", &ir.Signature{Params: []*ir.IRType{opaquePtr, opaquePtr}, Result: ir.VoidType()})
	notLambda.AppendBlock("entry")
	m.AddFunction(notLambda)

	discoverLambda(s)

	if len(s.worklist) != 1 || s.worklist[0] != lambda {
		t.Fatalf("expected exactly the one-opaque-arg function to be discovered, worklist = %v", s.worklist)
	}
	if !s.lambdas[lambda] {
		t.Fatal("discovered lambda should be marked in the lambda set")
	}
}

func TestDiscoverConstructor(t *testing.T) {
	m, s := newTestState()
	marker := ir.NewFunction(SymCtorMarker, &ir.Signature{Result: ir.VoidType()})
	marker.Linkage = "external"
	m.AddFunction(marker)

	startup := ir.NewFunction("startup", &ir.Signature{Result: ir.VoidType()})
	entry := startup.AppendBlock("entry")
	ir.AppendInstr(entry, ir.NewCall("", marker, nil, ir.VoidType()))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(startup)

	discoverConstructor(s)
	if len(s.worklist) != 1 || s.worklist[0] != startup {
		t.Fatalf("constructor-marked function should be discovered, worklist = %v", s.worklist)
	}
	if len(s.ctorSites) != 1 {
		t.Fatalf("expected one ctor marker call site recorded, got %d", len(s.ctorSites))
	}

	eraseConstructorMarkers(s)
	if len(ir.AllInstructions(startup)) != 1 {
		t.Fatal("ctor marker call should have been erased, leaving only the ret")
	}
}

func TestDiscoverReachableAssignsOriginAsKey(t *testing.T) {
	m, s := newTestState()
	leaf := buildRoot(m, "leaf")
	root := ir.NewFunction("root", &ir.Signature{Result: ir.VoidType()})
	entry := root.AppendBlock("entry")
	ir.AppendInstr(entry, ir.NewCall("", leaf, nil, ir.VoidType()))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(root)
	m.AddAnnotation(root, AttrFunction)

	discoverAnnotated(s)
	discoverReachable(s)

	if _, ok := s.functionMap[root]; !ok {
		t.Fatal("root should be present in the function map")
	}
	if _, ok := s.functionMap[leaf]; !ok {
		t.Fatal("leaf reached through a direct call should also be present")
	}
}

func TestCreateClonesNamesWithPrefix(t *testing.T) {
	m, s := newTestState()
	fn := buildRoot(m, "work")
	m.AddAnnotation(fn, AttrFunction)

	discoverAnnotated(s)
	discoverReachable(s)
	createClones(s)

	clone := s.CloneOf(fn)
	if clone == nil {
		t.Fatal("expected a clone to be created")
	}
	if clone.Name != "tm_work" {
		t.Fatalf("clone name = %q, want tm_work", clone.Name)
	}
	if _, ok := m.Function("tm_work"); !ok {
		t.Fatal("clone should be registered in the module's symbol table")
	}
}
