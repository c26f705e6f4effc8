package pass

import (
	"testing"

	"github.com/mfs409/llvm-transmem/ir"
)

func TestEmitStaticInitializerRegistersEveryFunctionMapEntry(t *testing.T) {
	m, s := newTestState()
	s.Sigs.Init(m)

	origin := ir.NewFunction("work", &ir.Signature{Result: ir.VoidType()})
	origin.AppendBlock("entry")
	m.AddFunction(origin)
	clone := origin.Clone("tm_work")
	m.AddFunction(clone)
	s.functionMap[origin] = &FunctionFeatures{Origin: origin, Clone: clone}

	pureFn := ir.NewFunction("is_safe", &ir.Signature{Result: ir.VoidType()})
	pureFn.AppendBlock("entry")
	m.AddFunction(pureFn)
	s.functionMap[pureFn] = &FunctionFeatures{Origin: pureFn, Clone: pureFn}

	emitStaticInitializer(s)

	init, ok := m.Function(SymStaticInit)
	if !ok {
		t.Fatal("expected tm_initialization to be added to the module")
	}
	registrations := ir.CallSitesTo(init, SymRegisterClone)
	if len(registrations) != 2 {
		t.Fatalf("expected one registration per function_map entry, including the pure function's identity mapping, got %d", len(registrations))
	}
}

func TestEmitStaticInitializerAppendsBeforeDiscoveredConstructors(t *testing.T) {
	m, s := newTestState()
	s.Sigs.Init(m)

	ctorFn := ir.NewFunction("startup", &ir.Signature{Result: ir.VoidType()})
	entry := ctorFn.AppendBlock("entry")
	marker := ir.NewFunction(SymCtorMarker, &ir.Signature{Result: ir.VoidType()})
	marker.Linkage = "external"
	m.AddFunction(marker)
	ctorCall := ir.NewCall("", marker, nil, ir.VoidType())
	ir.AppendInstr(entry, ctorCall)
	m.AddFunction(ctorFn)
	s.ctorSites = append(s.ctorSites, ctorCall)
	s.functionMap[ctorFn] = &FunctionFeatures{Origin: ctorFn}

	emitStaticInitializer(s)

	if len(m.Constructors) != 2 {
		t.Fatalf("expected the static initializer plus the discovered startup function, got %d entries", len(m.Constructors))
	}
	if m.Constructors[0].Func.Name != SymStaticInit {
		t.Fatal("tm_initialization must be the first constructor appended")
	}
	if m.Constructors[1].Func != ctorFn {
		t.Fatal("the discovered constructor has no clone, so its origin should be appended directly")
	}
}
