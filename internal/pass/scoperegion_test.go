package pass

import (
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/mfs409/llvm-transmem/ir"
)

// buildGuardedFunction builds a function with a single, already-normalized
// scope region: scope_begin as the last instruction of the entry block, a
// guarded body block, scope_end as the first instruction of an exit block.
func buildGuardedFunction(m *ir.Module, scopeBegin, scopeEnd *ir.Function) *ir.Function {
	i32 := ir.IntType(32)
	fn := ir.NewFunction("guarded", &ir.Signature{Params: []*ir.IRType{ir.PointerTo(i32)}, Result: ir.VoidType()})
	entry := fn.AppendBlock("entry")
	ir.AppendInstr(entry, ir.NewCall("", scopeBegin, nil, ir.VoidType()))

	body := fn.AppendBlock("body")
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindBr, Target: body})
	load := ir.NewLoad("v", fn.Args[0], i32)
	ir.AppendInstr(body, load)
	ir.AppendInstr(body, ir.NewStore(fn.Args[0], load))

	exit := fn.AppendBlock("exit")
	ir.AppendInstr(body, &ir.Instr{Kind: ir.KindBr, Target: exit})
	ir.AppendInstr(exit, ir.NewCall("", scopeEnd, nil, ir.VoidType()))
	ir.AppendInstr(exit, &ir.Instr{Kind: ir.KindRet})

	m.AddFunction(fn)
	return fn
}

func blockNames(blocks []*ir.BasicBlock) []string {
	var names []string
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	return names
}

func TestDiscoverScopeRegionsMatchesSingleRegion(t *testing.T) {
	m, _ := newTestState()
	scopeBegin := ir.NewFunction(SymScopeBegin, &ir.Signature{Result: ir.VoidType()})
	scopeBegin.Linkage = "external"
	m.AddFunction(scopeBegin)
	scopeEnd := ir.NewFunction(SymScopeEnd, &ir.Signature{Result: ir.VoidType()})
	scopeEnd.Linkage = "external"
	m.AddFunction(scopeEnd)

	fn := buildGuardedFunction(m, scopeBegin, scopeEnd)
	normalizeScopeBoundaries(fn)
	regions := discoverScopeRegions(fn)

	if len(regions) != 1 {
		t.Fatalf("expected exactly one region, got %d", len(regions))
	}

	got := strings.Join(blockNames(regions[0].OrderedBlocks()), ",")
	want := "body"
	if got != want {
		t.Fatalf("region block order mismatch:\n%s", diff.LineDiff(want, got))
	}
}

func TestNormalizeScopeBoundariesSplitsEndIntoOwnBlock(t *testing.T) {
	m, _ := newTestState()
	scopeEnd := ir.NewFunction(SymScopeEnd, &ir.Signature{Result: ir.VoidType()})
	scopeEnd.Linkage = "external"
	m.AddFunction(scopeEnd)

	fn := ir.NewFunction("f", &ir.Signature{Result: ir.VoidType()})
	entry := fn.AppendBlock("entry")
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindOther, Name: "x", Ret: ir.IntType(32), Comment: "add"})
	ir.AppendInstr(entry, ir.NewCall("", scopeEnd, nil, ir.VoidType()))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(fn)

	normalizeScopeBoundaries(fn)

	if len(fn.Blocks) != 2 {
		t.Fatalf("expected the scope_end call to be split into its own block, got %d blocks", len(fn.Blocks))
	}
	if !isScopeCall(fn.Blocks[1].Instrs[0], SymScopeEnd) {
		t.Fatal("scope_end should be the first instruction of the split-off block")
	}
}
