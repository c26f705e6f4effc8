package ir_test

import (
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/mfs409/llvm-transmem/ir"
)

func buildPrintableModule() *ir.Module {
	m := ir.NewModule("t")
	i32 := ir.IntType(32)
	fn := ir.NewFunction("add_one", &ir.Signature{Params: []*ir.IRType{ir.PointerTo(i32)}, Result: ir.VoidType()})
	entry := fn.AppendBlock("entry")
	load := ir.NewLoad("v", fn.Args[0], i32)
	ir.AppendInstr(entry, load)
	sum := &ir.Instr{Kind: ir.KindOther, Name: "sum", Ret: i32, Operand: load, StoredValue: ir.IntConstant(32, 1), Comment: "add"}
	ir.AppendInstr(entry, sum)
	ir.AppendInstr(entry, ir.NewStore(fn.Args[0], sum))
	ir.AppendInstr(entry, &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(fn)
	return m
}

func TestTextRendersOneLinePerInstruction(t *testing.T) {
	m := buildPrintableModule()
	got := ir.Text(m)

	want := strings.Join([]string{
		"define void add_one(i32* %a0) {",
		"entry:",
		"  %v = load i32, i32* %a0",
		"  %sum = add",
		"  store i32 %sum, i32* %a0",
		"  ret void",
		"}",
		"",
	}, "\n")

	if got != want {
		t.Fatalf("rendered text mismatch:\n%s", diff.LineDiff(want, got))
	}
}

func TestDumpSkipsDeclarationsAndSortsByName(t *testing.T) {
	m := ir.NewModule("t")
	zeta := ir.NewFunction("zeta", &ir.Signature{Result: ir.VoidType()})
	zeta.AppendBlock("entry")
	ir.AppendInstr(zeta.Blocks[0], &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(zeta)

	alpha := ir.NewFunction("alpha", &ir.Signature{Result: ir.VoidType()})
	alpha.AppendBlock("entry")
	ir.AppendInstr(alpha.Blocks[0], &ir.Instr{Kind: ir.KindRet})
	m.AddFunction(alpha)

	decl := ir.NewFunction("extern_only", &ir.Signature{Result: ir.VoidType()})
	decl.Linkage = "external"
	m.AddFunction(decl)

	got := ir.Text(m)
	alphaIdx := strings.Index(got, "define void alpha")
	zetaIdx := strings.Index(got, "define void zeta")
	if alphaIdx < 0 || zetaIdx < 0 || alphaIdx > zetaIdx {
		t.Fatalf("expected alpha to print before zeta, got:\n%s", got)
	}
	if strings.Contains(got, "extern_only") {
		t.Fatal("a declaration-only function should not be printed")
	}
}
