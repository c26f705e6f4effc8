package ir

import "testing"

func buildSimpleFunction() *Function {
	i32 := IntType(32)
	fn := NewFunction("add_one", &Signature{Params: []*IRType{PointerTo(i32)}, Result: VoidType()})
	entry := fn.AppendBlock("entry")
	load := NewLoad("v", fn.Args[0], i32)
	AppendInstr(entry, load)
	AppendInstr(entry, NewStore(fn.Args[0], load))
	AppendInstr(entry, &Instr{Kind: KindRet})
	return fn
}

func TestFunctionCloneIsIndependent(t *testing.T) {
	fn := buildSimpleFunction()
	clone := fn.Clone("tm_add_one")

	if clone.Name != "tm_add_one" {
		t.Fatalf("clone name = %q, want tm_add_one", clone.Name)
	}
	if len(clone.Blocks) != len(fn.Blocks) {
		t.Fatalf("clone has %d blocks, want %d", len(clone.Blocks), len(fn.Blocks))
	}

	cloneLoad := clone.Blocks[0].Instrs[0]
	cloneStore := clone.Blocks[0].Instrs[1]
	if cloneStore.Addr != clone.Args[0] {
		t.Fatal("clone store's address should be remapped to the clone's own argument, not the origin's")
	}
	if cloneStore.StoredValue != cloneLoad {
		t.Fatal("clone store's value should be remapped to the clone's own load, not the origin's")
	}

	// Mutating the clone must not affect the origin.
	clone.Blocks[0].Instrs = clone.Blocks[0].Instrs[:1]
	if len(fn.Blocks[0].Instrs) != 3 {
		t.Fatal("truncating the clone's instruction slice affected the origin's")
	}
}

func TestBasicBlockSplit(t *testing.T) {
	fn := buildSimpleFunction()
	entry := fn.Blocks[0]
	store := entry.Instrs[1]

	tail := entry.Split(1)

	if len(entry.Instrs) != 2 {
		t.Fatalf("original block has %d instructions after split, want 2 (load + branch)", len(entry.Instrs))
	}
	if entry.Instrs[1].Kind != KindBr || entry.Instrs[1].Target != tail {
		t.Fatal("split should append an unconditional branch to the new tail block")
	}
	if len(tail.Instrs) != 2 || tail.Instrs[0] != store {
		t.Fatal("tail block should retain the store and the original terminator")
	}
	if len(fn.Blocks) != 2 {
		t.Fatalf("function has %d blocks after split, want 2", len(fn.Blocks))
	}
}

func TestReplaceAllUses(t *testing.T) {
	fn := buildSimpleFunction()
	load := fn.Blocks[0].Instrs[0]
	store := fn.Blocks[0].Instrs[1]

	replacement := &Instr{Kind: KindPhi, Name: "merged", Ret: IntType(32)}
	ReplaceAllUses(fn, load, replacement)

	if store.StoredValue != Value(replacement) {
		t.Fatal("ReplaceAllUses should have rewired the store's operand to the replacement")
	}
}
