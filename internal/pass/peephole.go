package pass

import "github.com/mfs409/llvm-transmem/ir"

// eliminateDominatedMarkers removes every serialization marker call that is
// dominated, within its own basic block only, by an earlier one: once a
// block has called tm_unsafe, every instruction after that point until the
// end of the block is already guaranteed to run serialized, so a second
// call buys nothing. This is deliberately intra-block: a full dominator
// analysis would catch more redundant markers (e.g. a marker in a block
// with a single predecessor that already called it) but the original
// plugin accepted the narrower, cheaper form, and so does this one.
func eliminateDominatedMarkers(s *State) {
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		for _, b := range fn.Blocks {
			stripRedundantMarkers(s, b)
		}
	}
}

func stripRedundantMarkers(s *State, b *ir.BasicBlock) {
	seen := false
	var toErase []*ir.Instr
	for _, in := range b.Instrs {
		if !isScopeCall(in, SymUnsafe) {
			continue
		}
		if seen {
			toErase = append(toErase, in)
		}
		seen = true
	}
	for _, in := range toErase {
		ir.Erase(in)
	}
}
