package pass

import "github.com/mfs409/llvm-transmem/ir"

// normalizeScopeBoundaries splits basic blocks so that every plain-call
// scope-begin marker is the last non-terminator instruction of its block
// and every plain-call scope-end marker is the first instruction of its
// block. Invoke-form markers are always already a block terminator and need
// no normalization: a terminator can never have a non-terminator after it,
// and the invoke's own normal/unwind edges already give it a clean block
// boundary.
func normalizeScopeBoundaries(fn *ir.Function) {
	for i := 0; i < len(fn.Blocks); i++ {
		b := fn.Blocks[i]
		for {
			idx, ok := nextBoundaryToSplit(b)
			if !ok {
				break
			}
			b.Split(idx)
		}
	}
}

// nextBoundaryToSplit returns the split point for the first boundary
// instruction in b that isn't already where it needs to be. The returned
// index is the index to pass to BasicBlock.Split: the call itself stays in
// the retained half for a scope-begin (split after it) and moves into the
// new half for a scope-end (split at it).
func nextBoundaryToSplit(b *ir.BasicBlock) (int, bool) {
	last := lastNonTerminatorIndex(b)
	for idx, in := range b.Instrs {
		if in.IsTerminator() {
			continue
		}
		if isScopeCall(in, SymScopeBegin) && idx != last {
			return idx + 1, true
		}
		if isScopeCall(in, SymScopeEnd) && idx != 0 {
			return idx, true
		}
	}
	return 0, false
}

func lastNonTerminatorIndex(b *ir.BasicBlock) int {
	if len(b.Instrs) == 0 {
		return -1
	}
	if b.Instrs[len(b.Instrs)-1].IsTerminator() {
		return len(b.Instrs) - 2
	}
	return len(b.Instrs) - 1
}

func isScopeCall(in *ir.Instr, name string) bool {
	return in.IsDirectCall() && in.Callee.Name == name
}

// discoverScopeRegions runs a path-tracked depth-first search over fn's
// control flow graph, matching every scope-end against the innermost
// still-open scope-begin with a stack, and assigning every block visited
// while a region is open to that region alone: the innermost one, never
// its enclosing regions too, and never the begin-block or end-block that
// bound it (after normalizeScopeBoundaries those are always their own
// blocks, holding nothing else a region rewrite needs to see). A block is
// expanded at most once; reaching an already-expanded block (a loop back
// edge) stops that branch of the search without reprocessing it, since its
// region membership was already fixed on first visit.
func discoverScopeRegions(fn *ir.Function) []*ScopeRegion {
	if len(fn.Blocks) == 0 {
		return nil
	}
	var regions []*ScopeRegion
	visited := map[*ir.BasicBlock]bool{}
	scopeDFS(fn.Blocks[0], nil, visited, &regions)
	return regions
}

func scopeDFS(b *ir.BasicBlock, open []*ScopeRegion, visited map[*ir.BasicBlock]bool, regions *[]*ScopeRegion) {
	if visited[b] {
		return
	}
	visited[b] = true

	boundary := false
	for _, in := range b.Instrs {
		if isScopeCall(in, SymScopeBegin) {
			open = append(open, &ScopeRegion{Begin: in})
			boundary = true
		}
		if isScopeCall(in, SymScopeEnd) && len(open) > 0 {
			inner := open[len(open)-1]
			open = open[:len(open)-1]
			inner.End = in
			*regions = append(*regions, inner)
			boundary = true
		}
	}
	if !boundary && len(open) > 0 {
		open[len(open)-1].addBlock(b)
	}

	term := b.Terminator()
	if term == nil {
		return
	}
	if term.Kind == ir.KindInvoke && isScopeCall(term, SymScopeBegin) {
		// The constructor only completes, and the scope only truly opens,
		// on the normal-return edge: the unwind edge must see the region as
		// still closed.
		withoutInnermost := open[: len(open)-1 : len(open)-1]
		scopeDFS(term.UnwindDest, withoutInnermost, visited, regions)
		scopeDFS(term.NormalDest, open, visited, regions)
		return
	}
	for _, succ := range term.Successors() {
		scopeDFS(succ, open, visited, regions)
	}
}

// discoverAllScopeRegions runs discoverScopeRegions over every function
// definition in the module and stores the result on s for the diamond
// rewrite phase to consume. RAII scopes are a dynamic, per-call-site
// property rather than a whole-function one (the same function body can run
// both inside and outside a transaction depending on how its caller reached
// it), so unlike body instrumentation this phase is not limited to the
// discovered clone set: it runs on every function definition in the module,
// origins and clones alike.
func discoverAllScopeRegions(s *State) {
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		normalizeScopeBoundaries(fn)
		s.scopeRegions = append(s.scopeRegions, discoverScopeRegions(fn)...)
	}
}

// instrumentableClones returns the clone bodies body instrumentation and
// scope-region rewriting both operate on: synthesized duplicates only, never
// pure functions (never cloned in spirit) or rename-substitutes (the
// programmer's own body).
func instrumentableClones(s *State) []*ir.Function {
	var out []*ir.Function
	for _, ff := range s.Functions() {
		if ff.Clone == nil || s.pureSet[ff.Origin] || s.isRenameSubstitute(ff.Clone) {
			continue
		}
		out = append(out, ff.Clone)
	}
	return out
}
