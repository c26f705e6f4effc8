package pass

import "github.com/mfs409/llvm-transmem/ir"

// scopePredicates holds, per function, the per-region stack-local flag that
// records whether that region's scope is presently active. Populated lazily
// by regionPredicate the first time a region needs one.
type scopePredicates struct {
	addr map[*ScopeRegion]*ir.Instr
}

// instrumentScopeRegions applies the diamond rewrite to every eligible
// instruction of every discovered scope region: a predicate load and
// compare is inserted ahead of the instruction, and the block splits into
// an instrumented half (taken when the region is active) and an
// uninstrumented half (taken otherwise), rejoining at a merge block that
// phi's the result back together when the instruction produces one.
func instrumentScopeRegions(s *State) {
	byFunc := map[*ir.Function][]*ScopeRegion{}
	for _, r := range s.scopeRegions {
		fn := r.Begin.Block().Parent
		byFunc[fn] = append(byFunc[fn], r)
	}
	for fn, regions := range byFunc {
		preds := &scopePredicates{addr: map[*ScopeRegion]*ir.Instr{}}
		wireRegionPredicates(fn, regions, preds)
		for _, r := range regions {
			serializeInvokes(s, r)
			for _, in := range candidateInstructions(r) {
				applyDiamond(s, preds.addr[r], in)
			}
		}
	}
}

// wireRegionPredicates allocates one i8 stack slot per region at the
// function's entry block, storing 1 immediately after the region's
// scope-begin and 0 immediately before its scope-end.
func wireRegionPredicates(fn *ir.Function, regions []*ScopeRegion, preds *scopePredicates) {
	entry := fn.Blocks[0]
	for _, r := range regions {
		alloca := &ir.Instr{Kind: ir.KindAlloca, Name: "scope_active", Ret: ir.PointerTo(ir.IntType(8)), Comment: "alloca"}
		ir.PrependInstr(entry, alloca)
		preds.addr[r] = alloca

		setActive := ir.NewStore(alloca, ir.IntConstant(8, 1))
		ir.InsertAfter(r.Begin, setActive)

		clearActive := ir.NewStore(alloca, ir.IntConstant(8, 0))
		ir.InsertBefore(r.End, clearActive)
	}
}

// candidateInstructions returns the instructions within a region that the
// diamond rewrite applies to: memory accesses and direct plain calls,
// excluding the region's own boundary markers and plain control flow.
// Invoke-form calls are deliberately excluded: an invoke is always its
// block's terminator, and isolating a terminator into its own
// predicate/instrumented/uninstrumented/merge diamond would require
// threading its unwind edge through all three new blocks. Those are
// instead serialized in place by serializeInvokes.
func candidateInstructions(r *ScopeRegion) []*ir.Instr {
	var out []*ir.Instr
	for _, b := range r.OrderedBlocks() {
		for _, in := range b.Instrs {
			if in == r.Begin || in == r.End {
				continue
			}
			switch in.Kind {
			case ir.KindLoad, ir.KindStore, ir.KindAtomicRMW, ir.KindAtomicCAS, ir.KindFence:
				out = append(out, in)
			case ir.KindCall:
				if in.IsDirectCall() && !isKnownIntrinsic(in.Callee.Name) {
					out = append(out, in)
				}
			}
		}
	}
	return out
}

// serializeInvokes inserts an unsafe marker ahead of every invoke found
// within a region's blocks (other than the region's own scope-begin, which
// may itself be an invoke form of the constructor call and must be left
// alone).
func serializeInvokes(s *State, r *ScopeRegion) {
	for _, b := range r.OrderedBlocks() {
		term := b.Terminator()
		if term == nil || term.Kind != ir.KindInvoke || term == r.Begin || term == r.End {
			continue
		}
		insertUnsafeBefore(s, term)
	}
}

// applyDiamond splits original's block into a predicate check followed by
// an instrumented half and an uninstrumented half, both rejoining at a
// merge block. original is deleted; any use of its result elsewhere in the
// function is redirected to the merge phi.
func applyDiamond(s *State, predAddr *ir.Instr, original *ir.Instr) {
	b := original.Block()
	fn := b.Parent
	idx := b.IndexOf(original)

	bbDone := b.Split(idx)
	ir.Erase(original)
	predBlock := b
	predBlock.Instrs = predBlock.Instrs[:len(predBlock.Instrs)-1] // drop Split's branch

	bbInst := fn.InsertBlockBefore(bbDone, predBlock.Name+".inst")
	bbNoinst := fn.InsertBlockBefore(bbDone, predBlock.Name+".noinst")

	pred := &ir.Instr{Kind: ir.KindLoad, Name: original.Name + ".pred", Ret: ir.IntType(8), Addr: predAddr}
	ir.AppendInstr(predBlock, pred)
	active := &ir.Instr{Kind: ir.KindOther, Name: original.Name + ".active", Ret: ir.IntType(1),
		Operand: pred, StoredValue: ir.IntConstant(8, 1), Comment: "icmp eq"}
	ir.AppendInstr(predBlock, active)
	ir.AppendInstr(predBlock, &ir.Instr{Kind: ir.KindCondBr, Cond: active, ThenBlock: bbInst, ElseBlock: bbNoinst})

	marker, instrumented := instrumentedForm(s, original)
	if marker != nil {
		ir.AppendInstr(bbInst, marker)
	}
	ir.AppendInstr(bbInst, instrumented)
	ir.AppendInstr(bbInst, &ir.Instr{Kind: ir.KindBr, Target: bbDone})

	uninstrumented := original.Copy()
	ir.AppendInstr(bbNoinst, uninstrumented)
	ir.AppendInstr(bbNoinst, &ir.Instr{Kind: ir.KindBr, Target: bbDone})

	hasResult := original.Type().Kind != ir.KindVoid
	if hasResult {
		phi := &ir.Instr{Kind: ir.KindPhi, Name: original.Name, Ret: original.Ret, Incoming: []ir.Incoming{
			{Block: bbInst, Value: instrumented},
			{Block: bbNoinst, Value: uninstrumented},
		}}
		ir.PrependInstr(bbDone, phi)
		ir.ReplaceAllUses(fn, original, phi)
	}
}

// instrumentedForm builds the in-transaction form of original the same way
// §4.6 body instrumentation would, without mutating original itself (the
// uninstrumented half still needs it intact). The first return value is a
// serialization marker to emit ahead of the instruction, non-nil only when
// no typed runtime equivalent exists.
func instrumentedForm(s *State, original *ir.Instr) (*ir.Instr, *ir.Instr) {
	switch original.Kind {
	case ir.KindLoad:
		if helper := s.Sigs.Load(original.Ret); helper != nil {
			return nil, ir.NewCall(original.Name, helper, []ir.Value{original.Addr}, original.Ret)
		}
	case ir.KindStore:
		if helper := s.Sigs.Store(original.StoredValue.Type()); helper != nil {
			return nil, ir.NewCall("", helper, []ir.Value{original.StoredValue, original.Addr}, ir.VoidType())
		}
	case ir.KindCall, ir.KindInvoke:
		if original.IsDirectCall() {
			if helperName, ok := MemoryHelpers[original.Callee.Name]; ok {
				if helperFn, ok2 := s.Module.Function(helperName); ok2 {
					cp := original.Copy()
					cp.Callee = helperFn
					return nil, cp
				}
			}
			if ff, ok := s.functionMap[original.Callee]; ok && !s.pureSet[original.Callee] && ff.Clone != nil {
				cp := original.Copy()
				cp.Callee = ff.Clone
				return nil, cp
			}
		}
	}
	// Atomics, fences, and anything else with no typed runtime equivalent
	// still execute, preceded by a serialization marker.
	marker := ir.NewCall("", s.Sigs.Unsafe(), nil, ir.VoidType())
	return marker, original.Copy()
}
