package ir

// Terminator returns the last instruction of b, or nil for an empty block.
func (b *BasicBlock) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Successors returns the blocks that control can transfer to from the end of
// b, skipping nil destinations (e.g. an invoke whose unwind edge has not been
// wired up yet).
func (b *BasicBlock) Successors() []*BasicBlock {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	out := term.Successors()
	res := out[:0:0]
	for _, s := range out {
		if s != nil {
			res = append(res, s)
		}
	}
	return res
}

// AllInstructions visits every instruction of every block of fn, in layout
// order.
func AllInstructions(fn *Function) []*Instr {
	var out []*Instr
	for _, b := range fn.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

// CallSitesTo returns every Call/Invoke instruction across fn's body whose
// direct callee is named `name`.
func CallSitesTo(fn *Function, name string) []*Instr {
	var out []*Instr
	for _, in := range AllInstructions(fn) {
		if in.IsDirectCall() && in.Callee.Name == name {
			out = append(out, in)
		}
	}
	return out
}

// ReplaceInstr substitutes newInstr for oldInstr in place within its parent
// block, preserving position. It is the Go-IR analogue of
// ReplaceInstWithInst.
func ReplaceInstr(oldInstr, newInstr *Instr) {
	b := oldInstr.block
	idx := b.IndexOf(oldInstr)
	if idx < 0 {
		panic("ir: ReplaceInstr: instruction not found in its own block")
	}
	newInstr.block = b
	b.Instrs[idx] = newInstr
	ReplaceAllUses(b.Parent, oldInstr, newInstr)
}

// AppendInstr appends newInstr to the end of b, wiring its back-pointer.
// Used by callers outside this package that build a block's contents from
// scratch (boundary instrumentation's guard blocks, the diamond rewrite's
// predicate and instrumented/uninstrumented halves) rather than starting
// from an existing instruction to insert relative to.
func AppendInstr(b *BasicBlock, newInstr *Instr) {
	newInstr.block = b
	b.Instrs = append(b.Instrs, newInstr)
}

// PrependInstr inserts newInstr at the very start of b, wiring its
// back-pointer. Used by the diamond rewrite to give a merge block its phi
// node, which must precede every other instruction in the block.
func PrependInstr(b *BasicBlock, newInstr *Instr) {
	newInstr.block = b
	b.Instrs = append([]*Instr{newInstr}, b.Instrs...)
}

// InsertBefore inserts newInstr immediately before target in target's block.
func InsertBefore(target, newInstr *Instr) {
	b := target.block
	idx := b.IndexOf(target)
	if idx < 0 {
		panic("ir: InsertBefore: instruction not found in its own block")
	}
	newInstr.block = b
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[idx+1:], b.Instrs[idx:])
	b.Instrs[idx] = newInstr
}

// InsertAfter inserts newInstr immediately after anchor in anchor's block.
func InsertAfter(anchor, newInstr *Instr) {
	b := anchor.block
	idx := b.IndexOf(anchor)
	if idx < 0 {
		panic("ir: InsertAfter: instruction not found in its own block")
	}
	newInstr.block = b
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[idx+2:], b.Instrs[idx+1:])
	b.Instrs[idx+1] = newInstr
}

// Erase removes in from its block.
func Erase(in *Instr) {
	b := in.block
	idx := b.IndexOf(in)
	if idx < 0 {
		return
	}
	b.Instrs = append(b.Instrs[:idx], b.Instrs[idx+1:]...)
}

// ReplaceAllUses rewrites every operand of every instruction in fn that
// refers to old so that it refers to replacement instead. Used after a
// rewrite deletes an instruction whose result may still be referenced
// elsewhere in the function (the diamond rewrite's merge phi standing in
// for the instruction it replaced).
func ReplaceAllUses(fn *Function, old, replacement Value) {
	swap := func(v Value) Value {
		if v == old {
			return replacement
		}
		return v
	}
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			in.Addr = swapOpt(swap, in.Addr)
			in.StoredValue = swapOpt(swap, in.StoredValue)
			in.CompareValue = swapOpt(swap, in.CompareValue)
			in.NewValue = swapOpt(swap, in.NewValue)
			in.CalleeValue = swapOpt(swap, in.CalleeValue)
			in.Cond = swapOpt(swap, in.Cond)
			in.Operand = swapOpt(swap, in.Operand)
			for i, a := range in.Args {
				in.Args[i] = swap(a)
			}
			for i, inc := range in.Incoming {
				in.Incoming[i].Value = swap(inc.Value)
			}
		}
	}
}

func swapOpt(swap func(Value) Value, v Value) Value {
	if v == nil {
		return nil
	}
	return swap(v)
}

// IndexInBlock returns the position of in within its own block.
func IndexInBlock(in *Instr) int {
	return in.block.IndexOf(in)
}
