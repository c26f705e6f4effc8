package ir

// Signature describes a function's parameter and result types. It is kept
// deliberately small: the pass never needs varargs-aware overload
// resolution, only enough shape information to clone a function and to
// build bitcast-free call sequences to it.
type Signature struct {
	Params   []*IRType
	Result   *IRType
	Variadic bool
}

func (s *Signature) Equal(o *Signature) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.Params) != len(o.Params) || s.Variadic != o.Variadic {
		return false
	}
	if !s.Result.Equal(o.Result) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// Function is a definition (has Blocks) or a declaration (Blocks is empty).
// Attrs holds the source-attribute vocabulary from annotation lifting
// (tm_function, tm_pure); RenameOf is set instead of an Attrs
// entry because it carries a payload (the substituted symbol name).
type Function struct {
	Name     string
	Sig      *Signature
	Args     []*Argument
	Blocks   []*BasicBlock
	Attrs    map[string]bool
	RenameOf string // set iff this function carries tm_rename_<name>
	CallConv string
	Linkage  string // "external", "internal", ...

	module *Module
}

func NewFunction(name string, sig *Signature) *Function {
	f := &Function{Name: name, Sig: sig, Attrs: map[string]bool{}}
	for i, t := range sig.Params {
		f.Args = append(f.Args, &Argument{Name: argName(i), Typ: t, Parent: f})
	}
	return f
}

func argName(i int) string {
	return "a" + intString(int64(i))
}

func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

func (f *Function) HasAttr(name string) bool { return f.Attrs[name] }
func (f *Function) AddAttr(name string)      { f.Attrs[name] = true }

// AppendBlock adds a new, empty basic block to the end of the function and
// returns it.
func (f *Function) AppendBlock(name string) *BasicBlock {
	b := &BasicBlock{Name: name, Parent: f, idx: len(f.Blocks)}
	f.Blocks = append(f.Blocks, b)
	return b
}

// InsertBlockBefore inserts a new, empty basic block immediately before
// `before` and renumbers subsequent blocks. Used by boundary instrumentation
// for the lambda API, which prepends guard blocks ahead of the existing
// entry block.
func (f *Function) InsertBlockBefore(before *BasicBlock, name string) *BasicBlock {
	b := &BasicBlock{Name: name, Parent: f}
	idx := before.idx
	f.Blocks = append(f.Blocks, nil)
	copy(f.Blocks[idx+1:], f.Blocks[idx:])
	f.Blocks[idx] = b
	f.renumber()
	return b
}

func (f *Function) renumber() {
	for i, b := range f.Blocks {
		b.idx = i
	}
}

// Clone produces a structurally identical, independent duplicate of f, with
// a fresh name and no references to f's internal slices shared. Operand
// references that pointed at f's own instructions/blocks/arguments are
// rewired to the corresponding element of the clone (value-to-value
// mapping), mirroring the host compiler's CloneFunction utility. Argument
// count, order and types are preserved exactly: the pass never needs to add
// parameters to a clone.
func (f *Function) Clone(newName string) *Function {
	nf := &Function{
		Name:     newName,
		Sig:      f.Sig,
		CallConv: f.CallConv,
		Linkage:  f.Linkage,
		Attrs:    map[string]bool{},
	}
	argMap := map[*Argument]*Argument{}
	for i, a := range f.Args {
		na := &Argument{Name: a.Name, Typ: a.Typ, Parent: nf}
		nf.Args = append(nf.Args, na)
		argMap[f.Args[i]] = na
	}

	blockMap := map[*BasicBlock]*BasicBlock{}
	instrMap := map[*Instr]*Instr{}
	for _, b := range f.Blocks {
		nb := nf.AppendBlock(b.Name)
		blockMap[b] = nb
	}
	for _, b := range f.Blocks {
		nb := blockMap[b]
		for _, in := range b.Instrs {
			ni := in.shallowCopy()
			ni.block = nb
			nb.Instrs = append(nb.Instrs, ni)
			instrMap[in] = ni
		}
	}
	remap := func(v Value) Value {
		switch vv := v.(type) {
		case *Argument:
			if m, ok := argMap[vv]; ok {
				return m
			}
		case *Instr:
			if m, ok := instrMap[vv]; ok {
				return m
			}
		}
		return v
	}
	for _, b := range f.Blocks {
		nb := blockMap[b]
		for i, in := range b.Instrs {
			ni := nb.Instrs[i]
			ni.Addr = remapOpt(remap, in.Addr)
			ni.StoredValue = remapOpt(remap, in.StoredValue)
			ni.CalleeValue = remapOpt(remap, in.CalleeValue)
			ni.CompareValue = remapOpt(remap, in.CompareValue)
			ni.NewValue = remapOpt(remap, in.NewValue)
			ni.Cond = remapOpt(remap, in.Cond)
			ni.Operand = remapOpt(remap, in.Operand)
			for j, a := range in.Args {
				ni.Args[j] = remap(a)
			}
			if in.NormalDest != nil {
				ni.NormalDest = blockMap[in.NormalDest]
			}
			if in.UnwindDest != nil {
				ni.UnwindDest = blockMap[in.UnwindDest]
			}
			if in.Target != nil {
				ni.Target = blockMap[in.Target]
			}
			if in.ThenBlock != nil {
				ni.ThenBlock = blockMap[in.ThenBlock]
			}
			if in.ElseBlock != nil {
				ni.ElseBlock = blockMap[in.ElseBlock]
			}
			for k, inc := range in.Incoming {
				ni.Incoming[k].Block = blockMap[inc.Block]
				ni.Incoming[k].Value = remap(inc.Value)
			}
		}
	}
	return nf
}

func remapOpt(remap func(Value) Value, v Value) Value {
	if v == nil {
		return nil
	}
	return remap(v)
}

// BasicBlock is a linear run of instructions. Successor/terminator
// relationships are derived on demand from the last instruction rather than
// tracked redundantly, matching how callers in this package use them (see
// Successors in cfg.go).
type BasicBlock struct {
	Name   string
	Parent *Function
	Instrs []*Instr

	idx int
}

// Split separates b's instructions at `at` (an index into b.Instrs) into two
// blocks: b retains [0, at) and gains an unconditional branch to the new
// block, which receives [at, len). It is the Go-IR analogue of LLVM's
// splitBasicBlock and is used both by scope-region normalization (to give
// every scope-begin/scope-end its own block) and by the diamond rewrite (to
// separate an instrumented instruction, and what follows it, from the head
// of its block).
func (b *BasicBlock) Split(at int) *BasicBlock {
	f := b.Parent
	tail := &BasicBlock{Name: b.Name + ".split", Parent: f}
	tail.Instrs = append(tail.Instrs, b.Instrs[at:]...)
	for _, in := range tail.Instrs {
		in.block = tail
	}
	b.Instrs = b.Instrs[:at:at]

	insertAt := b.idx + 1
	f.Blocks = append(f.Blocks, nil)
	copy(f.Blocks[insertAt+1:], f.Blocks[insertAt:])
	f.Blocks[insertAt] = tail
	f.renumber()

	b.Instrs = append(b.Instrs, &Instr{Kind: KindBr, block: b, Target: tail})
	return tail
}

// IndexOf returns the index of `in` within b.Instrs, or -1 if absent. It is
// a small helper used by callers that identify a split point by instruction
// identity rather than index.
func (b *BasicBlock) IndexOf(in *Instr) int {
	for i, ii := range b.Instrs {
		if ii == in {
			return i
		}
	}
	return -1
}

// IsLast reports whether in is the final instruction of b, whatever its kind.
func (b *BasicBlock) IsLast(in *Instr) bool {
	return len(b.Instrs) > 0 && b.Instrs[len(b.Instrs)-1] == in
}
