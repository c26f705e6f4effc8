package ir

// InstrKind is the tag of the instruction tagged-variant. Per-kind behavior
// throughout the pass is dispatched with a switch on Kind rather than
// through virtual method overrides; kinds a handler does not list fall to
// that switch's default case.
type InstrKind int

const (
	KindLoad InstrKind = iota
	KindStore
	KindCall
	KindInvoke
	KindAtomicRMW
	KindAtomicCAS
	KindFence
	KindAlloca
	KindGEP
	KindCast
	KindOther // arithmetic, compares, select, phi's siblings, vector/aggregate ops
	KindPhi
	KindLandingPad
	KindBr
	KindCondBr
	KindRet
	KindUnreachable
	KindSwitch
)

func (k InstrKind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindCall:
		return "call"
	case KindInvoke:
		return "invoke"
	case KindAtomicRMW:
		return "atomicrmw"
	case KindAtomicCAS:
		return "cmpxchg"
	case KindFence:
		return "fence"
	case KindAlloca:
		return "alloca"
	case KindGEP:
		return "getelementptr"
	case KindCast:
		return "cast"
	case KindOther:
		return "other"
	case KindPhi:
		return "phi"
	case KindLandingPad:
		return "landingpad"
	case KindBr:
		return "br"
	case KindCondBr:
		return "condbr"
	case KindRet:
		return "ret"
	case KindUnreachable:
		return "unreachable"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Incoming is one (value, predecessor) pair of a phi instruction.
type Incoming struct {
	Block *BasicBlock
	Value Value
}

// Instr is the single concrete instruction type for the whole IR. Only the
// fields relevant to Kind are meaningful; this mirrors the "tagged variant
// over virtual dispatch" shape used throughout the pass (see the scope
// region and body-instrumentation passes) instead of a class hierarchy.
type Instr struct {
	Kind InstrKind
	Name string  // result slot name, "" for void results
	Ret  *IRType // result type; VoidType() if the instruction has no result

	block *BasicBlock

	// Load/Store
	Addr        Value
	StoredValue Value
	Volatile    bool
	Atomic      bool

	// AtomicCAS
	CompareValue Value
	NewValue     Value

	// Call/Invoke
	Callee      *Function // non-nil for a direct call/invoke
	CalleeValue Value     // set instead of Callee for an indirect call
	Args        []Value
	InlineAsm   bool
	IntrinsicOp string // non-"" if this call represents a recognized intrinsic
	NormalDest  *BasicBlock
	UnwindDest  *BasicBlock

	// Br/CondBr/Switch
	Target    *BasicBlock
	Cond      Value
	ThenBlock *BasicBlock
	ElseBlock *BasicBlock

	// Phi
	Incoming []Incoming

	// Cast
	Operand Value
	ToType  *IRType

	// Source location, copied trivially where available; never synthesized.
	Line int
	File string

	// Comment is a human-meaningful opcode label for the KindOther/KindGEP/
	// KindAlloca bucket (e.g. "add", "icmp", "extractvalue"); it plays no role
	// in instrumentation decisions, only in printing and diffing.
	Comment string
}

func (i *Instr) Block() *BasicBlock { return i.block }

func (i *Instr) Type() *IRType {
	if i.Ret == nil {
		return VoidType()
	}
	return i.Ret
}

func (i *Instr) String() string {
	if i.Name != "" {
		return "%" + i.Name
	}
	return "%" + i.Kind.String()
}

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instr) IsTerminator() bool {
	switch i.Kind {
	case KindBr, KindCondBr, KindRet, KindUnreachable, KindSwitch, KindInvoke:
		return true
	default:
		return false
	}
}

// Successors returns the basic blocks this instruction can transfer control
// to. Only meaningful for the last instruction of a block.
func (i *Instr) Successors() []*BasicBlock {
	switch i.Kind {
	case KindBr:
		return []*BasicBlock{i.Target}
	case KindCondBr:
		return []*BasicBlock{i.ThenBlock, i.ElseBlock}
	case KindInvoke:
		return []*BasicBlock{i.NormalDest, i.UnwindDest}
	default:
		return nil
	}
}

// IsDirectCall reports whether this Call/Invoke has a statically-known
// callee (as opposed to an indirect call through a function pointer).
func (i *Instr) IsDirectCall() bool {
	return (i.Kind == KindCall || i.Kind == KindInvoke) && i.Callee != nil
}

// IsIndirectCall reports whether this Call/Invoke targets a computed
// function pointer rather than a named function.
func (i *Instr) IsIndirectCall() bool {
	return (i.Kind == KindCall || i.Kind == KindInvoke) && i.Callee == nil && i.CalleeValue != nil
}

func (i *Instr) shallowCopy() *Instr {
	cp := *i
	cp.Args = append([]Value(nil), i.Args...)
	cp.Incoming = append([]Incoming(nil), i.Incoming...)
	return &cp
}

// Copy returns an unparented duplicate of i with the same operands: same
// instruction, not yet attached to any block. Callers place it with
// AppendInstr, InsertBefore, or PrependInstr. Used by the diamond rewrite to
// produce the instrumented and uninstrumented halves of a single original
// instruction without mutating it.
func (i *Instr) Copy() *Instr {
	cp := i.shallowCopy()
	cp.block = nil
	return cp
}

func NewLoad(name string, addr Value, resultType *IRType) *Instr {
	return &Instr{Kind: KindLoad, Name: name, Ret: resultType, Addr: addr}
}

func NewStore(addr, value Value) *Instr {
	return &Instr{Kind: KindStore, Ret: VoidType(), Addr: addr, StoredValue: value}
}

func NewCall(name string, callee *Function, args []Value, resultType *IRType) *Instr {
	return &Instr{Kind: KindCall, Name: name, Ret: resultType, Callee: callee, Args: args}
}

func NewIndirectCall(name string, calleeValue Value, args []Value, resultType *IRType) *Instr {
	return &Instr{Kind: KindCall, Name: name, Ret: resultType, CalleeValue: calleeValue, Args: args}
}
