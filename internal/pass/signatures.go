package pass

import "github.com/mfs409/llvm-transmem/ir"

// Signatures materializes, once per module, references to every external
// runtime symbol the pass may emit a call to, plus the small set of IR
// types used repeatedly while building replacement instructions. It is
// built once at the start of a run and threaded through every later phase,
// mirroring the original plugin's `signatures` helper class.
type Signatures struct {
	loads  [int(ir.Ptr) + 1]*ir.Function
	stores [int(ir.Ptr) + 1]*ir.Function

	malloc        *ir.Function
	alignedAlloc  *ir.Function
	free          *ir.Function
	memcpy        *ir.Function
	memset        *ir.Function
	memmove       *ir.Function
	translateCall *ir.Function
	unsafe        *ir.Function
	executeCInternal *ir.Function
	registerClone *ir.Function

	opaquePtr *ir.IRType
}

// canonicalIRType maps a canonical code back to the concrete IRType used for
// the typed helper's value parameter/result.
func canonicalIRType(code ir.PrimitiveType) *ir.IRType {
	switch code {
	case ir.U1:
		return ir.IntType(1)
	case ir.U2:
		return ir.IntType(16)
	case ir.U4:
		return ir.IntType(32)
	case ir.U8:
		return ir.IntType(64)
	case ir.F32:
		return ir.FloatType(32)
	case ir.F64:
		return ir.FloatType(64)
	case ir.F80:
		return ir.FloatType(80)
	case ir.Ptr:
		return ir.PointerTo(ir.IntType(8))
	default:
		panic("pass: unreachable canonical code")
	}
}

// declare registers a declaration-only function (no body) in m, or returns
// the existing one if a symbol by that name is already present (the host
// module may already have a prototype, e.g. for malloc/free from a libc
// header).
func declare(m *ir.Module, name string, sig *ir.Signature) *ir.Function {
	if existing, ok := m.Function(name); ok {
		return existing
	}
	f := ir.NewFunction(name, sig)
	f.Linkage = "external"
	m.AddFunction(f)
	return f
}

// Init materializes every signature this pass might reference into m. It is
// always run, even on modules that turn out not to need every helper: the
// cost of a handful of unused declarations is far lower than the complexity
// of computing which subset is needed ahead of discovery.
func (s *Signatures) Init(m *ir.Module) {
	s.opaquePtr = ir.OpaquePtr()
	voidT := ir.VoidType()

	for code := ir.U1; code <= ir.Ptr; code++ {
		t := canonicalIRType(code)
		loadName := "tm_load_" + code.String()
		storeName := "tm_store_" + code.String()
		s.loads[code] = declare(m, loadName, &ir.Signature{
			Params: []*ir.IRType{ir.PointerTo(t)},
			Result: t,
		})
		s.stores[code] = declare(m, storeName, &ir.Signature{
			Params: []*ir.IRType{t, ir.PointerTo(t)},
			Result: voidT,
		})
	}

	s.malloc = declare(m, MemoryHelpers["malloc"], &ir.Signature{
		Params: []*ir.IRType{ir.IntType(64)},
		Result: s.opaquePtr,
	})
	s.alignedAlloc = declare(m, MemoryHelpers["aligned_alloc"], &ir.Signature{
		Params: []*ir.IRType{ir.IntType(64), ir.IntType(64)},
		Result: s.opaquePtr,
	})
	s.free = declare(m, MemoryHelpers["free"], &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr},
		Result: voidT,
	})
	s.memcpy = declare(m, MemoryHelpers["memcpy"], &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr, s.opaquePtr, ir.IntType(64), ir.IntType(32)},
		Result: s.opaquePtr,
	})
	s.memset = declare(m, MemoryHelpers["memset"], &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr, ir.IntType(32), ir.IntType(64), ir.IntType(32)},
		Result: s.opaquePtr,
	})
	s.memmove = declare(m, MemoryHelpers["memmove"], &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr, s.opaquePtr, ir.IntType(64)},
		Result: s.opaquePtr,
	})
	s.translateCall = declare(m, SymTranslateCall, &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr},
		Result: s.opaquePtr,
	})
	s.unsafe = declare(m, SymUnsafe, &ir.Signature{Result: voidT})
	s.executeCInternal = declare(m, SymExecuteCInternal, &ir.Signature{
		Params:   []*ir.IRType{ir.IntType(32), s.opaquePtr, s.opaquePtr, s.opaquePtr},
		Result:   voidT,
		Variadic: true,
	})
	s.registerClone = declare(m, SymRegisterClone, &ir.Signature{
		Params: []*ir.IRType{s.opaquePtr, s.opaquePtr},
		Result: voidT,
	})
}

// Load returns the tm_load_<T> function for t's canonical code, or nil if t
// has no canonical representation.
func (s *Signatures) Load(t *ir.IRType) *ir.Function {
	code, ok := ir.CanonicalCode(t)
	if !ok {
		return nil
	}
	return s.loads[code]
}

// Store returns the tm_store_<T> function for t's canonical code, or nil if
// t has no canonical representation.
func (s *Signatures) Store(t *ir.IRType) *ir.Function {
	code, ok := ir.CanonicalCode(t)
	if !ok {
		return nil
	}
	return s.stores[code]
}

func (s *Signatures) Malloc() *ir.Function           { return s.malloc }
func (s *Signatures) AlignedAlloc() *ir.Function     { return s.alignedAlloc }
func (s *Signatures) Free() *ir.Function             { return s.free }
func (s *Signatures) Memcpy() *ir.Function           { return s.memcpy }
func (s *Signatures) Memset() *ir.Function           { return s.memset }
func (s *Signatures) Memmove() *ir.Function          { return s.memmove }
func (s *Signatures) TranslateCall() *ir.Function    { return s.translateCall }
func (s *Signatures) Unsafe() *ir.Function           { return s.unsafe }
func (s *Signatures) ExecuteCInternal() *ir.Function { return s.executeCInternal }
func (s *Signatures) RegisterClone() *ir.Function    { return s.registerClone }
func (s *Signatures) OpaquePtr() *ir.IRType          { return s.opaquePtr }
