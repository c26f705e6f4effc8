// Package ir defines the minimal compiler-IR data model that the tmpass
// transformation operates on: modules containing functions, functions
// containing basic blocks, and basic blocks containing a linear sequence of
// typed instructions. It stands in for the host compiler framework's own IR
// (an LLVM module, in the original tool this package descends from); tmpass
// itself never parses source code or emits object files, it only rewrites
// this representation in place.
package ir

import "fmt"

// PrimitiveType is one of the eight canonical type codes that select a typed
// runtime load/store helper. The numbering matches the runtime's own ABI and
// must not be reordered.
type PrimitiveType int

const (
	U1 PrimitiveType = iota
	U2
	U4
	U8
	F32
	F64
	F80
	Ptr
	primitiveCount
)

func (p PrimitiveType) String() string {
	switch p {
	case U1:
		return "u1"
	case U2:
		return "u2"
	case U4:
		return "u4"
	case U8:
		return "u8"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case F80:
		return "f80"
	case Ptr:
		return "ptr"
	default:
		return fmt.Sprintf("primitive(%d)", int(p))
	}
}

// TypeKind classifies an IRType for the purposes of canonical-code
// resolution and printing. It is not a full type system: aggregates,
// vectors, and functions all fall into KindOtherType, which never resolves to a
// canonical code and therefore always forces serialization when accessed.
type TypeKind int

const (
	KindInt TypeKind = iota
	KindFloat
	KindPointer
	KindVoid
	KindOtherType
)

// IRType is a minimal, structurally-compared type descriptor. Two IRTypes
// are the same type iff they are Equal; the pass never relies on pointer
// identity of types, only of functions, blocks, and instructions.
type IRType struct {
	Kind TypeKind
	Bits int     // meaningful for KindInt/KindFloat
	Elem *IRType // meaningful for KindPointer
	Name string  // meaningful for KindOtherType (e.g. an opaque struct name)
}

func IntType(bits int) *IRType   { return &IRType{Kind: KindInt, Bits: bits} }
func FloatType(bits int) *IRType { return &IRType{Kind: KindFloat, Bits: bits} }
func PointerTo(elem *IRType) *IRType {
	return &IRType{Kind: KindPointer, Elem: elem}
}
func VoidType() *IRType            { return &IRType{Kind: KindVoid} }
func OpaqueStruct(name string) *IRType { return &IRType{Kind: KindOtherType, Name: name} }

// OpaquePtr is the canonical i8*-equivalent used for bitcasts ahead of
// translate_call, register_clone, and friends.
func OpaquePtr() *IRType { return PointerTo(IntType(8)) }

func (t *IRType) Equal(o *IRType) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat:
		return t.Bits == o.Bits
	case KindPointer:
		return t.Elem.Equal(o.Elem)
	case KindOtherType:
		return t.Name == o.Name
	default:
		return true
	}
}

func (t *IRType) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindInt:
		return fmt.Sprintf("i%d", t.Bits)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case KindPointer:
		return t.Elem.String() + "*"
	case KindVoid:
		return "void"
	default:
		if t.Name != "" {
			return "%" + t.Name
		}
		return "other"
	}
}

// CanonicalCode resolves an IRType to one of the eight canonical type codes
// used to pick a load_<T>/store_<T> helper. The second return value is false
// for any type the runtime has no typed helper for (aggregates, vectors,
// 128-bit non-float types, and so on); callers must fall back to a
// serialization marker in that case.
func CanonicalCode(t *IRType) (PrimitiveType, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case KindInt:
		switch t.Bits {
		case 1, 8:
			return U1, true
		case 16:
			return U2, true
		case 32:
			return U4, true
		case 64:
			return U8, true
		default:
			return 0, false
		}
	case KindFloat:
		switch t.Bits {
		case 32:
			return F32, true
		case 64:
			return F64, true
		case 80, 128:
			return F80, true
		default:
			return 0, false
		}
	case KindPointer:
		return Ptr, true
	default:
		return 0, false
	}
}
