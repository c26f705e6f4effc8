package ir

import "testing"

func TestCanonicalCode(t *testing.T) {
	cases := []struct {
		name string
		typ  *IRType
		want PrimitiveType
		ok   bool
	}{
		{"i1", IntType(1), U1, true},
		{"i8", IntType(8), U1, true},
		{"i16", IntType(16), U2, true},
		{"i32", IntType(32), U4, true},
		{"i64", IntType(64), U8, true},
		{"f32", FloatType(32), F32, true},
		{"f64", FloatType(64), F64, true},
		{"f80", FloatType(80), F80, true},
		{"ptr", PointerTo(IntType(8)), Ptr, true},
		{"i128 unsupported", IntType(128), 0, false},
		{"opaque struct unsupported", OpaqueStruct("tm_opaque"), 0, false},
		{"void unsupported", VoidType(), 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := CanonicalCode(c.typ)
			if ok != c.ok {
				t.Fatalf("CanonicalCode(%s): ok = %v, want %v", c.typ, ok, c.ok)
			}
			if ok && got != c.want {
				t.Fatalf("CanonicalCode(%s) = %s, want %s", c.typ, got, c.want)
			}
		})
	}
}

func TestIRTypeEqual(t *testing.T) {
	if !PointerTo(IntType(32)).Equal(PointerTo(IntType(32))) {
		t.Fatal("structurally identical pointer types should be equal")
	}
	if PointerTo(IntType(32)).Equal(PointerTo(IntType(64))) {
		t.Fatal("pointers to different-width ints should not be equal")
	}
	if OpaqueStruct("a").Equal(OpaqueStruct("b")) {
		t.Fatal("differently named opaque structs should not be equal")
	}
}
