// Package pass implements the transactional-memory instrumentation pass
// described by the design document: discovery of instrumentable functions,
// cloning, in-body instrumentation, boundary transformation for the C,
// lambda, and RAII-scope APIs, a dominated-duplicate peephole, and emission
// of a static initializer that registers the function-to-clone table with
// the runtime.
package pass

// Source-attribute vocabulary (programmer-facing, recognized by annotation
// lifting).
const (
	AttrFunction = "tm_function"
	AttrPure     = "tm_pure"
	AttrCtor     = "tm_ctor"
	RenamePrefix = "tm_rename_"
)

// ClonePrefix is applied textually to the already-mangled name of the
// origin function; see the design note on name mangling. tm_<mangled-name>,
// never a re-mangled <mangled-tm-name>.
const ClonePrefix = "tm_"

// Runtime entry points the pass emits calls to or recognizes calls against.
const (
	SymExecute         = "tm_execute"           // C++ lambda API region launch
	SymExecuteC        = "tm_execute_c"         // C API region launch
	SymExecuteCInternal = "tm_execute_c_internal" // 4-arg internal form of the above
	SymCtorMarker      = "tm_ctor"              // constructor-discovery marker, deleted after use
	SymCommitHandler   = "tm_commit_handler"    // left untouched wherever called
	SymUnsafe          = "tm_unsafe"            // serialization marker
	SymTranslateCall   = "tm_translate_call"    // runtime clone-table lookup
	SymRegisterClone   = "tm_register_clone"    // clone-table registration
	SymStaticInit      = "tm_initialization"    // name of the emitted constructor
	SymOpaqueStruct    = "tm_opaque"            // sentinel type used in lambda signatures
	SymFunctionBaseDtor = "_ZNSt14_Function_baseD2Ev" // prevents nested lambdas from serializing

	SymScopeBegin = "tm_scope_begin" // RAII ctor
	SymScopeEnd   = "tm_scope_end"   // RAII dtor
)

// Allocation and bulk-memory helpers: plain-C name -> TM-instrumented name.
var MemoryHelpers = map[string]string{
	"malloc":         "tm_malloc",
	"aligned_alloc":  "tm_aligned_alloc",
	"free":           "tm_free",
	"memcpy":         "tm_memcpy",
	"memset":         "tm_memset",
	"memmove":        "tm_memmove",
}

// Exception-runtime helpers: calling any of these from within a clone forces
// serialization, even though the call itself is left in place (the current
// policy is conservative: a transaction that expects to catch its own
// exception before commit still serializes).
var ExceptionHelpers = map[string]bool{
	"__cxa_allocate_exception": true,
	"__cxa_free_exception":     true,
	"__cxa_throw":              true,
	"__cxa_begin_catch":        true,
	"__cxa_end_catch":          true,
	"__cxa_rethrow":            true,
}

// serializationOnlyIntrinsics names intrinsics whose semantics cannot be
// expressed through the typed load/store helpers and therefore force
// serialization when they appear inside a clone: cache control, trampoline
// setup, traps, element-wise atomic memory intrinsics, relative loads, and
// masked load/store/gather/scatter.
var serializationOnlyIntrinsics = []string{
	"llvm.clear_cache",
	"llvm.init.trampoline",
	"llvm.adjust.trampoline",
	"llvm.trap",
	"llvm.debugtrap",
	"llvm.loadrelative",
	"llvm.masked.load",
	"llvm.masked.store",
	"llvm.masked.gather",
	"llvm.masked.scatter",
	"llvm.memcpy.element.unordered.atomic",
	"llvm.memmove.element.unordered.atomic",
	"llvm.memset.element.unordered.atomic",
}

func isKnownIntrinsic(name string) bool {
	return len(name) > 5 && name[:5] == "llvm."
}

// isSerializationOnlyIntrinsic matches the prefix families above; intrinsics
// with versioned/overload suffixes (e.g. "llvm.masked.load.v4f32.p0") are
// still recognized because the comparison is prefix-based.
func isSerializationOnlyIntrinsic(name string) bool {
	for _, prefix := range serializationOnlyIntrinsics {
		if hasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
