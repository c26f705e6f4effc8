package pass

import "github.com/mfs409/llvm-transmem/ir"

// FunctionFeatures is the packet of information the pass associates with
// every function reachable from an instrumentation root. For pure
// functions, Clone == Origin (no cloning occurs). For rename-substitutes,
// Clone is the programmer-supplied, renamed definition and Origin is the
// externally-referenced symbol whose calls should be redirected to it.
// Otherwise Clone is the freshly synthesized duplicate, filled in once
// cloning runs.
type FunctionFeatures struct {
	Origin   *ir.Function
	Clone    *ir.Function
	IsLambda bool
}

// ScopeRegion is a matched RAII scope-begin/scope-end pair plus the set of
// basic blocks whose bodies lie strictly between them on every path.
type ScopeRegion struct {
	Begin  *ir.Instr
	End    *ir.Instr
	Blocks map[*ir.BasicBlock]bool

	// order preserves block-discovery order for deterministic iteration in
	// tests and diffs; Blocks remains the set used for membership tests.
	order []*ir.BasicBlock
}

func (r *ScopeRegion) addBlock(b *ir.BasicBlock) {
	if r.Blocks == nil {
		r.Blocks = map[*ir.BasicBlock]bool{}
	}
	if !r.Blocks[b] {
		r.Blocks[b] = true
		r.order = append(r.order, b)
	}
}

// OrderedBlocks returns this region's blocks in the order they were first
// assigned.
func (r *ScopeRegion) OrderedBlocks() []*ir.BasicBlock {
	return r.order
}

// State carries every piece of mutable bookkeeping the pass accumulates
// across its phases: the discovery sets from §3 of the design, plus the
// materialized runtime signatures and the effective configuration. A State
// is single-use: construct one with NewState, call Run once, then discard
// it.
type State struct {
	Config Config
	Sigs   Signatures
	Module *ir.Module
	Trace  func(format string, args ...any) // nil-safe tracer for --log output

	worklist  []*ir.Function
	seen      map[*ir.Function]bool
	functionMap map[*ir.Function]*FunctionFeatures // keyed by origin
	pureSet   map[*ir.Function]bool
	renameMap map[*ir.Function]*ir.Function // renamed function -> original symbol it substitutes
	lambdas   map[*ir.Function]bool
	ctorSites []*ir.Instr

	scopeRegions []*ScopeRegion
}

func NewState(m *ir.Module, cfg Config) *State {
	return &State{
		Config:      cfg,
		Module:      m,
		seen:        map[*ir.Function]bool{},
		functionMap: map[*ir.Function]*FunctionFeatures{},
		pureSet:     map[*ir.Function]bool{},
		renameMap:   map[*ir.Function]*ir.Function{},
		lambdas:     map[*ir.Function]bool{},
	}
}

func (s *State) trace(format string, args ...any) {
	if s.Trace != nil {
		s.Trace(format, args...)
	}
}

// CloneOf returns the clone registered for the given origin function, or nil
// if origin was never discovered.
func (s *State) CloneOf(origin *ir.Function) *ir.Function {
	if ff, ok := s.functionMap[origin]; ok {
		return ff.Clone
	}
	return nil
}

// IsPure reports whether fn must never be cloned or rewritten.
func (s *State) IsPure(fn *ir.Function) bool { return s.pureSet[fn] }

// isRenameSubstitute reports whether fn is a programmer-supplied
// tm_rename_<name> definition standing in for another symbol. Its body must
// never be touched by body instrumentation: it is already the instrumented
// (or intentionally hand-verified) implementation.
func (s *State) isRenameSubstitute(fn *ir.Function) bool {
	_, ok := s.renameMap[fn]
	return ok
}

// Functions returns every (origin, features) pair discovered by the
// reachability closure, in a stable order (sorted by origin name) so that
// downstream phases and tests are deterministic despite map iteration.
func (s *State) Functions() []*FunctionFeatures {
	out := make([]*FunctionFeatures, 0, len(s.functionMap))
	for _, ff := range s.functionMap {
		out = append(out, ff)
	}
	sortFeatures(out)
	return out
}

func sortFeatures(out []*FunctionFeatures) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Origin.Name > out[j].Origin.Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
}
