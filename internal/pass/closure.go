package pass

import "github.com/mfs409/llvm-transmem/ir"

// discoverReachable drains the worklist built by the four discovery phases,
// computing the full set of functions reachable from any root by direct
// calls. Every function popped off the worklist is assigned a
// FunctionFeatures entry keyed by its origin identity: for a plain function
// that is itself; for a rename-substitute, it is the externally-referenced
// symbol the renamed definition replaces, so that later call-site rewriting
// can look up "calls to the original name" and find the programmer-supplied
// body directly, without an intermediate clone.
func discoverReachable(s *State) {
	for len(s.worklist) > 0 {
		fn := s.worklist[0]
		s.worklist = s.worklist[1:]

		if s.seen[fn] {
			continue
		}
		s.seen[fn] = true

		origin := fn
		var clone *ir.Function
		if s.pureSet[fn] {
			clone = fn
		}
		if orig, isRename := s.renameMap[fn]; isRename {
			origin = orig
			clone = fn
		}

		ff, exists := s.functionMap[origin]
		if !exists {
			ff = &FunctionFeatures{Origin: origin, Clone: clone, IsLambda: s.lambdas[fn]}
			s.functionMap[origin] = ff
		}

		for _, callee := range calleesOf(fn) {
			if callee != nil && !callee.IsDeclaration() && !s.seen[callee] {
				s.push(callee)
			}
		}
	}
}

// calleesOf returns every statically-known callee of fn's direct call and
// invoke sites, in layout order with duplicates preserved (the worklist's
// own seen-set dedupes re-visits cheaply).
func calleesOf(fn *ir.Function) []*ir.Function {
	var out []*ir.Function
	for _, in := range ir.AllInstructions(fn) {
		if in.IsDirectCall() {
			out = append(out, in.Callee)
		}
	}
	return out
}
