package pass

import "github.com/mfs409/llvm-transmem/ir"

// instrumentCAPIBoundary rewrites every call/invoke of the C region-launch
// symbol into its 4-argument internal form: the caller's original arguments
// forwarded unchanged (flags, the original function pointer kept so the
// runtime can still call it directly on the non-transactional retry path,
// and whatever else the launch site passed), followed by the clone's
// function pointer appended last. Invoke normal and unwind destinations are
// preserved.
func instrumentCAPIBoundary(s *State) {
	for _, fn := range s.Module.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		for _, in := range ir.CallSitesTo(fn, SymExecuteC) {
			rewriteCAPILaunch(s, in)
		}
	}
}

func rewriteCAPILaunch(s *State, in *ir.Instr) {
	if len(in.Args) < 2 {
		return
	}
	target, ok := in.Args[1].(*ir.Constant)
	if !ok || target.Function == nil {
		return
	}
	ff, ok := s.functionMap[target.Function]
	if !ok || ff.Clone == nil {
		return
	}

	newArgs := make([]ir.Value, 0, len(in.Args)+1)
	newArgs = append(newArgs, in.Args...)
	newArgs = append(newArgs, ir.FuncConstant(ff.Clone))

	in.Callee = s.Sigs.ExecuteCInternal()
	in.Args = newArgs
}
