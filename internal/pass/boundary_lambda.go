package pass

import "github.com/mfs409/llvm-transmem/ir"

// instrumentLambdaBoundaries prepends a guard to every discovered lambda
// operator(): if the tm_opaque* parameter is non-null (we are being invoked
// from inside an already-running transaction and the opaque pointer carries
// the transaction's descriptor) control is diverted straight to a call of
// the instrumented clone followed by a void return; otherwise control falls
// through into the original, unmodified body. This lets a single call site
// work whether or not the surrounding code is transactional.
func instrumentLambdaBoundaries(s *State) {
	for _, ff := range s.Functions() {
		if !ff.IsLambda {
			continue
		}
		instrumentLambdaEntry(s, ff.Origin, ff.Clone)
	}
}

func instrumentLambdaEntry(s *State, fn, clone *ir.Function) {
	if clone == nil || len(fn.Blocks) == 0 {
		return
	}
	opaquePtrType := ir.PointerTo(mustOpaqueStruct(s))
	var opaqueArg *ir.Argument
	for _, a := range fn.Args {
		if a.Typ.Equal(opaquePtrType) {
			opaqueArg = a
		}
	}
	if opaqueArg == nil {
		return
	}

	entry := fn.Blocks[0]
	ifTrue := fn.InsertBlockBefore(entry, "lambda.redirect")
	compare := fn.InsertBlockBefore(ifTrue, "lambda.guard")

	isTx := &ir.Instr{
		Kind:    ir.KindOther,
		Name:    "is_tx",
		Ret:     ir.IntType(1),
		Operand: opaqueArg,
		StoredValue: ir.NullPointer(opaqueArg.Typ.Elem),
		Comment: "icmp ne",
	}
	ir.AppendInstr(compare, isTx)
	ir.AppendInstr(compare, &ir.Instr{Kind: ir.KindCondBr, Cond: isTx, ThenBlock: ifTrue, ElseBlock: entry})

	call := ir.NewCall("", clone, argsForwardedTo(clone, fn.Args, opaqueArg), ir.VoidType())
	ir.AppendInstr(ifTrue, call)
	ir.AppendInstr(ifTrue, &ir.Instr{Kind: ir.KindRet})
}

// argsForwardedTo builds the clone's call argument list from the lambda
// operator's own parameters: the clone has the same signature as the
// original, so every argument forwards positionally unchanged.
func argsForwardedTo(clone *ir.Function, args []*ir.Argument, _ *ir.Argument) []ir.Value {
	out := make([]ir.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func mustOpaqueStruct(s *State) *ir.IRType {
	t, ok := s.Module.NamedType(SymOpaqueStruct)
	if !ok {
		panic("pass: lambda boundary instrumentation requires the tm_opaque type to be declared")
	}
	return t
}
