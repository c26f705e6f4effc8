package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteFunction renders fn as an indented, line-oriented text listing, one
// instruction per line. The format is intentionally simple (no SSA value
// numbering beyond each instruction's own Name) since its only consumers are
// humans reading the CLI's dump and --diff output and the text-comparison
// tests, not a downstream assembler.
func WriteFunction(w io.Writer, fn *Function) {
	fmt.Fprintf(w, "define %s %s(%s) {\n", fn.Sig.Result, fn.Name, joinArgs(fn.Args))
	for _, b := range fn.Blocks {
		fmt.Fprintf(w, "%s:\n", blockLabel(b))
		for _, in := range b.Instrs {
			fmt.Fprintf(w, "  %s\n", instrText(in))
		}
	}
	fmt.Fprintln(w, "}")
}

// Dump renders every function definition in the module, in a stable,
// alphabetically-sorted order so that two dumps of semantically identical
// modules diff cleanly regardless of discovery/iteration order elsewhere in
// the pass.
func Dump(w io.Writer, m *Module) {
	fns := append([]*Function(nil), m.Functions()...)
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
	for _, fn := range fns {
		if fn.IsDeclaration() {
			continue
		}
		WriteFunction(w, fn)
	}
}

// Text is a convenience wrapper around Dump that returns the result as a
// string, for use by callers that want to diff two module snapshots (see
// cmd/tmpass's --diff flag).
func Text(m *Module) string {
	var sb strings.Builder
	Dump(&sb, m)
	return sb.String()
}

func blockLabel(b *BasicBlock) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("bb%d", b.idx)
}

func joinArgs(args []*Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", a.Typ, a.String())
	}
	return strings.Join(parts, ", ")
}

func instrText(in *Instr) string {
	prefix := ""
	if in.Name != "" {
		prefix = "%" + in.Name + " = "
	}
	switch in.Kind {
	case KindLoad:
		return fmt.Sprintf("%sload %s, %s %s", prefix, in.Ret, in.Addr.Type(), in.Addr)
	case KindStore:
		return fmt.Sprintf("store %s %s, %s %s", in.StoredValue.Type(), in.StoredValue, in.Addr.Type(), in.Addr)
	case KindCall, KindInvoke:
		return fmt.Sprintf("%s%s %s(%s)%s", prefix, in.Kind, calleeText(in), joinValues(in.Args), unwindText(in))
	case KindAtomicRMW:
		return fmt.Sprintf("%satomicrmw %s, %s", prefix, in.Addr, valueOrNil(in.StoredValue))
	case KindAtomicCAS:
		return fmt.Sprintf("%scmpxchg %s, %s, %s", prefix, in.Addr, valueOrNil(in.CompareValue), valueOrNil(in.NewValue))
	case KindFence:
		return "fence"
	case KindBr:
		return fmt.Sprintf("br label %s", blockLabel(in.Target))
	case KindCondBr:
		return fmt.Sprintf("br %s, label %s, label %s", in.Cond, blockLabel(in.ThenBlock), blockLabel(in.ElseBlock))
	case KindRet:
		if in.Operand != nil {
			return fmt.Sprintf("ret %s %s", in.Operand.Type(), in.Operand)
		}
		return "ret void"
	case KindUnreachable:
		return "unreachable"
	case KindPhi:
		return fmt.Sprintf("%sphi %s %s", prefix, in.Ret, incomingText(in.Incoming))
	case KindCast:
		return fmt.Sprintf("%s%s %s %s to %s", prefix, in.Comment, in.Operand.Type(), in.Operand, in.ToType)
	default:
		if in.Comment != "" {
			return fmt.Sprintf("%s%s", prefix, in.Comment)
		}
		return fmt.Sprintf("%s%s", prefix, in.Kind)
	}
}

func calleeText(in *Instr) string {
	if in.Callee != nil {
		return "@" + in.Callee.Name
	}
	if in.CalleeValue != nil {
		return in.CalleeValue.String()
	}
	return "?"
}

func unwindText(in *Instr) string {
	if in.Kind != KindInvoke {
		return ""
	}
	return fmt.Sprintf(" to label %s unwind label %s", blockLabel(in.NormalDest), blockLabel(in.UnwindDest))
}

func valueOrNil(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func incomingText(incoming []Incoming) string {
	parts := make([]string, len(incoming))
	for i, in := range incoming {
		parts[i] = fmt.Sprintf("[ %s, %s ]", in.Value, blockLabel(in.Block))
	}
	return strings.Join(parts, ", ")
}
