package pass

import "github.com/mfs409/llvm-transmem/ir"

// attachAnnotations lifts the module's flat Annotations array onto the
// functions they target: tm_function and tm_pure become boolean attributes,
// tm_rename_<name> is split into the RenameOf payload. Unrecognized
// annotation text is ignored, matching the original plugin's behavior of
// only reacting to strings it knows about.
func attachAnnotations(m *ir.Module) {
	for _, a := range m.Annotations {
		if a.Function == nil {
			continue
		}
		switch {
		case a.Text == AttrFunction:
			a.Function.AddAttr(AttrFunction)
		case a.Text == AttrPure:
			a.Function.AddAttr(AttrPure)
		case hasPrefix(a.Text, RenamePrefix):
			a.Function.RenameOf = a.Text[len(RenamePrefix):]
		}
	}
}
