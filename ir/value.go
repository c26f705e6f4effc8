package ir

// Value is anything that can be used as an operand: an instruction's result,
// a function argument, or a constant.
type Value interface {
	Type() *IRType
	String() string
}

// Argument is a formal parameter of a Function.
type Argument struct {
	Name   string
	Typ    *IRType
	Parent *Function
}

func (a *Argument) Type() *IRType { return a.Typ }
func (a *Argument) String() string {
	if a.Name != "" {
		return "%" + a.Name
	}
	return "%arg"
}

// Constant is a compile-time-known value: an integer, a null pointer, or a
// reference to a Function (used as a callee operand for indirect-call
// simulation and for bitcast-to-opaque sequences).
type Constant struct {
	Typ      *IRType
	Int      int64
	IsNull   bool
	Function *Function // set when this constant denotes &someFunction
}

func (c *Constant) Type() *IRType { return c.Typ }
func (c *Constant) String() string {
	if c.Function != nil {
		return "@" + c.Function.Name
	}
	if c.IsNull {
		return "null"
	}
	return intString(c.Int)
}

func intString(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func NullPointer(elem *IRType) *Constant {
	return &Constant{Typ: PointerTo(elem), IsNull: true}
}

func IntConstant(bits int, v int64) *Constant {
	return &Constant{Typ: IntType(bits), Int: v}
}

func FuncConstant(f *Function) *Constant {
	return &Constant{Typ: PointerTo(VoidType()), Function: f}
}
