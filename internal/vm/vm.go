// Package vm implements the scalar stack interpreter: given one
// plane's folded op stream, it computes one output sample per pixel.
// The operand stack is a caller-owned float32 slice sized to the
// program's max stack depth, allocated once per invocation and reused
// across pixels — Run itself never allocates.
package vm

import (
	"exprvm/internal/ops"
	"exprvm/internal/scalar"
)

// LoadFunc returns the current pixel's sample value for input channel
// 0, 1, or 2. The frame driver binds this to the current (x, y) before
// each call to Run.
type LoadFunc func(channel int) float32

// Run executes prog, which must end in a Store8/Store16/StoreF op, and
// returns the value about to be written together with which store
// opcode produced it. For Store8/Store16 the value already has the
// saturating round applied (clamp, +0.5); the caller only needs to
// truncate it into the right integer width. For StoreF the value is
// returned verbatim, including non-finite results.
//
// stack must have length >= the program's max stack depth; Run uses it
// as a fixed-size operand stack and never grows it.
func Run(prog []ops.Op, stack []float32, load LoadFunc) (value float32, store ops.Opcode) {
	sp := 0
	for _, op := range prog {
		switch op.Code {
		case ops.LoadSrc8, ops.LoadSrc16, ops.LoadSrcF:
			stack[sp] = load(op.Channel)
			sp++
		case ops.LoadConst:
			stack[sp] = op.Const
			sp++
		case ops.Dup:
			stack[sp] = stack[sp-1]
			sp++
		case ops.Swap:
			stack[sp-1], stack[sp-2] = stack[sp-2], stack[sp-1]
		case ops.Sqrt, ops.Abs, ops.Neg, ops.Exp, ops.Log:
			stack[sp-1] = scalar.Unary(op.Code, stack[sp-1])
		case ops.Add, ops.Sub, ops.Mul, ops.Div, ops.Max, ops.Min,
			ops.Gt, ops.Lt, ops.Eq, ops.Le, ops.Ge, ops.And, ops.Or, ops.Xor, ops.Pow:
			b := stack[sp-1]
			a := stack[sp-2]
			sp--
			stack[sp-1] = scalar.Binary(op.Code, a, b)
		case ops.Ternary:
			e := stack[sp-1]
			t := stack[sp-2]
			c := stack[sp-3]
			sp -= 2
			stack[sp-1] = scalar.Ternary(c, t, e)
		case ops.Store8:
			return scalar.SaturateUint8(stack[sp-1]), ops.Store8
		case ops.Store16:
			return scalar.SaturateUint16(stack[sp-1]), ops.Store16
		case ops.StoreF:
			return stack[sp-1], ops.StoreF
		}
	}
	panic("vm: op stream has no terminating store op")
}
