// Package fold implements constant folding: a single left-to-right
// scan over a validated op stream that collapses any sub-expression
// whose operands are all literals into one LoadConst, including the
// non-trivial case of folding a Ternary whose condition is constant by
// first recovering its three sub-expressions' boundaries from the flat
// stream.
package fold

import (
	"exprvm/internal/ops"
	"exprvm/internal/scalar"
)

// Program folds a validated op stream to a fixed point in one pass,
// resuming at the earliest position a rewrite touched so that chained
// folds (e.g. "2 3 + 4 *") compose without a second outer loop.
func Program(prog []ops.Op) []ops.Op {
	out := append([]ops.Op(nil), prog...)
	for i := 0; i < len(out); i++ {
		switch out[i].Code {
		case ops.Dup:
			if i >= 1 && out[i-1].Code == ops.LoadConst {
				out[i] = out[i-1]
			}

		case ops.Sqrt, ops.Abs, ops.Neg, ops.Exp, ops.Log:
			if i >= 1 && out[i-1].Code == ops.LoadConst {
				v := scalar.Unary(out[i].Code, out[i-1].Const)
				out[i] = ops.LoadConstOp(v)
				out = erase(out, i-1, i)
				i--
			}

		case ops.Swap:
			if i >= 2 && out[i-2].Code == ops.LoadConst && out[i-1].Code == ops.LoadConst {
				out[i-2].Const, out[i-1].Const = out[i-1].Const, out[i-2].Const
				out = erase(out, i, i+1)
				i--
			}

		case ops.Add, ops.Sub, ops.Mul, ops.Div, ops.Max, ops.Min,
			ops.Gt, ops.Lt, ops.Eq, ops.Le, ops.Ge, ops.And, ops.Or, ops.Xor, ops.Pow:
			if i >= 2 && out[i-2].Code == ops.LoadConst && out[i-1].Code == ops.LoadConst {
				v := scalar.Binary(out[i].Code, out[i-2].Const, out[i-1].Const)
				out[i] = ops.LoadConstOp(v)
				out = erase(out, i-2, i)
				i -= 2
			}

		case ops.Ternary:
			start1, start2, start3 := findBranches(out, i)
			if out[start1].Code == ops.LoadConst {
				cond := out[start1].Const
				out = erase(out, i, i+1) // the Ternary itself
				if cond > 0 {
					out = erase(out, start3, i) // else branch, [start3, i)
				} else {
					out = erase(out, start2, start3) // then branch
				}
				out = erase(out, start1, start1+1) // condition load
				// Resume at the earliest position this rewrite
				// touched. Every op before the Ternary was already
				// folded by this left-to-right scan, so the surviving
				// branch is rescanned unchanged and the scan goes on
				// with the op that followed the Ternary.
				i = start1 - 1
			}
		}
	}
	return out
}

// erase removes out[lo:hi) and returns the shortened slice.
func erase(out []ops.Op, lo, hi int) []ops.Op {
	return append(out[:lo], out[hi:]...)
}

// operandsForBoundary mirrors the original folder's notion of "how many
// producer sub-expressions precede this op", which is not the same as
// an opcode's stack arity: Dup has stack arity 0 (it has no popped
// input) but still has exactly one producer to recurse into, namely
// whatever value it duplicates.
func operandsForBoundary(code ops.Opcode) int {
	switch code {
	case ops.Dup, ops.Sqrt, ops.Abs, ops.Neg, ops.Exp, ops.Log:
		return 1
	case ops.Swap, ops.Add, ops.Sub, ops.Mul, ops.Div, ops.Max, ops.Min,
		ops.Gt, ops.Lt, ops.Eq, ops.Le, ops.Ge, ops.And, ops.Or, ops.Xor, ops.Pow:
		return 2
	case ops.Ternary:
		return 3
	default:
		return 0
	}
}

// findBranches locates the start indices of the three sub-expressions
// feeding the Ternary at pos, in source order (condition, then, else).
// It walks backward from pos, descending by operand count whenever the
// immediate predecessor isn't itself a load.
func findBranches(out []ops.Op, pos int) (start1, start2, start3 int) {
	switch operandsForBoundary(out[pos].Code) {
	case 1:
		start1 = producerStart(out, pos-1)
	case 2:
		start2 = producerStart(out, pos-1)
		start1 = producerStart(out, start2-1)
	case 3:
		start3 = producerStart(out, pos-1)
		start2 = producerStart(out, start3-1)
		start1 = producerStart(out, start2-1)
	}
	return
}

// producerStart returns the index where the sub-expression ending at
// pos begins: pos itself if it is a load, otherwise the start of its
// own leftmost sub-expression.
func producerStart(out []ops.Op, pos int) int {
	if ops.IsLoad(out[pos].Code) {
		return pos
	}
	s1, _, _ := findBranches(out, pos)
	return s1
}
