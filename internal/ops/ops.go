// Package ops defines the closed opcode set and the tagged Op value
// that a compiled plane program is built from.
//
// An Op is a small tagged struct: one opcode plus the one field that
// opcode actually uses (Const for LoadConst, Channel for the three
// load ops, neither for everything else). This is a tagged sum type,
// spelled out as named fields rather than packed into a union.
package ops

import "fmt"

// Opcode identifies one virtual-machine instruction. The set is
// closed: no new opcode is ever added at runtime.
type Opcode uint8

const (
	LoadSrc8 Opcode = iota
	LoadSrc16
	LoadSrcF
	LoadConst

	Store8
	Store16
	StoreF

	Dup
	Swap

	Add
	Sub
	Mul
	Div
	Max
	Min
	Sqrt
	Abs

	Exp
	Log
	Pow

	Gt
	Lt
	Eq
	Le
	Ge

	And
	Or
	Xor
	Neg

	Ternary
)

var names = map[Opcode]string{
	LoadSrc8: "LoadSrc8", LoadSrc16: "LoadSrc16", LoadSrcF: "LoadSrcF", LoadConst: "LoadConst",
	Store8: "Store8", Store16: "Store16", StoreF: "StoreF",
	Dup: "Dup", Swap: "Swap",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Max: "Max", Min: "Min", Sqrt: "Sqrt", Abs: "Abs",
	Exp: "Exp", Log: "Log", Pow: "Pow",
	Gt: "Gt", Lt: "Lt", Eq: "Eq", Le: "Le", Ge: "Ge",
	And: "And", Or: "Or", Xor: "Xor", Neg: "Neg",
	Ternary: "Ternary",
}

func (o Opcode) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", o)
}

// Op is one instruction. Const is meaningful only when Code ==
// LoadConst; Channel is meaningful only for the three load-source
// opcodes, and is one of 0, 1, 2 (x, y, z).
type Op struct {
	Code    Opcode
	Const   float32
	Channel int
}

func Load(code Opcode, channel int) Op { return Op{Code: code, Channel: channel} }
func LoadConstOp(v float32) Op         { return Op{Code: LoadConst, Const: v} }
func Simple(code Opcode) Op            { return Op{Code: code} }

// Arity describes an opcode's effect on the operand stack: it pops In
// values and pushes Out. Store opcodes pop one value and push none —
// they terminate the program rather than leaving a result on the stack.
type Arity struct {
	In, Out int
}

var arities = map[Opcode]Arity{
	LoadSrc8: {0, 1}, LoadSrc16: {0, 1}, LoadSrcF: {0, 1}, LoadConst: {0, 1}, Dup: {0, 1},

	Sqrt: {1, 1}, Abs: {1, 1}, Neg: {1, 1}, Exp: {1, 1}, Log: {1, 1},

	Add: {2, 1}, Sub: {2, 1}, Mul: {2, 1}, Div: {2, 1}, Max: {2, 1}, Min: {2, 1},
	Gt: {2, 1}, Lt: {2, 1}, Eq: {2, 1}, Le: {2, 1}, Ge: {2, 1},
	And: {2, 1}, Or: {2, 1}, Xor: {2, 1}, Pow: {2, 1},

	Swap: {2, 2},

	Ternary: {3, 1},

	Store8: {1, 0}, Store16: {1, 0}, StoreF: {1, 0},
}

// ArityOf returns the stack effect of op. It panics on an opcode
// outside the closed set, which can only happen from a programming
// error inside this module — every Op reaching here was produced by
// the parser from the table above.
func ArityOf(op Opcode) Arity {
	a, ok := arities[op]
	if !ok {
		panic(fmt.Sprintf("ops: unknown opcode %v", op))
	}
	return a
}

// IsLoad reports whether op pushes a value with no operands drawn from
// a sub-expression of its own: the three typed loads and LoadConst.
// Dup is deliberately excluded — it duplicates whatever is already on
// the stack rather than producing a fresh value, so it is not a valid
// boundary for the constant-folder's sub-expression recovery.
func IsLoad(op Opcode) bool {
	switch op {
	case LoadSrc8, LoadSrc16, LoadSrcF, LoadConst:
		return true
	default:
		return false
	}
}

// IsStore reports whether op is one of the three terminating store ops.
func IsStore(op Opcode) bool {
	switch op {
	case Store8, Store16, StoreF:
		return true
	default:
		return false
	}
}
