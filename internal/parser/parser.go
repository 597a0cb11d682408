// Package parser turns one plane's token list into a validated op
// stream, tracking operand-stack depth as it goes.
//
// Postfix notation has no precedence or nesting to recurse over: one
// left-to-right pass over the token list is the entire grammar. The
// shape is a cursor over an immutable token slice, append-only output,
// and a single Parse entry point that either returns a result or a
// descriptive error.
package parser

import (
	"strconv"

	"exprvm/internal/ops"
	"exprvm/internal/pixfmt"
	"exprvm/internal/xerrors"
)

// Program is one plane's validated, not-yet-folded op stream together
// with the maximum operand-stack depth it can reach.
type Program struct {
	Ops           []ops.Op
	MaxStackDepth int
}

// Parse validates tokens against the postfix grammar and produces an
// op stream terminated by the store op selected from outFmt.
// channelFmt[i] is nil when input channel i was not supplied;
// referencing x/y/z for a nil channel is an InputError.
//
// An empty token list is not an error: it returns (nil, nil), and the
// caller (internal/filter) decides whether that makes the plane Copy
// or Undefined.
func Parse(tokens []string, channelFmt [3]*pixfmt.Format, outFmt pixfmt.Format, plane int) (*Program, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	p := &parseState{channelFmt: channelFmt, plane: plane}

	for i, tok := range tokens {
		if err := p.token(i, tok); err != nil {
			return nil, err
		}
	}

	if p.depth != 1 {
		return nil, xerrors.AtPlane(xerrors.StackUnbalanced, plane,
			"stack has %d value(s) at end of expression, need exactly 1", p.depth)
	}

	p.out = append(p.out, ops.Simple(pixfmt.StoreOpFor(outFmt)))

	return &Program{Ops: p.out, MaxStackDepth: p.maxDepth}, nil
}

type parseState struct {
	channelFmt [3]*pixfmt.Format
	plane      int
	out        []ops.Op
	depth      int
	maxDepth   int
}

func (p *parseState) token(i int, tok string) error {
	switch tok {
	case "+":
		return p.binary(i, ops.Add)
	case "-":
		return p.binary(i, ops.Sub)
	case "*":
		return p.binary(i, ops.Mul)
	case "/":
		return p.binary(i, ops.Div)
	case "max":
		return p.binary(i, ops.Max)
	case "min":
		return p.binary(i, ops.Min)
	case "exp":
		return p.unary(i, ops.Exp)
	case "log":
		return p.unary(i, ops.Log)
	case "pow":
		return p.binary(i, ops.Pow)
	case "sqrt":
		return p.unary(i, ops.Sqrt)
	case "abs":
		return p.unary(i, ops.Abs)
	case ">":
		return p.binary(i, ops.Gt)
	case "<":
		return p.binary(i, ops.Lt)
	case "=":
		return p.binary(i, ops.Eq)
	case ">=":
		return p.binary(i, ops.Ge)
	case "<=":
		return p.binary(i, ops.Le)
	case "and":
		return p.binary(i, ops.And)
	case "or":
		return p.binary(i, ops.Or)
	case "xor":
		return p.binary(i, ops.Xor)
	case "not":
		return p.unary(i, ops.Neg)
	case "?":
		return p.apply(i, ops.Simple(ops.Ternary))
	case "dup":
		return p.apply(i, ops.Simple(ops.Dup))
	case "swap":
		return p.apply(i, ops.Simple(ops.Swap))
	case "x":
		return p.load(i, 0)
	case "y":
		return p.load(i, 1)
	case "z":
		return p.load(i, 2)
	default:
		return p.literal(i, tok)
	}
}

func (p *parseState) unary(i int, code ops.Opcode) error  { return p.apply(i, ops.Simple(code)) }
func (p *parseState) binary(i int, code ops.Opcode) error { return p.apply(i, ops.Simple(code)) }

func (p *parseState) load(i, channel int) error {
	fmtPtr := p.channelFmt[channel]
	if fmtPtr == nil {
		return xerrors.AtToken(xerrors.InputError, p.plane, i,
			"token %q references input channel %d, which was not supplied", []string{"x", "y", "z"}[channel], channel)
	}
	return p.apply(i, ops.Load(pixfmt.LoadOpFor(*fmtPtr), channel))
}

func (p *parseState) literal(i int, tok string) error {
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return xerrors.AtToken(xerrors.ParseError, p.plane, i, "cannot parse %q as a number", tok)
	}
	return p.apply(i, ops.LoadConstOp(float32(f)))
}

// apply is the generic stack-depth update: raise StackUnderflowAtParse
// if depth is below the op's input arity, otherwise pop that many and
// push the op's output arity, tracking the running peak depth.
func (p *parseState) apply(i int, op ops.Op) error {
	a := ops.ArityOf(op.Code)
	if p.depth < a.In {
		return xerrors.AtToken(xerrors.StackUnderflowAtParse, p.plane, i,
			"%v needs %d operand(s), only %d available", op.Code, a.In, p.depth)
	}
	p.depth = p.depth - a.In + a.Out
	if p.depth > p.maxDepth {
		p.maxDepth = p.depth
	}
	p.out = append(p.out, op)
	return nil
}
