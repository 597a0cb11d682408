// Package filter constructs an expression filter instance: the
// creation-time parameter bag (clips, expr, format) validated into an
// immutable set of per-plane programs, or a single published error on
// failure. It owns the expr-expansion rule and the Copy/Undefined
// disposition decision; it does not itself touch pixels — that is
// internal/frame's job once a filter has been built.
package filter

import (
	"exprvm/internal/fold"
	"exprvm/internal/frame"
	"exprvm/internal/ops"
	"exprvm/internal/parser"
	"exprvm/internal/pixfmt"
	"exprvm/internal/token"
	"exprvm/internal/xerrors"
)

// ClipInfo describes one input stream's geometry and per-plane sample
// format, as supplied by the host video-processing framework.
type ClipInfo struct {
	Width, Height int
	NumPlanes     int
	SubsampleW    int // horizontal chroma divisor for plane>0, 1 for plane 0
	SubsampleH    int
	PlaneFormat   []pixfmt.Format // len == NumPlanes
	ColorFamily   pixfmt.ColorFamily
}

// Params is the creation-time parameter bag.
type Params struct {
	// Clips holds 1-3 input streams; Clips[0] is mandatory, the rest
	// may be nil.
	Clips [3]*ClipInfo
	// Expr holds 1 to NumPlanes postfix expressions, expanded by
	// expandExpr before parsing.
	Expr []string
	// Format optionally overrides the output sample format; nil means
	// "same as input 0".
	Format *pixfmt.Format
}

// Filter is an immutable, fully validated expression filter instance.
type Filter struct {
	Clips         [3]*ClipInfo
	OutputFormat  []pixfmt.Format // one per plane
	Planes        []frame.PlaneProgram
	MaxStackDepth int // over all planes
}

// New validates params and compiles every plane's expression, folding
// constants. It returns the single published error on any validation
// failure; no partial Filter is ever returned.
func New(params Params) (*Filter, error) {
	if params.Clips[0] == nil {
		return nil, xerrors.New(xerrors.FormatError, "clips requires at least one non-null input")
	}
	base := params.Clips[0]

	if err := checkGeometryMatches(params.Clips); err != nil {
		return nil, err
	}
	for _, c := range params.Clips {
		if c == nil {
			continue
		}
		if c.ColorFamily == pixfmt.Compat {
			return nil, xerrors.New(xerrors.FormatError, "compat color family is not allowed")
		}
		for _, f := range c.PlaneFormat {
			if err := f.Validate(); err != nil {
				return nil, xerrors.New(xerrors.FormatError, "input plane format invalid: %v", err)
			}
		}
	}

	if len(params.Expr) == 0 || len(params.Expr) > base.NumPlanes {
		return nil, xerrors.New(xerrors.FormatError,
			"expr has %d entries, need 1..%d", len(params.Expr), base.NumPlanes)
	}

	outFormat := make([]pixfmt.Format, base.NumPlanes)
	for p := 0; p < base.NumPlanes; p++ {
		if params.Format != nil {
			outFormat[p] = *params.Format
		} else {
			outFormat[p] = base.PlaneFormat[p]
		}
		if err := outFormat[p].Validate(); err != nil {
			return nil, xerrors.New(xerrors.FormatError, "output plane %d format invalid: %v", p, err)
		}
	}

	exprs := expandExpr(params.Expr, base.NumPlanes)

	planes := make([]frame.PlaneProgram, base.NumPlanes)
	maxDepth := 0
	for p := 0; p < base.NumPlanes; p++ {
		pp, err := compilePlane(params.Clips, exprs[p], outFormat[p], base, p)
		if err != nil {
			return nil, err
		}
		planes[p] = pp
		if pp.MaxStackDepth > maxDepth {
			maxDepth = pp.MaxStackDepth
		}
	}

	return &Filter{
		Clips:         params.Clips,
		OutputFormat:  outFormat,
		Planes:        planes,
		MaxStackDepth: maxDepth,
	}, nil
}

// expandExpr expands fewer expr strings than planes: one given applies
// to every plane; two given means the third reuses the second; any
// plane left unspecified gets the empty string, which compilePlane
// turns into Copy or Undefined.
func expandExpr(given []string, numPlanes int) []string {
	out := make([]string, numPlanes)
	switch len(given) {
	case 1:
		for p := range out {
			out[p] = given[0]
		}
	case 2:
		out[0] = given[0]
		for p := 1; p < numPlanes; p++ {
			out[p] = given[1]
		}
	default:
		copy(out, given)
	}
	return out
}

func compilePlane(clips [3]*ClipInfo, expr string, outFormat pixfmt.Format, base *ClipInfo, plane int) (frame.PlaneProgram, error) {
	tokens := token.Split(expr)
	if len(tokens) == 0 {
		if outFormat.Equal(base.PlaneFormat[plane]) {
			return frame.PlaneProgram{Disposition: frame.Copy}, nil
		}
		return frame.PlaneProgram{Disposition: frame.Undefined}, nil
	}

	var channelFmt [3]*pixfmt.Format
	for i, c := range clips {
		if c == nil {
			continue
		}
		f := c.PlaneFormat[plane]
		channelFmt[i] = &f
	}

	prog, err := parser.Parse(tokens, channelFmt, outFormat, plane)
	if err != nil {
		return frame.PlaneProgram{}, err
	}

	folded := fold.Program(prog.Ops)
	return frame.PlaneProgram{
		Disposition:   frame.Process,
		Ops:           folded,
		MaxStackDepth: prog.MaxStackDepth,
	}, nil
}

// checkGeometryMatches enforces that every non-null input shares
// width, height, plane count, and chroma subsampling with input 0.
func checkGeometryMatches(clips [3]*ClipInfo) error {
	base := clips[0]
	for i := 1; i < 3; i++ {
		c := clips[i]
		if c == nil {
			continue
		}
		if c.Width != base.Width || c.Height != base.Height {
			return xerrors.New(xerrors.FormatError,
				"input %d dimensions %dx%d do not match input 0's %dx%d", i, c.Width, c.Height, base.Width, base.Height)
		}
		if c.NumPlanes != base.NumPlanes {
			return xerrors.New(xerrors.FormatError,
				"input %d has %d planes, input 0 has %d", i, c.NumPlanes, base.NumPlanes)
		}
		if c.SubsampleW != base.SubsampleW || c.SubsampleH != base.SubsampleH {
			return xerrors.New(xerrors.FormatError, "input %d chroma subsampling does not match input 0", i)
		}
	}
	return nil
}

// ProgramFor returns the compiled op stream for plane p, or nil if it
// is not a Process plane.
func (f *Filter) ProgramFor(p int) []ops.Op {
	if f.Planes[p].Disposition != frame.Process {
		return nil
	}
	return f.Planes[p].Ops
}

// Apply runs the filter over one output frame. inputs[c] holds clip
// c's planes in plane order, one slice entry per plane of that clip;
// a nil entry means clip c was not supplied at construction. It
// allocates and returns one freshly sized plane per output plane,
// dispatching each to Process, Copy, or Undefined per f.Planes.
func (f *Filter) Apply(inputs [3][]frame.Plane) []frame.Plane {
	base := f.Clips[0]
	dst := make([]frame.Plane, len(f.Planes))
	for p := range dst {
		w, h := planeDims(base, p)
		dst[p] = frame.NewPlane(f.OutputFormat[p], w, h)
	}
	frame.RunFrame(dst, inputs, f.Planes)
	return dst
}

// planeDims returns the pixel dimensions of plane p of clip c: full
// resolution for plane 0, chroma-subsampled for every other plane.
func planeDims(c *ClipInfo, p int) (width, height int) {
	if p == 0 {
		return c.Width, c.Height
	}
	return c.Width / c.SubsampleW, c.Height / c.SubsampleH
}
