package filter

import (
	"testing"

	"exprvm/internal/frame"
	"exprvm/internal/pixfmt"
	"exprvm/internal/xerrors"
)

var u8 = pixfmt.Format{Type: pixfmt.Integer, BitDepth: 8}
var f32 = pixfmt.Format{Type: pixfmt.Float, BitDepth: 32}

func clip(w, h, planes int, fmts ...pixfmt.Format) *ClipInfo {
	return &ClipInfo{Width: w, Height: h, NumPlanes: planes, SubsampleW: 1, SubsampleH: 1, PlaneFormat: fmts}
}

func TestNewRejectsMissingInput(t *testing.T) {
	_, err := New(Params{Expr: []string{"x"}})
	assertKind(t, err, xerrors.FormatError)
}

func TestNewRejectsMismatchedDimensions(t *testing.T) {
	a := clip(4, 4, 1, u8)
	b := clip(8, 8, 1, u8)
	_, err := New(Params{Clips: [3]*ClipInfo{a, b, nil}, Expr: []string{"x y +"}})
	assertKind(t, err, xerrors.FormatError)
}

func TestNewRejectsTooManyExpr(t *testing.T) {
	a := clip(4, 4, 1, u8)
	_, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x", "x"}})
	assertKind(t, err, xerrors.FormatError)
}

func TestNewExpandsSingleExprToAllPlanes(t *testing.T) {
	a := clip(2, 2, 3, u8, u8, u8)
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x 1 +"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Planes) != 3 {
		t.Fatalf("got %d planes, want 3", len(f.Planes))
	}
	for p, pp := range f.Planes {
		if pp.Disposition != frame.Process {
			t.Errorf("plane %d: disposition = %v, want Process", p, pp.Disposition)
		}
	}
}

func TestNewExpandsTwoExprReusingSecondForThird(t *testing.T) {
	a := clip(2, 2, 3, u8, u8, u8)
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x 1 +", "x 2 +"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Planes[1].Ops) == 0 || len(f.Planes[2].Ops) == 0 {
		t.Fatal("expected planes 1 and 2 to be compiled")
	}
}

func TestNewEmptyExprBecomesCopyWhenFormatsMatch(t *testing.T) {
	a := clip(2, 2, 2, u8, u8)
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x", ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Planes[1].Disposition != frame.Copy {
		t.Errorf("plane 1 disposition = %v, want Copy", f.Planes[1].Disposition)
	}
}

func TestNewEmptyExprBecomesUndefinedWhenFormatsDiffer(t *testing.T) {
	a := clip(2, 2, 2, u8, u8)
	override := f32
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x", ""}, Format: &override})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Planes[1].Disposition != frame.Undefined {
		t.Errorf("plane 1 disposition = %v, want Undefined", f.Planes[1].Disposition)
	}
}

func TestNewRejectsNullChannelReference(t *testing.T) {
	a := clip(2, 2, 1, u8)
	_, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x y +"}})
	assertKind(t, err, xerrors.InputError)
}

func TestNewComputesMaxStackDepthAcrossPlanes(t *testing.T) {
	a := clip(2, 2, 2, u8, u8)
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x", "x dup dup + +"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.MaxStackDepth < f.Planes[1].MaxStackDepth {
		t.Errorf("MaxStackDepth = %d, want >= %d", f.MaxStackDepth, f.Planes[1].MaxStackDepth)
	}
}

func TestNewRejectsCompatColorFamily(t *testing.T) {
	a := clip(2, 2, 1, u8)
	a.ColorFamily = pixfmt.Compat
	_, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x"}})
	assertKind(t, err, xerrors.FormatError)
}

// TestApplyDispatchesEveryPlane exercises a three-plane clip (as a YUV
// input would have): one Process plane and two Copy planes, checking
// that Apply — not just ApplyPlane in isolation — produces a correct
// multi-plane frame.
func TestApplyDispatchesEveryPlane(t *testing.T) {
	a := clip(2, 2, 3, u8, u8, u8)
	f, err := New(Params{Clips: [3]*ClipInfo{a, nil, nil}, Expr: []string{"x 1 +", "", ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Planes[0].Disposition != frame.Process || f.Planes[1].Disposition != frame.Copy || f.Planes[2].Disposition != frame.Copy {
		t.Fatalf("unexpected dispositions: %+v", f.Planes)
	}

	mkPlane := func(fill func(x, y int) uint8) frame.Plane {
		p := frame.NewPlane(u8, 2, 2)
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				p.Data[y*p.Stride+x] = fill(x, y)
			}
		}
		return p
	}
	y := mkPlane(func(x, yy int) uint8 { return uint8(10 * (x + yy*2)) })
	u := mkPlane(func(x, yy int) uint8 { return 42 })
	v := mkPlane(func(x, yy int) uint8 { return 99 })

	dst := f.Apply([3][]frame.Plane{{y, u, v}, nil, nil})
	if len(dst) != 3 {
		t.Fatalf("got %d output planes, want 3", len(dst))
	}
	for py := 0; py < 2; py++ {
		for px := 0; px < 2; px++ {
			if got, want := dst[0].Sample(px, py), y.Sample(px, py)+1; got != want {
				t.Errorf("plane 0 (%d,%d): got %v, want %v", px, py, got, want)
			}
			if got, want := dst[1].Sample(px, py), u.Sample(px, py); got != want {
				t.Errorf("plane 1 (%d,%d): got %v, want %v", px, py, got, want)
			}
			if got, want := dst[2].Sample(px, py), v.Sample(px, py); got != want {
				t.Errorf("plane 2 (%d,%d): got %v, want %v", px, py, got, want)
			}
		}
	}
}

func assertKind(t *testing.T, err error, kind xerrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	xe, ok := err.(*xerrors.Error)
	if !ok {
		t.Fatalf("expected *xerrors.Error, got %T: %v", err, err)
	}
	if xe.Kind != kind {
		t.Fatalf("got error kind %s, want %s (%v)", xe.Kind, kind, err)
	}
}
