// Package pixfmt describes the per-plane sample format the parser needs
// to pick load/store opcodes and the VM needs to know how to write a
// result sample.
package pixfmt

import (
	"fmt"

	"exprvm/internal/ops"
)

// SampleType is the storage representation of one pixel sample.
type SampleType int

const (
	// Integer samples, 8 to 16 bits per sample.
	Integer SampleType = iota
	// Single-precision IEEE-754 float samples.
	Float
)

// ColorFamily classifies how a clip's planes relate to color, independent
// of per-sample storage. It is a clip-wide property, not a per-plane one.
type ColorFamily int

const (
	// Gray is a single luma/intensity plane.
	Gray ColorFamily = iota
	// YUV is a luma plane plus two (possibly subsampled) chroma planes.
	YUV
	// RGB is three full-resolution color planes.
	RGB
	// Compat packs multiple channels into one plane in a
	// platform-specific layout; it cannot be addressed as independent
	// planes and is never an acceptable input or output family here.
	Compat
)

func (c ColorFamily) String() string {
	switch c {
	case Gray:
		return "Gray"
	case YUV:
		return "YUV"
	case RGB:
		return "RGB"
	case Compat:
		return "Compat"
	default:
		return fmt.Sprintf("ColorFamily(%d)", int(c))
	}
}

// Format describes one plane's sample layout: how wide a sample is and
// how it is interpreted numerically. It says nothing about width,
// height, or subsampling — those live on the frame, not the format.
type Format struct {
	Type     SampleType
	BitDepth int // 8..16 for Integer, 32 for Float
}

// Validate checks the §3 invariant that every plane sample type is
// 8-16 bit integer or 32-bit float.
func (f Format) Validate() error {
	switch f.Type {
	case Integer:
		if f.BitDepth < 8 || f.BitDepth > 16 {
			return fmt.Errorf("integer sample depth %d out of range 8..16", f.BitDepth)
		}
	case Float:
		if f.BitDepth != 32 {
			return fmt.Errorf("float sample depth %d must be 32", f.BitDepth)
		}
	default:
		return fmt.Errorf("unknown sample type %d", f.Type)
	}
	return nil
}

// BytesPerSample returns the on-disk width of one sample: 1, 2, or 4
// bytes for 8-bit integer, 9-16-bit integer, and float32 respectively.
func (f Format) BytesPerSample() int {
	switch {
	case f.Type == Integer && f.BitDepth == 8:
		return 1
	case f.Type == Integer:
		return 2
	default:
		return 4
	}
}

// Equal reports whether two formats have the same bit depth and sample
// type — the condition a plane must meet to be eligible for the Copy
// disposition.
func (f Format) Equal(o Format) bool {
	return f.Type == o.Type && f.BitDepth == o.BitDepth
}

// LoadOpFor selects the load opcode for a plane of format f: 8-bit
// integer loads as LoadSrc8, 9-16-bit integer as LoadSrc16, float32 as
// LoadSrcF.
func LoadOpFor(f Format) ops.Opcode {
	switch {
	case f.Type == Integer && f.BitDepth == 8:
		return ops.LoadSrc8
	case f.Type == Integer:
		return ops.LoadSrc16
	default:
		return ops.LoadSrcF
	}
}

// StoreOpFor selects the store opcode for output format f, by the same
// table as LoadOpFor.
func StoreOpFor(f Format) ops.Opcode {
	switch {
	case f.Type == Integer && f.BitDepth == 8:
		return ops.Store8
	case f.Type == Integer:
		return ops.Store16
	default:
		return ops.StoreF
	}
}

func (f Format) String() string {
	if f.Type == Float {
		return "float32"
	}
	return fmt.Sprintf("uint%d", f.BitDepth)
}
