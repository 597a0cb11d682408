// Package frame implements the frame driver: the plane/stride buffer
// model, plus the per-frame iteration that runs the virtual machine
// over every pixel of a Process plane, propagates a Copy plane
// verbatim, and leaves an Undefined plane's bytes untouched.
//
// The buffer layout mirrors the base-pointer-plus-stride addressing
// the standard library's image.YCbCr and image.Gray use for their own
// planes, generalized to carry a pixfmt.Format instead of assuming one
// fixed sample width.
package frame

import (
	"encoding/binary"
	"math"

	"exprvm/internal/ops"
	"exprvm/internal/pixfmt"
	"exprvm/internal/vm"
)

// Plane is one 2-D sample buffer: Data[y*Stride : y*Stride+Width*bytesPerSample]
// holds row y, samples packed contiguously along x in the format's
// native byte width and endianness (little-endian for 16-bit integer
// and float32, matching the host platform's default).
type Plane struct {
	Data   []byte
	Stride int
	Width  int
	Height int
	Format pixfmt.Format
}

// NewPlane allocates a zeroed plane of the given format and dimensions
// with a tightly packed stride.
func NewPlane(format pixfmt.Format, width, height int) Plane {
	stride := width * format.BytesPerSample()
	return Plane{
		Data:   make([]byte, stride*height),
		Stride: stride,
		Width:  width,
		Height: height,
		Format: format,
	}
}

// Sample reads one pixel as a float32, dispatching on the plane's
// sample format the way the VM's three typed load opcodes do.
func (p Plane) Sample(x, y int) float32 {
	off := y*p.Stride + x*p.Format.BytesPerSample()
	switch {
	case p.Format.Type == pixfmt.Integer && p.Format.BitDepth == 8:
		return float32(p.Data[off])
	case p.Format.Type == pixfmt.Integer:
		return float32(binary.LittleEndian.Uint16(p.Data[off : off+2]))
	default:
		bits := binary.LittleEndian.Uint32(p.Data[off : off+4])
		return math.Float32frombits(bits)
	}
}

func (p Plane) writeSample(x, y int, storeOp ops.Opcode, value float32) {
	off := y*p.Stride + x*p.Format.BytesPerSample()
	switch storeOp {
	case ops.Store8:
		p.Data[off] = uint8(value)
	case ops.Store16:
		binary.LittleEndian.PutUint16(p.Data[off:off+2], uint16(value))
	case ops.StoreF:
		binary.LittleEndian.PutUint32(p.Data[off:off+4], math.Float32bits(value))
	}
}

// Disposition is the per-plane handling strategy selected at filter
// construction.
type Disposition int

const (
	// Process runs the VM over every pixel using Program.
	Process Disposition = iota
	// Copy propagates input 0's plane verbatim.
	Copy
	// Undefined leaves the destination plane's bytes unspecified.
	Undefined
)

// PlaneProgram is one output plane's compiled behavior: either a
// folded op stream to run (Process) or a disposition needing no
// program (Copy, Undefined).
type PlaneProgram struct {
	Disposition   Disposition
	Ops           []ops.Op
	MaxStackDepth int
}

// ApplyPlane runs pp over every pixel of dst, reading from the up-to-
// three input planes in inputs (nil entries correspond to channels the
// expression never references — the parser already rejected any
// attempt to load from one). It panics if pp.Disposition != Process;
// callers dispatch on Disposition before calling this.
func ApplyPlane(dst Plane, inputs [3]*Plane, pp PlaneProgram) {
	if pp.Disposition != Process {
		panic("frame: ApplyPlane called on a non-Process plane")
	}
	stack := make([]float32, pp.MaxStackDepth)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			load := func(channel int) float32 {
				return inputs[channel].Sample(x, y)
			}
			value, store := vm.Run(pp.Ops, stack, load)
			dst.writeSample(x, y, store, value)
		}
	}
}

// CopyPlane propagates src into dst row by row. It assumes the caller
// has already checked format equality — dst and src are expected to
// share Width, Height, and byte width.
func CopyPlane(dst, src Plane) {
	for y := 0; y < dst.Height; y++ {
		srcRow := src.Data[y*src.Stride : y*src.Stride+dst.Width*dst.Format.BytesPerSample()]
		dstRow := dst.Data[y*dst.Stride : y*dst.Stride+dst.Width*dst.Format.BytesPerSample()]
		copy(dstRow, srcRow)
	}
}

// RunFrame produces one complete output frame from planes: for every
// plane index p, it dispatches on planes[p].Disposition — Process runs
// the VM over every pixel of dst[p], Copy propagates input clip 0's
// plane p verbatim, and Undefined leaves dst[p] exactly as allocated.
// inputs[c] holds clip c's planes in plane order; a nil entry means
// that input clip was not supplied at filter construction, which is
// only valid for planes no op stream in planes actually loads from.
func RunFrame(dst []Plane, inputs [3][]Plane, planes []PlaneProgram) {
	for p, pp := range planes {
		var src [3]*Plane
		for c := 0; c < 3; c++ {
			if inputs[c] != nil {
				src[c] = &inputs[c][p]
			}
		}
		switch pp.Disposition {
		case Process:
			ApplyPlane(dst[p], src, pp)
		case Copy:
			CopyPlane(dst[p], inputs[0][p])
		case Undefined:
		}
	}
}
