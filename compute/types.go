// Package compute provides a uniform CPU/GPU execution abstraction for
// color and imaging primitives: matrix, CDL, LUT1D/3D application, resize,
// blur, and compositing. Backends are registered by name and selected by
// availability and priority. Callers drive a Backend directly; the
// colorengine, imagebuf, imagecache and texture packages run their own CPU
// code and do not call into this package.
package compute

import "sync/atomic"

// Buffer is an opaque handle to a backend-resident pixel buffer. Its zero
// value is invalid; Buffers are only produced by a Backend's Upload or
// Allocate.
type Buffer struct {
	id       uint64
	backend  string
	Width    int
	Height   int
	Channels int

	// data is the CPU-resident mirror of the buffer contents. The CPU
	// backend operates on it directly; the WGPU backend keeps it in sync
	// via Upload/Download and otherwise leaves it stale between them.
	data []float32
}

// Len returns the number of float32 samples the buffer holds.
func (b *Buffer) Len() int { return b.Width * b.Height * b.Channels }

var nextBufferID atomic.Uint64

func allocBufferID() uint64 { return nextBufferID.Add(1) }

// ResizeFilter selects the resampling kernel exec_resize uses.
type ResizeFilter uint8

const (
	FilterBox ResizeFilter = iota
	FilterTriangle
	FilterLanczos3
	FilterMitchell
)

func (f ResizeFilter) String() string {
	switch f {
	case FilterBox:
		return "Box"
	case FilterTriangle:
		return "Triangle"
	case FilterLanczos3:
		return "Lanczos3"
	case FilterMitchell:
		return "Mitchell"
	default:
		return "Unknown"
	}
}

// CompositeOp selects the per-pixel blend function exec_composite applies
// when combining a source buffer over a destination buffer.
type CompositeOp uint8

const (
	CompositeOver CompositeOp = iota
	CompositeAdd
	CompositeMultiply
	CompositeScreen
	CompositeDifference
)

func (o CompositeOp) String() string {
	switch o {
	case CompositeOver:
		return "Over"
	case CompositeAdd:
		return "Add"
	case CompositeMultiply:
		return "Multiply"
	case CompositeScreen:
		return "Screen"
	case CompositeDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Limits describes the capability ceiling of a Backend, queried before
// scheduling work that might exceed device memory or tiling limits.
type Limits struct {
	Name           string
	Priority       int
	MaxTileDim     int
	MaxBufferBytes int64
}
