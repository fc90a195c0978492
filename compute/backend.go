package compute

import (
	"github.com/ssoj13/vfxcore/colorengine"
	"github.com/ssoj13/vfxcore/lut"
)

// Backend executes the imaging/color primitive capability set uniformly on
// CPU or GPU: upload/download/allocate plus exec_matrix, exec_cdl,
// exec_lut1d, exec_lut3d (trilinear), exec_resize, exec_blur, and
// exec_composite, with a Limits query for tile-size and memory ceilings.
//
// Buffers are always RGB or RGBA float32, row-major, channel-interleaved.
// Exec* methods mutate the buffer in place except ExecResize, which
// allocates and returns a new Buffer at the target dimensions.
type Backend interface {
	// Name identifies the backend ("cpu", "wgpu", ...).
	Name() string

	// Limits reports this backend's tiling and memory ceiling.
	Limits() Limits

	// Upload copies CPU-resident pixel data into a new backend buffer.
	Upload(data []float32, width, height, channels int) (*Buffer, error)

	// Download reads a buffer's contents back to a CPU-resident slice.
	Download(buf *Buffer) ([]float32, error)

	// Allocate reserves a buffer of the given dimensions without
	// initializing its contents.
	Allocate(width, height, channels int) (*Buffer, error)

	// Release frees backend-side resources associated with buf. Release
	// is a no-op on an already-released or zero-value Buffer.
	Release(buf *Buffer)

	// ExecMatrix applies a 4x4 row-major affine color matrix to every
	// pixel of buf in place.
	ExecMatrix(buf *Buffer, m [16]float64) error

	// ExecCDL applies an ASC CDL slope/offset/power/saturation grade.
	ExecCDL(buf *Buffer, p *colorengine.CDLParams) error

	// ExecLUT1D applies a per-channel 1D LUT with linear interpolation.
	ExecLUT1D(buf *Buffer, l *lut.LUT1D) error

	// ExecLUT3D applies a 3D LUT with trilinear interpolation.
	ExecLUT3D(buf *Buffer, l *lut.LUT3D) error

	// ExecResize resamples buf to newWidth x newHeight using filter,
	// returning a newly allocated buffer.
	ExecResize(buf *Buffer, newWidth, newHeight int, filter ResizeFilter) (*Buffer, error)

	// ExecBlur applies a separable Gaussian blur with the given per-axis
	// pixel radius.
	ExecBlur(buf *Buffer, radiusX, radiusY float64) error

	// ExecComposite blends src over dst in place using op at the given
	// opacity in [0, 1]. dst and src must share dimensions and channel
	// count.
	ExecComposite(dst, src *Buffer, op CompositeOp, opacity float64) error

	// Close releases all resources held by the backend. The backend must
	// not be used after Close.
	Close() error
}
