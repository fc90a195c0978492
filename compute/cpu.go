package compute

import (
	"math"

	"github.com/ssoj13/vfxcore/colorengine"
	"github.com/ssoj13/vfxcore/lut"
)

func init() {
	Register("cpu", func() (Backend, error) { return NewCPUBackend(0), nil })
}

// cpuTileRows is the row-group size the CPU backend partitions work into;
// matches the pool's per-worker queue granularity rather than dispatching
// one goroutine per scanline.
const cpuTileRows = 32

// CPUBackend executes every capability directly on Go-resident float32
// buffers via a work-stealing pool, partitioning each op across row-tiles.
// It is always registered and always constructible, so Auto never fails
// to find a usable backend.
type CPUBackend struct {
	pool *workerPool
}

// NewCPUBackend creates a CPU backend with workers goroutines (GOMAXPROCS
// if workers <= 0).
func NewCPUBackend(workers int) *CPUBackend {
	return &CPUBackend{pool: newWorkerPool(workers)}
}

func (c *CPUBackend) Name() string { return "cpu" }

func (c *CPUBackend) Limits() Limits {
	return Limits{
		Name:           "cpu",
		Priority:       0,
		MaxTileDim:     1 << 30,  // no real tiling ceiling; bounded by process memory
		MaxBufferBytes: 1 << 40, // effectively unbounded for the CPU path
	}
}

func (c *CPUBackend) Upload(data []float32, width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, &BackendError{Kind: Unsupported, Backend: "cpu", Message: "non-positive buffer dimensions"}
	}
	want := width * height * channels
	if len(data) != want {
		return nil, &BackendError{Kind: Unsupported, Backend: "cpu", Message: "data length does not match width*height*channels"}
	}
	out := make([]float32, want)
	copy(out, data)
	return &Buffer{id: allocBufferID(), backend: "cpu", Width: width, Height: height, Channels: channels, data: out}, nil
}

func (c *CPUBackend) Download(buf *Buffer) ([]float32, error) {
	if buf == nil || buf.data == nil {
		return nil, &BackendError{Kind: Unsupported, Backend: "cpu", Message: "nil or unbacked buffer"}
	}
	out := make([]float32, len(buf.data))
	copy(out, buf.data)
	return out, nil
}

func (c *CPUBackend) Allocate(width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, &BackendError{Kind: Unsupported, Backend: "cpu", Message: "non-positive buffer dimensions"}
	}
	return &Buffer{id: allocBufferID(), backend: "cpu", Width: width, Height: height, Channels: channels, data: make([]float32, width*height*channels)}, nil
}

func (c *CPUBackend) Release(buf *Buffer) {
	if buf != nil {
		buf.data = nil
	}
}

// forEachRowTile partitions [0, height) into cpuTileRows-sized row groups
// and runs fn over each group in parallel, returning the first error.
func (c *CPUBackend) forEachRowTile(height int, fn func(rowStart, rowEnd int) error) error {
	tileCount := (height + cpuTileRows - 1) / cpuTileRows
	work := make([]func(), 0, tileCount)
	errSlots := make([]error, tileCount)
	idx := 0
	for row := 0; row < height; row += cpuTileRows {
		end := row + cpuTileRows
		if end > height {
			end = height
		}
		slot, rowStart, rowEnd := idx, row, end
		work = append(work, func() {
			errSlots[slot] = fn(rowStart, rowEnd)
		})
		idx++
	}
	c.pool.executeAll(work)
	for _, e := range errSlots {
		if e != nil {
			return e
		}
	}
	return nil
}

func (c *CPUBackend) ExecMatrix(buf *Buffer, m [16]float64) error {
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		stride := buf.Channels
		for row := rowStart; row < rowEnd; row++ {
			base := row * buf.Width * stride
			for px := 0; px < buf.Width; px++ {
				i := base + px*stride
				r, g, b := float64(buf.data[i]), float64(buf.data[i+1]), float64(buf.data[i+2])
				buf.data[i] = float32(m[0]*r + m[1]*g + m[2]*b + m[3])
				buf.data[i+1] = float32(m[4]*r + m[5]*g + m[6]*b + m[7])
				buf.data[i+2] = float32(m[8]*r + m[9]*g + m[10]*b + m[11])
			}
		}
		return nil
	})
}

func (c *CPUBackend) ExecCDL(buf *Buffer, p *colorengine.CDLParams) error {
	if p == nil {
		return &BackendError{Kind: Unsupported, Backend: "cpu", Message: "nil CDL params"}
	}
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		stride := buf.Channels
		for row := rowStart; row < rowEnd; row++ {
			base := row * buf.Width * stride
			for px := 0; px < buf.Width; px++ {
				i := base + px*stride
				r, g, b := float64(buf.data[i]), float64(buf.data[i+1]), float64(buf.data[i+2])
				r2, g2, b2 := colorengine.ApplyCDL(p, r, g, b)
				buf.data[i], buf.data[i+1], buf.data[i+2] = float32(r2), float32(g2), float32(b2)
			}
		}
		return nil
	})
}

func (c *CPUBackend) ExecLUT1D(buf *Buffer, l *lut.LUT1D) error {
	if l == nil {
		return &BackendError{Kind: Unsupported, Backend: "cpu", Message: "nil LUT1D"}
	}
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		stride := buf.Channels
		for row := rowStart; row < rowEnd; row++ {
			base := row * buf.Width * stride
			for px := 0; px < buf.Width; px++ {
				i := base + px*stride
				r, g, b := float64(buf.data[i]), float64(buf.data[i+1]), float64(buf.data[i+2])
				r2, g2, b2 := l.Apply(r, g, b)
				buf.data[i], buf.data[i+1], buf.data[i+2] = float32(r2), float32(g2), float32(b2)
			}
		}
		return nil
	})
}

func (c *CPUBackend) ExecLUT3D(buf *Buffer, l *lut.LUT3D) error {
	if l == nil {
		return &BackendError{Kind: Unsupported, Backend: "cpu", Message: "nil LUT3D"}
	}
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		stride := buf.Channels
		for row := rowStart; row < rowEnd; row++ {
			base := row * buf.Width * stride
			for px := 0; px < buf.Width; px++ {
				i := base + px*stride
				r, g, b := float64(buf.data[i]), float64(buf.data[i+1]), float64(buf.data[i+2])
				r2, g2, b2 := l.Apply(r, g, b)
				buf.data[i], buf.data[i+1], buf.data[i+2] = float32(r2), float32(g2), float32(b2)
			}
		}
		return nil
	})
}

func (c *CPUBackend) ExecResize(buf *Buffer, newWidth, newHeight int, filter ResizeFilter) (*Buffer, error) {
	if newWidth <= 0 || newHeight <= 0 {
		return nil, &BackendError{Kind: Unsupported, Backend: "cpu", Message: "non-positive target dimensions"}
	}
	out, err := c.Allocate(newWidth, newHeight, buf.Channels)
	if err != nil {
		return nil, err
	}
	scaleX := float64(buf.Width) / float64(newWidth)
	scaleY := float64(buf.Height) / float64(newHeight)
	radius := filterRadius(filter)

	err = c.forEachRowTile(newHeight, func(rowStart, rowEnd int) error {
		stride := buf.Channels
		for y := rowStart; y < rowEnd; y++ {
			srcY := (float64(y)+0.5)*scaleY - 0.5
			for x := 0; x < newWidth; x++ {
				srcX := (float64(x)+0.5)*scaleX - 0.5
				for ch := 0; ch < stride; ch++ {
					out.data[(y*newWidth+x)*stride+ch] = float32(resampleChannel(buf, ch, srcX, srcY, radius, filter))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func filterRadius(f ResizeFilter) float64 {
	switch f {
	case FilterBox:
		return 0.5
	case FilterTriangle:
		return 1.0
	case FilterLanczos3:
		return 3.0
	case FilterMitchell:
		return 2.0
	default:
		return 1.0
	}
}

func filterWeight(f ResizeFilter, x float64) float64 {
	switch f {
	case FilterBox:
		if math.Abs(x) <= 0.5 {
			return 1
		}
		return 0
	case FilterTriangle:
		x = math.Abs(x)
		if x >= 1 {
			return 0
		}
		return 1 - x
	case FilterLanczos3:
		const a = 3.0
		if x == 0 {
			return 1
		}
		x = math.Abs(x)
		if x >= a {
			return 0
		}
		sinc := func(v float64) float64 { return math.Sin(math.Pi*v) / (math.Pi * v) }
		return sinc(x) * sinc(x/a)
	case FilterMitchell:
		const b, cc = 1.0 / 3.0, 1.0 / 3.0
		x = math.Abs(x)
		if x < 1 {
			return ((12-9*b-6*cc)*x*x*x + (-18+12*b+6*cc)*x*x + (6 - 2*b)) / 6
		}
		if x < 2 {
			return ((-b-6*cc)*x*x*x + (6*b+30*cc)*x*x + (-12*b-48*cc)*x + (8*b + 24*cc)) / 6
		}
		return 0
	default:
		return 0
	}
}

func resampleChannel(buf *Buffer, ch int, srcX, srcY, radius float64, filter ResizeFilter) float64 {
	x0 := int(math.Floor(srcX - radius))
	x1 := int(math.Ceil(srcX + radius))
	y0 := int(math.Floor(srcY - radius))
	y1 := int(math.Ceil(srcY + radius))

	var sum, wsum float64
	stride := buf.Channels
	for y := y0; y <= y1; y++ {
		sy := clampInt(y, 0, buf.Height-1)
		wy := filterWeight(filter, float64(y)-srcY)
		if wy == 0 {
			continue
		}
		for x := x0; x <= x1; x++ {
			sx := clampInt(x, 0, buf.Width-1)
			wx := filterWeight(filter, float64(x)-srcX)
			if wx == 0 {
				continue
			}
			w := wx * wy
			sum += w * float64(buf.data[(sy*buf.Width+sx)*stride+ch])
			wsum += w
		}
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExecBlur applies a separable Gaussian blur: a horizontal pass followed
// by a vertical pass, each row/column-tiled across the pool.
func (c *CPUBackend) ExecBlur(buf *Buffer, radiusX, radiusY float64) error {
	if radiusX > 0 {
		kernel := gaussianKernel(radiusX)
		if err := c.blurHorizontal(buf, kernel); err != nil {
			return err
		}
	}
	if radiusY > 0 {
		kernel := gaussianKernel(radiusY)
		if err := c.blurVertical(buf, kernel); err != nil {
			return err
		}
	}
	return nil
}

func gaussianKernel(radius float64) []float64 {
	sigma := radius / 2
	if sigma <= 0 {
		sigma = 1e-6
	}
	r := int(math.Ceil(radius))
	kernel := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+r] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func (c *CPUBackend) blurHorizontal(buf *Buffer, kernel []float64) error {
	r := len(kernel) / 2
	stride := buf.Channels
	src := make([]float32, len(buf.data))
	copy(src, buf.data)
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		for row := rowStart; row < rowEnd; row++ {
			base := row * buf.Width * stride
			for x := 0; x < buf.Width; x++ {
				for ch := 0; ch < stride; ch++ {
					var sum float64
					for k := -r; k <= r; k++ {
						sx := clampInt(x+k, 0, buf.Width-1)
						sum += kernel[k+r] * float64(src[base+sx*stride+ch])
					}
					buf.data[base+x*stride+ch] = float32(sum)
				}
			}
		}
		return nil
	})
}

func (c *CPUBackend) blurVertical(buf *Buffer, kernel []float64) error {
	r := len(kernel) / 2
	stride := buf.Channels
	src := make([]float32, len(buf.data))
	copy(src, buf.data)
	return c.forEachRowTile(buf.Height, func(rowStart, rowEnd int) error {
		for y := rowStart; y < rowEnd; y++ {
			for x := 0; x < buf.Width; x++ {
				for ch := 0; ch < stride; ch++ {
					var sum float64
					for k := -r; k <= r; k++ {
						sy := clampInt(y+k, 0, buf.Height-1)
						sum += kernel[k+r] * float64(src[(sy*buf.Width+x)*stride+ch])
					}
					buf.data[(y*buf.Width+x)*stride+ch] = float32(sum)
				}
			}
		}
		return nil
	})
}

func (c *CPUBackend) ExecComposite(dst, src *Buffer, op CompositeOp, opacity float64) error {
	if dst.Width != src.Width || dst.Height != src.Height || dst.Channels != src.Channels {
		return &BackendError{Kind: Unsupported, Backend: "cpu", Message: "composite requires matching buffer dimensions"}
	}
	return c.forEachRowTile(dst.Height, func(rowStart, rowEnd int) error {
		stride := dst.Channels
		for row := rowStart; row < rowEnd; row++ {
			base := row * dst.Width * stride
			for px := 0; px < dst.Width; px++ {
				i := base + px*stride
				for ch := 0; ch < stride; ch++ {
					d, s := float64(dst.data[i+ch]), float64(src.data[i+ch])
					dst.data[i+ch] = float32(compositeChannel(op, d, s, opacity))
				}
			}
		}
		return nil
	})
}

func compositeChannel(op CompositeOp, dst, src, opacity float64) float64 {
	var blended float64
	switch op {
	case CompositeAdd:
		blended = dst + src
	case CompositeMultiply:
		blended = dst * src
	case CompositeScreen:
		blended = 1 - (1-dst)*(1-src)
	case CompositeDifference:
		blended = math.Abs(dst - src)
	default: // CompositeOver
		blended = src
	}
	return dst + opacity*(blended-dst)
}

func (c *CPUBackend) Close() error {
	c.pool.close()
	return nil
}

var _ Backend = (*CPUBackend)(nil)
