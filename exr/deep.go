package exr

// DeepData holds a deep scanline part's samples in memory: a per-pixel
// sample count and, per channel, a flat slice of that channel's samples
// concatenated in pixel-scan order (row-major, left-to-right, top-to-bottom
// over the part's data window).
type DeepData struct {
	Width, Height int
	SampleCounts  []int32 // len == Width*Height
	Channels      map[string][]float32
}

// NewDeepData allocates an empty DeepData for the given channel names, with
// every pixel starting at zero samples.
func NewDeepData(width, height int, channelNames []string) *DeepData {
	d := &DeepData{
		Width:        width,
		Height:       height,
		SampleCounts: make([]int32, width*height),
		Channels:     make(map[string][]float32, len(channelNames)),
	}
	for _, name := range channelNames {
		d.Channels[name] = nil
	}
	return d
}

// pixelOffset returns the index into a channel's flat sample slice at which
// pixel (x,y)'s samples begin.
func (d *DeepData) pixelOffset(x, y int) int {
	off := 0
	for i := 0; i < y*d.Width+x; i++ {
		off += int(d.SampleCounts[i])
	}
	return off
}

// SamplesAt returns channel's samples for pixel (x,y).
func (d *DeepData) SamplesAt(channel string, x, y int) []float32 {
	count := int(d.SampleCounts[y*d.Width+x])
	off := d.pixelOffset(x, y)
	data := d.Channels[channel]
	if off+count > len(data) {
		return nil
	}
	return data[off : off+count]
}
