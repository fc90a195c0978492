package exr

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	r.Read(out)
	return out
}

func TestRLERoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{1, 1, 1, 1, 1},
		{1, 2, 3, 4, 5},
		{1, 1, 1, 2, 2, 2, 2, 3, 4, 5, 5, 5},
		randomBytes(500, 1),
	}
	for i, raw := range cases {
		c := rleCompress(raw)
		back, err := rleDecompress(c, len(raw))
		if err != nil {
			t.Fatalf("case %d: rleDecompress: %v", i, err)
		}
		if !bytes.Equal(back, raw) {
			t.Fatalf("case %d: RLE round trip mismatch", i)
		}
	}
}

func TestZIPRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{1, 2, 3, 4, 5, 6, 7, 8},
		randomBytes(4096, 2),
	}
	for i, raw := range cases {
		c := zipCompress(raw)
		back, err := zipDecompress(c, len(raw))
		if err != nil {
			t.Fatalf("case %d: zipDecompress: %v", i, err)
		}
		if !bytes.Equal(back, raw) {
			t.Fatalf("case %d: ZIP round trip mismatch", i)
		}
	}
}

func TestPredictorAndInterleaveAreInverses(t *testing.T) {
	raw := randomBytes(257, 3)
	buf := make([]byte, len(raw))
	copy(buf, raw)
	predictorForward(buf)
	predictorInverse(buf)
	if !bytes.Equal(buf, raw) {
		t.Fatalf("predictor forward/inverse is not an identity")
	}

	i := interleave(raw)
	d := deinterleave(i)
	if !bytes.Equal(d, raw) {
		t.Fatalf("interleave/deinterleave is not an identity")
	}
}

func TestUnimplementedCompressionReturnsUnsupportedFeature(t *testing.T) {
	_, err := compressBlock(CompressionPIZ, []byte{1, 2, 3})
	ioErr, ok := err.(*IoError)
	if !ok || ioErr.Kind != UnsupportedFeature {
		t.Fatalf("expected UnsupportedFeature IoError, got %v", err)
	}
}

func buildTestPart(compression Compression) (*Part, *imagebuf.Buffer) {
	channels := ChannelList{
		{Name: "R", Type: PixelFloat},
		{Name: "G", Type: PixelFloat},
		{Name: "B", Type: PixelFloat},
	}
	p := NewPart("rgba", 6, 4, channels)
	p.Compression = compression

	spec := imagespec.NewImageSpec(6, 4, 3, imagespec.FormatF32)
	spec.ChannelNames = []string{"B", "G", "R"}
	buf, _ := imagebuf.NewBuffer(spec)
	n := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			for ch := 0; ch < 3; ch++ {
				_ = buf.SetPixel(x, y, 0, ch, float32(n)*0.01)
				n++
			}
		}
	}
	return p, buf
}

func TestScanlineRoundTrip(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionRLE, CompressionZIP1, CompressionZIP16} {
		p, buf := buildTestPart(comp)
		file := &File{Parts: []*Part{p}}

		var out bytes.Buffer
		if err := WriteFile(&out, file, []any{buf}); err != nil {
			t.Fatalf("compression %v: WriteFile: %v", comp, err)
		}

		gotFile, buffers, err := ReadFile(bytes.NewReader(out.Bytes()))
		if err != nil {
			t.Fatalf("compression %v: ReadFile: %v", comp, err)
		}
		if len(gotFile.Parts) != 1 {
			t.Fatalf("compression %v: expected 1 part, got %d", comp, len(gotFile.Parts))
		}
		gotBuf := buffers[0].(*imagebuf.Buffer)
		for y := 0; y < 4; y++ {
			for x := 0; x < 6; x++ {
				for _, name := range []string{"R", "G", "B"} {
					want := buf.GetPixel(x, y, 0, buf.Spec.ChannelIndex(name))
					got := gotBuf.GetPixel(x, y, 0, gotBuf.Spec.ChannelIndex(name))
					if want != got {
						t.Fatalf("compression %v: pixel (%d,%d) channel %s: want %v got %v", comp, x, y, name, want, got)
					}
				}
			}
		}
	}
}

func TestMultipartRoundTrip(t *testing.T) {
	p1, buf1 := buildTestPart(CompressionZIP16)
	p1.Name = "beauty"
	p2, buf2 := buildTestPart(CompressionRLE)
	p2.Name = "depth"
	file := &File{Parts: []*Part{p1, p2}}

	var out bytes.Buffer
	if err := WriteFile(&out, file, []any{buf1, buf2}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	gotFile, buffers, err := ReadFile(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(gotFile.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(gotFile.Parts))
	}
	if gotFile.Parts[0].Name != "beauty" || gotFile.Parts[1].Name != "depth" {
		t.Fatalf("part names not preserved: %q, %q", gotFile.Parts[0].Name, gotFile.Parts[1].Name)
	}
	gotBuf1 := buffers[0].(*imagebuf.Buffer)
	if gotBuf1.GetPixel(3, 2, 0, gotBuf1.Spec.ChannelIndex("R")) != buf1.GetPixel(3, 2, 0, buf1.Spec.ChannelIndex("R")) {
		t.Fatalf("part 0 pixel mismatch after multipart round trip")
	}
	_ = buf2
}

func TestTiledRoundTrip(t *testing.T) {
	channels := ChannelList{{Name: "Y", Type: PixelHalf}}
	p := NewPart("luma", 10, 7, channels)
	p.Type = PartTiledImage
	p.Compression = CompressionZIP1
	p.TileDesc = TileDesc{XSize: 4, YSize: 4, Mode: TileOneLevel}

	spec := imagespec.NewImageSpec(10, 7, 1, imagespec.FormatF16)
	spec.ChannelNames = []string{"Y"}
	buf, _ := imagebuf.NewBuffer(spec)
	for y := 0; y < 7; y++ {
		for x := 0; x < 10; x++ {
			_ = buf.SetPixel(x, y, 0, 0, float32(x+y)*0.5)
		}
	}

	file := &File{Parts: []*Part{p}}
	var out bytes.Buffer
	if err := WriteFile(&out, file, []any{buf}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	gotFile, buffers, err := ReadFile(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	gotBuf := buffers[0].(*imagebuf.Buffer)
	for y := 0; y < 7; y++ {
		for x := 0; x < 10; x++ {
			want := buf.GetPixel(x, y, 0, 0)
			got := gotBuf.GetPixel(x, y, 0, 0)
			diff := want - got
			if diff < 0 {
				diff = -diff
			}
			if diff > 0.01 {
				t.Fatalf("tiled pixel (%d,%d) mismatch: want %v got %v", x, y, want, got)
			}
		}
	}
	_ = gotFile
}

func TestStreamingReadsSingleTile(t *testing.T) {
	channels := ChannelList{{Name: "Y", Type: PixelFloat}}
	p := NewPart("luma", 8, 8, channels)
	p.Type = PartTiledImage
	p.Compression = CompressionNone
	p.TileDesc = TileDesc{XSize: 4, YSize: 4, Mode: TileOneLevel}

	spec := imagespec.NewImageSpec(8, 8, 1, imagespec.FormatF32)
	spec.ChannelNames = []string{"Y"}
	buf, _ := imagebuf.NewBuffer(spec)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			_ = buf.SetPixel(x, y, 0, 0, float32(x*8+y))
		}
	}
	file := &File{Parts: []*Part{p}}
	var out bytes.Buffer
	if err := WriteFile(&out, file, []any{buf}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ss, err := OpenStreaming(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatalf("OpenStreaming: %v", err)
	}
	tile, err := ss.ReadTile(0, 1, 1)
	if err != nil {
		t.Fatalf("ReadTile: %v", err)
	}
	for y := 4; y < 7; y++ {
		for x := 4; x < 7; x++ {
			want := buf.GetPixel(x, y, 0, 0)
			got := tile.GetPixel(x, y, 0, 0)
			if want != got {
				t.Fatalf("streamed tile pixel (%d,%d): want %v got %v", x, y, want, got)
			}
		}
	}
}

func buildTestDeepData(width, height int) *DeepData {
	dd := NewDeepData(width, height, []string{"R", "G"})
	var r, g []float32
	n := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			count := (x + y) % 4 // varies per-pixel sample count, including zero
			dd.SampleCounts[y*width+x] = int32(count)
			for s := 0; s < count; s++ {
				r = append(r, float32(n)*0.125)
				g = append(g, float32(n)*0.25)
				n++
			}
		}
	}
	dd.Channels["R"] = r
	dd.Channels["G"] = g
	return dd
}

func TestDeepScanlineRoundTrip(t *testing.T) {
	const width, height = 5, 4
	channels := ChannelList{
		{Name: "R", Type: PixelFloat},
		{Name: "G", Type: PixelFloat},
	}
	p := NewPart("deepbeauty", width, height, channels)
	p.Type = PartDeepScanline
	p.Compression = CompressionZIP16

	dd := buildTestDeepData(width, height)
	file := &File{Parts: []*Part{p}}

	var out bytes.Buffer
	if err := WriteFile(&out, file, []any{dd}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	gotFile, buffers, err := ReadFile(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(gotFile.Parts) != 1 || !gotFile.Parts[0].IsDeep() {
		t.Fatalf("expected 1 deep part, got %+v", gotFile.Parts)
	}

	gotDD, ok := buffers[0].(*DeepData)
	if !ok {
		t.Fatalf("expected *DeepData, got %T", buffers[0])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			wantCount := dd.SampleCounts[y*width+x]
			gotCount := gotDD.SampleCounts[y*width+x]
			if wantCount != gotCount {
				t.Fatalf("pixel (%d,%d) sample count: want %d got %d", x, y, wantCount, gotCount)
			}
			for _, name := range []string{"R", "G"} {
				want := dd.SamplesAt(name, x, y)
				got := gotDD.SamplesAt(name, x, y)
				if len(want) != len(got) {
					t.Fatalf("pixel (%d,%d) channel %s: sample count mismatch want %d got %d", x, y, name, len(want), len(got))
				}
				for i := range want {
					if want[i] != got[i] {
						t.Fatalf("pixel (%d,%d) channel %s sample %d: want %v got %v", x, y, name, i, want[i], got[i])
					}
				}
			}
		}
	}
}

func TestSniffRejectsNonEXR(t *testing.T) {
	if Sniff([]byte("PNG\x00")) {
		t.Fatalf("Sniff accepted a non-EXR header")
	}
	if !Sniff([]byte{0x76, 0x2f, 0x31, 0x01}) {
		t.Fatalf("Sniff rejected a real EXR header")
	}
}
