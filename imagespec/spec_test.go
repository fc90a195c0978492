package imagespec

import "testing"

func TestNewImageSpecDefaults(t *testing.T) {
	s := NewImageSpec(64, 32, 4, FormatF32)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := s.ChannelNames; len(got) != 4 || got[0] != "R" || got[3] != "A" {
		t.Fatalf("channel names = %v", got)
	}
	if s.IsTiled() {
		t.Fatalf("fresh spec should be scanline, not tiled")
	}
}

func TestValidateRejectsChannelNameMismatch(t *testing.T) {
	s := NewImageSpec(4, 4, 3, FormatU8)
	s.ChannelNames = []string{"R", "G"}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for channel name count mismatch")
	}
}

func TestValidateRejectsEmptyDataWindow(t *testing.T) {
	s := NewImageSpec(4, 4, 3, FormatU8)
	s.DataWindow = Box{}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for empty data window")
	}
}

func TestValidateRequiresDeepSampleCounts(t *testing.T) {
	s := NewImageSpec(2, 2, 1, FormatF16)
	s.Deep = true
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for missing deep sample counts")
	}
	s.DeepSampleCounts = make([]int, 4)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate with correct sample counts: %v", err)
	}
}

func TestBoxContainsAndOverlaps(t *testing.T) {
	outer := Box{X: 0, Y: 0, Width: 100, Height: 100, Depth: 1}
	inner := Box{X: 10, Y: 10, Width: 20, Height: 20, Depth: 1}
	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	disjoint := Box{X: 200, Y: 200, Width: 10, Height: 10, Depth: 1}
	if outer.Overlaps(disjoint) {
		t.Fatalf("expected no overlap with disjoint box")
	}
	if !outer.Overlaps(inner) {
		t.Fatalf("expected overlap with contained box")
	}
}

func TestDataFormatBytesPerSample(t *testing.T) {
	cases := map[DataFormat]int{
		FormatU8:  1,
		FormatU16: 2,
		FormatU32: 4,
		FormatF16: 2,
		FormatF32: 4,
	}
	for f, want := range cases {
		if got := f.BytesPerSample(); got != want {
			t.Errorf("%s.BytesPerSample() = %d, want %d", f, got, want)
		}
	}
}

func TestChannelIndex(t *testing.T) {
	s := NewImageSpec(1, 1, 4, FormatF32)
	if idx := s.ChannelIndex("B"); idx != 2 {
		t.Fatalf("ChannelIndex(B) = %d, want 2", idx)
	}
	if idx := s.ChannelIndex("Z"); idx != -1 {
		t.Fatalf("ChannelIndex(Z) = %d, want -1", idx)
	}
}
