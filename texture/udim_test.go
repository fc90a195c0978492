package texture

import "testing"

func TestUDIMNumberRoundTrip(t *testing.T) {
	cases := []struct{ u, v int }{
		{1, 0}, {1, 1}, {4, 2}, {10, 1}, {1, 10},
	}
	for _, c := range cases {
		n := UDIMNumber(c.u, c.v)
		u, v := SplitUDIM(n)
		if u != c.u || v != c.v {
			t.Fatalf("UDIM(%d,%d) = %d, SplitUDIM back = (%d,%d)", c.u, c.v, n, u, v)
		}
	}
}

func TestUDIMNumberFormula(t *testing.T) {
	if got := UDIMNumber(1, 0); got != 1001 {
		t.Fatalf("UDIMNumber(1,0) = %d, want 1001", got)
	}
	if got := UDIMNumber(4, 2); got != 1024 {
		t.Fatalf("UDIMNumber(4,2) = %d, want 1024", got)
	}
}

func TestResolveUDIM(t *testing.T) {
	path, err := ResolveUDIM("/textures/color.<UDIM>.exr", 4, 2)
	if err != nil {
		t.Fatalf("ResolveUDIM: %v", err)
	}
	if path != "/textures/color.1024.exr" {
		t.Fatalf("resolved path = %q", path)
	}
}

func TestResolveUDIMRejectsMissingPlaceholder(t *testing.T) {
	if _, err := ResolveUDIM("/textures/color.exr", 1, 1); err == nil {
		t.Fatalf("expected an error for a template with no <UDIM> placeholder")
	}
}

func TestUDIMResolverTileForUV(t *testing.T) {
	r := UDIMResolver{Template: "/tex/color.<UDIM>.exr"}
	path, number, err := r.TileForUV(0.5, 0.5)
	if err != nil {
		t.Fatalf("TileForUV: %v", err)
	}
	if number != 1001 {
		t.Fatalf("number = %d, want 1001 (first tile)", number)
	}
	if path != "/tex/color.1001.exr" {
		t.Fatalf("path = %q", path)
	}

	// (s,t) = (1.5, 0.5) lands in the second u column of the first row.
	_, number2, err := r.TileForUV(1.5, 0.5)
	if err != nil {
		t.Fatalf("TileForUV: %v", err)
	}
	if number2 != 1002 {
		t.Fatalf("number = %d, want 1002", number2)
	}
}
