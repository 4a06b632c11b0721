package utils

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"", ""},
		{"x", "x"},
		{"lhs.0", "lhs_0"},
		{"0size", "_0size"},
		{"tile-size/x", "tile_size_x"},
	} {
		if got := NormalizeIdentifier(tc.in); got != tc.want {
			t.Errorf("NormalizeIdentifier(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSet(t *testing.T) {
	s := SetWith(1, 3)
	if !s.Has(1) || s.Has(2) {
		t.Errorf("unexpected set contents %v", s)
	}
	s.Insert(2)
	if !s.Has(2) || len(s) != 3 {
		t.Errorf("unexpected set contents after insert %v", s)
	}
}
