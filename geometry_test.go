package main

import "testing"

func TestConstrainIncrements(t *testing.T) {
	// Terminal-like hints: base 4x4, increments 6x13, minimum 80x25.
	h := SizeHints{
		Flags:     HintPMinSize | HintPResizeInc | HintPBaseSize,
		MinWidth:  80, MinHeight: 25,
		WidthInc:  6, HeightInc: 13,
		BaseWidth: 4, BaseHeight: 4,
	}
	// Dragging to a candidate width of 500 must land on the largest
	// width w <= 500 with (w-4) mod 6 == 0, i.e. 496.
	w, hh := h.Constrain(500, 400)
	if w != 496 {
		t.Errorf("width = %d, want 496", w)
	}
	if (hh-4)%13 != 0 || hh > 400 {
		t.Errorf("height = %d, want base+k*13 <= 400", hh)
	}

	i, j := h.Increments(w, hh)
	if 4+i*6 != w || 4+j*13 != hh {
		t.Errorf("Increments(%d, %d) = %d, %d does not reconstruct", w, hh, i, j)
	}
}

func TestConstrainMinMax(t *testing.T) {
	h := SizeHints{
		Flags:    HintPMinSize | HintPMaxSize,
		MinWidth: 100, MinHeight: 50,
		MaxWidth: 300, MaxHeight: 200,
	}
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{10, 10, 100, 50},
		{150, 100, 150, 100},
		{500, 500, 300, 200},
	}
	for _, tc := range cases {
		w, hh := h.Constrain(tc.w, tc.h)
		if w != tc.wantW || hh != tc.wantH {
			t.Errorf("Constrain(%d, %d) = %d, %d, want %d, %d",
				tc.w, tc.h, w, hh, tc.wantW, tc.wantH)
		}
	}
}

func TestConstrainNoHints(t *testing.T) {
	var h SizeHints
	if w, hh := h.Constrain(123, 456); w != 123 || hh != 456 {
		t.Errorf("Constrain without hints altered the size: %d, %d", w, hh)
	}
}

func TestConstrainAspect(t *testing.T) {
	// Lock to 4:3 .. 16:9.
	h := SizeHints{
		Flags:      HintPAspect,
		MinAspectX: 4, MinAspectY: 3,
		MaxAspectX: 16, MaxAspectY: 9,
	}
	w, hh := h.Constrain(2000, 900) // wider than 16:9
	if w*9 > hh*16 {
		t.Errorf("Constrain left aspect above max: %dx%d", w, hh)
	}
	w, hh = h.Constrain(400, 900) // narrower than 4:3
	if w*3 < hh*4 {
		t.Errorf("Constrain left aspect below min: %dx%d", w, hh)
	}
}

func TestGeometryOuter(t *testing.T) {
	g := Geometry{X: 10, Y: 20, Width: 100, Height: 50, Border: 2}
	r := g.Outer()
	if r.Left != 10 || r.Top != 20 || r.Right != 114 || r.Bottom != 74 {
		t.Errorf("Outer() = %+v", r)
	}
	if r.Width() != 104 || r.Height() != 54 {
		t.Errorf("Width/Height = %d, %d", r.Width(), r.Height())
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	if !r.Contains(0, 0) || !r.Contains(99, 99) {
		t.Error("Contains excluded interior points")
	}
	if r.Contains(100, 50) || r.Contains(50, -1) {
		t.Error("Contains included exterior points")
	}
}
