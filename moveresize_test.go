package main

import "testing"

func TestSnapMoveToClientEdge(t *testing.T) {
	// A 200x200 window dragged so its left edge lands at 303 with a
	// neighbor's right edge at 300 snaps to 300 with a guideline there.
	edges := SnapEdges{Vert: []int{300}, Horz: nil}
	cand := Rect{Left: 303, Top: 400, Right: 503, Bottom: 600}

	snapped, gx, gy := SnapMove(cand, edges, 5)
	if snapped.Left != 300 || snapped.Right != 500 {
		t.Errorf("snapped = %+v, want left 300", snapped)
	}
	if gx != 300 {
		t.Errorf("vertical guideline at %d, want 300", gx)
	}
	if gy != -1 {
		t.Errorf("unexpected horizontal guideline at %d", gy)
	}
}

func TestSnapMoveOutOfThreshold(t *testing.T) {
	edges := SnapEdges{Vert: []int{300}}
	cand := Rect{Left: 306, Top: 0, Right: 506, Bottom: 200}
	snapped, gx, _ := SnapMove(cand, edges, 5)
	if snapped != cand || gx != -1 {
		t.Errorf("snap beyond threshold: %+v guideline %d", snapped, gx)
	}
}

func TestSnapMovePrefersNearestEdge(t *testing.T) {
	edges := SnapEdges{Vert: []int{100, 104}}
	cand := Rect{Left: 103, Top: 0, Right: 303, Bottom: 200}
	snapped, gx, _ := SnapMove(cand, edges, 5)
	if snapped.Left != 104 || gx != 104 {
		t.Errorf("snapped to %d (guideline %d), want nearest edge 104", snapped.Left, gx)
	}
}

func TestSnapMoveBothAxes(t *testing.T) {
	edges := CollectSnapEdges(
		Rect{0, 0, 1920, 1080},
		nil,
		[]Rect{{500, 500, 700, 700}},
	)
	cand := Rect{Left: 702, Top: 497, Right: 902, Bottom: 697}
	snapped, gx, gy := SnapMove(cand, edges, 5)
	if snapped.Left != 700 || gx != 700 {
		t.Errorf("left = %d (guideline %d), want 700", snapped.Left, gx)
	}
	if snapped.Top != 500 || gy != 500 {
		t.Errorf("top = %d (guideline %d), want 500", snapped.Top, gy)
	}
}

func TestSnapResizeOnlyActiveEdges(t *testing.T) {
	edges := SnapEdges{Vert: []int{300, 500}, Horz: []int{300}}
	cand := Rect{Left: 303, Top: 100, Right: 498, Bottom: 301}

	// East handle: only the right edge may snap.
	snapped, gx, gy := SnapResize(cand, Handle{X: 1}, edges, 5)
	if snapped.Left != 303 {
		t.Errorf("east resize moved the left edge to %d", snapped.Left)
	}
	if snapped.Right != 500 || gx != 500 {
		t.Errorf("east resize right = %d (guideline %d), want 500", snapped.Right, gx)
	}
	if gy != -1 {
		t.Errorf("east resize drew a horizontal guideline at %d", gy)
	}

	// South-west corner: left and bottom snap.
	snapped, gx, gy = SnapResize(cand, Handle{X: -1, Y: 1}, edges, 5)
	if snapped.Left != 300 || gx != 300 {
		t.Errorf("south-west resize left = %d (guideline %d), want 300", snapped.Left, gx)
	}
	if snapped.Bottom != 300 || gy != 300 {
		t.Errorf("south-west resize bottom = %d (guideline %d), want 300", snapped.Bottom, gy)
	}
}

func TestHandleAt(t *testing.T) {
	frame := Rect{Left: 0, Top: 0, Right: 300, Bottom: 300}
	cases := []struct {
		x, y int
		want Handle
	}{
		{10, 10, Handle{-1, -1}},
		{150, 10, Handle{0, -1}},
		{290, 10, Handle{1, -1}},
		{10, 150, Handle{-1, 0}},
		{150, 150, Handle{0, 0}},
		{290, 290, Handle{1, 1}},
	}
	for _, tc := range cases {
		if got := handleAt(tc.x, tc.y, frame); got != tc.want {
			t.Errorf("handleAt(%d, %d) = %+v, want %+v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestNextHandleCycles(t *testing.T) {
	h := Handle{-1, -1}
	seen := map[Handle]bool{}
	for i := 0; i < len(handleOrder); i++ {
		if seen[h] {
			t.Fatalf("handle %+v repeated before the cycle closed", h)
		}
		seen[h] = true
		h = nextHandle(h)
	}
	if h != (Handle{-1, -1}) {
		t.Errorf("cycle did not return to the start: %+v", h)
	}
	// The center handle is not part of the resize cycle.
	if seen[Handle{0, 0}] {
		t.Error("center handle appeared in the resize cycle")
	}
}

func TestCollectSnapEdgesOrder(t *testing.T) {
	// Screen edges come first, then CRTCs, then client edges.
	edges := CollectSnapEdges(
		Rect{0, 0, 100, 100},
		[]Rect{{0, 0, 50, 100}},
		[]Rect{{10, 10, 20, 20}},
	)
	wantVert := []int{0, 100, 0, 50, 10, 20}
	if len(edges.Vert) != len(wantVert) {
		t.Fatalf("vert edges = %v", edges.Vert)
	}
	for i, v := range wantVert {
		if edges.Vert[i] != v {
			t.Errorf("vert[%d] = %d, want %d", i, edges.Vert[i], v)
		}
	}
}
