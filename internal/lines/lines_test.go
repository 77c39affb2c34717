package lines

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/keysight/internal/geometry"
)

func TestFilterHorizontal(t *testing.T) {
	in := []geometry.Segment{
		geometry.Seg(0, 0, 100, 2),    // ~1.1 degrees, kept
		geometry.Seg(0, 0, 100, 10),   // ~5.7 degrees, dropped
		geometry.Seg(50, 0, 0, 1),     // pointing left, kept
		geometry.Seg(10, 0, 10, 100),  // vertical, dropped
		geometry.Seg(200, 50, 90, 49), // kept
	}

	got := FilterHorizontal(in, 4)
	want := []geometry.Segment{
		geometry.Seg(0, 0, 100, 2),
		geometry.Seg(50, 0, 0, 1),
		geometry.Seg(200, 50, 90, 49),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterHorizontal() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterHorizontal_StableOrder(t *testing.T) {
	in := []geometry.Segment{
		geometry.Seg(10, 5, 50, 5),
		geometry.Seg(10, 9, 80, 9),
		geometry.Seg(0, 1, 30, 1),
	}

	got := FilterHorizontal(in, 4)
	want := []geometry.Segment{in[2], in[0], in[1]}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments with equal x should keep input order (-want +got):\n%s", diff)
	}
}

func TestClusterer_Group(t *testing.T) {
	c := Clusterer{Distance: 12, Angle: 10}

	t.Run("close collinear segments share a group", func(t *testing.T) {
		segs := []geometry.Segment{
			geometry.Seg(0, 100, 50, 100),
			geometry.Seg(55, 101, 120, 101),
			geometry.Seg(0, 300, 100, 300),
		}

		groups := c.Group(segs)
		if len(groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(groups))
		}
		if diff := cmp.Diff([]int{0, 1}, groups[0].Members); diff != "" {
			t.Errorf("first group mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]int{2}, groups[1].Members); diff != "" {
			t.Errorf("second group mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("crossing segments stay apart", func(t *testing.T) {
		segs := []geometry.Segment{
			geometry.Seg(0, 50, 100, 50),
			geometry.Seg(50, 0, 50, 100),
		}

		if groups := c.Group(segs); len(groups) != 2 {
			t.Errorf("expected 2 groups for perpendicular segments, got %d", len(groups))
		}
	})

	t.Run("late segment joins through a claimed member", func(t *testing.T) {
		a := geometry.Seg(0, 0, 100, 0)
		b := geometry.Seg(108, 0, 200, 0)
		cc := geometry.Seg(208, 0, 300, 0)

		groups := c.Group([]geometry.Segment{a, cc, b})
		if len(groups) != 1 {
			t.Fatalf("expected the chain to form 1 group, got %d", len(groups))
		}
		if diff := cmp.Diff([]int{0, 2, 1}, groups[0].Members); diff != "" {
			t.Errorf("membership order mismatch (-want +got):\n%s", diff)
		}

		if groups := c.Group([]geometry.Segment{a, cc}); len(groups) != 2 {
			t.Errorf("without the link segment expected 2 groups, got %d", len(groups))
		}
	})

	t.Run("degenerate segment never joins", func(t *testing.T) {
		segs := []geometry.Segment{
			geometry.Seg(0, 100, 50, 100),
			geometry.Seg(10, 100, 10, 100),
			geometry.Seg(20, 100, 20, 100),
		}

		groups := c.Group(segs)
		if len(groups) != 3 {
			t.Fatalf("expected every degenerate segment alone, got %d groups", len(groups))
		}
		for i, g := range groups {
			if len(g.Members) != 1 {
				t.Errorf("group %d has %d members, want 1", i, len(g.Members))
			}
		}
	})

	t.Run("each segment owned exactly once", func(t *testing.T) {
		segs := []geometry.Segment{
			geometry.Seg(0, 0, 100, 0),
			geometry.Seg(50, 2, 150, 2),
			geometry.Seg(140, 3, 260, 3),
			geometry.Seg(0, 40, 100, 40),
			geometry.Seg(90, 41, 200, 41),
		}

		seen := make(map[int]int)
		for _, g := range c.Group(segs) {
			for _, m := range g.Members {
				seen[m]++
			}
		}
		for i := range segs {
			if seen[i] != 1 {
				t.Errorf("segment %d owned %d times, want 1", i, seen[i])
			}
		}
	})
}

func TestClusterer_NoFalseSplits(t *testing.T) {
	c := Clusterer{Distance: 12, Angle: 10}
	rng := rand.New(rand.NewSource(7))

	jitter := func() float64 { return rng.Float64()*4 - 2 }
	family := func(y float64, n int) []geometry.Segment {
		out := make([]geometry.Segment, n)
		for i := range out {
			out[i] = geometry.Seg(100+jitter(), y+jitter(), 400+jitter(), y+jitter())
		}
		return out
	}

	for trial := 0; trial < 20; trial++ {
		top := family(200, 8)
		bottom := family(400, 8)

		segs := make([]geometry.Segment, 0, 16)
		for i := range top {
			segs = append(segs, top[i], bottom[i])
		}

		groups := c.Group(segs)
		if len(groups) != 2 {
			t.Fatalf("trial %d: expected 2 groups, got %d", trial, len(groups))
		}
		for gi, g := range groups {
			parity := g.Seed() % 2
			for _, m := range g.Members {
				if m%2 != parity {
					t.Errorf("trial %d: group %d mixes families", trial, gi)
				}
			}
			if len(g.Members) != 8 {
				t.Errorf("trial %d: group %d has %d members, want 8", trial, gi, len(g.Members))
			}
		}
	}
}

func TestCollapse(t *testing.T) {
	t.Run("single member returned as is", func(t *testing.T) {
		s := geometry.Seg(30, 5, 10, 5)
		if got := Collapse([]geometry.Segment{s}); got != s {
			t.Errorf("Collapse() = %v, want %v", got, s)
		}
	})

	t.Run("horizontal group spans extreme x", func(t *testing.T) {
		got := Collapse([]geometry.Segment{
			geometry.Seg(50, 10, 100, 11),
			geometry.Seg(0, 9, 40, 10),
			geometry.Seg(90, 11, 160, 12),
		})
		want := geometry.Seg(0, 9, 160, 12)
		if got != want {
			t.Errorf("Collapse() = %v, want %v", got, want)
		}
	})

	t.Run("vertical seed sorts by y", func(t *testing.T) {
		got := Collapse([]geometry.Segment{
			geometry.Seg(10, 50, 11, 100),
			geometry.Seg(12, 0, 11, 40),
		})
		want := geometry.Seg(12, 0, 11, 100)
		if got != want {
			t.Errorf("Collapse() = %v, want %v", got, want)
		}
	})
}

func TestMerger_Combine(t *testing.T) {
	m := Merger{Distance: 50, Angle: 1}

	tests := []struct {
		name   string
		a, b   geometry.Line
		wantOK bool
		want   geometry.Line
	}{
		{
			name:   "collinear with small gap",
			a:      geometry.Seg(0, 100, 200, 100),
			b:      geometry.Seg(230, 100, 500, 100),
			wantOK: true,
			want:   geometry.Seg(0, 100, 500, 100),
		},
		{
			name: "gap too wide",
			a:    geometry.Seg(0, 100, 200, 100),
			b:    geometry.Seg(260, 100, 500, 100),
		},
		{
			name: "contained line would shrink the extent",
			a:    geometry.Seg(0, 100, 500, 100),
			b:    geometry.Seg(30, 100, 480, 100),
		},
		{
			name: "diverging orientation",
			a:    geometry.Seg(0, 100, 200, 100),
			b:    geometry.Seg(210, 100, 400, 130),
		},
		{
			name: "degenerate input",
			a:    geometry.Seg(0, 100, 200, 100),
			b:    geometry.Seg(210, 100, 210, 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Combine(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("Combine() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Combine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerger_FusionNeverShrinks(t *testing.T) {
	m := Merger{Distance: 50, Angle: 5}
	rng := rand.New(rand.NewSource(42))

	accepted := 0
	for i := 0; i < 2000; i++ {
		a := geometry.Seg(rng.Float64()*300, 100+rng.Float64()*4, rng.Float64()*300, 100+rng.Float64()*4)
		b := geometry.Seg(rng.Float64()*300, 100+rng.Float64()*4, rng.Float64()*300, 100+rng.Float64()*4)

		fused, ok := m.Combine(a, b)
		if !ok {
			continue
		}
		accepted++
		if fused.LengthSq() <= a.LengthSq() || fused.LengthSq() <= b.LengthSq() {
			t.Fatalf("fusion of %v and %v shrank to %v", a, b, fused)
		}
	}

	if accepted == 0 {
		t.Fatal("expected at least one accepted fusion")
	}
}

func TestMerger_Merge(t *testing.T) {
	m := Merger{Distance: 50, Angle: 1}

	t.Run("chain collapses to one line", func(t *testing.T) {
		in := []geometry.Line{
			geometry.Seg(0, 0, 100, 0),
			geometry.Seg(120, 0, 200, 0),
			geometry.Seg(230, 0, 300, 0),
		}

		got := m.Merge(in)
		if len(got) != 1 {
			t.Fatalf("expected 1 line, got %d: %v", len(got), got)
		}
		if got[0].LeftFirst() != geometry.Seg(0, 0, 300, 0) {
			t.Errorf("merged line = %v, want (0,0)-(300,0)", got[0])
		}
		if len(in) != 3 {
			t.Error("input slice should not be modified")
		}
	})

	t.Run("separate edges are kept", func(t *testing.T) {
		in := []geometry.Line{
			geometry.Seg(0, 0, 500, 0),
			geometry.Seg(0, 300, 500, 300),
		}

		if diff := cmp.Diff(in, m.Merge(in)); diff != "" {
			t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMerge_Pipeline(t *testing.T) {
	raw := []geometry.Segment{
		geometry.Seg(305, 201, 600, 202),
		geometry.Seg(400, 150, 402, 350),
		geometry.Seg(100, 200, 300, 201),
		geometry.Seg(90, 500, 910, 505),
		geometry.Seg(606, 202, 900, 203),
	}

	res := Merge(raw, DefaultParams())

	if len(res.Horizontal) != 4 {
		t.Errorf("expected 4 horizontal segments, got %d", len(res.Horizontal))
	}
	if len(res.Clustered) != 2 {
		t.Fatalf("expected 2 clustered lines, got %d: %v", len(res.Clustered), res.Clustered)
	}

	want := []geometry.Line{
		geometry.Seg(90, 500, 910, 505),
		geometry.Seg(100, 200, 900, 203),
	}
	if diff := cmp.Diff(want, res.Merged); diff != "" {
		t.Errorf("merged lines mismatch (-want +got):\n%s", diff)
	}
}
