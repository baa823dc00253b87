package game

import (
	"testing"

	"pgregory.net/rapid"
)

func hexGen() *rapid.Generator[Hex] {
	return rapid.Custom(func(t *rapid.T) Hex {
		return Hex{
			Q: rapid.IntRange(-50, 50).Draw(t, "q"),
			R: rapid.IntRange(-50, 50).Draw(t, "r"),
		}
	})
}

func TestHexCubeInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := hexGen().Draw(t, "h")
		if h.Q+h.R+h.S() != 0 {
			t.Fatalf("q+r+s = %d for %v", h.Q+h.R+h.S(), h)
		}
	})
}

func TestHexDistanceMetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := hexGen().Draw(t, "a")
		b := hexGen().Draw(t, "b")
		c := hexGen().Draw(t, "c")
		if d := a.DistanceTo(a); d != 0 {
			t.Fatalf("distance to self = %d", d)
		}
		if a.DistanceTo(b) != b.DistanceTo(a) {
			t.Fatalf("distance not symmetric: %v %v", a, b)
		}
		if a.DistanceTo(c) > a.DistanceTo(b)+b.DistanceTo(c) {
			t.Fatalf("triangle inequality violated: %v %v %v", a, b, c)
		}
	})
}

func TestHexNeighborsAreUnitSteps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := hexGen().Draw(t, "h")
		seen := make(map[Hex]bool)
		for i, n := range h.Neighbors() {
			if h.DistanceTo(n) != 1 {
				t.Fatalf("neighbor %d of %v at distance %d", i, h, h.DistanceTo(n))
			}
			if !h.IsNeighbor(n) {
				t.Fatalf("IsNeighbor(%v, %v) = false", h, n)
			}
			if n.Sub(h) != Directions[i] {
				t.Fatalf("neighbor %d direction = %v, want %v", i, n.Sub(h), Directions[i])
			}
			seen[n] = true
		}
		if len(seen) != 6 {
			t.Fatalf("expected 6 distinct neighbors, got %d", len(seen))
		}
		if h.IsNeighbor(h) {
			t.Fatalf("hex is its own neighbor")
		}
	})
}

func TestHexDirectionsOrder(t *testing.T) {
	want := [6]Hex{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}}
	if Directions != want {
		t.Fatalf("Directions = %v, want %v", Directions, want)
	}
	for _, d := range Directions {
		if !d.IsDirection() {
			t.Fatalf("%v should be a direction", d)
		}
	}
	if (Hex{Q: 2, R: 0}).IsDirection() || Origin.IsDirection() {
		t.Fatalf("non-unit vectors reported as directions")
	}
}

func TestHexString(t *testing.T) {
	if got := NewHex(2, -1).String(); got != "2,-1" {
		t.Fatalf("String() = %q, want %q", got, "2,-1")
	}
}
