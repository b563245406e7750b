package position

import "testing"

func TestPositionLess(t *testing.T) {
	cases := []struct {
		a, b Position
		want bool
	}{
		{Position{1, 1}, Position{1, 2}, true},
		{Position{1, 2}, Position{1, 1}, false},
		{Position{1, 5}, Position{2, 1}, true},
		{Position{2, 1}, Position{1, 5}, false},
		{Position{1, 1}, Position{1, 1}, false},
	}
	for _, c := range cases {
		if got := c.a.Less(c.b); got != c.want {
			t.Errorf("%v.Less(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestPositionPackRoundTrip(t *testing.T) {
	p := Position{Line: 42, Column: 7}
	if got := Unpack(p.Pack()); got != p {
		t.Errorf("Unpack(Pack(%v)) = %v", p, got)
	}
}

func TestRangeContains(t *testing.T) {
	outer := Range{Start: Position{1, 1}, End: Position{10, 1}}
	inner := Range{Start: Position{2, 1}, End: Position{3, 1}}
	if !outer.Contains(inner) {
		t.Errorf("expected %v to contain %v", outer, inner)
	}
	if outer.Contains(Range{Start: Position{1, 1}, End: Position{11, 1}}) {
		t.Errorf("did not expect %v to contain a wider range", outer)
	}
}

func TestRangeValid(t *testing.T) {
	if (Range{}).Valid() {
		t.Errorf("zero Range should be invalid")
	}
	r := Range{Start: Position{Line: 1, Column: 1}}
	if !r.Valid() {
		t.Errorf("range with a valid start should be valid")
	}
}

func TestRangeLess(t *testing.T) {
	a := Range{Start: Position{1, 1}, End: Position{1, 5}}
	b := Range{Start: Position{1, 1}, End: Position{1, 10}}
	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
	if b.Less(a) {
		t.Errorf("did not expect %v < %v", b, a)
	}
}
