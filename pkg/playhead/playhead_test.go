package playhead

import "testing"

func TestGetReturnsFalseBeforeFirstSet(t *testing.T) {
	s := New(6)
	if _, ok := s.Get(0); ok {
		t.Error("expected no published entry before first Set")
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	s := New(6)
	want := State{PositionRel: 0.5, Playing: true}
	s.Set(2, want)
	got, ok := s.Get(2)
	if !ok || got != want {
		t.Errorf("got %+v, ok=%v, want %+v", got, ok, want)
	}
}

func TestClearRemovesEntry(t *testing.T) {
	s := New(6)
	s.Set(0, State{Playing: true})
	s.Clear(0)
	if _, ok := s.Get(0); ok {
		t.Error("expected entry removed after Clear")
	}
}

func TestOutOfRangeIndexIsNoop(t *testing.T) {
	s := New(2)
	s.Set(10, State{Playing: true}) // must not panic
	if _, ok := s.Get(10); ok {
		t.Error("expected out-of-range Get to report false")
	}
}
