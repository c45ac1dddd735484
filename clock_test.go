package netsim

import "testing"

func TestClockAdvanceMonotonic(t *testing.T) {
	c := &Clock{}
	c.advance(1.5)
	if c.Now() != 1.5 {
		t.Fatalf("Now() = %v, want 1.5", c.Now())
	}
	c.advance(1.5)
	if c.Now() != 1.5 {
		t.Fatalf("advancing to the same time should be a no-op change, got %v", c.Now())
	}
}

func TestClockAdvanceBackwardsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the clock moves backward")
		}
	}()
	c := &Clock{}
	c.advance(2)
	c.advance(1)
}
