package tui

import (
	"testing"
	"time"
)

func TestPendingAnimatorLoop(t *testing.T) {
	a := NewPendingAnimator(1250*time.Millisecond, 250*time.Millisecond)
	if a.Arm() != nil {
		t.Fatalf("idle animator should not arm")
	}

	a.Start()
	if a.Arm() == nil {
		t.Fatalf("Start should arm the first tick")
	}
	if a.Arm() != nil {
		t.Fatalf("Arm must fire only once per loop")
	}

	if a.OnTick() == nil || a.Frame() != 1 {
		t.Fatalf("pending tick should rearm and advance, frame = %d", a.Frame())
	}
	if a.OnTick() == nil || a.Frame() != 2 {
		t.Fatalf("frame = %d, want 2", a.Frame())
	}

	a.Stop()
	if a.Frame() != 0 {
		t.Fatalf("stopped animator should show the static frame")
	}
	if a.OnTick() != nil {
		t.Fatalf("tick after Stop must not rearm")
	}
	if a.Running() {
		t.Fatalf("loop should be finished")
	}
}

func TestPendingAnimatorRestartWhileTickInFlight(t *testing.T) {
	a := NewPendingAnimator(time.Second, 250*time.Millisecond)
	a.Start()
	a.Arm()

	// reply arrives, then a new exchange starts before the pending tick fires
	a.Stop()
	a.Start()
	if a.Arm() != nil {
		t.Fatalf("restart with a tick in flight must not arm a second loop")
	}
	if a.OnTick() == nil {
		t.Fatalf("in-flight tick should keep the loop alive")
	}
}

func TestPendingAnimatorRestartAfterLoopEnded(t *testing.T) {
	a := NewPendingAnimator(time.Second, 0)
	a.Start()
	a.Arm()
	a.Stop()
	a.OnTick()

	a.Start()
	if a.Arm() == nil {
		t.Fatalf("a finished loop should be armed again")
	}
}
