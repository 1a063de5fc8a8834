package haptic

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestPulseLengthAndFade(t *testing.T) {
	p := Pulse(100 * time.Millisecond)
	wantSamples := int(0.1 * SampleRate)
	if len(p) != wantSamples*2 {
		t.Fatalf("len = %d bytes, want %d", len(p), wantSamples*2)
	}
	first := int16(binary.LittleEndian.Uint16(p[0:2]))
	last := int16(binary.LittleEndian.Uint16(p[len(p)-2:]))
	if first != 0 || last != 0 {
		t.Fatalf("pulse should fade to silence at both ends, got %d and %d", first, last)
	}
	var peak int16
	for i := 0; i < len(p); i += 2 {
		if v := int16(binary.LittleEndian.Uint16(p[i:])); v > peak {
			peak = v
		}
	}
	if peak == 0 {
		t.Fatalf("pulse is silent")
	}
}

func TestPulseZeroDuration(t *testing.T) {
	if p := Pulse(0); p != nil {
		t.Fatalf("Pulse(0) = %d bytes, want nil", len(p))
	}
}

func TestNoopBuzz(t *testing.T) {
	var b Buzzer = Noop{}
	b.Buzz()
}
