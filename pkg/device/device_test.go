package device

import (
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestProbeSampleRatePrefers44100ThenDeviceDefault(t *testing.T) {
	dev := &portaudio.DeviceInfo{DefaultSampleRate: 44100}
	if got := probeSampleRate(dev); got != 44100 {
		t.Errorf("got %v, want 44100", got)
	}
}

func TestProbeSampleRateFallsBackToDeviceDefaultSampleRate(t *testing.T) {
	dev := &portaudio.DeviceInfo{DefaultSampleRate: 96000}
	if got := probeSampleRate(dev); got != 96000 {
		t.Errorf("got %v, want the device's own default rate 96000", got)
	}
}

func TestFramesForClampsToRequestedRange(t *testing.T) {
	if f := framesFor(8000); f < minFramesPerBuffer {
		t.Errorf("expected frames clamped up to %d, got %d", minFramesPerBuffer, f)
	}
	if f := framesFor(192000); f > maxFramesPerBuffer {
		t.Errorf("expected frames clamped down to %d, got %d", maxFramesPerBuffer, f)
	}
	if f := framesFor(44100); f < minFramesPerBuffer || f > maxFramesPerBuffer {
		t.Errorf("expected frames within [%d,%d] at 44.1kHz, got %d", minFramesPerBuffer, maxFramesPerBuffer, f)
	}
}
