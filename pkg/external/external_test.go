package external

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildMonoWav builds a minimal valid 16-bit PCM mono WAV in memory.
func buildMonoWav(samples []int16, sampleRate uint32) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}
	dataBytes := data.Bytes()

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(dataBytes)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	byteRate := sampleRate * 1 * 16 / 8
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(dataBytes)))
	buf.Write(dataBytes)

	return buf.Bytes()
}

func TestDecodeWavDownmixesMonoAndReportsSampleRate(t *testing.T) {
	raw := buildMonoWav([]int16{0, 16384, -16384, 0}, 44100)
	samples, sr, err := decodeWav(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decodeWav: %v", err)
	}
	if sr != 44100 {
		t.Errorf("got sample rate %v, want 44100", sr)
	}
	if len(samples) != 4 {
		t.Fatalf("got %d samples, want 4", len(samples))
	}
	if samples[1] <= 0 {
		t.Errorf("expected positive sample at index 1, got %v", samples[1])
	}
}

func TestPathSandboxAllowsPathsUnderBase(t *testing.T) {
	s, err := NewPathSandbox("/tmp/auricle-samples")
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := s.Resolve("kick.wav")
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if resolved == "" {
		t.Error("expected a non-empty resolved path")
	}
}

func TestPathSandboxRejectsTraversalEscape(t *testing.T) {
	s, err := NewPathSandbox("/tmp/auricle-samples")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve("../../etc/passwd"); err == nil {
		t.Error("expected traversal escape to be rejected")
	}
}

func TestPathSandboxAllowsNestedSubdirectories(t *testing.T) {
	s, err := NewPathSandbox("/tmp/auricle-samples")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve("Drums/pack1/kick.wav"); err != nil {
		t.Errorf("expected nested subdirectory to resolve, got %v", err)
	}
}
