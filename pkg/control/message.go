// Package control implements the many-producer, single-consumer transport carrying commands from the UI / control context
// into the audio thread.
package control

import "github.com/auricle/auricle/pkg/param"

// Kind identifies the concrete EngineMsg variant carried by a Message.
type Kind uint8

const (
	SetParam Kind = iota
	NoteOn
	NoteOff
	SetTempo
	Transport
	StartRecording
	StopRecording
	LoadSample
	ClearSample
	PreviewSample
	StopPreview
	LoadDrumPack
	Quit
)

// Message is the closed tagged variant over every control-thread-to-audio-
// thread command. Only the fields relevant to Kind are populated; the rest
// are zero value.
type Message struct {
	Kind Kind

	Path  string
	Value param.Value

	Part uint
	Note uint8
	Vel  float32

	BPM float32

	Playing bool

	// SamplePath is the destination file for StartRecording; it is unused
	// by every other Kind (LoadSample/PreviewSample instead ship an
	// already-decoded buffer, see Decoded below).
	SamplePath string
	DrumPaths  []string

	// Decoded (LoadSample / PreviewSample) or DecodedSets (LoadDrumPack, one
	// buffer per slot), with their SampleRate, carry ownership of audio
	// already decoded off the audio thread (see pkg/external.SampleDecoder).
	Decoded     []float32
	DecodedSets [][]float32
	SampleRate  float64
}

func MsgSetParam(path string, v param.Value) Message {
	return Message{Kind: SetParam, Path: path, Value: v}
}

func MsgNoteOn(part uint, note uint8, vel float32) Message {
	return Message{Kind: NoteOn, Part: part, Note: note, Vel: vel}
}

func MsgNoteOff(part uint, note uint8) Message {
	return Message{Kind: NoteOff, Part: part, Note: note}
}

func MsgSetTempo(bpm float32) Message {
	return Message{Kind: SetTempo, BPM: clampBPM(bpm)}
}

func MsgTransport(playing bool) Message {
	return Message{Kind: Transport, Playing: playing}
}

func MsgQuit() Message { return Message{Kind: Quit} }

// MsgStartRecording begins capturing the mixed mono bus to a 16-bit PCM WAV
// file at path. SamplePath carries the destination even though the
// conceptual StartRecording variant takes no arguments: the host resolves
// and owns the filename, the engine just needs somewhere to write.
func MsgStartRecording(path string) Message {
	return Message{Kind: StartRecording, SamplePath: path}
}

func MsgStopRecording() Message { return Message{Kind: StopRecording} }

func clampBPM(bpm float32) float32 {
	if bpm < 40 {
		return 40
	}
	if bpm > 300 {
		return 300
	}
	return bpm
}
