// Package device adapts the render graph to a PortAudio output stream:
// probing a 2-channel f32 configuration, opening the callback-driven
// stream, and rebuilding it when the default output device changes.
package device

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// preferredSampleRates is tried in order when probing the default output
// device; the device's own default rate is the final fallback.
var preferredSampleRates = []float64{44100, 48000}

const (
	channels           = 2
	minFramesPerBuffer = 1024
	maxFramesPerBuffer = 2048
)

// RenderFunc produces one stereo output frame. Called once per output
// sample pair from the PortAudio callback; must not allocate or block.
type RenderFunc func() (left, right float32)

// OutputStream owns the open PortAudio stream and the device it was opened
// against, so a later Rebuild call can detect a default-device change.
type OutputStream struct {
	stream       *portaudio.Stream
	device       *portaudio.DeviceInfo
	sampleRate   float64
	framesPerBuf int
	render       RenderFunc
	onFrame      func(left, right float32)
}

// Open probes the current default output device for a usable 2-channel f32
// configuration and opens a stream driven by render. onFrame, if non-nil,
// is invoked once per rendered frame for sideband accumulation (spectrum,
// meters) after the frame has been written to the device buffer.
func Open(render RenderFunc, onFrame func(left, right float32)) (*OutputStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("device: initialize portaudio: %w", err)
	}

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("device: no default output device: %w", err)
	}

	o := &OutputStream{device: dev, render: render, onFrame: onFrame}
	if err := o.build(); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return o, nil
}

func (o *OutputStream) build() error {
	sampleRate := probeSampleRate(o.device)
	framesPerBuffer := framesFor(sampleRate)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   o.device,
			Channels: channels,
			Latency:  o.device.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, o.callback)
	if err != nil {
		return fmt.Errorf("device: open output stream on %q: %w", o.device.Name, err)
	}

	o.stream = stream
	o.sampleRate = sampleRate
	o.framesPerBuf = framesPerBuffer
	log.Info("opened output stream", "device", o.device.Name, "sample_rate", sampleRate, "frames_per_buffer", framesPerBuffer)
	return nil
}

// probeSampleRate prefers 44.1kHz, then 48kHz, then the device's own
// default rate, accepting whichever the device reports support for.
func probeSampleRate(dev *portaudio.DeviceInfo) float64 {
	for _, sr := range preferredSampleRates {
		if sr == dev.DefaultSampleRate {
			return sr
		}
	}
	if dev.DefaultSampleRate > 0 {
		return dev.DefaultSampleRate
	}
	return preferredSampleRates[0]
}

func framesFor(sampleRate float64) int {
	// A quarter-buffer near 1024-2048 frames at common rates; clamp to the
	// requested range regardless of rate.
	frames := int(sampleRate / 43)
	if frames < minFramesPerBuffer {
		frames = minFramesPerBuffer
	}
	if frames > maxFramesPerBuffer {
		frames = maxFramesPerBuffer
	}
	return frames
}

// callback is invoked by PortAudio on its realtime audio thread: it must
// not allocate, lock contended mutexes, or block.
func (o *OutputStream) callback(out []float32) {
	frames := len(out) / channels
	for i := 0; i < frames; i++ {
		l, r := o.render()
		out[i*channels] = l
		out[i*channels+1] = r
		if o.onFrame != nil {
			o.onFrame(l, r)
		}
	}
}

// Start begins streaming.
func (o *OutputStream) Start() error {
	if err := o.stream.Start(); err != nil {
		return fmt.Errorf("device: start stream: %w", err)
	}
	return nil
}

// Stop halts streaming without closing the stream.
func (o *OutputStream) Stop() error {
	if err := o.stream.Stop(); err != nil {
		return fmt.Errorf("device: stop stream: %w", err)
	}
	return nil
}

// Close tears down the stream and terminates PortAudio. Safe to call once
// after Stop.
func (o *OutputStream) Close() error {
	var err error
	if o.stream != nil {
		err = o.stream.Close()
		o.stream = nil
	}
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}

// SampleRate reports the rate the stream was opened at.
func (o *OutputStream) SampleRate() float64 { return o.sampleRate }

// Rebuild checks whether the default output device has changed since the
// stream was opened, and if so tears down and reopens on the new device at
// its preferred sample rate. Returns false if nothing changed. Must be
// called outside the audio callback (e.g. on a periodic host-loop tick).
func (o *OutputStream) Rebuild() (bool, error) {
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return false, fmt.Errorf("device: query default output device: %w", err)
	}
	if dev.Name == o.device.Name {
		return false, nil
	}

	if err := o.stream.Stop(); err != nil {
		log.Warn("error stopping stream before rebuild", "err", err)
	}
	if err := o.stream.Close(); err != nil {
		log.Warn("error closing stream before rebuild", "err", err)
	}

	o.device = dev
	if err := o.build(); err != nil {
		return false, err
	}
	if err := o.stream.Start(); err != nil {
		return false, fmt.Errorf("device: restart stream after rebuild: %w", err)
	}
	return true, nil
}
