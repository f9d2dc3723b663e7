// Command auricled is the headless audio host: it loads configuration,
// opens the output device, and runs the render graph until told to quit.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/auricle/auricle/pkg/config"
	"github.com/auricle/auricle/pkg/control"
	"github.com/auricle/auricle/pkg/device"
	"github.com/auricle/auricle/pkg/engine"
	"github.com/auricle/auricle/pkg/external"
	"github.com/auricle/auricle/pkg/logging"
	"github.com/auricle/auricle/pkg/param"
	"github.com/auricle/auricle/pkg/sideband"
)

func main() {
	var configPath = pflag.StringP("config", "c", "", "Path to a YAML config file.")
	var logLevel = pflag.StringP("log-level", "l", "", "Override the configured log level (debug, info, warn, error).")
	var logFile = pflag.String("log-file", "", "Override the configured log file (default stderr).")
	var partCount = pflag.IntP("parts", "p", 0, "Override the configured part count.")
	var previewPath = pflag.String("preview", "", "Decode and audition a sample (relative to samples-dir) on startup.")
	var recordPath = pflag.String("record", "", "Capture the mixed mono bus to a 16-bit PCM WAV file at this path for the whole run.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: auricled [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auricled: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *partCount > 0 {
		cfg.PartCount = *partCount
	}

	logOut, err := openLogFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auricled: %v\n", err)
		os.Exit(1)
	}
	var logWriter io.Writer
	if logOut != nil {
		defer logOut.Close()
		logWriter = logOut
	}
	logger := logging.New(logWriter, parseLevel(cfg.LogLevel), 256)
	defer logger.Close()

	logger.PostInfo(fmt.Sprintf("starting with %d parts at %.0f Hz", cfg.PartCount, cfg.SampleRate))

	store := param.NewStore()
	queue := control.NewQueue()
	graph := engine.New(cfg.SampleRate, cfg.PartCount, store)

	spectrum := sideband.NewSpectrum(cfg.SampleRate, 4)
	meter := sideband.NewMeter(4)

	decoder := external.NewWavDecoder()
	sandbox, err := external.NewPathSandbox(cfg.SamplesDir)
	if err != nil {
		logger.PostWarn("samples sandbox unavailable", err)
	}
	if *previewPath != "" && sandbox != nil {
		if msg, err := loadPreviewMessage(sandbox, decoder, *previewPath); err != nil {
			logger.PostWarn("preview sample load failed", err)
		} else {
			queue.Send(msg)
		}
	}
	if *recordPath != "" {
		queue.Send(control.MsgStartRecording(*recordPath))
	}

	stream, err := device.Open(graph.RenderFrame, func(left, right float32) {
		spectrum.Push(left, right)
		meter.Push(left, right)
	})
	if err != nil {
		logger.PostError("failed to open output device", err)
		os.Exit(1)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.PostError("failed to start output stream", err)
		os.Exit(1)
	}
	defer stream.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runControlLoop(graph, queue, stream, logger, sig)
}

const controlDrainInterval = 5 * time.Millisecond
const deviceCheckInterval = 2 * time.Second

// runControlLoop drains the control queue into the render graph on a fixed
// tick, stopping on SIGINT/SIGTERM. The audio callback itself never touches
// the queue: draining happens here, off the realtime thread, consistent
// with how the render graph expects DrainControl to be called between
// buffers rather than per sample. It also polls, on a much coarser tick,
// whether the OS default output device has changed and rebuilds the stream
// if so.
func runControlLoop(graph *engine.Graph, queue *control.Queue, stream *device.OutputStream, logger *logging.Logger, sig <-chan os.Signal) {
	drainTicker := time.NewTicker(controlDrainInterval)
	defer drainTicker.Stop()
	deviceTicker := time.NewTicker(deviceCheckInterval)
	defer deviceTicker.Stop()

	for {
		select {
		case <-sig:
			logger.PostInfo("shutting down")
			if err := graph.Close(); err != nil {
				logger.PostWarn("recording finalize failed", err)
			}
			return
		case <-drainTicker.C:
			graph.DrainControl(queue)
			if err := graph.RecordingError(); err != nil {
				logger.PostWarn("recording error", err)
			}
		case <-deviceTicker.C:
			rebuilt, err := stream.Rebuild()
			if err != nil {
				logger.PostWarn("device rebuild failed", err)
			} else if rebuilt {
				logger.PostInfo("output device changed, stream rebuilt")
			}
		}
	}
}

// loadPreviewMessage resolves relPath within the sample sandbox, decodes it,
// and builds the control message that auditions it through the preview
// sampler once queued.
func loadPreviewMessage(sandbox *external.PathSandbox, decoder external.SampleDecoder, relPath string) (control.Message, error) {
	full, err := sandbox.Resolve(relPath)
	if err != nil {
		return control.Message{}, fmt.Errorf("resolve %q: %w", relPath, err)
	}
	samples, sr, err := decoder.Decode(full)
	if err != nil {
		return control.Message{}, fmt.Errorf("decode %q: %w", full, err)
	}
	return control.Message{Kind: control.PreviewSample, Decoded: samples, SampleRate: sr}, nil
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, nil
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
