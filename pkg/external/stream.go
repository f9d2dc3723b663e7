package external

// OutputStream is the minimal lifecycle the host loop drives against,
// implemented concretely by pkg/device.OutputStream. Kept as an interface
// here so cmd/auricled and tests can depend on the boundary rather than the
// concrete PortAudio adapter.
type OutputStream interface {
	Start() error
	Stop() error
	Close() error
	SampleRate() float64
}
