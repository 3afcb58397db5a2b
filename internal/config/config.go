package config

// Analysis settings
const (
	// FFTSize is the transform length per interval; gofft requires a
	// power of two.
	FFTSize = 2048

	// DefaultBands is how many frequency bands intervals are binned into.
	DefaultBands = 64

	// DefaultIntervals is the number of analysis intervals the CLI asks
	// for when none is given, roughly one per terminal column.
	DefaultIntervals = 120
)
