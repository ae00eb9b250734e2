package timer

import "slices"

// Export keys of Result.Map.
const (
	KeyRuntimes = "runtimes"
	KeyMean     = "tmean"
	KeyStdev    = "tstdev"
)

// Result is a snapshot of a completed measurement.
type Result struct {
	Tag      string    `json:"tag" yaml:"tag"`
	Runs     int       `json:"runs" yaml:"runs"`
	Runtimes []float64 `json:"runtimes" yaml:"runtimes"`
	Mean     float64   `json:"tmean" yaml:"tmean"`
	Stdev    float64   `json:"tstdev" yaml:"tstdev"`
}

// Map returns the runtimes, mean and standard deviation keyed by
// KeyRuntimes, KeyMean and KeyStdev. With withTag each key becomes
// "<tag>_<key>".
func (r Result) Map(withTag bool) map[string]any {
	prefix := ""
	if withTag {
		prefix = r.Tag + "_"
	}
	return map[string]any{
		prefix + KeyRuntimes: slices.Clone(r.Runtimes),
		prefix + KeyMean:     r.Mean,
		prefix + KeyStdev:    r.Stdev,
	}
}
