// Package report encodes timer results for output.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/slimtimer/internal/timer"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// ErrUnknownFormat is returned for formats other than the supported ones.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatCSV}
}

// IsFormat reports whether format is supported.
func IsFormat(format string) bool {
	return slices.Contains(Formats(), format)
}

// Format renders res in the given format. An empty format means text.
// withTag prefixes exported keys with the result's tag.
func Format(res timer.Result, format string, withTag bool) (string, error) {
	switch format {
	case "", FormatText:
		return formatText(res), nil
	case FormatJSON:
		return formatJSON(res, withTag)
	case FormatYAML:
		return formatYAML(res, withTag)
	case FormatCSV:
		return formatCSV(res)
	default:
		return "", fmt.Errorf("%w: %s (must be one of: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Write renders res and writes it to w.
func Write(w io.Writer, res timer.Result, format string, withTag bool) error {
	out, err := Format(res, format, withTag)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// formatJSON formats the exported mapping as indented JSON.
func formatJSON(res timer.Result, withTag bool) (string, error) {
	bts, err := json.MarshalIndent(res.Map(withTag), "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

// formatYAML formats the exported mapping as YAML.
func formatYAML(res timer.Result, withTag bool) (string, error) {
	bts, err := yaml.Marshal(res.Map(withTag))
	if err != nil {
		return "", err
	}
	return string(bts), nil
}

// formatCSV writes one row per run.
func formatCSV(res timer.Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"tag", "run", "seconds"}); err != nil {
		return "", err
	}
	for i, s := range res.Runtimes {
		row := []string{res.Tag, strconv.Itoa(i), strconv.FormatFloat(s, 'f', 9, 64)}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText formats a one-line human readable summary.
func formatText(res timer.Result) string {
	lo, hi := timer.Bounds(res.Runtimes)
	return fmt.Sprintf("%s: %d runs, mean: %v, stdev: %v, min: %v, max: %v\n",
		res.Tag, res.Runs,
		seconds(res.Mean), seconds(res.Stdev), seconds(lo), seconds(hi))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
