// Package report summarizes the task latencies of a workload run.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/kvbench/harness"
	"github.com/weiihann/kvbench/workload"
)

// ErrEmptyResult is returned when there are no task latencies to
// summarize.
var ErrEmptyResult = errors.New("no task results to report")

// Report summarizes task latencies in microseconds.
type Report struct {
	Total         float64 `json:"total"`
	Median        float64 `json:"median"`
	LowerQuartile float64 `json:"lower_quartile"`
	UpperQuartile float64 `json:"upper_quartile"`
}

// Generate pools the latencies of every task in result, regardless of
// task type, and summarizes them. Quartiles interpolate linearly between
// the two nearest ranks at position p*(n-1) of the sorted data.
func Generate(result harness.Result) (Report, error) {
	if len(result) == 0 {
		return Report{}, ErrEmptyResult
	}

	return summarize(micros(result)), nil
}

// micros converts elapsed times to fractional microseconds.
func micros(result harness.Result) []float64 {
	data := make([]float64, len(result))
	for i, r := range result {
		data[i] = float64(r.Elapsed.Nanoseconds()) / 1000
	}

	return data
}

func summarize(data []float64) Report {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range data {
		total += v
	}

	return Report{
		Total:         total,
		Median:        quantile(sorted, 0.5),
		LowerQuartile: quantile(sorted, 0.25),
		UpperQuartile: quantile(sorted, 0.75),
	}
}

// quantile returns the p-quantile of sorted, which must not be empty.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(pos)

	if lo+1 >= len(sorted) {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// GenerateJSON writes rep as indented JSON to w.
func GenerateJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rep)
}

// GenerateMarkdown writes a markdown latency table for result: one row
// for all tasks, then one row per task type present.
func GenerateMarkdown(w io.Writer, result harness.Result) error {
	all, err := Generate(result)
	if err != nil {
		return err
	}

	byType := make(map[workload.TaskType]harness.Result)
	for _, r := range result {
		byType[r.Type] = append(byType[r.Type], r)
	}

	fmt.Fprintln(w, "## Latency (µs)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Tasks | Count | Total | Lower Quartile | Median | Upper Quartile |")
	fmt.Fprintln(w, "|-------|-------|-------|----------------|--------|----------------|")

	writeRow(w, "all", len(result), all)

	for _, typ := range []workload.TaskType{
		workload.TypeGet, workload.TypeExists, workload.TypeBatch,
	} {
		rs, ok := byType[typ]
		if !ok {
			continue
		}

		rep, err := Generate(rs)
		if err != nil {
			return err
		}

		writeRow(w, string(typ), len(rs), rep)
	}

	return nil
}

func writeRow(w io.Writer, label string, count int, rep Report) {
	fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
		label,
		humanize.Comma(int64(count)),
		formatMicros(rep.Total),
		formatMicros(rep.LowerQuartile),
		formatMicros(rep.Median),
		formatMicros(rep.UpperQuartile),
	)
}

func formatMicros(us float64) string {
	return humanize.CommafWithDigits(us, 3)
}
