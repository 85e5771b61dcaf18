// Package harness replays workloads against a storage engine and times
// every task.
package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weiihann/kvbench/workload"
)

// TaskResult is the measured latency of one task.
type TaskResult struct {
	Type    workload.TaskType
	Elapsed time.Duration
}

// Result holds one TaskResult per task of the executed workload, at the
// same index.
type Result []TaskResult

// MarshalJSON encodes r as a [type, nanoseconds] pair.
func (r TaskResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Type, r.Elapsed.Nanoseconds()})
}

// UnmarshalJSON decodes a [type, nanoseconds] pair.
func (r *TaskResult) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task result: %w", err)
	}

	if len(raw) != 2 {
		return fmt.Errorf("task result: expected 2 elements, got %d", len(raw))
	}

	var (
		typ workload.TaskType
		ns  int64
	)

	if err := json.Unmarshal(raw[0], &typ); err != nil {
		return fmt.Errorf("task result type: %w", err)
	}

	switch typ {
	case workload.TypeGet, workload.TypeExists, workload.TypeBatch:
	default:
		return fmt.Errorf("task result: unknown task type %q", typ)
	}

	if err := json.Unmarshal(raw[1], &ns); err != nil {
		return fmt.Errorf("task result elapsed: %w", err)
	}

	if ns < 0 {
		return fmt.Errorf("task result: negative elapsed %d", ns)
	}

	*r = TaskResult{Type: typ, Elapsed: time.Duration(ns)}

	return nil
}

// EncodeResult writes r as a single JSON document.
func EncodeResult(w io.Writer, r Result) error {
	if r == nil {
		r = Result{}
	}

	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

// DecodeResult reads a result written by EncodeResult.
func DecodeResult(r io.Reader) (Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	return res, nil
}
