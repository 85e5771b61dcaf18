package harness

import (
	"fmt"
	"log/slog"
	mrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/kvbench/store"
	"github.com/weiihann/kvbench/workload"
)

// TaskError reports the task whose backend call aborted a run.
type TaskError struct {
	Index int
	Type  workload.TaskType
	// Step is the backend call that failed: get, exists, begin, put,
	// delete or commit.
	Step string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s): %s: %v", e.Index, e.Type, e.Step, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// RunConfig selects the engine a workload is replayed against.
type RunConfig struct {
	Engine string
	DBDir  string
}

// Runner replays workloads one task at a time. It is not safe for
// concurrent use.
type Runner struct {
	Logger *slog.Logger
	rng    *mrand.Rand
}

// NewRunner creates a Runner whose generated put values are drawn from a
// source seeded with seed.
func NewRunner(logger *slog.Logger, seed int64) *Runner {
	return &Runner{
		Logger: logger,
		rng:    mrand.New(mrand.NewSource(seed)),
	}
}

// Run opens the configured engine, executes w against it and closes the
// engine again. The engine directory is left in place so later workloads
// can run against the data this one wrote.
func (r *Runner) Run(w workload.Workload, cfg RunConfig) (Result, error) {
	logger := r.Logger.With(slog.String("engine", cfg.Engine))

	st, err := store.Open(cfg.Engine, cfg.DBDir, logger)
	if err != nil {
		return nil, err
	}

	sum := w.Summarize()
	logger.Info("starting workload",
		slog.String("db_dir", cfg.DBDir),
		slog.Int("tasks", sum.Tasks),
		slog.Int("batches", sum.Batches),
		slog.Int("puts", sum.Puts),
		slog.Int("deletes", sum.Deletes),
	)

	wallStart := time.Now()

	result, err := r.Execute(w, st)
	if closeErr := st.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", cfg.Engine, closeErr)
	}

	if err != nil {
		return nil, err
	}

	attrs := []any{slog.Duration("wall_time", time.Since(wallStart))}

	if cfg.DBDir != "" {
		size, sizeErr := dirSize(cfg.DBDir)
		if sizeErr != nil {
			logger.Warn("failed to measure db size",
				slog.String("error", sizeErr.Error()),
			)
		} else {
			attrs = append(attrs, slog.String("db_size", humanize.IBytes(size)))
		}
	}

	logger.Info("workload finished", attrs...)

	return result, nil
}

// Execute replays w against st in order and returns one TaskResult per
// task. Only the backend call under test is timed: for batches, values
// are generated and operations staged before the clock starts, and only
// Commit is measured. The first backend error aborts the run; no partial
// result is returned.
func (r *Runner) Execute(w workload.Workload, st store.Store) (Result, error) {
	result := make(Result, 0, len(w))

	for i, task := range w {
		elapsed, step, err := r.execTask(task, st)
		if err != nil {
			return nil, &TaskError{Index: i, Type: task.Type, Step: step, Err: err}
		}

		result = append(result, TaskResult{Type: task.Type, Elapsed: elapsed})
	}

	return result, nil
}

func (r *Runner) execTask(task workload.Task, st store.Store) (time.Duration, string, error) {
	switch task.Type {
	case workload.TypeGet:
		start := time.Now()
		_, _, err := st.Get(task.Key)
		elapsed := time.Since(start)

		return elapsed, "get", err

	case workload.TypeExists:
		start := time.Now()
		_, err := st.Exists(task.Key)
		elapsed := time.Since(start)

		return elapsed, "exists", err

	case workload.TypeBatch:
		return r.execBatch(task.Ops, st)

	default:
		return 0, "dispatch", fmt.Errorf("unknown task type %q", task.Type)
	}
}

func (r *Runner) execBatch(ops []workload.Op, st store.Store) (time.Duration, string, error) {
	b, err := st.NewBatch()
	if err != nil {
		return 0, "begin", err
	}

	for _, op := range ops {
		switch op.Kind {
		case workload.OpPut:
			value := make([]byte, op.ValueSize)
			r.rng.Read(value)

			if err := b.Put(op.Key, value); err != nil {
				b.Discard()

				return 0, "put", err
			}
		case workload.OpDelete:
			if err := b.Delete(op.Key); err != nil {
				b.Discard()

				return 0, "delete", err
			}
		default:
			b.Discard()

			return 0, "dispatch", fmt.Errorf("unknown op kind %q", op.Kind)
		}
	}

	start := time.Now()
	err = b.Commit()
	elapsed := time.Since(start)

	if err != nil {
		b.Discard()

		return 0, "commit", err
	}

	return elapsed, "commit", nil
}

func dirSize(path string) (uint64, error) {
	var size uint64

	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += uint64(info.Size())
		}

		return nil
	})

	return size, err
}
