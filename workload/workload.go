// Package workload synthesizes randomized key-value workloads from a
// generator Spec and resamples workloads so that reads and deletes target
// keys written by an earlier workload.
package workload

import (
	"errors"
	"fmt"
	mrand "math/rand"
)

// ErrEmptyKeyPool is returned by Sample when the reference workload
// contains no put operations but the spec needs existing keys.
var ErrEmptyKeyPool = errors.New("reference workload has no put keys to sample from")

// Generator produces workloads from a seeded random source. Two
// generators with the same seed produce identical workloads for the
// same calls.
type Generator struct {
	rng *mrand.Rand
}

// NewGenerator creates a Generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: mrand.New(mrand.NewSource(seed)),
	}
}

// Generate returns count tasks, each instantiated independently from
// spec with freshly drawn random keys.
func (g *Generator) Generate(spec Spec, count int) (Workload, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spec: %w", err)
	}

	if count < 0 {
		return nil, fmt.Errorf("negative task count %d", count)
	}

	w := make(Workload, 0, count)
	for i := 0; i < count; i++ {
		w = append(w, g.newTask(spec))
	}

	return w, nil
}

func (g *Generator) newTask(spec Spec) Task {
	switch spec.Type {
	case TypeGet, TypeExists:
		return Task{Type: spec.Type, Key: g.randomKey(spec.KeySize)}
	case TypeBatch:
		ops := make([]Op, 0, len(spec.Ops))
		for _, o := range spec.Ops {
			ops = append(ops, Op{
				Kind:      o.Kind,
				Key:       g.randomKey(o.KeySize),
				ValueSize: putValueSize(o),
			})
		}

		return Task{Type: TypeBatch, Ops: ops}
	default:
		panic(fmt.Sprintf("workload: unhandled task type %q", spec.Type))
	}
}

// randomKey draws size uniformly random bytes.
func (g *Generator) randomKey(size int) Key {
	buf := make([]byte, size)
	g.rng.Read(buf)

	return buf
}

func putValueSize(o OpSpec) int {
	if o.Kind == OpPut {
		return o.ValueSize
	}

	return 0
}
