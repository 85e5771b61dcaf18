package workload

import (
	"fmt"
)

// Sample returns count tasks shaped by spec whose get, exists and delete
// keys are drawn uniformly, with replacement, from the keys put by ref.
// The key sizes declared in spec are ignored for those draws. Put keys
// are synthesized fresh as in Generate.
//
// The pool keeps duplicates, so a key put twice in ref is twice as
// likely to be drawn. Sample fails with ErrEmptyKeyPool if ref has no
// put operations and spec needs a drawn key.
func (g *Generator) Sample(ref Workload, spec Spec, count int) (Workload, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spec: %w", err)
	}

	if count < 0 {
		return nil, fmt.Errorf("negative task count %d", count)
	}

	pool := putKeys(ref)
	if len(pool) == 0 && count > 0 && needsPool(spec) {
		return nil, ErrEmptyKeyPool
	}

	w := make(Workload, 0, count)

	for i := 0; i < count; i++ {
		switch spec.Type {
		case TypeGet, TypeExists:
			w = append(w, Task{Type: spec.Type, Key: g.draw(pool)})
		case TypeBatch:
			ops := make([]Op, 0, len(spec.Ops))
			for _, o := range spec.Ops {
				switch o.Kind {
				case OpPut:
					ops = append(ops, Op{
						Kind:      OpPut,
						Key:       g.randomKey(o.KeySize),
						ValueSize: o.ValueSize,
					})
				case OpDelete:
					ops = append(ops, Op{Kind: OpDelete, Key: g.draw(pool)})
				default:
					panic(fmt.Sprintf("workload: unhandled op kind %q", o.Kind))
				}
			}

			w = append(w, Task{Type: TypeBatch, Ops: ops})
		default:
			panic(fmt.Sprintf("workload: unhandled task type %q", spec.Type))
		}
	}

	return w, nil
}

// putKeys collects the key of every put inside every batch task of w.
func putKeys(w Workload) []Key {
	var keys []Key

	for _, t := range w {
		if t.Type != TypeBatch {
			continue
		}

		for _, op := range t.Ops {
			if op.Kind == OpPut {
				keys = append(keys, op.Key)
			}
		}
	}

	return keys
}

func needsPool(spec Spec) bool {
	switch spec.Type {
	case TypeGet, TypeExists:
		return true
	case TypeBatch:
		for _, o := range spec.Ops {
			if o.Kind == OpDelete {
				return true
			}
		}
	}

	return false
}

// draw picks one key from pool and returns a copy of it.
func (g *Generator) draw(pool []Key) Key {
	src := pool[g.rng.Intn(len(pool))]
	k := make(Key, len(src))
	copy(k, src)

	return k
}
