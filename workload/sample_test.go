package workload

import (
	"bytes"
	"errors"
	"testing"
)

func TestSampleSinglePutKey(t *testing.T) {
	ref := Workload{
		{Type: TypeBatch, Ops: []Op{{Kind: OpPut, Key: Key{0, 0}, ValueSize: 3}}},
	}

	w, err := NewGenerator(7).Sample(ref, GetSpec(2), 5)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	if len(w) != 5 {
		t.Fatalf("tasks: got %d, want 5", len(w))
	}

	for i, task := range w {
		if task.Type != TypeGet {
			t.Errorf("task %d: type %q, want get", i, task.Type)
		}
		if !bytes.Equal(task.Key, []byte{0, 0}) {
			t.Errorf("task %d: key %v, want [0 0]", i, task.Key)
		}
	}
}

func TestSampleKeysComeFromPuts(t *testing.T) {
	ref, err := NewGenerator(3).Generate(BatchSpec(PutSpec(8, 10), DeleteSpec(8)), 50)
	if err != nil {
		t.Fatalf("generate reference: %v", err)
	}

	// Keys that appear in non-put positions must never be drawn.
	ref = append(ref,
		Task{Type: TypeGet, Key: Key{9, 9, 9}},
		Task{Type: TypeExists, Key: Key{8, 8, 8}},
	)

	pool := make(map[string]bool)
	for _, k := range putKeys(ref) {
		pool[string(k)] = true
	}

	specs := []Spec{
		GetSpec(1),
		ExistsSpec(100),
		BatchSpec(PutSpec(4, 4), DeleteSpec(0), DeleteSpec(8)),
	}

	for _, spec := range specs {
		w, err := NewGenerator(11).Sample(ref, spec, 200)
		if err != nil {
			t.Fatalf("%s: sample failed: %v", spec.Type, err)
		}

		for i, task := range w {
			switch task.Type {
			case TypeGet, TypeExists:
				if !pool[string(task.Key)] {
					t.Errorf("%s task %d: key %v not in pool", spec.Type, i, task.Key)
				}
			case TypeBatch:
				for j, op := range task.Ops {
					switch op.Kind {
					case OpDelete:
						if !pool[string(op.Key)] {
							t.Errorf("batch task %d op %d: delete key not in pool", i, j)
						}
					case OpPut:
						if len(op.Key) != spec.Ops[j].KeySize {
							t.Errorf("batch task %d op %d: put key length %d", i, j, len(op.Key))
						}
					}
				}
			}
		}
	}
}

func TestSampleEmptyPool(t *testing.T) {
	ref := Workload{
		{Type: TypeGet, Key: Key{1}},
		{Type: TypeBatch, Ops: []Op{{Kind: OpDelete, Key: Key{1}}}},
	}

	for _, spec := range []Spec{GetSpec(1), ExistsSpec(1), BatchSpec(PutSpec(1, 1), DeleteSpec(1))} {
		_, err := NewGenerator(1).Sample(ref, spec, 3)
		if !errors.Is(err, ErrEmptyKeyPool) {
			t.Errorf("%s: err = %v, want ErrEmptyKeyPool", spec.Type, err)
		}
	}
}

func TestSamplePutOnlyBatchWithoutPool(t *testing.T) {
	w, err := NewGenerator(1).Sample(nil, BatchSpec(PutSpec(4, 8)), 3)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	if len(w) != 3 {
		t.Fatalf("tasks: got %d, want 3", len(w))
	}
}

func TestSampleCopiesKeys(t *testing.T) {
	ref := Workload{
		{Type: TypeBatch, Ops: []Op{{Kind: OpPut, Key: Key{5}, ValueSize: 1}}},
	}

	w, err := NewGenerator(1).Sample(ref, GetSpec(1), 1)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	w[0].Key[0] = 6

	if ref[0].Ops[0].Key[0] != 5 {
		t.Error("sampled key aliases the reference workload")
	}
}
