package workload

import (
	"bytes"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	spec := BatchSpec(PutSpec(16, 100), DeleteSpec(8))

	w1, err := NewGenerator(42).Generate(spec, 20)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}

	w2, err := NewGenerator(42).Generate(spec, 20)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	var buf1, buf2 bytes.Buffer
	if err := Encode(&buf1, w1); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := Encode(&buf2, w2); err != nil {
		t.Fatalf("encode: %v", err)
	}

	if buf1.String() != buf2.String() {
		t.Error("workloads are not deterministic for same seed")
	}
}

func TestGenerateCounts(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		count int
	}{
		{name: "get", spec: GetSpec(16), count: 10},
		{name: "exists", spec: ExistsSpec(4), count: 3},
		{name: "batch", spec: BatchSpec(PutSpec(8, 32), DeleteSpec(8)), count: 7},
		{name: "empty batch", spec: BatchSpec(), count: 2},
		{name: "zero count", spec: GetSpec(16), count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewGenerator(1).Generate(tt.spec, tt.count)
			if err != nil {
				t.Fatalf("generation failed: %v", err)
			}

			if len(w) != tt.count {
				t.Fatalf("tasks: got %d, want %d", len(w), tt.count)
			}

			for i, task := range w {
				if task.Type != tt.spec.Type {
					t.Errorf("task %d: type %q, want %q", i, task.Type, tt.spec.Type)
				}
				if len(task.Ops) != len(tt.spec.Ops) {
					t.Errorf("task %d: %d ops, want %d", i, len(task.Ops), len(tt.spec.Ops))
				}
			}
		})
	}
}

func TestGenerateSizes(t *testing.T) {
	for _, size := range []int{0, 1, 2, 33, 511} {
		w, err := NewGenerator(int64(size)).Generate(GetSpec(size), 5)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}

		for i, task := range w {
			if len(task.Key) != size {
				t.Errorf("size %d: task %d key length %d", size, i, len(task.Key))
			}
		}
	}
}

func TestGenerateBatchPreservesOrder(t *testing.T) {
	spec := BatchSpec(
		DeleteSpec(3),
		PutSpec(5, 7),
		PutSpec(0, 0),
		DeleteSpec(1),
	)

	w, err := NewGenerator(9).Generate(spec, 4)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	for i, task := range w {
		for j, op := range task.Ops {
			want := spec.Ops[j]
			if op.Kind != want.Kind {
				t.Errorf("task %d op %d: kind %q, want %q", i, j, op.Kind, want.Kind)
			}
			if len(op.Key) != want.KeySize {
				t.Errorf("task %d op %d: key length %d, want %d", i, j, len(op.Key), want.KeySize)
			}
			if op.Kind == OpPut && op.ValueSize != want.ValueSize {
				t.Errorf("task %d op %d: value size %d, want %d", i, j, op.ValueSize, want.ValueSize)
			}
		}
	}
}

func TestGenerateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		count int
	}{
		{name: "negative key", spec: GetSpec(-1), count: 1},
		{name: "negative value", spec: BatchSpec(PutSpec(1, -1)), count: 1},
		{name: "negative delete key", spec: BatchSpec(DeleteSpec(-3)), count: 1},
		{name: "unknown type", spec: Spec{Type: "scan"}, count: 1},
		{name: "unknown op", spec: BatchSpec(OpSpec{Kind: "merge"}), count: 1},
		{name: "negative count", spec: GetSpec(1), count: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(1).Generate(tt.spec, tt.count); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	w := Workload{
		{Type: TypeGet, Key: Key{1}},
		{Type: TypeExists, Key: Key{2}},
		{Type: TypeBatch, Ops: []Op{
			{Kind: OpPut, Key: Key{3}, ValueSize: 1},
			{Kind: OpPut, Key: Key{4}, ValueSize: 1},
			{Kind: OpDelete, Key: Key{1}},
		}},
	}

	got := w.Summarize()
	want := Summary{Tasks: 3, Gets: 1, Exists: 1, Batches: 1, Puts: 2, Deletes: 1}

	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}
