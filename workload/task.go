package workload

import (
	"fmt"
)

// TaskType identifies the variant of a Task or Spec.
type TaskType string

// Task types.
const (
	TypeGet    TaskType = "get"
	TypeExists TaskType = "exists"
	TypeBatch  TaskType = "batch"
)

// OpKind identifies the variant of a batch operation.
type OpKind string

// Batch operation kinds.
const (
	OpPut    OpKind = "put"
	OpDelete OpKind = "delete"
)

// Spec is a generator specification: the shape and sizes of the tasks
// to synthesize, without concrete data.
//
// KeySize applies to TypeGet and TypeExists; Ops applies to TypeBatch.
type Spec struct {
	Type    TaskType
	KeySize int
	Ops     []OpSpec
}

// OpSpec describes one operation inside a batch Spec. ValueSize is only
// meaningful for OpPut.
type OpSpec struct {
	Kind      OpKind
	KeySize   int
	ValueSize int
}

// GetSpec returns a Spec producing Get tasks with keys of keySize bytes.
func GetSpec(keySize int) Spec {
	return Spec{Type: TypeGet, KeySize: keySize}
}

// ExistsSpec returns a Spec producing Exists tasks with keys of keySize
// bytes.
func ExistsSpec(keySize int) Spec {
	return Spec{Type: TypeExists, KeySize: keySize}
}

// BatchSpec returns a Spec producing Batch tasks with the given ops.
func BatchSpec(ops ...OpSpec) Spec {
	return Spec{Type: TypeBatch, Ops: ops}
}

// PutSpec returns a batch put entry.
func PutSpec(keySize, valueSize int) OpSpec {
	return OpSpec{Kind: OpPut, KeySize: keySize, ValueSize: valueSize}
}

// DeleteSpec returns a batch delete entry.
func DeleteSpec(keySize int) OpSpec {
	return OpSpec{Kind: OpDelete, KeySize: keySize}
}

// Validate reports whether s is well formed: a known type and
// non-negative sizes everywhere.
func (s Spec) Validate() error {
	switch s.Type {
	case TypeGet, TypeExists:
		if s.KeySize < 0 {
			return fmt.Errorf("%s: negative key size %d", s.Type, s.KeySize)
		}
	case TypeBatch:
		for i, op := range s.Ops {
			if err := op.validate(); err != nil {
				return fmt.Errorf("batch op %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown task type %q", s.Type)
	}

	return nil
}

func (o OpSpec) validate() error {
	switch o.Kind {
	case OpPut:
		if o.ValueSize < 0 {
			return fmt.Errorf("put: negative value size %d", o.ValueSize)
		}
	case OpDelete:
	default:
		return fmt.Errorf("unknown op kind %q", o.Kind)
	}

	if o.KeySize < 0 {
		return fmt.Errorf("%s: negative key size %d", o.Kind, o.KeySize)
	}

	return nil
}

// Key is a concrete key. It is encoded as an array of byte values.
type Key []byte

// Task is one concrete benchmark operation.
//
// Key is set for TypeGet and TypeExists; Ops is set for TypeBatch.
type Task struct {
	Type TaskType
	Key  Key
	Ops  []Op
}

// Op is one operation inside a batch task. A put carries the size of
// the value, which is generated when the task is executed.
type Op struct {
	Kind      OpKind
	Key       Key
	ValueSize int
}

// Workload is an ordered sequence of tasks, the unit of replay.
type Workload []Task

// Summary counts the tasks and operations of a workload.
type Summary struct {
	Tasks   int
	Gets    int
	Exists  int
	Batches int
	Puts    int
	Deletes int
}

// Summarize counts the tasks and batch operations of w.
func (w Workload) Summarize() Summary {
	s := Summary{Tasks: len(w)}

	for _, t := range w {
		switch t.Type {
		case TypeGet:
			s.Gets++
		case TypeExists:
			s.Exists++
		case TypeBatch:
			s.Batches++

			for _, op := range t.Ops {
				switch op.Kind {
				case OpPut:
					s.Puts++
				case OpDelete:
					s.Deletes++
				}
			}
		}
	}

	return s
}
