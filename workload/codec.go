package workload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Specs and tasks are encoded as externally tagged JSON objects with a
// single snake_case key naming the variant:
//
//	{"get":16}  {"exists":16}  {"batch":[{"put":[16,100]},{"delete":16}]}
//	{"get":[1,2]}  {"batch":[{"put":[[1,2],100]},{"delete":[3,4]}]}

// ParseSpec decodes a JSON generator spec and validates it.
func ParseSpec(s string) (Spec, error) {
	var spec Spec
	if err := json.Unmarshal([]byte(s), &spec); err != nil {
		return Spec{}, fmt.Errorf("decode spec: %w", err)
	}

	return spec, nil
}

// Encode writes w as a single JSON document.
func Encode(out io.Writer, w Workload) error {
	if w == nil {
		w = Workload{}
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode workload: %w", err)
	}

	return nil
}

// Decode reads a workload written by Encode.
func Decode(in io.Reader) (Workload, error) {
	var w Workload
	if err := json.NewDecoder(in).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode workload: %w", err)
	}

	return w, nil
}

// MarshalJSON encodes k as an array of byte values.
func (k Key) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+4*len(k))
	buf = append(buf, '[')

	for i, b := range k {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}

	return append(buf, ']'), nil
}

// UnmarshalJSON decodes an array of byte values.
func (k *Key) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("key: %w", err)
	}

	out := make(Key, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("key: byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}

	*k = out

	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Spec) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case TypeGet, TypeExists:
		return tagged(string(s.Type), s.KeySize)
	case TypeBatch:
		ops := s.Ops
		if ops == nil {
			ops = []OpSpec{}
		}

		return tagged(string(TypeBatch), ops)
	default:
		return nil, fmt.Errorf("unknown task type %q", s.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler. The decoded spec is
// validated.
func (s *Spec) UnmarshalJSON(data []byte) error {
	tag, payload, err := untag(data)
	if err != nil {
		return err
	}

	var out Spec

	switch TaskType(tag) {
	case TypeGet, TypeExists:
		out.Type = TaskType(tag)
		if err := json.Unmarshal(payload, &out.KeySize); err != nil {
			return fmt.Errorf("%s key size: %w", tag, err)
		}
	case TypeBatch:
		out.Type = TypeBatch
		out.Ops = []OpSpec{}
		if err := json.Unmarshal(payload, &out.Ops); err != nil {
			return fmt.Errorf("batch ops: %w", err)
		}
	default:
		return fmt.Errorf("unknown task type %q", tag)
	}

	if err := out.Validate(); err != nil {
		return err
	}

	*s = out

	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OpSpec) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OpPut:
		return tagged(string(OpPut), [2]int{o.KeySize, o.ValueSize})
	case OpDelete:
		return tagged(string(OpDelete), o.KeySize)
	default:
		return nil, fmt.Errorf("unknown op kind %q", o.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OpSpec) UnmarshalJSON(data []byte) error {
	tag, payload, err := untag(data)
	if err != nil {
		return err
	}

	var out OpSpec

	switch OpKind(tag) {
	case OpPut:
		var sizes [2]int
		if err := decodeTuple(payload, &sizes[0], &sizes[1]); err != nil {
			return fmt.Errorf("put sizes: %w", err)
		}
		out = PutSpec(sizes[0], sizes[1])
	case OpDelete:
		out.Kind = OpDelete
		if err := json.Unmarshal(payload, &out.KeySize); err != nil {
			return fmt.Errorf("delete key size: %w", err)
		}
	default:
		return fmt.Errorf("unknown op kind %q", tag)
	}

	if err := out.validate(); err != nil {
		return err
	}

	*o = out

	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TypeGet, TypeExists:
		return tagged(string(t.Type), t.Key)
	case TypeBatch:
		ops := t.Ops
		if ops == nil {
			ops = []Op{}
		}

		return tagged(string(TypeBatch), ops)
	default:
		return nil, fmt.Errorf("unknown task type %q", t.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	tag, payload, err := untag(data)
	if err != nil {
		return err
	}

	var out Task

	switch TaskType(tag) {
	case TypeGet, TypeExists:
		out.Type = TaskType(tag)
		if err := json.Unmarshal(payload, &out.Key); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	case TypeBatch:
		out.Type = TypeBatch
		out.Ops = []Op{}
		if err := json.Unmarshal(payload, &out.Ops); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	default:
		return fmt.Errorf("unknown task type %q", tag)
	}

	*t = out

	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Op) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OpPut:
		return tagged(string(OpPut), []any{o.Key, o.ValueSize})
	case OpDelete:
		return tagged(string(OpDelete), o.Key)
	default:
		return nil, fmt.Errorf("unknown op kind %q", o.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Op) UnmarshalJSON(data []byte) error {
	tag, payload, err := untag(data)
	if err != nil {
		return err
	}

	var out Op

	switch OpKind(tag) {
	case OpPut:
		out.Kind = OpPut
		if err := decodeTuple(payload, &out.Key, &out.ValueSize); err != nil {
			return fmt.Errorf("put: %w", err)
		}
		if out.ValueSize < 0 {
			return fmt.Errorf("put: negative value size %d", out.ValueSize)
		}
	case OpDelete:
		out.Kind = OpDelete
		if err := json.Unmarshal(payload, &out.Key); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	default:
		return fmt.Errorf("unknown op kind %q", tag)
	}

	*o = out

	return nil
}

func tagged(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}

// untag splits a single-key object into its key and raw value.
func untag(data []byte) (string, json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", nil, fmt.Errorf("expected tagged object, got null")
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("expected tagged object: %w", err)
	}

	if len(m) != 1 {
		return "", nil, fmt.Errorf("expected exactly one tag, got %d", len(m))
	}

	for tag, payload := range m {
		return tag, payload, nil
	}

	return "", nil, nil
}

// decodeTuple decodes a two-element JSON array into a and b.
func decodeTuple(data []byte, a, b any) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) != 2 {
		return fmt.Errorf("expected 2 elements, got %d", len(raw))
	}

	if err := json.Unmarshal(raw[0], a); err != nil {
		return err
	}

	return json.Unmarshal(raw[1], b)
}
