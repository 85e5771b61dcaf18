package workload

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeFormat(t *testing.T) {
	w := Workload{
		{Type: TypeGet, Key: Key{0, 255}},
		{Type: TypeExists, Key: Key{}},
		{Type: TypeBatch, Ops: []Op{
			{Kind: OpPut, Key: Key{1, 2}, ValueSize: 3},
			{Kind: OpDelete, Key: Key{4}},
		}},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, w); err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `[{"get":[0,255]},{"exists":[]},{"batch":[{"put":[[1,2],3]},{"delete":[4]}]}]`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("encoded = %s\nwant      %s", got, want)
	}
}

func TestWorkloadRoundTrip(t *testing.T) {
	g := NewGenerator(5)

	var w Workload
	for _, spec := range []Spec{
		GetSpec(0),
		GetSpec(32),
		ExistsSpec(7),
		BatchSpec(PutSpec(16, 1<<20), DeleteSpec(3), PutSpec(0, 0)),
		BatchSpec(),
	} {
		part, err := g.Generate(spec, 4)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		w = append(w, part...)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, w); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(got, w) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, w)
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		input string
		want  Spec
	}{
		{`{"get":16}`, GetSpec(16)},
		{`{"exists":0}`, ExistsSpec(0)},
		{`{"batch":[{"put":[16,100]},{"delete":8}]}`, BatchSpec(PutSpec(16, 100), DeleteSpec(8))},
		{`{"batch":[]}`, BatchSpec()},
	}

	for _, tt := range tests {
		got, err := ParseSpec(tt.input)
		if err != nil {
			t.Errorf("ParseSpec(%s): %v", tt.input, err)

			continue
		}

		if got.Type != tt.want.Type || got.KeySize != tt.want.KeySize ||
			len(got.Ops) != len(tt.want.Ops) {
			t.Errorf("ParseSpec(%s) = %+v, want %+v", tt.input, got, tt.want)

			continue
		}

		for i := range got.Ops {
			if got.Ops[i] != tt.want.Ops[i] {
				t.Errorf("ParseSpec(%s) op %d = %+v, want %+v",
					tt.input, i, got.Ops[i], tt.want.Ops[i])
			}
		}
	}
}

func TestSpecRoundTrip(t *testing.T) {
	spec := BatchSpec(PutSpec(16, 100), DeleteSpec(8))

	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(data) != `{"batch":[{"put":[16,100]},{"delete":8}]}` {
		t.Errorf("marshal = %s", data)
	}

	got, err := ParseSpec(string(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !reflect.DeepEqual(got, spec) {
		t.Errorf("round trip = %+v, want %+v", got, spec)
	}
}

func TestParseSpecInvalid(t *testing.T) {
	inputs := []string{
		`not json`,
		`null`,
		`{}`,
		`{"get":1,"exists":1}`,
		`{"scan":4}`,
		`{"get":-1}`,
		`{"get":1.5}`,
		`{"batch":[{"put":[1]}]}`,
		`{"batch":[{"put":[1,-2]}]}`,
		`{"batch":[{"merge":1}]}`,
		`{"get":99999999999999999999999}`,
	}

	for _, in := range inputs {
		if _, err := ParseSpec(in); err == nil {
			t.Errorf("ParseSpec(%s): expected error", in)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	inputs := []string{
		`[{"get":[256]}]`,
		`[{"get":[-1]}]`,
		`[{"get":"AAA="}]`,
		`[{"batch":[{"put":[[1],-1]}]}]`,
		`[{"batch":[{"put":[[1]]}]}]`,
		`[{"scan":[1]}]`,
		`{"get":[1]}`,
	}

	for _, in := range inputs {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("Decode(%s): expected error", in)
		}
	}
}
