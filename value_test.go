package jetschema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", 1)
	o.Set("a", 2)
	o.Set("m", 3)
	want := []string{"z", "a", "m"}
	if diff := cmp.Diff(want, o.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectSetKeepsPositionOnOverwrite(t *testing.T) {
	o := NewObject()
	o.Set("a", 1)
	o.Set("b", 2)
	o.Set("a", 3)
	if diff := cmp.Diff([]string{"a", "b"}, o.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := o.Get("a"); v != 3 {
		t.Fatalf("overwrite lost: %v", v)
	}
	if o.Len() != 2 {
		t.Fatalf("len: %d", o.Len())
	}
}

func TestObjectMarshalJSONOrdered(t *testing.T) {
	o := NewObject()
	o.Set("b", int64(1))
	o.Set("a", "x")
	o.Set("c", nil)
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"b":1,"a":"x","c":null}` {
		t.Fatalf("marshal: %s", b)
	}
}

func TestObjectRangeStops(t *testing.T) {
	o := NewObject()
	o.Set("a", 1)
	o.Set("b", 2)
	n := 0
	o.Range(func(string, any) bool {
		n++
		return false
	})
	if n != 1 {
		t.Fatalf("range did not stop: %d", n)
	}
}

func TestFingerprintScalars(t *testing.T) {
	cases := []struct {
		v    any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{"hi", "hi"},
		{int64(1), "1"},
		{float64(1.5), "1.5"},
	}
	for _, c := range cases {
		got := string(appendFingerprint(nil, c.v))
		if got != c.want {
			t.Fatalf("fingerprint(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestFingerprintNumberStringCollision(t *testing.T) {
	// The coercion is loose: 1 and "1" render identically. uniqueItems
	// treats them as duplicates.
	if string(appendFingerprint(nil, int64(1))) != string(appendFingerprint(nil, "1")) {
		t.Fatalf("expected 1 and \"1\" to collide")
	}
}

func TestFingerprintContainers(t *testing.T) {
	o := NewObject()
	o.Set("a", int64(1))
	o.Set("b", []any{"x", nil})
	got := string(appendFingerprint(nil, []any{o, int64(2)}))
	want := `[{a:1,b:[x,null]},2]`
	if got != want {
		t.Fatalf("fingerprint = %q, want %q", got, want)
	}
}
