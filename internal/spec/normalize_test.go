package spec

import (
	"reflect"
	"testing"
)

func TestNormalizeTypeListWithNull(t *testing.T) {
	in := map[string]any{"type": []any{"string", "null"}}
	got := Normalize(in)
	want := map[string]any{"type": "string"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalizeTypeListOnlyNull(t *testing.T) {
	in := map[string]any{"type": []any{"null"}}
	got := Normalize(in)
	want := map[string]any{"type": "null"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalizeTypeListManyWithNull(t *testing.T) {
	in := map[string]any{"type": []any{"string", "integer", "null"}}
	got, ok := Normalize(in).(map[string]any)
	if !ok {
		t.Fatalf("expected a map result")
	}
	if _, has := got["type"]; has {
		t.Fatalf("type key should be removed, got %v", got)
	}
	union, ok := got["anyOf"].([]any)
	if !ok || len(union) != 2 {
		t.Fatalf("expected anyOf with 2 branches, got %v", got)
	}
	want := []any{
		map[string]any{"type": "string"},
		map[string]any{"type": "integer"},
	}
	if !reflect.DeepEqual(union, want) {
		t.Fatalf("got branches %v, want %v", union, want)
	}
}

func TestNormalizeTypeListKeepsDeclaredUnion(t *testing.T) {
	in := map[string]any{
		"type":  []any{"string", "integer", "null"},
		"anyOf": []any{map[string]any{"type": "boolean"}},
	}
	got, ok := Normalize(in).(map[string]any)
	if !ok {
		t.Fatalf("expected a map result")
	}
	union, ok := got["anyOf"].([]any)
	if !ok || len(union) != 3 {
		t.Fatalf("declared branches must survive, got %v", got)
	}
	if union[0].(map[string]any)["type"] != "boolean" {
		t.Fatalf("declared branch must stay first, got %v", union)
	}
	want := []any{
		map[string]any{"type": "string"},
		map[string]any{"type": "integer"},
	}
	if !reflect.DeepEqual(union[1:], want) {
		t.Fatalf("got appended branches %v, want %v", union[1:], want)
	}
}

func TestNormalizeNullableTrue(t *testing.T) {
	in := map[string]any{"type": "string", "nullable": true}
	got, ok := Normalize(in).(map[string]any)
	if !ok {
		t.Fatalf("expected a map result")
	}
	union, ok := got["anyOf"].([]any)
	if !ok || len(union) != 2 {
		t.Fatalf("expected anyOf with 2 branches, got %v", got)
	}
	first := union[0].(map[string]any)
	if first["type"] != "string" {
		t.Fatalf("first branch should keep the original type, got %v", first)
	}
	if _, has := first["nullable"]; has {
		t.Fatalf("nullable flag must not survive, got %v", first)
	}
	second := union[1].(map[string]any)
	if second["type"] != "null" {
		t.Fatalf("second branch should be null, got %v", second)
	}
}

func TestNormalizeNullableFalse(t *testing.T) {
	in := map[string]any{"type": "string", "nullable": false}
	got := Normalize(in)
	want := map[string]any{"type": "string"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalizeNullableWithExistingNullBranch(t *testing.T) {
	in := map[string]any{
		"nullable": true,
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "null"},
		},
	}
	got, ok := Normalize(in).(map[string]any)
	if !ok {
		t.Fatalf("expected a map result")
	}
	union := got["anyOf"].([]any)
	if len(union) != 2 {
		t.Fatalf("null branch must not be duplicated, got %d branches", len(union))
	}
}

func TestNormalizeNested(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": []any{"string", "null"}},
		},
	}
	got := Normalize(in).(map[string]any)
	props := got["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	if name["type"] != "string" {
		t.Fatalf("nested type list not collapsed, got %v", name)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "integer", "nullable": true},
			"b": map[string]any{"type": []any{"string", "null"}},
		},
	}
	once := Normalize(in)
	twice := Normalize(Normalize(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "integer", "nullable": true},
			"b": map[string]any{"type": []any{"string", "null"}},
		},
	}))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize is not idempotent:\nonce  %v\ntwice %v", once, twice)
	}
}

func TestNormalizePassThrough(t *testing.T) {
	for _, v := range []any{nil, "text", 42, true, []any{"a", "b"}} {
		got := Normalize(v)
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("value %v changed to %v", v, got)
		}
	}
}
