package model

import (
	"encoding/json"
	"testing"
)

func TestRowMarshalJSON_PreservesColumnOrder(t *testing.T) {
	row := Row{
		{Name: "zeta", Value: "a<b"},
		{Name: "alpha", Value: 1.5},
		{Name: "mid", Value: nil},
		{Name: "flag", Value: true},
	}

	got, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"zeta":"a<b","alpha":1.5,"mid":null,"flag":true}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestRowGet(t *testing.T) {
	row := Row{{Name: "user", Value: "alice"}, {Name: "result", Value: 3600.0}}

	if v, ok := row.Get("result"); !ok || v != 3600.0 {
		t.Errorf("Get(result) = %v, %v", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("Get(missing) should report ok=false")
	}
	if !row.Has("user") {
		t.Error("Has(user) = false")
	}
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x,y", "x,y"},
		{3600.0, "3600"},
		{0.25, "0.25"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatScalar(tt.in); got != tt.want {
			t.Errorf("FormatScalar(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumericValue(t *testing.T) {
	if v, ok := NumericValue("42"); !ok || v != 42 {
		t.Errorf("NumericValue(\"42\") = %v, %v", v, ok)
	}
	if _, ok := NumericValue("alice"); ok {
		t.Error("NumericValue(\"alice\") should fail")
	}
	if _, ok := NumericValue(nil); ok {
		t.Error("NumericValue(nil) should fail")
	}
}
