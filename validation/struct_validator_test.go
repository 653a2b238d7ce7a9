package validation

import (
	"errors"
	"strings"
	"testing"
)

type poolSettings struct {
	MaxIdle int `mapstructure:"max_idle" validate:"gte=0"`
}

type engineSettings struct {
	Workers  int          `mapstructure:"workers" validate:"gte=1,lte=1024"`
	Protocol string       `mapstructure:"protocol" validate:"omitempty,oneof=h1 h2"`
	Pool     poolSettings `mapstructure:"pool"`
	NoTag    int          `validate:"gte=0"`
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(engineSettings{Workers: 4, Protocol: "h2"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidate_ReportsFieldsByMapstructureName(t *testing.T) {
	err := Validate(engineSettings{Workers: 0, Protocol: "spdy", Pool: poolSettings{MaxIdle: -1}, NoTag: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}

	tests := []struct {
		field string
		want  string
	}{
		{"workers", "must be at least 1"},
		{"protocol", "must be one of: h1 h2"},
		{"pool.max_idle", "must be at least 0"},
		{"no_tag", "must be at least 0"},
	}
	for _, tt := range tests {
		if got[tt.field] != tt.want {
			t.Errorf("field %s: expected %q, got %q (all: %v)", tt.field, tt.want, got[tt.field], got)
		}
	}

	if !strings.HasPrefix(err.Error(), "validation failed: ") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxIdle":   "max_idle",
		"workers":   "workers",
		"ChunkSize": "chunk_size",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
