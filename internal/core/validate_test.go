package core

import (
	"errors"
	"testing"
)

func TestParseEvaluation(t *testing.T) {
	valid := `{"verdict":"minor","meaning":"same","corrected":"Jeg bor i Norge.","issues":[{"category":"rettskriving","severity":"error","explanation":"Egennavn","fix":"Norge"}],"short_rule":"Stor forbokstav i landnavn."}`

	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantField string
	}{
		{name: "plain JSON", raw: valid},
		{name: "wrapped in prose", raw: "Her er vurderingen:\n```json\n" + valid + "\n```"},
		{name: "no JSON", raw: "beklager", wantErr: true, wantField: "response"},
		{name: "truncated JSON", raw: `{"verdict":"minor",`, wantErr: true, wantField: "response"},
		{
			name:      "unknown verdict",
			raw:       `{"verdict":"great","meaning":"same","corrected":"x","issues":[],"short_rule":"r"}`,
			wantErr:   true,
			wantField: "verdict",
		},
		{
			name:      "unknown meaning",
			raw:       `{"verdict":"correct","meaning":"similar","corrected":"x","issues":[],"short_rule":"r"}`,
			wantErr:   true,
			wantField: "meaning",
		},
		{
			name:      "empty corrected",
			raw:       `{"verdict":"correct","meaning":"same","corrected":"  ","issues":[],"short_rule":"r"}`,
			wantErr:   true,
			wantField: "corrected",
		},
		{
			name: "too many issues",
			raw: `{"verdict":"incorrect","meaning":"same","corrected":"x","short_rule":"r","issues":[` +
				`{"category":"a","severity":"error","explanation":"e","fix":"1"},` +
				`{"category":"b","severity":"error","explanation":"e","fix":"2"},` +
				`{"category":"c","severity":"error","explanation":"e","fix":"3"},` +
				`{"category":"d","severity":"error","explanation":"e","fix":"4"}]}`,
			wantErr:   true,
			wantField: "issues",
		},
		{
			name:      "unknown severity",
			raw:       `{"verdict":"minor","meaning":"same","corrected":"x","short_rule":"r","issues":[{"category":"a","severity":"fatal","explanation":"e","fix":"1"}]}`,
			wantErr:   true,
			wantField: "issues[0].severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvaluation(tt.raw)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if ev.Verdict != VerdictMinor || len(ev.Issues) != 1 {
					t.Errorf("unexpected evaluation: %+v", ev)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, verr.Field)
			}
		})
	}
}

func TestParseEvaluation_NilIssues(t *testing.T) {
	ev, err := ParseEvaluation(`{"verdict":"correct","meaning":"same","corrected":"Hei.","short_rule":"Bra."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Issues == nil {
		t.Error("expected empty, non-nil issues")
	}
}
