package core

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRLSRule_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantClause  string
		wantDataset any
	}{
		{name: "Clause Only", in: `{"clause": "a = 1"}`, wantClause: "a = 1"},
		{name: "Dataset", in: `{"dataset": 7, "clause": "b = 2"}`, wantClause: "b = 2", wantDataset: float64(7)},
		{name: "Unknown Keys", in: `{"clause": "c = 3", "comment": "from UI", "extra": true}`, wantClause: "c = 3"},
		{name: "Number Clause", in: `{"clause": 5}`, wantClause: "5"},
		{name: "Null Clause", in: `{"clause": null}`},
		{name: "Not An Object", in: `"d = 4"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rule RLSRule
			if err := json.Unmarshal([]byte(tt.in), &rule); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule.Clause != tt.wantClause {
				t.Errorf("Clause = %q, want %q", rule.Clause, tt.wantClause)
			}
			if diff := cmp.Diff(tt.wantDataset, rule.Dataset); diff != "" {
				t.Errorf("Dataset mismatch (-want +got):\n%s", diff)
			}
			if string(rule.Raw) != tt.in {
				t.Errorf("Raw = %s, want %s", rule.Raw, tt.in)
			}
		})
	}
}

func TestRLSRule_MarshalJSON(t *testing.T) {
	var rules []RLSRule
	in := `[{"clause":"a = 1","extra":{"nested":[1,2]}},{"dataset":3,"clause":"b = 2"}]`
	if err := json.Unmarshal([]byte(in), &rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != in {
		t.Errorf("round trip changed rules:\n got %s\nwant %s", out, in)
	}

	// rules built in code have no raw form
	out, err = json.Marshal(RLSRule{Dataset: 9, Clause: "c = 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"dataset":9,"clause":"c = 3"}` {
		t.Errorf("got %s", out)
	}
}
