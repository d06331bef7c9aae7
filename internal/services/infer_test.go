package services

import (
	"strings"
	"testing"

	"github.com/parclip/formset/internal/models"
)

func TestNormalizeLabel(t *testing.T) {
	if NormalizeLabel("  Local  stakeholder   Sentiment ") != "local stakeholder sentiment" {
		t.Fatalf("got %q", NormalizeLabel("  Local  stakeholder   Sentiment "))
	}
}

func TestIsUUIDKey(t *testing.T) {
	if !IsUUIDKey("2b0d7b3d-8d21-4f0e-9a63-7bd1cdf1d0a5") {
		t.Fatalf("valid uuid rejected")
	}
	if IsUUIDKey("Project manager?") {
		t.Fatalf("label accepted as uuid")
	}
}

func TestInferQuestionTypes(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		wantType models.QuestionType
		wantVal  any
	}{
		{"bool", true, models.YesNo, "yes"},
		{"bool false", false, models.YesNo, "no"},
		{"number", float64(7), models.Numeric, float64(7)},
		{"date", "2026-03-01", models.Date, "2026-03-01"},
		{"long text", strings.Repeat("a", 81), models.LongText, strings.Repeat("a", 81)},
		{"short text", "on track", models.ShortText, "on track"},
		{"nil", nil, models.ShortText, nil},
	}
	for _, tc := range cases {
		q, v := InferQuestion("Label?", tc.value)
		if q.Type != tc.wantType {
			t.Fatalf("%s: type = %q, want %q", tc.name, q.Type, tc.wantType)
		}
		if v != tc.wantVal {
			t.Fatalf("%s: value = %v, want %v", tc.name, v, tc.wantVal)
		}
		if q.Required {
			t.Fatalf("%s: inferred questions must not be required", tc.name)
		}
		if q.ID == "" {
			t.Fatalf("%s: expected generated id", tc.name)
		}
	}
}

func TestInferQuestionMetadata(t *testing.T) {
	q, v := InferQuestion("Sentiment?", map[string]any{
		"type":    "dropdown",
		"value":   "positive",
		"options": []any{"positive", "neutral", "negative"},
	})
	if q.Type != models.Dropdown {
		t.Fatalf("type = %q", q.Type)
	}
	if len(q.Options) != 3 || q.Options[0] != "positive" {
		t.Fatalf("options = %v", q.Options)
	}
	if v != "positive" {
		t.Fatalf("value = %v", v)
	}

	// Explicit yes_no type still normalizes the value.
	q, v = InferQuestion("Updated?", map[string]any{"type": "yes_no", "answer": true})
	if q.Type != models.YesNo || v != "yes" {
		t.Fatalf("got %q / %v", q.Type, v)
	}

	// No value or answer key: the whole object is the value.
	meta := map[string]any{"foo": "bar"}
	q, v = InferQuestion("Blob?", meta)
	if q.Type != models.ShortText {
		t.Fatalf("type = %q", q.Type)
	}
	if got, ok := v.(map[string]any); !ok || got["foo"] != "bar" {
		t.Fatalf("value = %v", v)
	}
}

func TestNormalizeYesNoPassthrough(t *testing.T) {
	if got := NormalizeYesNo("maybe"); got != "maybe" {
		t.Fatalf("got %v", got)
	}
	if got := NormalizeYesNo(float64(3)); got != float64(3) {
		t.Fatalf("got %v", got)
	}
}
