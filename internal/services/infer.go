package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeLabel collapses whitespace and lowercases a human label so that
// "Local  stakeholder sentiment" and "local stakeholder sentiment " compare
// equal.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// IsUUIDKey reports whether an answer key parses as a UUID.
func IsUUIDKey(key string) bool {
	_, err := uuid.Parse(key)
	return err == nil
}

// NormalizeYesNo maps common boolean-like values to the literal strings
// "yes"/"no". Anything unrecognized passes through unchanged.
func NormalizeYesNo(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "1", "yes", "y":
			return "yes"
		case "false", "f", "0", "no", "n":
			return "no"
		}
	case float64:
		if t == 1 {
			return "yes"
		}
		if t == 0 {
			return "no"
		}
	case int:
		if t == 1 {
			return "yes"
		}
		if t == 0 {
			return "no"
		}
	}
	return v
}

// InferQuestion synthesizes a canonical question from a posted value and
// returns it with the normalized value. Object values may carry explicit
// metadata ({type, value/answer, options, value_map}) which takes
// precedence; when an object has neither value nor answer, the object
// itself is treated as the value.
func InferQuestion(label string, raw any) (models.Question, any) {
	q := models.Question{
		ID:       uuid.NewString(),
		Text:     strings.TrimSpace(label),
		Required: false,
	}

	if meta, ok := raw.(map[string]any); ok {
		qtype := asString(meta["type"])
		if qtype == "" {
			qtype = asString(meta["qtype"])
		}
		var value any
		if v, ok := meta["value"]; ok {
			value = v
		} else if v, ok := meta["answer"]; ok {
			value = v
		} else {
			value = meta
		}
		if qtype != "" {
			q.Type = models.QuestionType(qtype)
		}
		if opts, ok := meta["options"].([]any); ok {
			q.Options = toStringSlice(opts)
		}
		if vm, ok := meta["value_map"].(map[string]any); ok {
			q.ValueMap = toIntMap(vm)
		}
		raw = value
	}

	if q.Type == "" {
		switch v := raw.(type) {
		case bool:
			q.Type = models.YesNo
		case float64, int, int64:
			q.Type = models.Numeric
		case string:
			switch {
			case dateShape.MatchString(strings.TrimSpace(v)):
				q.Type = models.Date
			case utf8.RuneCountInString(v) > 80:
				q.Type = models.LongText
			default:
				q.Type = models.ShortText
			}
		default:
			q.Type = models.ShortText
		}
	}

	if q.Type == models.YesNo {
		raw = NormalizeYesNo(raw)
	}
	return q, raw
}
