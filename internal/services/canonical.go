package services

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

// Canonicalize converts an incoming question-set payload (decoded JSON or
// YAML) into canonical form. Three shapes are recognized, tried in order:
//
//  1. already canonical: {title, sections: [{title, questions: [...]}]}
//  2. legacy nested: {Title: {SectionTitle: [items...]}} where an item is
//     either {QuestionText: {type, required, ...}} or
//     {question: "...", type, required, ...}
//  3. anything else: an empty document named fallbackName
//
// It never fails: malformed pieces degrade to empty fields. Questions
// missing an id are assigned one; existing ids are never changed, so
// canonicalization is idempotent.
func Canonicalize(raw any, fallbackName string) models.Document {
	if m, ok := raw.(map[string]any); ok {
		if _, hasTitle := m["title"]; hasTitle {
			if _, hasSections := m["sections"]; hasSections {
				return ensureIDs(documentFromMap(m))
			}
		}
		if len(m) == 1 {
			return ensureIDs(documentFromLegacy(m))
		}
	}
	return ensureIDs(models.Document{
		Title:    fallbackName,
		Sections: []models.Section{{Title: "Section", Questions: []models.Question{}}},
	})
}

// CanonicalizeDocument re-applies per-question normalization and id
// assignment to an already-typed document.
func CanonicalizeDocument(doc models.Document) models.Document {
	out := models.Document{Title: doc.Title, Sections: make([]models.Section, 0, len(doc.Sections))}
	for _, sec := range doc.Sections {
		ns := models.Section{Title: sec.Title, Questions: make([]models.Question, 0, len(sec.Questions))}
		for _, q := range sec.Questions {
			nq := q
			if nq.Type.HasOptions() {
				nq.Options = normalizeStringOptions(nq.Options)
			}
			if nq.Type == models.DropdownMapped && nq.ValueMap == nil {
				nq.ValueMap = map[string]int{}
			}
			ns.Questions = append(ns.Questions, nq)
		}
		out.Sections = append(out.Sections, ns)
	}
	return ensureIDs(out)
}

// CanonicalizeCustomBlock coerces a stored custom-question payload into
// canonical form. Unlike Canonicalize it does not attempt legacy expansion:
// anything unrecognized becomes an empty block titled "Custom".
func CanonicalizeCustomBlock(raw any) models.Document {
	if m, ok := raw.(map[string]any); ok {
		if _, hasTitle := m["title"]; hasTitle {
			if _, hasSections := m["sections"]; hasSections {
				return ensureIDs(documentFromMap(m))
			}
		}
	}
	return models.Document{Title: "Custom", Sections: []models.Section{}}
}

func documentFromMap(m map[string]any) models.Document {
	doc := models.Document{Title: asString(m["title"]), Sections: []models.Section{}}
	if doc.Title == "" {
		doc.Title = asString(m["name"])
	}
	secs, _ := m["sections"].([]any)
	for _, rawSec := range secs {
		sm, ok := rawSec.(map[string]any)
		if !ok {
			continue
		}
		sec := models.Section{Title: asString(sm["title"]), Questions: []models.Question{}}
		if items, ok := sm["questions"].([]any); ok {
			for _, rawQ := range items {
				if qm, ok := rawQ.(map[string]any); ok {
					sec.Questions = append(sec.Questions, questionFromMap(qm))
				}
			}
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

// documentFromLegacy expands {Title: {SectionTitle: [items...]}}. Section
// order inside the legacy object is not recoverable from a decoded Go map,
// so titles are emitted in sorted order to keep output deterministic.
func documentFromLegacy(m map[string]any) models.Document {
	var title string
	var inner any
	for k, v := range m {
		title, inner = k, v
	}
	doc := models.Document{Title: title, Sections: []models.Section{}}
	innerMap, ok := inner.(map[string]any)
	if !ok {
		return doc
	}
	sectionTitles := make([]string, 0, len(innerMap))
	for st := range innerMap {
		sectionTitles = append(sectionTitles, st)
	}
	sort.Strings(sectionTitles)
	for _, st := range sectionTitles {
		sec := models.Section{Title: st, Questions: []models.Question{}}
		if items, ok := innerMap[st].([]any); ok {
			for _, rawItem := range items {
				item, ok := rawItem.(map[string]any)
				if !ok {
					continue
				}
				if q, ok := legacyQuestion(item); ok {
					sec.Questions = append(sec.Questions, q)
				}
			}
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func legacyQuestion(item map[string]any) (models.Question, bool) {
	// Single-key shape: {QuestionText: {type, required, options?, value_map?}}
	if len(item) == 1 {
		for text, rawMeta := range item {
			meta, _ := rawMeta.(map[string]any)
			return questionFromMap(legacyMeta(text, meta)), true
		}
	}
	// Alternate shape: {question: "...", type, required, options?, value_map?}
	if _, ok := item["question"]; ok {
		q := questionFromMap(legacyMeta(asString(item["question"]), item))
		return q, true
	}
	return models.Question{}, false
}

func legacyMeta(text string, meta map[string]any) map[string]any {
	out := map[string]any{"text": text, "type": "short_text", "required": true}
	if meta == nil {
		return out
	}
	if t := asString(meta["type"]); t != "" {
		out["type"] = t
	}
	if v, ok := meta["required"]; ok {
		out["required"] = asBool(v)
	}
	if opts, ok := meta["options"].([]any); ok {
		out["options"] = opts
	}
	if vm, ok := meta["value_map"].(map[string]any); ok {
		out["value_map"] = vm
	} else if vm, ok := meta["map"].(map[string]any); ok {
		out["value_map"] = vm
	}
	return out
}

// questionFromMap extracts one question and applies dropdown/value-map
// normalization. Unknown fields are dropped.
func questionFromMap(m map[string]any) models.Question {
	q := models.Question{
		ID:       strings.TrimSpace(asString(m["id"])),
		Text:     asString(m["text"]),
		Type:     models.QuestionType(asString(m["type"])),
		Required: asBool(m["required"]),
		Remember: asBool(m["remember"]),
	}
	if am, ok := m["auto"].(map[string]any); ok {
		if src := asString(am["source"]); src != "" {
			q.Auto = &models.AutoSource{Source: src}
		}
	}
	if q.Type.HasOptions() {
		q.Options = normalizeOptions(m["options"])
	} else if opts, ok := m["options"].([]any); ok {
		q.Options = toStringSlice(opts)
	}
	if q.Type == models.DropdownMapped {
		q.ValueMap = normalizeValueMap(m["value_map"])
	}
	return q
}

// normalizeOptions coerces the three accepted dropdown option shapes into a
// list of non-empty trimmed strings.
func normalizeOptions(raw any) []string {
	switch v := raw.(type) {
	case string:
		return splitNonemptyLines(v)
	case []string:
		return normalizeStringOptions(v)
	case []any:
		if len(v) > 0 && allSingleCharStrings(v) {
			// Bug-compatibility: a list of single-character strings is the
			// character-array serialization of one options string. Rejoin
			// and line-split rather than treating each char as an option.
			var b strings.Builder
			for _, x := range v {
				b.WriteString(x.(string))
			}
			return splitNonemptyLines(b.String())
		}
		out := []string{}
		for _, x := range v {
			s := strings.TrimSpace(asString(x))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func normalizeStringOptions(opts []string) []string {
	if opts == nil {
		return nil
	}
	single := len(opts) > 0
	for _, s := range opts {
		if len(s) > 1 {
			single = false
			break
		}
	}
	if single {
		return splitNonemptyLines(strings.Join(opts, ""))
	}
	out := []string{}
	for _, s := range opts {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func allSingleCharStrings(v []any) bool {
	for _, x := range v {
		s, ok := x.(string)
		if !ok || len([]rune(s)) > 1 {
			return false
		}
	}
	return true
}

func splitNonemptyLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeValueMap accepts a mapping, a JSON-encoded mapping, or garbage;
// garbage and parse failures yield an empty map, never an error.
func normalizeValueMap(raw any) map[string]int {
	switch v := raw.(type) {
	case map[string]int:
		return v
	case map[string]any:
		return toIntMap(v)
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return map[string]int{}
		}
		return toIntMap(parsed)
	}
	return map[string]int{}
}

func toIntMap(m map[string]any) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case float64:
			out[k] = int(n)
		case int:
			out[k] = n
		case int64:
			out[k] = int(n)
		}
	}
	return out
}

func toStringSlice(v []any) []string {
	out := make([]string, 0, len(v))
	for _, x := range v {
		out = append(out, asString(x))
	}
	return out
}

func ensureIDs(doc models.Document) models.Document {
	for si := range doc.Sections {
		for qi := range doc.Sections[si].Questions {
			if doc.Sections[si].Questions[qi].ID == "" {
				doc.Sections[si].Questions[qi].ID = uuid.NewString()
			}
		}
	}
	return doc
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, _ := json.Marshal(v)
		return strings.Trim(string(b), "\"")
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "1" || s == "true" || s == "yes" || s == "y"
	}
	return false
}
