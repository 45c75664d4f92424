package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// delegateResponse is the payload every provider is asked to return.
type delegateResponse struct {
	MatchType          Strength
	OfficialOccupation string
	OfoCode            string
	Confidence         float64
	Reason             string
	IsNQFValid         bool
	MinNQFRequired     string
}

var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"matchType":          map[string]any{"type": "string", "enum": []any{"full", "partial", "none"}},
		"officialOccupation": map[string]any{"type": []any{"string", "null"}},
		"ofoCode":            map[string]any{"type": []any{"string", "null"}},
		"confidence":         map[string]any{"type": []any{"number", "string"}},
		"reason":             map[string]any{"type": "string"},
		"isNQFValid":         map[string]any{"type": []any{"boolean", "string"}},
		"minNQFRequired":     map[string]any{"type": []any{"string", "number", "null"}},
	},
	"required": []any{"matchType", "officialOccupation", "confidence", "reason", "isNQFValid", "ofoCode"},
}

// ResponseFields lists the required keys of a delegate response in schema order.
func ResponseFields() []string {
	return []string{"matchType", "officialOccupation", "confidence", "reason", "isNQFValid", "ofoCode"}
}

func parseResponse(raw string) (*delegateResponse, error) {
	cleaned, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if matchType, ok := data["matchType"].(string); ok {
		data["matchType"] = strings.ToLower(strings.TrimSpace(matchType))
	}

	if err := validateResponse(data); err != nil {
		return nil, err
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		confidence = 0
	}

	return &delegateResponse{
		MatchType:          Strength(coerceString(data["matchType"])),
		OfficialOccupation: coerceString(data["officialOccupation"]),
		OfoCode:            coerceString(data["ofoCode"]),
		Confidence:         confidence,
		Reason:             coerceString(data["reason"]),
		IsNQFValid:         coerceBool(data["isNQFValid"]),
		MinNQFRequired:     coerceString(data["minNQFRequired"]),
	}, nil
}

func validateResponse(data map[string]any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(responseSchema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: validation error: %v", ErrMalformedResponse, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(errs, "; "))
	}

	return nil
}

// extractJSON returns the first balanced JSON object in raw. Code fences and
// surrounding prose are ignored.
func extractJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.IndexByte(raw, '{')
	for start != -1 {
		if end := matchBrace(raw[start:]); end != -1 {
			candidate := raw[start : start+end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	return "", false
}

// matchBrace returns the index of the brace closing s[0], honouring strings.
func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
