package analysis

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/verte-zerg/neurosense/internal/model"
)

// Decode parses a JSON array of keystroke records. Elements whose fields
// have the wrong types are dropped; a payload that is not an array of
// key/timestamp objects is rejected with *InvalidInputError.
func Decode(raw []byte) ([]model.KeyEvent, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return DecodeValue(v)
}

// DecodeDocument accepts either a bare event array or an object of the form
// {"typingData": [...]}, the request body shape of the HTTP API.
func DecodeDocument(raw []byte) ([]model.KeyEvent, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok {
		data, ok := obj["typingData"]
		if !ok {
			return nil, invalidInput(-1, "object has no typingData field")
		}
		return DecodeValue(data)
	}
	return DecodeValue(v)
}

// DecodeValue converts an already-unmarshaled JSON value into key events.
func DecodeValue(v any) ([]model.KeyEvent, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalidInput(-1, "expected an array of key events, got %s", jsonKind(v))
	}
	events := make([]model.KeyEvent, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalidInput(i, "expected an object, got %s", jsonKind(item))
		}
		rawKey, hasKey := obj["key"]
		rawTS, hasTS := obj["timestamp"]
		if !hasKey && !hasTS {
			return nil, invalidInput(i, "object has neither key nor timestamp")
		}
		key, ok := rawKey.(string)
		if !ok {
			continue
		}
		ts, ok := toMillis(rawTS)
		if !ok {
			continue
		}
		events = append(events, model.KeyEvent{Key: key, Timestamp: ts})
	}
	return events, nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalidInput(-1, "malformed JSON: %v", err)
	}
	if dec.More() {
		return nil, invalidInput(-1, "trailing data after JSON value")
	}
	return v, nil
}

func toMillis(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}
