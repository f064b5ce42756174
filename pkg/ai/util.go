package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
	"github.com/pkoukk/tiktoken-go"
)

func stripDuplicateLeadingBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}

// StripCodeFence removes a leading ``` fence (with an optional language tag
// such as json) and a trailing ``` fence, then trims whitespace.
// Text without fences is only trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl != -1 && !strings.ContainsAny(s[:nl], "{[\"") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// GenerateSchema creates a JSON Schema from the given Go type.
// It uses reflection to inspect the type structure and generates
// a schema suitable for use with AI structured output.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnmarshalFlexible attempts to unmarshal JSON into the target with multiple fallback strategies.
// It first tries standard JSON unmarshaling, then handles double-encoded JSON strings,
// and finally attempts to repair malformed JSON before parsing.
//
// This is useful for parsing AI-generated JSON which may be malformed or wrapped in strings.
//
// Example:
//
//	var result MyStruct
//	// All of these inputs would work:
//	UnmarshalFlexible(`{"name": "test"}`, &result)           // standard JSON
//	UnmarshalFlexible(`"{\"name\": \"test\"}"`, &result)     // double-encoded
//	UnmarshalFlexible(`{name: "test"}`, &result)             // malformed (repaired)
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("empty input")
	}
	// jsonrepair turns comma separated prose into a root level array, so only
	// input that already looks like JSON is worth repairing.
	if !strings.ContainsRune(`{["`, rune(input[0])) {
		return fmt.Errorf("input is not JSON: starts with %q", input[0])
	}

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w", err)
	}

	return nil
}

// TruncateTokens shortens text to at most maxTokens tokens of the given
// tiktoken encoding. A maxTokens of zero or less disables truncation.
func TruncateTokens(text string, encoding string, maxTokens int) (string, bool, error) {
	if maxTokens <= 0 || text == "" {
		return text, false, nil
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return text, false, fmt.Errorf("failed to load token encoding %q: %w", encoding, err)
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false, nil
	}

	return enc.Decode(tokens[:maxTokens]), true, nil
}

// CountTokens returns the number of tokens of text in the given encoding.
func CountTokens(text string, encoding string) (int, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
