package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema reflects a JSON schema for the type of value with all
// definitions inlined, the form both chat backends accept as a response
// format.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflector.Reflect(reflect.New(t).Interface())
}

// UnmarshalFlexible decodes model output into out. Models do not always
// honour the schema, so the input is tried as is, unwrapped from a markdown
// code fence or a JSON string, and finally passed through jsonrepair.
func UnmarshalFlexible(input string, out any) error {
	input = stripCodeFence(strings.TrimSpace(input))
	if json.Unmarshal([]byte(input), out) == nil {
		return nil
	}

	var inner string
	if json.Unmarshal([]byte(input), &inner) == nil {
		input = stripCodeFence(strings.TrimSpace(inner))
		if json.Unmarshal([]byte(input), out) == nil {
			return nil
		}
	}

	input = dropDoubledBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("repair model output: %w (input: %s)", err, input)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return errors.Join(fmt.Errorf("decode repaired model output %q", repaired), err)
	}
	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}

// dropDoubledBrace turns "{ {" at the start into "{", a common slip of
// small local models.
func dropDoubledBrace(s string) string {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "{")
	if !ok {
		return s
	}
	if rest = strings.TrimSpace(rest); strings.HasPrefix(rest, "{") {
		return rest
	}
	return s
}
