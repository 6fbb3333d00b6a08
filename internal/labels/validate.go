// Package labels validates label-sheet requests and normalizes them into jobs.
package labels

import "fmt"

// Validation diagnostics returned to clients verbatim.
const (
	MsgNotObject = "Invalid payload: Data must be a JSON object."
	MsgNoLabels  = "No labels provided."
)

// Payload field names.
const (
	FieldLabels     = "labels"
	FieldSheetType  = "sheet_type"
	FieldSkipLabels = "skip_labels"
	FieldStartLabel = "start_label"
	FieldBorder     = "border"
	FieldFontSize   = "font_size"
	FieldPadding    = "padding"
	FieldFileName   = "file_name"
	FieldTextAnchor = "text_anchor"
)

// jsonType is the kind of a value produced by encoding/json decoding into any.
type jsonType uint8

const (
	typeNull jsonType = 1 << iota
	typeBool
	typeNumber
	typeString
	typeArray
	typeObject
)

func (t jsonType) String() string {
	switch t {
	case typeNull:
		return "null"
	case typeBool:
		return "boolean"
	case typeNumber:
		return "number"
	case typeString:
		return "string"
	case typeArray:
		return "array"
	case typeObject:
		return "object"
	}
	return "unknown"
}

// typeSet is a bitmask of accepted jsonTypes.
type typeSet jsonType

func (s typeSet) allows(t jsonType) bool { return jsonType(s)&t != 0 }

func (s typeSet) String() string {
	out := ""
	for t := typeNull; t <= typeObject; t <<= 1 {
		if !s.allows(t) || t == typeNull {
			continue
		}
		if out != "" {
			out += " or "
		}
		out += t.String()
	}
	if s.allows(typeNull) {
		if out != "" {
			out += " or "
		}
		out += "null"
	}
	return out
}

type fieldRule struct {
	name    string
	accepts typeSet
}

// schema lists every recognized field with the JSON types it accepts. Fields
// outside the table are ignored.
var schema = []fieldRule{
	{FieldLabels, typeSet(typeArray)},
	{FieldSheetType, typeSet(typeString | typeNull)},
	{FieldSkipLabels, typeSet(typeString | typeNull)},
	{FieldStartLabel, typeSet(typeString | typeNull)},
	{FieldBorder, typeSet(typeBool | typeNull)},
	{FieldFontSize, typeSet(typeNumber | typeNull)},
	{FieldPadding, typeSet(typeNumber | typeNull)},
	{FieldFileName, typeSet(typeString | typeNull)},
	{FieldTextAnchor, typeSet(typeString | typeNull)},
}

// Validate checks a decoded payload and returns the first violation found, or
// an empty string when the payload is acceptable.
func Validate(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return MsgNotObject
	}

	if !Truthy(obj[FieldLabels]) {
		return MsgNoLabels
	}

	for _, rule := range schema {
		v, present := obj[rule.name]
		if !present {
			continue
		}
		if got := typeOf(v); !rule.accepts.allows(got) {
			return fmt.Sprintf("Invalid type for '%s': Expected %s, got %s", rule.name, rule.accepts, got)
		}
	}
	return ""
}

// Truthy reports whether a decoded JSON value is non-empty: null, false, 0,
// "" and empty arrays or objects are not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func typeOf(v any) jsonType {
	switch v.(type) {
	case nil:
		return typeNull
	case bool:
		return typeBool
	case float64:
		return typeNumber
	case string:
		return typeString
	case []any:
		return typeArray
	case map[string]any:
		return typeObject
	}
	return 0
}
