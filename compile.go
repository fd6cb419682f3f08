package jetschema

import (
	"encoding/json"
	"math"
)

// Compile walks a loosely-typed schema description (the map/slice/scalar tree
// produced by a JSON or YAML decoder) and produces the immutable Schema IR.
// The description is validated structurally before any IR is allocated; a
// malformed description yields a *SchemaError. Unknown keywords are ignored
// for forward compatibility.
//
// Contradictory bounds (minLength > maxLength and friends) are not rejected:
// such a schema simply matches no document.
func Compile(desc map[string]any) (*Schema, error) {
	if err := validateStructure(desc); err != nil {
		return nil, err
	}
	return buildSchema(desc), nil
}

// ---- pass 1: structural validation ----

func validateStructure(m map[string]any) error {
	if tv, ok := m["type"]; ok {
		if !validTypeField(tv) {
			return invalidSchema()
		}
	}

	if pv, ok := m["properties"]; ok {
		pm, ok := pv.(map[string]any)
		if !ok {
			return invalidSchema()
		}
		for _, sub := range pm {
			sm, ok := sub.(map[string]any)
			if !ok {
				return invalidSchema()
			}
			if err := validateStructure(sm); err != nil {
				return err
			}
		}
	}

	if iv, ok := m["items"]; ok {
		switch t := iv.(type) {
		case map[string]any:
			if err := validateStructure(t); err != nil {
				return err
			}
		case []any:
			for _, sub := range t {
				sm, ok := sub.(map[string]any)
				if !ok {
					return invalidSchema()
				}
				if err := validateStructure(sm); err != nil {
					return err
				}
			}
		default:
			return invalidSchema()
		}
	}

	if rv, ok := m["required"]; ok {
		ra, ok := rv.([]any)
		if !ok {
			return invalidSchema()
		}
		for _, e := range ra {
			if _, ok := e.(string); !ok {
				return invalidSchema()
			}
		}
	}

	for _, key := range [...]string{"allOf", "anyOf", "oneOf"} {
		ov, ok := m[key]
		if !ok {
			continue
		}
		oa, ok := ov.([]any)
		if !ok {
			return invalidSchema()
		}
		for _, sub := range oa {
			sm, ok := sub.(map[string]any)
			if !ok {
				return invalidSchema()
			}
			if err := validateStructure(sm); err != nil {
				return err
			}
		}
	}

	for _, key := range [...]string{"not", "if", "then", "else"} {
		ov, ok := m[key]
		if !ok {
			continue
		}
		sm, ok := ov.(map[string]any)
		if !ok {
			return invalidSchema()
		}
		if err := validateStructure(sm); err != nil {
			return err
		}
	}

	return nil
}

// validTypeField accepts a valid type name or a non-empty sequence of valid
// type names. An empty type array is invalid.
func validTypeField(v any) bool {
	switch t := v.(type) {
	case string:
		_, ok := TypeFromName(t)
		return ok
	case []any:
		if len(t) == 0 {
			return false
		}
		for _, e := range t {
			name, ok := e.(string)
			if !ok {
				return false
			}
			if _, ok := TypeFromName(name); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ---- pass 2: IR construction ----

// buildSchema assumes the description already passed validateStructure, so
// type names resolve and the container keywords have the right shapes.
func buildSchema(m map[string]any) *Schema {
	s := newDefaultSchema()

	switch tv := m["type"].(type) {
	case string:
		if t, ok := TypeFromName(tv); ok {
			s.Types.Add(t)
		}
	case []any:
		for _, e := range tv {
			if name, ok := e.(string); ok {
				if t, ok := TypeFromName(name); ok {
					s.Types.Add(t)
				}
			}
		}
	}

	// Object keywords.
	if pm, ok := m["properties"].(map[string]any); ok && len(pm) > 0 {
		s.Properties = make(map[string]*Schema, len(pm))
		for name, sub := range pm {
			if sm, ok := sub.(map[string]any); ok {
				s.Properties[name] = buildSchema(sm)
			}
		}
	}
	if ra, ok := m["required"].([]any); ok {
		for _, e := range ra {
			if name, ok := e.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if am, ok := m["additionalProperties"].(map[string]any); ok {
		s.AdditionalProperties = buildSchema(am)
	}
	sizeConstraint(m, "minProperties", &s.MinProperties, 0)
	sizeConstraint(m, "maxProperties", &s.MaxProperties, math.MaxInt)

	// Array keywords.
	switch iv := m["items"].(type) {
	case map[string]any:
		s.Items.Single = buildSchema(iv)
	case []any:
		for _, sub := range iv {
			if sm, ok := sub.(map[string]any); ok {
				s.Items.Tuple = append(s.Items.Tuple, buildSchema(sm))
			}
		}
	}
	if am, ok := m["additionalItems"].(map[string]any); ok {
		s.AdditionalItems = buildSchema(am)
	}
	sizeConstraint(m, "minItems", &s.MinItems, 0)
	sizeConstraint(m, "maxItems", &s.MaxItems, math.MaxInt)
	if b, ok := m["uniqueItems"].(bool); ok {
		s.UniqueItems = b
	}

	// String keywords.
	sizeConstraint(m, "minLength", &s.MinLength, 0)
	sizeConstraint(m, "maxLength", &s.MaxLength, math.MaxInt)
	stringField(m, "pattern", &s.Pattern)
	stringField(m, "format", &s.Format)

	// Number keywords.
	floatConstraint(m, "minimum", &s.Minimum)
	floatConstraint(m, "maximum", &s.Maximum)
	floatConstraint(m, "exclusiveMinimum", &s.ExclusiveMinimum)
	floatConstraint(m, "exclusiveMaximum", &s.ExclusiveMaximum)
	floatConstraint(m, "multipleOf", &s.MultipleOf)

	// Logical composition.
	s.AllOf = buildSchemaList(m, "allOf")
	s.AnyOf = buildSchemaList(m, "anyOf")
	s.OneOf = buildSchemaList(m, "oneOf")
	if nm, ok := m["not"].(map[string]any); ok {
		s.Not = buildSchema(nm)
	}

	// Conditional composition.
	if im, ok := m["if"].(map[string]any); ok {
		s.If = buildSchema(im)
	}
	if tm, ok := m["then"].(map[string]any); ok {
		s.Then = buildSchema(tm)
	}
	if em, ok := m["else"].(map[string]any); ok {
		s.Else = buildSchema(em)
	}

	// Core vocabulary and metadata, carried for fidelity.
	stringField(m, "$schema", &s.SchemaVersion)
	stringField(m, "$id", &s.ID)
	stringField(m, "$ref", &s.Ref)
	stringField(m, "$anchor", &s.Anchor)
	stringField(m, "$dynamicRef", &s.DynamicRef)
	stringField(m, "$dynamicAnchor", &s.DynamicAnchor)
	stringField(m, "$vocabulary", &s.Vocabulary)
	stringField(m, "$comment", &s.Comment)
	stringField(m, "title", &s.Title)
	stringField(m, "description", &s.Description)
	if dv, ok := m["default"]; ok {
		s.DefaultValue = jsonText(dv)
	}
	if ev, ok := m["examples"].([]any); ok {
		for _, e := range ev {
			s.Examples = append(s.Examples, jsonText(e))
		}
	}

	return s
}

func buildSchemaList(m map[string]any, key string) []*Schema {
	oa, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]*Schema, 0, len(oa))
	for _, sub := range oa {
		if sm, ok := sub.(map[string]any); ok {
			out = append(out, buildSchema(sm))
		}
	}
	return out
}

// sizeConstraint copies a numeric size keyword, clamping negatives back to
// the default. Non-numeric values leave the default untouched.
func sizeConstraint(m map[string]any, key string, target *int, def int) {
	*target = def
	if n, ok := numberValue(m[key]); ok && n >= 0 {
		*target = int(n)
	}
}

func floatConstraint(m map[string]any, key string, target *float64) {
	if n, ok := numberValue(m[key]); ok {
		*target = n
	}
}

func stringField(m map[string]any, key string, target *string) {
	if sv, ok := m[key].(string); ok {
		*target = sv
	}
}

// numberValue extracts a float64 from the scalar representations the JSON
// and YAML decoders produce.
func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
