package domain

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ── Property codec ─────────────────────────────────────────
// Wire shape shared by every backend: a property is an object whose key
// is the kind and whose value is the payload, e.g. {"number": 5}.
// Objects read from the remote service also carry "id" and "type".

// EncodeValue wraps v as {kind: payload}.
func EncodeValue(v Value) (json.RawMessage, error) {
	var payload any
	switch t := v.(type) {
	case Title:
		payload = []Span(t)
	case RichText:
		payload = []Span(t)
	case Number:
		payload = t.Value
	case Select:
		payload = t.Option
	case MultiSelect:
		payload = []Option(t)
	case Date:
		payload = t.Range
	case Checkbox:
		payload = bool(t)
	case URL:
		payload = t.Value
	case Email:
		payload = t.Value
	case PhoneNumber:
		payload = t.Value
	case Relation:
		payload = []Reference(t)
	case Unsupported:
		payload = t.Raw
	default:
		return nil, fmt.Errorf("encode value: unknown variant %T", v)
	}
	return json.Marshal(map[string]any{string(v.Kind()): payload})
}

// DecodeValue parses one property object.
func DecodeValue(raw json.RawMessage) (Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode property: %w", err)
	}

	typ, err := propertyType(obj)
	if err != nil {
		return nil, err
	}
	payload := obj[typ]

	switch Kind(typ) {
	case KindTitle:
		var spans []Span
		if err := unmarshalPayload(payload, &spans); err != nil {
			return nil, err
		}
		return Title(spans), nil
	case KindRichText:
		var spans []Span
		if err := unmarshalPayload(payload, &spans); err != nil {
			return nil, err
		}
		return RichText(spans), nil
	case KindNumber:
		var n *float64
		if err := unmarshalPayload(payload, &n); err != nil {
			return nil, err
		}
		return Number{Value: n}, nil
	case KindSelect:
		var o *Option
		if err := unmarshalPayload(payload, &o); err != nil {
			return nil, err
		}
		return Select{Option: o}, nil
	case KindMultiSelect:
		var opts []Option
		if err := unmarshalPayload(payload, &opts); err != nil {
			return nil, err
		}
		return MultiSelect(opts), nil
	case KindDate:
		var d *DateRange
		if err := unmarshalPayload(payload, &d); err != nil {
			return nil, err
		}
		return Date{Range: d}, nil
	case KindCheckbox:
		var b bool
		if err := unmarshalPayload(payload, &b); err != nil {
			return nil, err
		}
		return Checkbox(b), nil
	case KindURL:
		var s *string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		return URL{Value: s}, nil
	case KindEmail:
		var s *string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		return Email{Value: s}, nil
	case KindPhoneNumber:
		var s *string
		if err := unmarshalPayload(payload, &s); err != nil {
			return nil, err
		}
		return PhoneNumber{Value: s}, nil
	case KindRelation:
		var refs []Reference
		if err := unmarshalPayload(payload, &refs); err != nil {
			return nil, err
		}
		return Relation(refs), nil
	default:
		return Unsupported{Type: typ, Raw: payload}, nil
	}
}

// propertyType reads the "type" discriminator, or the single payload key
// when the object is in the bare {kind: payload} shape.
func propertyType(obj map[string]json.RawMessage) (string, error) {
	if raw, ok := obj["type"]; ok {
		var typ string
		if err := json.Unmarshal(raw, &typ); err != nil {
			return "", fmt.Errorf("decode property type: %w", err)
		}
		return typ, nil
	}
	var typ string
	for k := range obj {
		if k == "id" {
			continue
		}
		if typ != "" {
			return "", fmt.Errorf("decode property: ambiguous kind (%q, %q)", typ, k)
		}
		typ = k
	}
	if typ == "" {
		return "", fmt.Errorf("decode property: missing kind")
	}
	return typ, nil
}

func unmarshalPayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// EncodeProperties encodes a property set as one JSON object.
func EncodeProperties(props map[string]Value) (json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(props))
	for name, v := range props {
		raw, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

// DecodeProperties decodes a JSON object of property objects.
func DecodeProperties(raw json.RawMessage) (map[string]Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	props := make(map[string]Value, len(obj))
	for name, p := range obj {
		v, err := DecodeValue(p)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		props[name] = v
	}
	return props, nil
}

// ── Schema codec ───────────────────────────────────────────

// DecodeSchema parses a properties object of the form
// {"Name": {"id": "...", "type": "title", "title": {}}, ...}
// keeping the declared key order.
func DecodeSchema(raw json.RawMessage) (*Schema, error) {
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, om); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	schema := NewSchema()
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(pair.Value, &obj); err != nil {
			return nil, fmt.Errorf("decode schema property %q: %w", pair.Key, err)
		}
		typ, err := propertyType(obj)
		if err != nil {
			return nil, fmt.Errorf("decode schema property %q: %w", pair.Key, err)
		}
		var id string
		if rawID, ok := obj["id"]; ok {
			_ = json.Unmarshal(rawID, &id)
		}
		schema.props.Set(pair.Key, PropertySchema{
			ID:     id,
			Name:   pair.Key,
			Kind:   Kind(typ),
			Config: obj[typ],
		})
	}
	return schema, nil
}

// EncodeSchema is the inverse of DecodeSchema.
func EncodeSchema(s *Schema) (json.RawMessage, error) {
	om := orderedmap.New[string, map[string]any]()
	for _, p := range s.Properties() {
		cfg := p.Config
		if len(cfg) == 0 {
			cfg = json.RawMessage(`{}`)
		}
		entry := map[string]any{
			"type":         string(p.Kind),
			string(p.Kind): cfg,
		}
		if p.ID != "" {
			entry["id"] = p.ID
		}
		om.Set(p.Name, entry)
	}
	return json.Marshal(om)
}
