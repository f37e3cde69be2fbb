package domain

import (
	"encoding/json"
	"strings"
)

// Kind is the type tag of a collection property.
type Kind string

const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindNumber      Kind = "number"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindDate        Kind = "date"
	KindCheckbox    Kind = "checkbox"
	KindURL         Kind = "url"
	KindEmail       Kind = "email"
	KindPhoneNumber Kind = "phone_number"
	KindRelation    Kind = "relation"
)

// SupportedKinds lists every kind the migrator knows how to copy.
var SupportedKinds = []Kind{
	KindTitle, KindRichText, KindNumber, KindSelect, KindMultiSelect, KindDate,
	KindCheckbox, KindURL, KindEmail, KindPhoneNumber, KindRelation,
}

// Supported reports whether values of kind k can be copied.
func (k Kind) Supported() bool {
	for _, s := range SupportedKinds {
		if s == k {
			return true
		}
	}
	return false
}

// ── Value ──────────────────────────────────────────────────
// Value is a tagged union over the property kinds. Each variant carries
// its own payload shape; payloads are passed through without validation.

// Value is implemented only by the variants declared in this file.
type Value interface {
	Kind() Kind
	isValue()
}

// Span is one opaque rich-text span as returned by the remote service.
type Span = json.RawMessage

// Option is a select option token.
type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// DateRange is the payload of a date property.
type DateRange struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// Reference points at a related record.
type Reference struct {
	ID string `json:"id"`
}

type (
	Title       []Span
	RichText    []Span
	Number      struct{ Value *float64 }
	Select      struct{ Option *Option }
	MultiSelect []Option
	Date        struct{ Range *DateRange }
	Checkbox    bool
	URL         struct{ Value *string }
	Email       struct{ Value *string }
	PhoneNumber struct{ Value *string }
	Relation    []Reference
)

// Unsupported holds a property of a kind outside SupportedKinds.
// The raw payload is kept so the value survives a round trip untouched.
type Unsupported struct {
	Type string
	Raw  json.RawMessage
}

func (Title) Kind() Kind         { return KindTitle }
func (RichText) Kind() Kind      { return KindRichText }
func (Number) Kind() Kind        { return KindNumber }
func (Select) Kind() Kind        { return KindSelect }
func (MultiSelect) Kind() Kind   { return KindMultiSelect }
func (Date) Kind() Kind          { return KindDate }
func (Checkbox) Kind() Kind      { return KindCheckbox }
func (URL) Kind() Kind           { return KindURL }
func (Email) Kind() Kind         { return KindEmail }
func (PhoneNumber) Kind() Kind   { return KindPhoneNumber }
func (Relation) Kind() Kind      { return KindRelation }
func (u Unsupported) Kind() Kind { return Kind(u.Type) }

func (Title) isValue()       {}
func (RichText) isValue()    {}
func (Number) isValue()      {}
func (Select) isValue()      {}
func (MultiSelect) isValue() {}
func (Date) isValue()        {}
func (Checkbox) isValue()    {}
func (URL) isValue()         {}
func (Email) isValue()       {}
func (PhoneNumber) isValue() {}
func (Relation) isValue()    {}
func (Unsupported) isValue() {}

// ── Constructors ───────────────────────────────────────────

// TextSpan builds a plain text span in the remote service's rich-text shape.
func TextSpan(content string) Span {
	b, _ := json.Marshal(map[string]any{
		"type":       "text",
		"text":       map[string]any{"content": content},
		"plain_text": content,
	})
	return b
}

// NumberOf returns a non-null Number.
func NumberOf(f float64) Number { return Number{Value: &f} }

// StringPtr is a convenience for the nullable string variants.
func StringPtr(s string) *string { return &s }

// PlainText joins the plain_text of every span. Spans without plain text
// fall back to text.content.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		var span struct {
			PlainText string `json:"plain_text"`
			Text      struct {
				Content string `json:"content"`
			} `json:"text"`
		}
		if json.Unmarshal(s, &span) != nil {
			continue
		}
		if span.PlainText != "" {
			sb.WriteString(span.PlainText)
		} else {
			sb.WriteString(span.Text.Content)
		}
	}
	return sb.String()
}
