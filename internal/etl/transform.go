package etl

import (
	"github.com/sirupsen/logrus"

	"migrator/internal/domain"
)

// ── Mapper ─────────────────────────────────────────────────
// The Mapper re-shapes a source record's properties to fit a target
// schema. It walks the target schema, never the source, so the output
// only ever holds keys the target declares.

// Mapper converts source records into target-shaped property sets.
type Mapper struct {
	Logger logrus.FieldLogger
}

// NewMapper returns a Mapper logging through logger.
func NewMapper(logger logrus.FieldLogger) *Mapper {
	return &Mapper{Logger: logger}
}

type mapOutcome int

const (
	mapped mapOutcome = iota
	mismatched
	unsupported
)

// Map returns the properties to send when creating rec's copy in a
// collection with the given schema. Neither rec nor schema is modified.
func (m *Mapper) Map(rec domain.Record, schema *domain.Schema) map[string]domain.Value {
	log := m.logger().WithField("record", rec.ID)
	out := make(map[string]domain.Value, schema.Len())

	for _, prop := range schema.Properties() {
		src, ok := rec.Properties[prop.Name]

		// Checkbox is the only kind with a default.
		if prop.Kind == domain.KindCheckbox {
			out[prop.Name] = checkboxOf(src)
			continue
		}

		if !ok {
			log.WithField("property", prop.Name).Warn("property not found on source record")
			continue
		}
		if src == nil {
			log.WithField("property", prop.Name).Debug("source value is nil, skipping")
			continue
		}

		v, outcome := mapValue(prop.Kind, src)
		switch outcome {
		case mapped:
			out[prop.Name] = v
		case mismatched:
			log.WithFields(logrus.Fields{
				"property": prop.Name,
				"want":     prop.Kind,
				"got":      src.Kind(),
			}).Debug("source value absent or of another kind, skipping")
		case unsupported:
			log.WithFields(logrus.Fields{
				"property": prop.Name,
				"kind":     prop.Kind,
			}).Warn("unsupported property kind")
		}
	}

	return out
}

func (m *Mapper) logger() logrus.FieldLogger {
	if m.Logger == nil {
		return logrus.StandardLogger()
	}
	return m.Logger
}

// mapValue copies src when it holds a non-absent value of kind.
// Payloads are passed through unchanged.
func mapValue(kind domain.Kind, src domain.Value) (domain.Value, mapOutcome) {
	switch kind {
	case domain.KindTitle:
		if v, ok := src.(domain.Title); ok && v != nil {
			return v, mapped
		}
	case domain.KindRichText:
		if v, ok := src.(domain.RichText); ok && v != nil {
			return v, mapped
		}
	case domain.KindNumber:
		if v, ok := src.(domain.Number); ok && v.Value != nil {
			return v, mapped
		}
	case domain.KindSelect:
		if v, ok := src.(domain.Select); ok && v.Option != nil {
			return v, mapped
		}
	case domain.KindMultiSelect:
		if v, ok := src.(domain.MultiSelect); ok && v != nil {
			return v, mapped
		}
	case domain.KindDate:
		if v, ok := src.(domain.Date); ok && v.Range != nil {
			return v, mapped
		}
	case domain.KindCheckbox:
		return checkboxOf(src), mapped
	case domain.KindURL:
		if v, ok := src.(domain.URL); ok && nonEmpty(v.Value) {
			return v, mapped
		}
	case domain.KindEmail:
		if v, ok := src.(domain.Email); ok && nonEmpty(v.Value) {
			return v, mapped
		}
	case domain.KindPhoneNumber:
		if v, ok := src.(domain.PhoneNumber); ok && nonEmpty(v.Value) {
			return v, mapped
		}
	case domain.KindRelation:
		if v, ok := src.(domain.Relation); ok && v != nil {
			return v, mapped
		}
	default:
		return nil, unsupported
	}
	return nil, mismatched
}

func checkboxOf(src domain.Value) domain.Checkbox {
	if v, ok := src.(domain.Checkbox); ok {
		return v
	}
	return false
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }
