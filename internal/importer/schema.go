package importer

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldType is the primitive type an import column must coerce to.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

// FieldSpec declares one column of an import target.
type FieldSpec struct {
	Name string
	Type FieldType
	// Rule is a go-playground/validator tag string applied to the coerced
	// value, e.g. "required,min=2,max=50" or "required,oneof=M F".
	Rule string
	// Optional fields may be absent without failing the row.
	Optional bool
	// Message is the user-facing description attached to a violation.
	Message string
}

// Schema is the ordered set of fields an import target accepts.
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// Keys returns every declared field name in order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Name
	}
	return keys
}

// RequiredKeys returns the names of non-optional fields.
func (s Schema) RequiredKeys() []string {
	var keys []string
	for _, f := range s.Fields {
		if !f.Optional {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// Columns derives display metadata for previewing imported rows.
func (s Schema) Columns() []Column {
	cols := make([]Column, len(s.Fields))
	for i, f := range s.Fields {
		label := f.Name
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		cols[i] = Column{Key: f.Name, Label: label}
	}
	return cols
}

// Column mirrors the table column shape used by list views.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// validateField checks a single coerced value against the spec, returning a
// human readable violation or "" when the value passes.
func validateField(v *validator.Validate, spec FieldSpec, value interface{}, present bool) string {
	if !present || value == nil || value == "" {
		if spec.Optional {
			return ""
		}
		return describe(spec, "est requis")
	}

	switch spec.Type {
	case FieldNumber:
		num, ok := value.(float64)
		if !ok {
			return describe(spec, "doit être un nombre")
		}
		if spec.Rule != "" {
			if err := v.Var(num, spec.Rule); err != nil {
				return describe(spec, "est hors limites")
			}
		}
	case FieldBoolean:
		if _, ok := value.(bool); !ok {
			return describe(spec, "doit être un booléen")
		}
	default:
		str, ok := value.(string)
		if !ok {
			return describe(spec, "doit être une chaîne de caractères")
		}
		if spec.Rule != "" {
			if err := v.Var(str, spec.Rule); err != nil {
				return describe(spec, "n'est pas valide")
			}
		}
	}
	return ""
}

func describe(spec FieldSpec, fallback string) string {
	if spec.Message != "" {
		return spec.Message
	}
	return fmt.Sprintf("Le champ %s %s", spec.Name, fallback)
}
