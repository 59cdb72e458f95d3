package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

//go:embed default_form.yaml
var defaultFormYAML []byte

// Seed document shapes. Kept separate from the domain types so the YAML
// surface stays small and deliberate.
type seedDocument struct {
	Sections []seedSection `yaml:"sections"`
}

type seedSection struct {
	ID           string      `yaml:"id"`
	Title        string      `yaml:"title"`
	Order        int         `yaml:"order"`
	Repeatable   bool        `yaml:"repeatable"`
	MinInstances int         `yaml:"min_instances"`
	MaxInstances int         `yaml:"max_instances"`
	Fields       []seedField `yaml:"fields"`
}

type seedField struct {
	ID            string          `yaml:"id"`
	Type          string          `yaml:"type"`
	Label         string          `yaml:"label"`
	Order         int             `yaml:"order"`
	Required      bool            `yaml:"required"`
	MappedField   string          `yaml:"mapped_field"`
	CustomDataKey string          `yaml:"custom_data_key"`
	Options       []seedOption    `yaml:"options"`
	Validation    *seedValidation `yaml:"validation"`
}

type seedOption struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type seedValidation struct {
	MinLength *int     `yaml:"min_length"`
	MaxLength *int     `yaml:"max_length"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Pattern   string   `yaml:"pattern"`
	DateAfter string   `yaml:"date_after"`
	MinAge    *int     `yaml:"min_age"`
	MaxAge    *int     `yaml:"max_age"`
}

// defaultFormSections decodes the embedded seed document into domain
// sections for a fresh draft.
func defaultFormSections() ([]domain.FormSection, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(defaultFormYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode default form seed: %w", err)
	}
	sections := make([]domain.FormSection, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		section := domain.FormSection{
			ID:           s.ID,
			Title:        s.Title,
			Order:        s.Order,
			Repeatable:   s.Repeatable,
			MinInstances: s.MinInstances,
			MaxInstances: s.MaxInstances,
		}
		for _, f := range s.Fields {
			field := domain.FormField{
				ID:            f.ID,
				Type:          domain.FieldType(f.Type),
				Label:         f.Label,
				Order:         f.Order,
				Required:      f.Required,
				MappedField:   f.MappedField,
				CustomDataKey: f.CustomDataKey,
			}
			for _, opt := range f.Options {
				field.Options = append(field.Options, domain.FieldOption{Value: opt.Value, Label: opt.Label})
			}
			if v := f.Validation; v != nil {
				field.Validation = &domain.FieldValidationRules{
					MinLength: v.MinLength,
					MaxLength: v.MaxLength,
					Min:       v.Min,
					Max:       v.Max,
					Pattern:   v.Pattern,
					DateAfter: v.DateAfter,
					MinAge:    v.MinAge,
					MaxAge:    v.MaxAge,
				}
			}
			section.Fields = append(section.Fields, field)
		}
		sections = append(sections, section)
	}
	return sections, nil
}
