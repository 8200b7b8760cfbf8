package model

import "time"

// FieldType enumerates the value types a profile field definition can declare.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldCheckbox    FieldType = "checkbox"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldURL         FieldType = "url"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldDate, FieldCheckbox,
		FieldSelect, FieldMultiselect, FieldEmail, FieldPhone, FieldURL:
		return true
	}
	return false
}

// HasOptions reports whether the type requires a non-empty options list.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiselect
}

// FieldOption is one allowed value for select/multiselect fields.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDef is a runtime-defined profile field. Key is unique within the
// organization and never reused, even after the definition is archived:
// values already stored under the key must stay interpretable.
type FieldDef struct {
	ID             int64         `json:"id"`
	OrganizationID int64         `json:"organization_id"`
	Key            string        `json:"key"`
	Label          string        `json:"label"`
	Type           FieldType     `json:"type"`
	Options        []FieldOption `json:"options,omitempty"`
	Required       bool          `json:"required"`
	Visibility     Visibility    `json:"visibility"`
	Archived       bool          `json:"archived"`
	OrderIndex     int           `json:"order_index"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// OptionValues returns the option values in declared order.
func (d *FieldDef) OptionValues() []string {
	vals := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		vals = append(vals, o.Value)
	}
	return vals
}
