package schema

import (
	"net/mail"
	"net/url"
	"regexp"
	"time"

	"github.com/steeplehq/steeple/internal/apperr"
	"github.com/steeplehq/steeple/internal/model"
)

const dateLayout = "2006-01-02"

var phoneRegexp = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{5,19}$`)

// Value is a profile field value coerced to the declared type of its
// definition, one case per field type. Constructing a Value through Coerce is
// the only way values enter the store, which keeps the type check exhaustive.
type Value struct {
	typ     model.FieldType
	text    string
	number  float64
	boolean bool
	list    []string
}

// Type returns the declared field type the value was coerced against.
func (v Value) Type() model.FieldType { return v.typ }

// Native returns the canonical representation stored and served for the
// value: string, float64, bool, or []string depending on the type.
func (v Value) Native() any {
	switch v.typ {
	case model.FieldNumber:
		return v.number
	case model.FieldCheckbox:
		return v.boolean
	case model.FieldMultiselect:
		return v.list
	default:
		return v.text
	}
}

// Coerce validates raw against the definition and returns the typed value.
// Failures are ValidationErrors naming the field key.
func Coerce(def model.FieldDef, raw any) (Value, error) {
	switch def.Type {
	case model.FieldText, model.FieldTextarea:
		s, ok := raw.(string)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects text", def.Key)
		}
		return Value{typ: def.Type, text: s}, nil

	case model.FieldNumber:
		n, ok := toNumber(raw)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects a number", def.Key)
		}
		return Value{typ: def.Type, number: n}, nil

	case model.FieldDate:
		s, ok := raw.(string)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects an ISO date (YYYY-MM-DD)", def.Key)
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return Value{}, apperr.Validationf("field %q expects an ISO date (YYYY-MM-DD), got %q", def.Key, s)
		}
		return Value{typ: def.Type, text: s}, nil

	case model.FieldCheckbox:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects true or false", def.Key)
		}
		return Value{typ: def.Type, boolean: b}, nil

	case model.FieldSelect:
		s, ok := raw.(string)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects one of its options", def.Key)
		}
		if !optionAllowed(def, s) {
			return Value{}, apperr.Validationf("field %q has no option %q", def.Key, s)
		}
		return Value{typ: def.Type, text: s}, nil

	case model.FieldMultiselect:
		items, ok := toStringSlice(raw)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects a list of option values", def.Key)
		}
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			if !optionAllowed(def, item) {
				return Value{}, apperr.Validationf("field %q has no option %q", def.Key, item)
			}
			if seen[item] {
				return Value{}, apperr.Validationf("field %q repeats option %q", def.Key, item)
			}
			seen[item] = true
		}
		return Value{typ: def.Type, list: items}, nil

	case model.FieldEmail:
		s, ok := raw.(string)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects an email address", def.Key)
		}
		if _, err := mail.ParseAddress(s); err != nil {
			return Value{}, apperr.Validationf("field %q expects a valid email address, got %q", def.Key, s)
		}
		return Value{typ: def.Type, text: s}, nil

	case model.FieldPhone:
		s, ok := raw.(string)
		if !ok || !phoneRegexp.MatchString(s) {
			return Value{}, apperr.Validationf("field %q expects a phone number", def.Key)
		}
		return Value{typ: def.Type, text: s}, nil

	case model.FieldURL:
		s, ok := raw.(string)
		if !ok {
			return Value{}, apperr.Validationf("field %q expects a URL", def.Key)
		}
		u, err := url.ParseRequestURI(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return Value{}, apperr.Validationf("field %q expects an http(s) URL, got %q", def.Key, s)
		}
		return Value{typ: def.Type, text: s}, nil
	}

	return Value{}, apperr.Validationf("field %q has unknown type %q", def.Key, def.Type)
}

func toNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toStringSlice(raw any) ([]string, bool) {
	switch items := raw.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func optionAllowed(def model.FieldDef, value string) bool {
	for _, o := range def.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
