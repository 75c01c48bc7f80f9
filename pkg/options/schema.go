package options

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/mailkit/pkg/validator"
)

// Kind names a value type accepted by a Field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindMap    Kind = "map"
	KindList   Kind = "list"
	KindNull   Kind = "null"
)

// Field declares one option key.
type Field struct {
	// Types lists accepted kinds; empty accepts anything.
	Types []Kind
	// Default is applied when the key is absent. Nil means no default.
	Default any
	// Required reports an error when the key is absent or null.
	Required bool
	// Allowed restricts scalar values to the listed set.
	Allowed []any
	// Aliases are alternative key names, matched case-insensitively.
	Aliases []string
	// Schema resolves a nested map value. Nested defaults are applied even
	// when the key itself is absent.
	Schema Schema
}

// Schema maps option keys to their declarations.
type Schema map[string]Field

// Resolve validates input against schema and returns the resolved options.
// Keys unknown to the schema are kept as they are. All problems are
// reported together as validator.ValidationErrors joined with
// ErrInvalidOptions.
func Resolve(schema Schema, input map[string]any) (*Options, error) {
	values, verrs := resolve(schema, input)
	if !verrs.IsEmpty() {
		return nil, errors.Join(ErrInvalidOptions, verrs)
	}
	return New(values), nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve(schema Schema, input map[string]any) *Options {
	opts, err := Resolve(schema, input)
	if err != nil {
		panic(err)
	}
	return opts
}

func resolve(schema Schema, input map[string]any) (map[string]any, validator.ValidationErrors) {
	out := cloneMap(input)
	var verrs validator.ValidationErrors

	for _, name := range slices.Sorted(maps.Keys(schema)) {
		field := schema[name]

		if key, ok := lookupKey(out, name, field.Aliases); ok && key != name {
			out[name] = out[key]
			delete(out, key)
		}

		value, present := out[name]
		if !present {
			if field.Required {
				verrs.Add(validator.Required(name, false).Error)
				continue
			}
			switch {
			case field.Default != nil:
				value = cloneValue(field.Default)
			case field.Schema != nil:
				value = map[string]any{}
			default:
				continue
			}
		}

		coerced, ok := coerce(value, field.Types)
		if !ok {
			verrs.Add(validator.KindOf(name, false, kindName(value), kindNames(field.Types)).Error)
			continue
		}

		if coerced == nil {
			if field.Required {
				verrs.Add(validator.Required(name, false).Error)
				continue
			}
			out[name] = nil
			continue
		}

		if len(field.Allowed) > 0 && isScalar(coerced) {
			if err := validator.Apply(validator.OneOf(name, coerced, field.Allowed)); err != nil {
				verrs.Merge("", validator.ExtractValidationErrors(err))
				continue
			}
		}

		if field.Schema != nil {
			if m, ok := coerced.(map[string]any); ok {
				nested, nerrs := resolve(field.Schema, m)
				verrs.Merge(name, nerrs)
				coerced = nested
			}
		}

		out[name] = coerced
	}

	return out, verrs
}

// lookupKey finds the input key matching name or one of its aliases.
func lookupKey(m map[string]any, name string, aliases []string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if strings.EqualFold(key, name) {
			return key, true
		}
		for _, alias := range aliases {
			if strings.EqualFold(key, alias) {
				return key, true
			}
		}
	}
	return "", false
}

func coerce(value any, types []Kind) (any, bool) {
	if len(types) == 0 {
		return normalize(value), true
	}
	if value == nil {
		return nil, slices.Contains(types, KindNull)
	}
	for _, kind := range types {
		if v, ok := coerceTo(kind, value); ok {
			return v, true
		}
	}
	return nil, false
}

func coerceTo(kind Kind, value any) (any, bool) {
	switch kind {
	case KindString:
		s, ok := value.(string)
		return s, ok
	case KindInt:
		return toInt(value)
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return b, err == nil
		}
	case KindMap:
		return toMap(value)
	case KindList:
		return toList(value)
	}
	return nil, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		if float32(int(v)) == v {
			return int(v), true
		}
	case float64:
		if float64(int(v)) == v {
			return int(v), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	case fmt.Stringer:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	}
	return 0, false
}

func toMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}

func toList(value any) ([]any, bool) {
	if v, ok := value.([]any); ok {
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := value.([]byte); isBytes {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalize(rv.Index(i).Interface())
	}
	return out, true
}

// normalize converts decoder-specific map shapes into map[string]any.
func normalize(value any) any {
	switch v := value.(type) {
	case map[any]any, map[string]string:
		m, _ := toMap(v)
		return m
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normalize(val)
		}
		return out
	}
	return value
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int, bool:
		return true
	}
	return false
}

func kindName(value any) string {
	switch value.(type) {
	case nil:
		return string(KindNull)
	case string:
		return string(KindString)
	case bool:
		return string(KindBool)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return string(KindInt)
	case float32, float64:
		return "float"
	case map[string]any, map[any]any, map[string]string:
		return string(KindMap)
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return string(KindList)
	}
	return fmt.Sprintf("%T", value)
}

func kindNames(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
