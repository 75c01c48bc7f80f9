package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Options is a resolved option tree addressed by dotted paths such as
// "transport.search.criteria".
type Options struct {
	values map[string]any
}

// New wraps values without copying them.
func New(values map[string]any) *Options {
	if values == nil {
		values = map[string]any{}
	}
	return &Options{values: values}
}

func (o *Options) lookup(path string) (any, bool) {
	if path == "" {
		return o.values, true
	}
	var current any = o.values
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Get returns the value at path or nil.
func (o *Options) Get(path string) any {
	v, _ := o.lookup(path)
	return v
}

// Has reports whether path exists, even when its value is nil.
func (o *Options) Has(path string) bool {
	_, ok := o.lookup(path)
	return ok
}

// String returns the value at path as a string; nil and missing values
// yield "".
func (o *Options) String(path string) string {
	switch v := o.Get(path).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value at path as an int, or 0 when it is not numeric.
func (o *Options) Int(path string) int {
	n, _ := toInt(o.Get(path))
	return n
}

// Bool returns the value at path as a bool, or false.
func (o *Options) Bool(path string) bool {
	v, ok := coerceTo(KindBool, o.Get(path))
	if !ok {
		return false
	}
	return v.(bool)
}

// Map returns the map at path, or nil.
func (o *Options) Map(path string) map[string]any {
	m, _ := toMap(o.Get(path))
	return m
}

// Strings returns the list at path as strings. A single string becomes a
// one-element slice.
func (o *Options) Strings(path string) []string {
	v := o.Get(path)
	if s, ok := v.(string); ok {
		return []string{s}
	}
	list, ok := toList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// Sub returns the subtree at path. Changes made through the result are
// visible in o.
func (o *Options) Sub(path string) *Options {
	m := o.Map(path)
	if m == nil {
		m = map[string]any{}
		o.Set(path, m)
	}
	return New(m)
}

// Set stores value at path, creating intermediate maps as needed.
func (o *Options) Set(path string, value any) {
	parts := strings.Split(path, ".")
	current := o.values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// All returns a deep copy of the option tree.
func (o *Options) All() map[string]any {
	return cloneMap(o.values)
}

// Decode copies the subtree at path into out using `option` struct tags.
// Values are weakly typed, so "465" decodes into an int field.
func (o *Options) Decode(path string, out any) error {
	input := o.Get(path)
	if input == nil {
		input = map[string]any{}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "option",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	if err := dec.Decode(input); err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	return nil
}

// Merge deep-merges override into a copy of base. Nested maps are merged
// key by key; any other value in override replaces the one in base.
func Merge(base, override map[string]any) map[string]any {
	out := cloneMap(base)
	for k, v := range override {
		if om, ok := toMap(v); ok {
			if bm, ok := toMap(out[k]); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case map[any]any, map[string]string:
		m, _ := toMap(val)
		return cloneMap(m)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	}
	return v
}
