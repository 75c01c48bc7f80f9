// Package options resolves loosely typed option maps, as they arrive from
// YAML, JSON, environment variables or code, against a declarative schema.
//
// Mail strategies describe their transport settings as a Schema: each Field
// lists accepted kinds, an optional default, whether it is required, an
// optional set of allowed values and, for maps, a nested Schema. Resolve
// applies defaults, coerces values ("465" to 465, "true" to true), checks
// types and collects every problem into validator.ValidationErrors whose
// fields are dotted paths.
//
// # Architecture
//
// Resolution is lenient about keys it does not know: they are preserved so
// that a handler can resolve only the keys it owns ("strategy" and
// "transport") and pass the rest through to the selected strategy, which
// resolves its own, stricter schema over the same map.
//
// Keys match case-insensitively and through aliases. This keeps files loaded
// through viper (which lowercases keys) and camelCase spellings such as
// "markAsSeen" working against snake_case schemas.
//
// Resolved values are wrapped in Options, which reads and writes dotted
// paths and decodes subtrees into structs through mapstructure.
//
// # Usage
//
//	schema := options.Schema{
//	    "strategy": {Types: []options.Kind{options.KindString}, Default: "smtp"},
//	    "transport": {Types: []options.Kind{options.KindMap}, Schema: options.Schema{
//	        "host":     {Types: []options.Kind{options.KindString}, Default: "smtp.gmail.com"},
//	        "port":     {Types: []options.Kind{options.KindInt}, Default: 465},
//	        "username": {Types: []options.Kind{options.KindString}, Required: true},
//	    }},
//	}
//
//	opts, err := options.Resolve(schema, input)
//	if err != nil {
//	    verrs := validator.ExtractValidationErrors(err) // e.g. "transport.username"
//	}
//	host := opts.String("transport.host")
//
// Option files:
//
//	raw, err := options.LoadFile("mail.yaml", "MAIL")
//
// # Error Handling
//
// Resolve returns ErrInvalidOptions joined with validator.ValidationErrors.
// Decode returns ErrDecodeFailed, LoadFile returns ErrLoadFailed or
// ErrNoFile.
package options
