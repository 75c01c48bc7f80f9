// Package validator provides small, declarative validation rules with
// translation-friendly error metadata.
//
// A Rule couples a boolean Check with the ValidationError reported when the
// check fails. Apply evaluates any number of rules and aggregates failures
// into ValidationErrors, a slice type that implements error, so several
// field-level problems can be returned at once.
//
// # Architecture
//
// Core building blocks:
//   - Rule              – Check func plus error metadata
//   - ValidationError   – one failure: field path, message, translation key
//   - ValidationErrors  – slice of failures implementing error
//
// Field names are dotted paths ("transport.username") so that errors found
// while resolving nested mail transport options point at the exact key.
// Merge re-roots errors found in a nested map under its parent key.
//
// The rule set is intentionally narrow: Required, RequiredString, KindOf,
// OneOf, Range and Email cover what option schemas and mail addresses need.
//
// # Usage
//
//	err := validator.Apply(
//	    validator.RequiredString("transport.host", host),
//	    validator.Range("transport.port", port, 1, 65535),
//	    validator.Email("from", from),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    for _, field := range verrs.Fields() {
//	        // report field problems
//	    }
//	}
//
// # Error Handling
//
// ExtractValidationErrors and IsValidationError use errors.As, so they see
// through fmt.Errorf("%w") and errors.Join wrapping. Each ValidationError
// carries a TranslationKey ("validation.required", "validation.type",
// "validation.one_of", "validation.range", "validation.email") with the
// values needed to render a localized message.
package validator
