// Package strategy provides a generic, concurrency-safe registry of named
// implementations.
//
// Both mail workers select their transport at runtime from a string found in
// the options ("smtp", "postmark", "imap"). Registry[S] is the shared lookup
// behind that selection: strategies are registered once at construction and
// looked up per call.
//
// # Usage
//
//	reg := strategy.NewRegistry[sender.Strategy]()
//	reg.MustRegister("smtp", sender.NewSMTPStrategy())
//
//	s, err := reg.Get(opts.String("strategy"))
//	if errors.Is(err, strategy.ErrNotFound) {
//	    // unknown strategy name
//	}
package strategy
