// Package logger builds the *slog.Logger used across mailkit: functional
// options for format, level and environment defaults, attribute helpers with
// fixed names, and attributes pulled from context.Context.
//
// # Architecture
//
// New picks slog.NewTextHandler or slog.NewJSONHandler by Format and wraps
// it in a handler that runs ContextExtractor callbacks on every record. The
// operation id extractor is always installed: the sender and receiver tag
// each call with ContextWithOperationID, so all records of one send or
// receive share an operation_id. WithContextValue and WithContextExtractors
// add more.
//
// Helper constructors such as Strategy, Endpoint, Mailbox, UID and Error live
// in attr.go and keep attribute naming consistent across the sender, the
// receiver and their strategies.
//
// # Usage
//
//	import "github.com/dmitrymomot/mailkit/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithEnvironment(os.Getenv("MAIL_ENV"), "mailctl"),
//	        logger.WithContextValue("run_id", ctxKeyRunID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    log.InfoContext(ctx, "emails received",
//	        logger.Strategy("imap"),
//	        logger.Mailbox("INBOX"),
//	        logger.Envelopes(len(envelopes)),
//	        logger.Duration(time.Since(start)),
//	    )
//	}
//
// # Configuration
//
//   - WithEnvironment selects WithDevelopment (text, debug), WithStaging or
//     WithProduction (JSON, info).
//   - WithFormat, WithTextFormatter and WithJSONFormatter set the format.
//   - WithLevel sets the level; ParseLevel maps configuration strings.
//   - WithAttr attaches static attributes.
//   - WithContextExtractors and WithContextValue add context attributes.
//
// # Error Handling
//
// Error returns an empty attribute for a nil error, so
//
//	log.WarnContext(ctx, "closing mailbox", logger.Error(err))
//
// needs no nil check. WithFormat panics on an unknown format.
package logger
