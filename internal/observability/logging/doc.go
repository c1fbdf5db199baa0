// Package logging builds the process logger and carries it through contexts.
//
// Example usage:
//
//	logger := logging.New(logging.Config{Level: "info", Format: "json"}, os.Stdout)
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("event accepted")
//	}
package logging
