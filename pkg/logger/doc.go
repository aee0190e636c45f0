// Package logger builds *slog.Logger instances for notifykit components.
//
// New applies functional options (format, level, static attributes, context
// extractors). Extractors attach values stored in a context.Context, such as
// a request id, to every record logged with that context.
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "notifyd"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.Info("connected", logger.Identity("a@x.com"), logger.Attempt(0))
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Error returns an empty attribute for a nil error so callers need no nil check.
package logger
