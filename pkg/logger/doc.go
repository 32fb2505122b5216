// Package logger builds *slog.Logger instances for the mail queue and
// provides attribute helpers so every component names things the same way.
//
// New takes functional options (WithEnvironment, WithLevel, WithFormat,
// WithAttr, WithContextExtractors, ...). FromConfig does the same from a
// Config loaded from APP_ENV, SERVICE_NAME, LOG_LEVEL and LOG_FORMAT:
// development logs text at debug level, staging and production log JSON at
// info level.
//
// Context extractors add request-scoped attributes, such as the request id
// assigned by the API middleware, to each record logged with that context.
//
//	log, err := logger.FromConfig(cfg, logger.WithContextExtractors(api.RequestIDExtractor()))
//	if err != nil {
//		return err
//	}
//	log.InfoContext(ctx, "email sent",
//		logger.ItemID(item.ID),
//		logger.Recipient(item.To),
//		logger.Attempts(item.Attempts, item.MaxAttempts),
//	)
//
// Recipient masks the local part of the address. Error and Errors return an
// empty attribute for nil errors, so they can be passed unconditionally.
package logger
