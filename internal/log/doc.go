// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of credentials (API keys, bearer tokens)
//   - Automatic sanitization of health data (patient and physician names,
//     diagnosis codes, extracted document text, identity numbers)
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// Medical-leave certificates are personal health data. Logs may be shipped
// to third-party aggregators, so nothing read from a document may reach them:
//   - Attributes with sensitive keys (text, raw, patient, physician, cedula...)
//   - Values that look like identity numbers, e-mail addresses or phone numbers
//   - Secret values detected by pattern matching (tokens, keys)
//   - E-mail addresses, dotted cédulas and phone numbers inside error texts
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("claims located",
//	    "physician_name", "Dr. Juan Gomez", // Will be sanitized
//	    "request_id", reqID,
//	)
//
//	slog.SetDefault(logger)
package log
