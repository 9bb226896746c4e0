// Package logging configures structured logging with secret redaction.
//
// # Overview
//
// The package builds a *slog.Logger whose handler:
//   - writes JSON or text records at a level that can change at runtime
//   - masks session cookies, passwords, and bearer tokens before they are written
//   - picks up scheduler handle IDs and endpoint names from the context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//
//	ctx = logging.WithHandleID(ctx, handle.ID())
//	logger.InfoContext(ctx, "cycle finished", "changed", true)
//
// # Redaction
//
// Attributes whose key names a credential (password, cookie, session,
// token, authorization) are replaced outright. Other string values are
// scanned for cookie and bearer-token patterns:
//
//   - reservoir.sid=abc123 → reservoir.sid=***
//   - Bearer eyJhbGci... → Bearer ***
package logging
