// Package logging provides structured logging for BootMaster.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the simulator, the advisor client and the web console.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (ticks, ignored rescans, request bodies)
//   - Info: Normal operations (stage transitions, discovered drives, HTTP requests)
//   - Warn: Non-fatal issues (advisor fallbacks, dropped event subscribers)
//   - Error: Startup failures
//
// # Silent By Default
//
// Logging is disabled unless a level is passed to Initialize or the
// BOOTMASTER_LOG_LEVEL environment variable is set. The terminal UI owns
// stdout, so it logs to a file with InitializeWithOutput.
//
// # Structured Logging
//
//	logging.Info("Device discovered",
//	    zap.String("device_id", "usb-3"),
//	    zap.String("name", "SanDisk Ultra Luxe - 64GB (Nouveau)"),
//	)
//
// # Specialized Logging
//
//	logging.LogTransition(workspaceID, "Preparing", "Formatting", 5)
//	logging.LogAdvisorExchange(sessionID, turns, elapsed, err)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(remoteAddr, "sent", msgType, payload)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
