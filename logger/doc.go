// Package logger provides structured logging for vidprofile using zerolog.
//
// Loggers are component-scoped and carry request identifiers from context:
//
//	log := logger.GetGlobalLogger().WithComponent("router").WithContext(ctx)
//	log.Info("attempt succeeded", logger.Fields(logger.FieldProvider, "groq"))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"   # or "json"
package logger
