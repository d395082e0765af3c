// Package logger provides structured logging for payclient using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("payclient").WithComponent("auth")
//	log.Info("token refreshed", logger.Fields("expires_in", 3600))
package logger
