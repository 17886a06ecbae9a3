// Package logger provides structured logging for nutristream using zerolog.
//
// A Logger is created from Config and scoped per component. Fields are
// passed as maps so call sites stay terse:
//
//	log := logger.New(&cfg, "nutristream").WithComponent("session")
//	log.Info("stream started", logger.Fields(logger.FieldSubjectID, code))
package logger
