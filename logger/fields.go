package logger

import "time"

// Field keys shared by every package.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	// streaming session
	FieldSessionID       = "session_id"
	FieldSubjectID       = "subject_id"
	FieldConnectionState = "connection_state"
	FieldAnalysisState   = "analysis_state"
	FieldChunkCount      = "chunk_count"
	FieldMessageKind     = "message_kind"
	FieldEndpoint        = "endpoint"
	FieldRemoteAddr      = "remote_addr"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("chunk", logger.Fields(logger.FieldChunkCount, n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
