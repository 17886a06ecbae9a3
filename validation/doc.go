// Package validation validates requests and configuration.
//
// Struct tag validation backs the wire request types:
//
//	type Request struct {
//	    Barcode string `json:"barcode" validate:"notblank,max=128"`
//	}
//	err := validation.Validate(req)
//
// The programmatic Validator collects field errors for config checks:
//
//	err := validation.New().
//	    Required("stream.endpoint", c.Endpoint).
//	    URL("stream.endpoint", c.Endpoint, "ws", "wss").
//	    Validate()
package validation
