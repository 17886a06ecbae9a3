package stream

import (
	"encoding/json"
	"strings"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/validation"
)

// Wire values of the inbound "type" field.
const (
	KindChunk    = "stream_chunk"
	KindComplete = "stream_complete"
	KindError    = "error"
)

// MaxBarcodeLength bounds the subject identifier sent to the backend.
const MaxBarcodeLength = 128

// Message is an inbound protocol message. The concrete types are Chunk,
// Complete, Failure, and Unknown.
type Message interface {
	Kind() string
	message()
}

// Chunk carries one fragment of the report.
type Chunk struct {
	Content string
	// Section names the part of the report the fragment belongs to, if the
	// backend supplies one.
	Section string
	Data    json.RawMessage
}

// Complete carries the authoritative final report.
type Complete struct {
	Content string
	Data    json.RawMessage
}

// Failure carries the backend's diagnostic for a failed request.
type Failure struct {
	Content string
}

// Unknown is any message whose type is not recognized. It is ignored.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

// Kind returns the wire type of the message.
func (Chunk) Kind() string    { return KindChunk }
func (Complete) Kind() string { return KindComplete }
func (Failure) Kind() string  { return KindError }
func (u Unknown) Kind() string {
	return u.Type
}

func (Chunk) message()    {}
func (Complete) message() {}
func (Failure) message()  {}
func (Unknown) message()  {}

var (
	_ Message = Chunk{}
	_ Message = Complete{}
	_ Message = Failure{}
	_ Message = Unknown{}
)

// Envelope is the JSON shape of every inbound message.
type Envelope struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data,omitempty"`
	Section string          `json:"section,omitempty"`
}

// DecodeMessage parses one inbound frame. Invalid JSON yields a
// MALFORMED_MESSAGE error.
func DecodeMessage(frame []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, errors.MalformedMessage(err)
	}
	switch env.Type {
	case KindChunk:
		return Chunk{Content: env.Content, Section: env.Section, Data: env.Data}, nil
	case KindComplete:
		return Complete{Content: env.Content, Data: env.Data}, nil
	case KindError:
		return Failure{Content: env.Content}, nil
	default:
		return Unknown{Type: env.Type, Raw: append(json.RawMessage(nil), frame...)}, nil
	}
}

// EncodeMessage renders m in wire form.
func EncodeMessage(m Message) ([]byte, error) {
	var env Envelope
	switch v := m.(type) {
	case Chunk:
		env = Envelope{Type: KindChunk, Content: v.Content, Section: v.Section, Data: v.Data}
	case Complete:
		env = Envelope{Type: KindComplete, Content: v.Content, Data: v.Data}
	case Failure:
		env = Envelope{Type: KindError, Content: v.Content}
	case Unknown:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		env = Envelope{Type: v.Type}
	default:
		return nil, errors.Validation("unsupported message type")
	}
	return json.Marshal(env)
}

// Request is the single outbound message of an analysis.
type Request struct {
	Barcode string `json:"barcode" validate:"notblank,max=128"`
}

// NewRequest trims subjectID and validates it. A blank identifier yields
// MISSING_FIELD.
func NewRequest(subjectID string) (Request, error) {
	req := Request{Barcode: strings.TrimSpace(subjectID)}
	if err := validation.Validate(req); err != nil {
		return Request{}, err
	}
	return req, nil
}
