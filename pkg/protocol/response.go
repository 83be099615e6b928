package protocol

import "time"

// ResponseEnvelope is one outbound command result. Exactly one response is
// produced per routed command; the CorrelationID must equal the triggering
// CommandEnvelope's.
type ResponseEnvelope struct {
	CorrelationID string
	Code          Code      // CodeOK for success, otherwise the error class
	Text          string    // Reply text (success) or error detail
	EmittedAt     time.Time // When the handler completed
}

// NewResponse creates a successful response for the given command.
func NewResponse(ce *CommandEnvelope, text string) *ResponseEnvelope {
	return &ResponseEnvelope{
		CorrelationID: ce.CorrelationID,
		Code:          CodeOK,
		Text:          text,
		EmittedAt:     time.Now(),
	}
}

// NewErrorResponse creates a structured error response for the given command.
func NewErrorResponse(ce *CommandEnvelope, code Code, text string) *ResponseEnvelope {
	return &ResponseEnvelope{
		CorrelationID: ce.CorrelationID,
		Code:          code,
		Text:          text,
		EmittedAt:     time.Now(),
	}
}

// EncodeResponse encodes a ResponseEnvelope to bytes.
func EncodeResponse(re *ResponseEnvelope) []byte {
	e := NewEncoder()
	e.WriteString(re.CorrelationID)
	e.WriteUint16(uint16(re.Code))
	e.WriteString(re.Text)
	e.WriteInt64(re.EmittedAt.UnixMilli())
	return e.Bytes()
}

// DecodeResponse decodes a ResponseEnvelope from bytes.
func DecodeResponse(data []byte) (*ResponseEnvelope, error) {
	d := NewDecoder(data)
	re := &ResponseEnvelope{}

	var err error
	if re.CorrelationID, err = d.ReadString(); err != nil {
		return nil, err
	}

	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	re.Code = Code(code)

	if re.Text, err = d.ReadString(); err != nil {
		return nil, err
	}

	millis, err := d.ReadInt64()
	if err != nil {
		return nil, err
	}
	re.EmittedAt = time.UnixMilli(millis).UTC()

	return re, nil
}
