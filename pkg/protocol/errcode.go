package protocol

// Code classifies the outcome carried by a ResponseEnvelope or an Error
// frame. CodeOK marks a successful reply; every other code is a structured
// error the core renders for the requesting user.
type Code uint16

const (
	CodeOK                  Code = 0x0000 // Successful reply
	CodeUnknownCommand      Code = 0x0001 // No handler registered for the command
	CodeBadArguments        Code = 0x0002 // Argument count or shape violation
	CodeRateLimited         Code = 0x0003 // Upstream rate limit exhausted, retryable by the user
	CodeUpstreamUnavailable Code = 0x0004 // Upstream metadata source unreachable
	CodeHandlerError        Code = 0x0005 // Handler failed or panicked
	CodeTimeout             Code = 0x0006 // Handler exceeded its invocation deadline
)

// String returns the string representation of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeUnknownCommand:
		return "UnknownCommand"
	case CodeBadArguments:
		return "BadArguments"
	case CodeRateLimited:
		return "RateLimited"
	case CodeUpstreamUnavailable:
		return "UpstreamUnavailable"
	case CodeHandlerError:
		return "HandlerError"
	case CodeTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// IsError returns true for every code other than CodeOK.
func (c Code) IsError() bool {
	return c != CodeOK
}

// ErrorMessage is sent by the core when it cannot process a frame.
type ErrorMessage struct {
	Code    Code   // Error classification
	Message string // Human-readable error message
	Fatal   bool   // If true, the connection is about to be closed
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)

	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &ErrorMessage{
		Code:    Code(code),
		Message: message,
		Fatal:   fatal,
	}, nil
}
