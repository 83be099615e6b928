package protocol

// Source identifies where a command came from. The fields are opaque to the
// plugin: they are carried through to the response unmodified and only the
// core interprets them. UserDisplay is used to address replies.
type Source struct {
	ChannelID   string
	UserID      string
	UserDisplay string
}

// CommandEnvelope is one inbound command invocation from the core. It is
// immutable once decoded.
type CommandEnvelope struct {
	// CorrelationID uniquely identifies this invocation. The response
	// carrying the same ID is matched back to this request by the core.
	CorrelationID string

	// Name is the command name, without any prefix character.
	Name string

	// Args are the whitespace-split arguments following the command name.
	Args []string

	// Source is the originating channel/user context.
	Source Source
}

// EncodeCommand encodes a CommandEnvelope to bytes.
func EncodeCommand(ce *CommandEnvelope) []byte {
	e := NewEncoder()
	e.WriteString(ce.CorrelationID)
	e.WriteString(ce.Name)
	e.WriteStringSlice(ce.Args)
	e.WriteString(ce.Source.ChannelID)
	e.WriteString(ce.Source.UserID)
	e.WriteString(ce.Source.UserDisplay)
	return e.Bytes()
}

// DecodeCommand decodes a CommandEnvelope from bytes.
func DecodeCommand(data []byte) (*CommandEnvelope, error) {
	d := NewDecoder(data)
	ce := &CommandEnvelope{}
	var err error

	if ce.CorrelationID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ce.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ce.Args, err = d.ReadStringSlice(); err != nil {
		return nil, err
	}
	if ce.Source.ChannelID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ce.Source.UserID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ce.Source.UserDisplay, err = d.ReadString(); err != nil {
		return nil, err
	}

	return ce, nil
}
