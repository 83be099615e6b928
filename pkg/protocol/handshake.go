package protocol

// HandshakeStatus represents the result of a handshake.
type HandshakeStatus uint8

const (
	StatusOK              HandshakeStatus = 0x00
	StatusVersionMismatch HandshakeStatus = 0x01
	StatusNotAuthorized   HandshakeStatus = 0x02 // Token invalid or revoked
	StatusServerBusy      HandshakeStatus = 0x03 // Transient, retry later
	StatusInvalidFormat   HandshakeStatus = 0x04 // Malformed hello
	StatusInternalError   HandshakeStatus = 0x05 // Core-side error, transient
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case StatusOK:
		return "OK"
	case StatusVersionMismatch:
		return "VersionMismatch"
	case StatusNotAuthorized:
		return "NotAuthorized"
	case StatusServerBusy:
		return "ServerBusy"
	case StatusInvalidFormat:
		return "InvalidFormat"
	case StatusInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Retryable reports whether a failed handshake with this status may be
// retried. StatusNotAuthorized and StatusVersionMismatch will never succeed
// on retry; everything else is treated as transient.
func (hs HandshakeStatus) Retryable() bool {
	switch hs {
	case StatusNotAuthorized, StatusVersionMismatch:
		return false
	default:
		return true
	}
}

// Version represents a protocol version as major.minor.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the protocol version this package implements.
var CurrentVersion = Version{Major: 1, Minor: 0}

// CommandSpec describes one command the plugin offers. The core uses the
// help strings to answer "help <command>" without round-tripping to the
// plugin.
type CommandSpec struct {
	Name      string
	ShortHelp string
	FullHelp  string
}

// PluginHello is sent by the plugin once the WebSocket connection is
// established. It authenticates the plugin and registers its commands.
type PluginHello struct {
	Version    Version       // Protocol version
	Token      string        // Bearer token
	PluginName string        // Human-readable plugin identifier
	Commands   []CommandSpec // Commands this plugin handles
}

// CoreHello is the core's response to PluginHello.
type CoreHello struct {
	Status     HandshakeStatus // Handshake result
	SessionID  string          // Core-assigned session ID (empty on failure)
	ServerTime uint64          // Core time in Unix milliseconds
}

// EncodePluginHello encodes a PluginHello to bytes.
func EncodePluginHello(ph *PluginHello) []byte {
	e := NewEncoder()
	e.WriteByte(ph.Version.Major)
	e.WriteByte(ph.Version.Minor)
	e.WriteString(ph.Token)
	e.WriteString(ph.PluginName)
	e.WriteUvarint(uint64(len(ph.Commands)))
	for _, cs := range ph.Commands {
		e.WriteString(cs.Name)
		e.WriteString(cs.ShortHelp)
		e.WriteString(cs.FullHelp)
	}
	return e.Bytes()
}

// DecodePluginHello decodes a PluginHello from bytes.
func DecodePluginHello(data []byte) (*PluginHello, error) {
	d := NewDecoder(data)
	ph := &PluginHello{}

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ph.Version = Version{Major: major, Minor: minor}

	if ph.Token, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ph.PluginName, err = d.ReadString(); err != nil {
		return nil, err
	}

	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > MaxCollectionCount {
		return nil, ErrCollectionTooLarge
	}
	ph.Commands = make([]CommandSpec, count)
	for i := range ph.Commands {
		if ph.Commands[i].Name, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ph.Commands[i].ShortHelp, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ph.Commands[i].FullHelp, err = d.ReadString(); err != nil {
			return nil, err
		}
	}

	return ph, nil
}

// EncodeCoreHello encodes a CoreHello to bytes.
func EncodeCoreHello(ch *CoreHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(ch.Status))
	e.WriteString(ch.SessionID)
	e.WriteUint64(ch.ServerTime)
	return e.Bytes()
}

// DecodeCoreHello decodes a CoreHello from bytes.
func DecodeCoreHello(data []byte) (*CoreHello, error) {
	d := NewDecoder(data)
	ch := &CoreHello{}

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ch.Status = HandshakeStatus(status)

	if ch.SessionID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.ServerTime, err = d.ReadUint64(); err != nil {
		return nil, err
	}

	return ch, nil
}

// NewPluginHello creates a PluginHello with the current protocol version.
func NewPluginHello(token, pluginName string, commands []CommandSpec) *PluginHello {
	return &PluginHello{
		Version:    CurrentVersion,
		Token:      token,
		PluginName: pluginName,
		Commands:   commands,
	}
}
