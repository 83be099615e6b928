// Package protocol implements the binary wire protocol spoken between a
// Seabird plugin and the core.
//
// Every WebSocket binary message carries exactly one frame: a 4-byte header
// (type, flags, payload length) followed by the payload. Payloads are
// encoded with a compact binary codec (varints, length-prefixed strings).
//
// Frame flow:
//
//	plugin → core:  Handshake (PluginHello), Response, Control
//	core → plugin:  Handshake (CoreHello), Command, Control, Error
//
// The protocol is versioned via CurrentVersion and negotiated during the
// handshake; the core rejects incompatible plugins with StatusVersionMismatch.
package protocol
