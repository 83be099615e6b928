// Package client implements the plugin side of the Seabird core connection:
// a supervised, reconnecting WebSocket session that registers command
// handlers with the core, routes inbound command invocations to them, and
// emits responses back over the same stream.
//
// The moving parts, leaf first:
//
//   - Session: one logical authenticated connection. Owns the WebSocket,
//     performs the handshake, serializes writes, and yields inbound
//     commands on a channel until the connection dies.
//   - Supervisor: owns the current Session and guarantees that, short of a
//     fatal credential rejection, there is eventually a live one. Applies
//     capped exponential backoff with jitter between attempts.
//   - Router: dispatches commands to registered handlers concurrently,
//     bounded by a semaphore, and guarantees exactly one response per
//     routed command.
//   - Emitter: the single write path for responses. Responses completing
//     after their session died are dropped and counted, never re-sent on a
//     later session.
package client
