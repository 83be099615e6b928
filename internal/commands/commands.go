// Package commands implements the chat commands this plugin registers with
// the core: bands and pota. Handlers ask the radio client for data and
// render chat replies; radio-layer failures are translated into coded
// errors so the core can report them uniformly.
package commands

import (
	"errors"
	"fmt"

	"github.com/seabird-chat/seabird-radio/pkg/client"
	"github.com/seabird-chat/seabird-radio/pkg/protocol"
	"github.com/seabird-chat/seabird-radio/pkg/radio"
)

// All returns every handler this plugin offers, ready for router
// registration.
func All(rc *radio.Client) []client.Handler {
	return []client.Handler{
		bandsHandler(rc),
		potaHandler(rc),
	}
}

// withReply prefixes a message with the requesting user's display name, the
// convention for addressing replies in shared channels. Messages without a
// known requester go out unprefixed.
func withReply(src protocol.Source, message string) string {
	if src.UserDisplay == "" {
		return message
	}
	return fmt.Sprintf("%s: %s", src.UserDisplay, message)
}

// translate maps radio-layer failures onto coded errors with user-facing
// text. Anything unrecognized passes through and becomes a generic handler
// failure.
func translate(err error) error {
	switch {
	case errors.Is(err, radio.ErrRateLimited):
		return client.NewCodedError(protocol.CodeRateLimited,
			"too many radio lookups right now, try again shortly")
	case errors.Is(err, radio.ErrUpstreamUnavailable):
		return client.NewCodedError(protocol.CodeUpstreamUnavailable,
			"radio data service is unavailable")
	default:
		return err
	}
}
