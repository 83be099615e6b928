package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/seabird-chat/seabird-radio/pkg/client"
	"github.com/seabird-chat/seabird-radio/pkg/protocol"
	"github.com/seabird-chat/seabird-radio/pkg/radio"
)

func potaHandler(rc *radio.Client) client.Handler {
	return client.Handler{
		Spec: protocol.CommandSpec{
			Name:      "pota",
			ShortHelp: "find most recent POTA activation",
			FullHelp:  "find the most recent Parks on the Air activation. Usage: pota <band> [mode]. Default mode is SSB.",
		},
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			band, err := radio.ParseBand(ce.Args[0])
			if err != nil {
				return "", client.NewCodedError(protocol.CodeBadArguments,
					withReply(ce.Source, fmt.Sprintf("invalid band %q", ce.Args[0])))
			}

			mode := radio.ModeSSB
			if len(ce.Args) == 2 {
				mode, err = radio.ParseMode(ce.Args[1])
				if err != nil {
					return "", client.NewCodedError(protocol.CodeBadArguments,
						withReply(ce.Source, fmt.Sprintf("invalid mode %q", ce.Args[1])))
				}
			}

			spots, err := rc.Spots(ctx)
			if err != nil {
				return "", translate(err)
			}

			act := radio.MostRecent(spots, band, mode)
			if act == nil {
				return withReply(ce.Source,
					fmt.Sprintf("no activations found on %s over %s", band, mode)), nil
			}
			return withReply(ce.Source, act.Describe(time.Now())), nil
		},
	}
}
