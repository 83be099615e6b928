package commands

import (
	"context"
	"strings"

	"github.com/seabird-chat/seabird-radio/pkg/client"
	"github.com/seabird-chat/seabird-radio/pkg/protocol"
	"github.com/seabird-chat/seabird-radio/pkg/radio"
)

func bandsHandler(rc *radio.Client) client.Handler {
	return client.Handler{
		Spec: protocol.CommandSpec{
			Name:      "bands",
			ShortHelp: "show HAM RF band conditions",
			FullHelp:  "show HAM RF band conditions",
		},
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			report, err := rc.BandConditions(ctx)
			if err != nil {
				return "", translate(err)
			}

			lines := make([]string, 0, len(report.Bands)+2)
			lines = append(lines, withReply(ce.Source, "current band conditions:"))
			lines = append(lines, report.Lines()...)
			return strings.Join(lines, "\n"), nil
		},
	}
}
