package radio

import (
	"encoding/json"
	"fmt"
	"time"
)

// spotTimeLayout matches the feed's naive timestamps, which are UTC.
const spotTimeLayout = "2006-01-02T15:04:05"

// Activation is one Parks on the Air spot.
type Activation struct {
	Activator string
	Park      string
	Location  string
	Mode      Mode
	Frequency Frequency
	SpotTime  time.Time
}

type spotJSON struct {
	Activator    string `json:"activator"`
	Name         string `json:"name"`
	LocationDesc string `json:"locationDesc"`
	Mode         string `json:"mode"`
	Frequency    string `json:"frequency"`
	SpotTime     string `json:"spotTime"`
}

// ParseSpots decodes the spot feed, preserving feed order (most recent
// first). A spot with an unparseable frequency or timestamp fails the whole
// decode; an unrecognized mode string degrades to ModeUnknown so one new
// mode in the feed does not take the command down.
func ParseSpots(data []byte) ([]Activation, error) {
	var raw []spotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("spot feed: %w", err)
	}

	spots := make([]Activation, 0, len(raw))
	for i, s := range raw {
		freq, err := ParseKilohertz(s.Frequency)
		if err != nil {
			return nil, fmt.Errorf("spot feed: entry %d: %w", i, err)
		}
		ts, err := time.Parse(spotTimeLayout, s.SpotTime)
		if err != nil {
			return nil, fmt.Errorf("spot feed: entry %d: invalid spot time %q: %w", i, s.SpotTime, err)
		}
		spots = append(spots, Activation{
			Activator: s.Activator,
			Park:      s.Name,
			Location:  s.LocationDesc,
			Mode:      lookupMode(s.Mode),
			Frequency: freq,
			SpotTime:  ts.UTC(),
		})
	}
	return spots, nil
}

// MostRecent returns the first spot in feed order matching the band and
// mode, or nil if none matches.
func MostRecent(spots []Activation, band Band, mode Mode) *Activation {
	for i := range spots {
		if band.Contains(spots[i].Frequency) && spots[i].Mode == mode {
			return &spots[i]
		}
	}
	return nil
}

// Describe renders the spot for chat, including how long ago it was posted.
func (a *Activation) Describe(now time.Time) string {
	return fmt.Sprintf("[time:%s,age:%s] %sMHz %s, %s - %s (%s)",
		a.SpotTime.Format("2006-01-02 15:04:05 UTC"),
		formatAge(now.Sub(a.SpotTime)),
		a.Frequency,
		a.Mode,
		a.Location,
		a.Park,
		a.Activator,
	)
}

// formatAge renders a duration as whole seconds, switching to "XmYs" past
// one minute.
func formatAge(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds > 60 {
		return fmt.Sprintf("%dm%ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%d", seconds)
}
