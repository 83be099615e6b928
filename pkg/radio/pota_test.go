package radio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const spotsSample = `[
  {"activator":"K1ABC","name":"Acadia National Park","locationDesc":"US-ME","mode":"FT8","frequency":"14074","spotTime":"2026-08-26T15:04:05"},
  {"activator":"W2DEF","name":"Catoctin Mountain Park","locationDesc":"US-MD","mode":"SSB","frequency":"14285.5","spotTime":"2026-08-26T15:03:10"},
  {"activator":"N3GHI","name":"Shenandoah NP","locationDesc":"US-VA","mode":"","frequency":"7200","spotTime":"2026-08-26T15:01:00"},
  {"activator":"K4JKL","name":"Congaree NP","locationDesc":"US-SC","mode":"SSB","frequency":"7185","spotTime":"2026-08-26T14:58:30"}
]`

func TestParseSpots(t *testing.T) {
	spots, err := ParseSpots([]byte(spotsSample))
	require.NoError(t, err)
	require.Len(t, spots, 4)

	first := spots[0]
	require.Equal(t, "K1ABC", first.Activator)
	require.Equal(t, "Acadia National Park", first.Park)
	require.Equal(t, "US-ME", first.Location)
	require.Equal(t, ModeFT8, first.Mode)
	require.Equal(t, Frequency(14_074_000), first.Frequency)
	require.Equal(t, time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC), first.SpotTime)

	// Empty or unrecognized mode strings degrade instead of failing.
	require.Equal(t, ModeUnknown, spots[2].Mode)
}

func TestParseSpotsRejectsBadEntries(t *testing.T) {
	_, err := ParseSpots([]byte(`[{"frequency":"abc","spotTime":"2026-08-26T15:04:05"}]`))
	require.Error(t, err)

	_, err = ParseSpots([]byte(`[{"frequency":"14074","spotTime":"yesterday"}]`))
	require.Error(t, err)

	_, err = ParseSpots([]byte(`{"not":"a list"}`))
	require.Error(t, err)
}

func TestMostRecent(t *testing.T) {
	spots, err := ParseSpots([]byte(spotsSample))
	require.NoError(t, err)

	got := MostRecent(spots, Band20m, ModeSSB)
	require.NotNil(t, got)
	require.Equal(t, "W2DEF", got.Activator)

	got = MostRecent(spots, Band40m, ModeSSB)
	require.NotNil(t, got)
	require.Equal(t, "K4JKL", got.Activator)

	require.Nil(t, MostRecent(spots, Band40m, ModeCW))
	require.Nil(t, MostRecent(nil, Band20m, ModeSSB))
}

func TestActivationDescribe(t *testing.T) {
	act := Activation{
		Activator: "W2DEF",
		Park:      "Catoctin Mountain Park",
		Location:  "US-MD",
		Mode:      ModeSSB,
		Frequency: 14_285_500,
		SpotTime:  time.Date(2026, 8, 26, 15, 3, 10, 0, time.UTC),
	}

	now := act.SpotTime.Add(95 * time.Second)
	require.Equal(t,
		"[time:2026-08-26 15:03:10 UTC,age:1m35s] 14.285.5MHz SSB, US-MD - Catoctin Mountain Park (W2DEF)",
		act.Describe(now))
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "0"},
		{d: 45 * time.Second, want: "45"},
		{d: 60 * time.Second, want: "60"},
		{d: 61 * time.Second, want: "1m1s"},
		{d: 154 * time.Second, want: "2m34s"},
		{d: -90 * time.Second, want: "1m30s"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, formatAge(tt.d))
	}
}
