package radio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKilohertz(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{in: "14285", want: 14_285_000},
		{in: "14285.5", want: 14_285_500},
		{in: "7032.1", want: 7_032_100},
		{in: " 7200 ", want: 7_200_000},
		{in: "0", want: 0},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-14285", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "+inf", wantErr: true},
		{in: "-Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKilohertz(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFrequencyString(t *testing.T) {
	tests := []struct {
		f    Frequency
		want string
	}{
		{f: 14_285_000, want: "14.285"},
		{f: 14_285_500, want: "14.285.5"},
		{f: 7_005_000, want: "7.005"},
		{f: 7_000_000, want: "7.000"},
		{f: 146_520_000, want: "146.520"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.f.String())
	}
}

func TestParseBand(t *testing.T) {
	for _, in := range []string{"20m", "20M", " 20m "} {
		b, err := ParseBand(in)
		require.NoError(t, err)
		require.Equal(t, Band20m, b)
	}

	b, err := ParseBand("40m")
	require.NoError(t, err)
	require.Equal(t, Band40m, b)

	_, err = ParseBand("70cm")
	require.Error(t, err)
}

func TestBandContains(t *testing.T) {
	tests := []struct {
		band Band
		f    Frequency
		want bool
	}{
		{Band20m, 14_000_000, true},
		{Band20m, 14_350_000, true},
		{Band20m, 14_350_001, false},
		{Band20m, 13_999_999, false},
		{Band40m, 7_150_000, true},
		{Band40m, 14_200_000, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.band.Contains(tt.f), "%s contains %d", tt.band, tt.f)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("ssb")
	require.NoError(t, err)
	require.Equal(t, ModeSSB, m)

	m, err = ParseMode("FT8")
	require.NoError(t, err)
	require.Equal(t, ModeFT8, m)

	_, err = ParseMode("AM")
	require.Error(t, err)

	_, err = ParseMode("")
	require.Error(t, err)
}

func TestLookupMode(t *testing.T) {
	require.Equal(t, ModeCW, lookupMode("cw"))
	require.Equal(t, ModeUnknown, lookupMode(""))
	require.Equal(t, ModeUnknown, lookupMode("AM"))
	require.Equal(t, "unknown", ModeUnknown.String())
}
