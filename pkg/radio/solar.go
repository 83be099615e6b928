package radio

import (
	"encoding/xml"
	"fmt"
	"sort"
)

// BandCondition is one band's propagation outlook for day and night.
type BandCondition struct {
	Name  string
	Day   string
	Night string
}

// SolarReport is the decoded hamqsl solar feed: the upstream update
// timestamp plus per-band conditions sorted by band name.
type SolarReport struct {
	Updated string
	Bands   []BandCondition
}

type solarXML struct {
	XMLName   xml.Name `xml:"solar"`
	SolarData struct {
		Updated              string `xml:"updated"`
		CalculatedConditions struct {
			Bands []solarBandXML `xml:"band"`
		} `xml:"calculatedconditions"`
	} `xml:"solardata"`
}

type solarBandXML struct {
	Name      string `xml:"name,attr"`
	Time      string `xml:"time,attr"`
	Condition string `xml:",chardata"`
}

// ParseSolar decodes the hamqsl XML feed. Each band must appear exactly once
// per time of day with time "day" or "night"; anything else is a decode
// error so a malformed feed is retried rather than half-reported.
func ParseSolar(data []byte) (*SolarReport, error) {
	var doc solarXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("solar feed: %w", err)
	}

	type dayNight struct {
		day, night string
		hasDay     bool
		hasNight   bool
	}
	byName := make(map[string]*dayNight)
	for _, b := range doc.SolarData.CalculatedConditions.Bands {
		dn := byName[b.Name]
		if dn == nil {
			dn = &dayNight{}
			byName[b.Name] = dn
		}
		switch b.Time {
		case "day":
			if dn.hasDay {
				return nil, fmt.Errorf("solar feed: duplicate day condition for band %q", b.Name)
			}
			dn.day = b.Condition
			dn.hasDay = true
		case "night":
			if dn.hasNight {
				return nil, fmt.Errorf("solar feed: duplicate night condition for band %q", b.Name)
			}
			dn.night = b.Condition
			dn.hasNight = true
		default:
			return nil, fmt.Errorf("solar feed: unknown time %q for band %q", b.Time, b.Name)
		}
	}
	if len(byName) == 0 {
		return nil, fmt.Errorf("solar feed: no band conditions")
	}

	report := &SolarReport{Updated: doc.SolarData.Updated}
	for name, dn := range byName {
		if !dn.hasDay || !dn.hasNight {
			return nil, fmt.Errorf("solar feed: incomplete conditions for band %q", name)
		}
		report.Bands = append(report.Bands, BandCondition{
			Name:  name,
			Day:   dn.day,
			Night: dn.night,
		})
	}
	sort.Slice(report.Bands, func(i, j int) bool {
		return report.Bands[i].Name < report.Bands[j].Name
	})
	return report, nil
}

// Lines renders the report for chat: the update timestamp first, then one
// line per band.
func (r *SolarReport) Lines() []string {
	lines := make([]string, 0, len(r.Bands)+1)
	lines = append(lines, fmt.Sprintf("updated %s", r.Updated))
	for _, b := range r.Bands {
		lines = append(lines, fmt.Sprintf("%s - day: %s, night: %s", b.Name, b.Day, b.Night))
	}
	return lines
}
