package calendar

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const floatingLayout = "20060102T150405"

// zoneTransition is one UTC-offset change of a location.
type zoneTransition struct {
	at         time.Time
	offsetFrom int
	offsetTo   int
	name       string
	dst        bool
}

// newTimezone returns a VTIMEZONE for loc covering the calendar years of
// from through to. Each offset change in that range becomes one STANDARD or
// DAYLIGHT observance; a zone without changes gets a single observance.
func newTimezone(loc *time.Location, from, to time.Time) *ical.Component {
	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, loc.String())

	rangeStart := time.Date(from.In(loc).Year(), time.January, 1, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(to.In(loc).Year()+1, time.January, 1, 0, 0, 0, 0, loc)

	name, offset := rangeStart.Zone()
	tz.Children = append(tz.Children, observance(zoneTransition{
		at:         rangeStart,
		offsetFrom: offset,
		offsetTo:   offset,
		name:       name,
		dst:        rangeStart.IsDST(),
	}))
	for _, tr := range transitions(loc, rangeStart, rangeEnd) {
		tz.Children = append(tz.Children, observance(tr))
	}
	return tz
}

// transitions scans [from, to) a day at a time and bisects each day whose
// offset changed down to the second of the change.
func transitions(loc *time.Location, from, to time.Time) []zoneTransition {
	var out []zoneTransition
	_, prev := from.In(loc).Zone()
	for day := from; day.Before(to); day = day.Add(24 * time.Hour) {
		next := day.Add(24 * time.Hour)
		_, off := next.In(loc).Zone()
		if off == prev {
			continue
		}
		lo, hi := day, next
		for hi.Sub(lo) > time.Second {
			mid := lo.Add(hi.Sub(lo) / 2)
			if _, o := mid.In(loc).Zone(); o == prev {
				lo = mid
			} else {
				hi = mid
			}
		}
		at := hi.In(loc)
		name, _ := at.Zone()
		out = append(out, zoneTransition{at: at, offsetFrom: prev, offsetTo: off, name: name, dst: at.IsDST()})
		prev = off
	}
	return out
}

func observance(tr zoneTransition) *ical.Component {
	kind := ical.CompTimezoneStandard
	if tr.dst {
		kind = ical.CompTimezoneDaylight
	}
	c := ical.NewComponent(kind)

	// DTSTART of an observance is local time in the offset being replaced.
	setRaw(c.Props, ical.PropDateTimeStart, tr.at.UTC().Add(time.Duration(tr.offsetFrom)*time.Second).Format(floatingLayout))
	setRaw(c.Props, ical.PropTimezoneOffsetFrom, formatOffset(tr.offsetFrom))
	setRaw(c.Props, ical.PropTimezoneOffsetTo, formatOffset(tr.offsetTo))
	if tr.name != "" {
		c.Props.SetText(ical.PropTimezoneName, tr.name)
	}
	return c
}

// setRaw stores value as-is, keeping the property's default value type.
func setRaw(props ical.Props, name, value string) {
	p := ical.NewProp(name)
	p.Value = value
	props.Set(p)
}

// formatOffset renders seconds east of UTC as +HHMM, or +HHMMSS when needed.
func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if s != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}
