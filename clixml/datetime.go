package clixml

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smnsjas/go-psrpcore/types"
)

// encodeDateTime renders dt per spec §4.3: no suffix for Unspecified
// (decodes back to Unspecified), "Z" for UTC, "+HH:MM"/"-HH:MM" for a
// fixed Local offset. A non-zero seconds fraction is emitted to nanosecond
// precision with trailing zero digits trimmed; a zero fraction is omitted.
func encodeDateTime(dt types.DateTime) string {
	base := dt.V.Format("2006-01-02T15:04:05")
	if ns := dt.V.Nanosecond(); ns != 0 {
		frac := fmt.Sprintf("%09d", ns)
		frac = strings.TrimRight(frac, "0")
		base += "." + frac
	}
	switch dt.Kind {
	case types.UTC:
		return base + "Z"
	case types.Local:
		return base + formatOffset(dt.Offset)
	default:
		return base
	}
}

func formatOffset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

// decodeDateTime parses the DT element text, classifying the result's
// Kind from the presence/shape of a timezone suffix.
func decodeDateTime(s string) (types.DateTime, error) {
	kind := types.Unspecified
	var offset time.Duration
	body := s
	loc := time.UTC

	switch {
	case strings.HasSuffix(s, "Z"):
		kind = types.UTC
		body = strings.TrimSuffix(s, "Z")
	case len(s) >= 6 && (s[len(s)-6] == '+' || s[len(s)-6] == '-'):
		sign := s[len(s)-6]
		hh, err1 := strconv.Atoi(s[len(s)-5 : len(s)-3])
		mm, err2 := strconv.Atoi(s[len(s)-2:])
		if err1 != nil || err2 != nil {
			return types.DateTime{}, &MalformedXMLError{Reason: "invalid datetime offset: " + s}
		}
		offset = time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if sign == '-' {
			offset = -offset
		}
		kind = types.Local
		body = s[:len(s)-6]
		loc = time.FixedZone("", int(offset.Seconds()))
	}

	layout := "2006-01-02T15:04:05"
	if dot := strings.IndexByte(body, '.'); dot >= 0 {
		layout += "." + strings.Repeat("0", len(body)-dot-1)
	}
	t, err := time.ParseInLocation(layout, body, loc)
	if err != nil {
		return types.DateTime{}, &MalformedXMLError{Reason: "invalid datetime: " + s}
	}
	return types.DateTime{V: t, Kind: kind, Offset: offset}, nil
}

// encodeDuration renders d as ISO-8601 "P[nD]T[nH][nM][nS]", sign-prefixed
// if negative, with nanosecond precision on the seconds component.
func encodeDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	nanos := d

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	b.WriteByte('T')
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if nanos > 0 {
		frac := fmt.Sprintf("%09d", int64(nanos))
		frac = strings.TrimRight(frac, "0")
		fmt.Fprintf(&b, "%d.%sS", seconds, frac)
	} else if seconds > 0 || (days == 0 && hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%dS", seconds)
	}
	return b.String()
}

// decodeDuration parses the TS element text produced by encodeDuration.
func decodeDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, &MalformedXMLError{Reason: "invalid duration: " + orig}
	}
	s = s[1:]

	var days int64
	if idx := strings.IndexByte(s, 'D'); idx >= 0 {
		v, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, &MalformedXMLError{Reason: "invalid duration days: " + orig}
		}
		days = v
		s = s[idx+1:]
	}
	if !strings.HasPrefix(s, "T") {
		return 0, &MalformedXMLError{Reason: "invalid duration, missing T: " + orig}
	}
	s = s[1:]

	var hours, minutes int64
	var seconds float64
	if idx := strings.IndexByte(s, 'H'); idx >= 0 {
		v, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, &MalformedXMLError{Reason: "invalid duration hours: " + orig}
		}
		hours = v
		s = s[idx+1:]
	}
	if idx := strings.IndexByte(s, 'M'); idx >= 0 {
		v, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, &MalformedXMLError{Reason: "invalid duration minutes: " + orig}
		}
		minutes = v
		s = s[idx+1:]
	}
	if idx := strings.IndexByte(s, 'S'); idx >= 0 {
		v, err := strconv.ParseFloat(s[:idx], 64)
		if err != nil {
			return 0, &MalformedXMLError{Reason: "invalid duration seconds: " + orig}
		}
		seconds = v
		s = s[idx+1:]
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if neg {
		total = -total
	}
	return total, nil
}
