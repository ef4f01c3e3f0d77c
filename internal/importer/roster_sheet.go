package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"practice-roster/internal/app/practice"
	"practice-roster/internal/roster"
	"practice-roster/internal/store"
)

var (
	ErrMissingStart  = errors.New("roster sheet: missing start time")
	ErrMissingHeader = errors.New("roster sheet: missing LEFTIES/RIGHTIES header")
)

const (
	headerLeft     = "LEFTIES"
	headerRight    = "RIGHTIES"
	markerWaitlist = "WAITLIST"

	colLeftFirst  = 1
	colLeftLast   = 2
	colRightFirst = 5
	colRightLast  = 6
)

var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseStart(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMissingStart, v)
}

func fullName(row []string, first, last int) string {
	return strings.Join(strings.Fields(cell(row, first)+" "+cell(row, last)), " ")
}

func isHeader(row []string) bool {
	for _, c := range row {
		switch strings.ToUpper(strings.TrimSpace(c)) {
		case headerLeft, headerRight:
			return true
		}
	}
	return false
}

// ParsePracticeRows reads one roster sheet. Row 1 column A holds the start
// time; a LEFTIES/RIGHTIES header precedes the main rows, and a row whose
// column A reads WAITLIST switches to waitlist rows. Left names come from
// columns B and C, right names from F and G.
func ParsePracticeRows(rows iter.Seq2[[]string, error]) (practice.Parsed, error) {
	var (
		out        practice.Parsed
		line       int
		seenHeader bool
		onWaitlist bool
	)
	for row, err := range rows {
		if err != nil {
			return practice.Parsed{}, err
		}
		line++
		if line == 1 {
			start, err := parseStart(cell(row, 0))
			if err != nil {
				return practice.Parsed{}, err
			}
			out.Start = start
			continue
		}
		if !seenHeader {
			seenHeader = isHeader(row)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(cell(row, 0)), markerWaitlist) {
			onWaitlist = true
			continue
		}
		left := fullName(row, colLeftFirst, colLeftLast)
		right := fullName(row, colRightFirst, colRightLast)
		if onWaitlist {
			appendName(&out.Left.Waitlist, left)
			appendName(&out.Right.Waitlist, right)
		} else {
			appendName(&out.Left.Main, left)
			appendName(&out.Right.Main, right)
		}
	}
	if out.Start.IsZero() {
		return practice.Parsed{}, ErrMissingStart
	}
	if !seenHeader {
		return practice.Parsed{}, ErrMissingHeader
	}
	return out, nil
}

func appendName(dst *[]string, name string) {
	if name != "" {
		*dst = append(*dst, name)
	}
}

// WriteRosterSheet renders p in the layout ParsePracticeRows reads. name
// resolves a participant id to "First Last"; an empty result leaves the
// slot blank.
func WriteRosterSheet(w io.Writer, p store.Practice, name func(id string) string) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{p.StartTime.UTC().Format(time.RFC3339)},
		{},
		{"", headerLeft, "", "", "", headerRight},
	}
	sheetRow := func(left, right roster.Slot) []string {
		row := make([]string, colRightLast+1)
		row[colLeftFirst], row[colLeftLast] = splitName(slotName(left, name))
		row[colRightFirst], row[colRightLast] = splitName(slotName(right, name))
		return row
	}
	for i := 0; i < roster.MainCapacity; i++ {
		records = append(records, sheetRow(p.Roster.Left.Main[i], p.Roster.Right.Main[i]))
	}
	records = append(records, []string{markerWaitlist})
	for i := 0; i < roster.WaitlistCapacity; i++ {
		records = append(records, sheetRow(p.Roster.Left.Waitlist[i], p.Roster.Right.Waitlist[i]))
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func slotName(s roster.Slot, name func(string) string) string {
	if s.Empty() {
		return ""
	}
	return name(s.ParticipantID())
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}
