package importer

import (
	"iter"
	"strings"

	"practice-roster/internal/app/participant"
)

// Registration form columns (0-based): B email, C full name, D member id,
// E preferred email, H side.
const (
	formColEmail          = 1
	formColFullName       = 2
	formColMemberID       = 3
	formColPreferredEmail = 4
	formColSide           = 7
	formMinColumns        = 8
)

// FormRow is a parsed form entry and its 1-based row number in the export.
type FormRow struct {
	Row int
	participant.FormEntry
}

// ReadFormEntries skips the first skip rows and parses the rest. consumed
// counts every row read, including skipped and short ones, so it can be
// stored as the next cursor.
func ReadFormEntries(rows iter.Seq2[[]string, error], skip int) (entries []FormRow, consumed int, err error) {
	for row, err := range rows {
		if err != nil {
			return entries, consumed, err
		}
		consumed++
		if consumed <= skip {
			continue
		}
		if len(row) < formMinColumns {
			continue
		}
		entries = append(entries, FormRow{Row: consumed, FormEntry: participant.FormEntry{
			Email:          strings.TrimSpace(row[formColEmail]),
			FullName:       strings.TrimSpace(row[formColFullName]),
			MemberID:       strings.TrimSpace(row[formColMemberID]),
			PreferredEmail: strings.TrimSpace(row[formColPreferredEmail]),
			Side:           strings.TrimSpace(row[formColSide]),
		}})
	}
	return entries, consumed, nil
}
