package importer

import (
	"strings"
	"testing"
)

const formCSV = `Timestamp,Email,Full name,Member id,Preferred email,Q1,Q2,Side
2026-01-01,ann@example.com,Ann Lee,M1,,x,y,Left
2026-01-02,short@example.com,Too Short
2026-01-03, bob@example.com , Bob  Ray ,M2,bob.alt@example.com,x,y,Right
`

func TestReadFormEntriesSkipsHeaderAndShortRows(t *testing.T) {
	entries, consumed, err := ReadFormEntries(ReadCSV(strings.NewReader(formCSV)), 1)
	if err != nil {
		t.Fatalf("ReadFormEntries: %v", err)
	}
	if consumed != 4 {
		t.Fatalf("consumed = %d, want 4", consumed)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Email != "ann@example.com" || entries[0].Side != "Left" || entries[0].MemberID != "M1" {
		t.Fatalf("entry 0 = %+v", entries[0])
	}
	if entries[0].Row != 2 || entries[1].Row != 4 {
		t.Fatalf("rows = %d, %d; want 2, 4", entries[0].Row, entries[1].Row)
	}
	if entries[1].Email != "bob@example.com" || entries[1].FullName != "Bob  Ray" || entries[1].PreferredEmail != "bob.alt@example.com" {
		t.Fatalf("entry 1 = %+v", entries[1])
	}
}

func TestReadFormEntriesResumesFromCursor(t *testing.T) {
	entries, consumed, err := ReadFormEntries(ReadCSV(strings.NewReader(formCSV)), 3)
	if err != nil {
		t.Fatalf("ReadFormEntries: %v", err)
	}
	if consumed != 4 || len(entries) != 1 || entries[0].Email != "bob@example.com" {
		t.Fatalf("consumed=%d entries=%+v", consumed, entries)
	}

	entries, consumed, err = ReadFormEntries(ReadCSV(strings.NewReader(formCSV)), 4)
	if err != nil {
		t.Fatalf("ReadFormEntries: %v", err)
	}
	if consumed != 4 || len(entries) != 0 {
		t.Fatalf("consumed=%d entries=%+v", consumed, entries)
	}
}
