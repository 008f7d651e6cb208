package winlog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSummary(t *testing.T) {
	exactly80 := strings.Repeat("a", 80)
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"empty", "", ""},
		{"short", "Service started.", "Service started."},
		{"exactly 80", exactly80, exactly80},
		{"81 is cut", exactly80 + "b", exactly80},
		{"newline becomes space", "line one\nline two", "line one line two"},
		{"crlf becomes one space", "line one\r\nline two", "line one line two"},
		{"newline replaced before the cut", strings.Repeat("a", 79) + "\nb", strings.Repeat("a", 79) + " "},
		{"multibyte counts characters", strings.Repeat("é", 81), strings.Repeat("é", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Message: tt.message}
			if got := r.Summary(MaxMessageLength); got != tt.want {
				t.Errorf("Summary() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestEntryType(t *testing.T) {
	tests := []struct {
		opcode, level, want string
	}{
		{"Info", "Information", "Info"},
		{"", "Critical", "Critical"},
		{"", "", ""},
		{"Stop", "", "Stop"},
	}
	for _, tt := range tests {
		r := &Record{OpcodeName: tt.opcode, LevelName: tt.level}
		if got := r.EntryType(); got != tt.want {
			t.Errorf("EntryType(opcode=%q, level=%q) = %q; want %q", tt.opcode, tt.level, got, tt.want)
		}
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Event ID     Entry Type   Time Generated       Origin                                      Message\n" +
		"--------     ----------   --------------       ------                                      -------\n"
	if buf.String() != want {
		t.Errorf("header\n got  %q\n want %q", buf.String(), want)
	}
}

func TestFormatRow(t *testing.T) {
	r := &Record{
		EventID:     41,
		Provider:    "Microsoft-Windows-Kernel-Power",
		TimeCreated: time.Date(2026, 10, 15, 13, 2, 3, 0, time.Local),
		LevelName:   "Critical",
		Message:     "x",
	}
	want := "41           Critical     10/15/2026 1:02:03 PM Microsoft-Windows-Kernel-Power              x\n"
	if got := FormatRow(r); got != want {
		t.Errorf("FormatRow()\n got  %q\n want %q", got, want)
	}
}
