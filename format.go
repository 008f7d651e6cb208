package winlog

import (
	"fmt"
	"io"
)

const (
	rowFormat = "%-12s %-12s %-20s %-43s %s\n"

	// MaxMessageLength is the number of message characters shown per row.
	MaxMessageLength = 80

	// TimeLayout renders the Time Generated column in local time.
	TimeLayout = "1/2/2006 3:04:05 PM"
)

// WriteHeader writes the column labels and the separator row.
func WriteHeader(w io.Writer) error {
	if _, err := fmt.Fprintf(w, rowFormat, "Event ID", "Entry Type", "Time Generated", "Origin", "Message"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, rowFormat, "--------", "----------", "--------------", "------", "-------")
	return err
}

// FormatRow renders one record as a table row, including the trailing newline.
func FormatRow(r *Record) string {
	return fmt.Sprintf(rowFormat,
		fmt.Sprint(r.EventID),
		r.EntryType(),
		r.TimeCreated.Local().Format(TimeLayout),
		r.Provider,
		r.Summary(MaxMessageLength))
}
