package winlog

import (
	"strings"
	"time"
)

// Record is one event read from a channel. Records are read-only snapshots;
// nothing in them refers back to a live event handle.
type Record struct {
	EventID     uint64
	Channel     string
	Provider    string
	Level       uint64
	Opcode      uint64
	TimeCreated time.Time

	// Localized labels, empty when the publisher could not resolve them.
	LevelName  string
	OpcodeName string
	Message    string

	// Named EventData fields, e.g. Data["LogonType"].
	Data map[string]string
}

// EntryType is the opcode display name, or the level display name when the
// opcode has none.
func (r *Record) EntryType() string {
	if r.OpcodeName != "" {
		return r.OpcodeName
	}
	return r.LevelName
}

// Summary returns the message on a single line, cut to at most n characters.
func (r *Record) Summary(n int) string {
	msg := newlineReplacer.Replace(r.Message)
	if n < 0 {
		return msg
	}
	runes := []rune(msg)
	if len(runes) > n {
		return string(runes[:n])
	}
	return msg
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
