package winlog

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// EventXML is the XML rendering of an event. RenderingInfo is only present
// when the event was formatted through its publisher's metadata.
type EventXML struct {
	System struct {
		Provider struct {
			Name            string `xml:"Name,attr"`
			Guid            string `xml:"Guid,attr"`
			EventSourceName string `xml:"EventSourceName,attr"`
		} `xml:"Provider"`
		EventID struct {
			Value      uint64 `xml:",chardata"`
			Qualifiers string `xml:"Qualifiers,attr"`
		} `xml:"EventID"`
		Level       uint64 `xml:"Level"`
		Task        uint64 `xml:"Task"`
		Opcode      uint64 `xml:"Opcode"`
		TimeCreated struct {
			SystemTime string `xml:"SystemTime,attr"`
		} `xml:"TimeCreated"`
		EventRecordID uint64 `xml:"EventRecordID"`
		Channel       string `xml:"Channel"`
		Computer      string `xml:"Computer"`
	} `xml:"System"`
	EventData struct {
		Data []struct {
			Name  string `xml:"Name,attr"`
			Value string `xml:",chardata"`
		} `xml:"Data"`
	} `xml:"EventData"`
	RenderingInfo *struct {
		Message string `xml:"Message"`
		Level   string `xml:"Level"`
		Task    string `xml:"Task"`
		Opcode  string `xml:"Opcode"`
	} `xml:"RenderingInfo"`
}

// ParseEventXML converts the XML rendering of an event into a Record.
func ParseEventXML(data string) (*Record, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("empty event XML")
	}

	var event EventXML
	if err := xml.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event XML: %w", err)
	}

	sys := event.System
	r := &Record{
		EventID:  sys.EventID.Value,
		Channel:  sys.Channel,
		Provider: sys.Provider.Name,
		Level:    sys.Level,
		Opcode:   sys.Opcode,
	}
	if r.Provider == "" {
		r.Provider = sys.Provider.EventSourceName
	}

	if ts := sys.TimeCreated.SystemTime; ts != "" {
		created, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("malformed TimeCreated %q: %w", ts, err)
		}
		r.TimeCreated = created
	}

	for _, d := range event.EventData.Data {
		if d.Name == "" {
			continue
		}
		if r.Data == nil {
			r.Data = make(map[string]string)
		}
		r.Data[d.Name] = d.Value
	}

	if info := event.RenderingInfo; info != nil {
		r.Message = info.Message
		r.LevelName = info.Level
		r.OpcodeName = info.Opcode
	}
	if r.LevelName == "" {
		r.LevelName = StandardLevelName(r.Level)
	}
	return r, nil
}

// StandardLevelName maps the levels reserved by the event schema to their
// display names.
func StandardLevelName(level uint64) string {
	switch level {
	case 0:
		return "LogAlways"
	case 1:
		return "Critical"
	case 2:
		return "Error"
	case 3:
		return "Warning"
	case 4:
		return "Information"
	case 5:
		return "Verbose"
	default:
		return fmt.Sprintf("Level %d", level)
	}
}
