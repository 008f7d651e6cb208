package winlog

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Preset is a named query template: a channel plus fixed restrictions,
// completed with a time threshold when a run starts.
type Preset struct {
	Name        string              `yaml:"name"`
	Channel     string              `yaml:"channel"`
	Banner      string              `yaml:"banner"`
	Description string              `yaml:"description"`
	Providers   []string            `yaml:"providers,omitempty"`
	EventIDs    []uint64            `yaml:"event_ids,omitempty"`
	Data        map[string][]string `yaml:"data,omitempty"`
}

// Build fixes the preset's window at now.
func (p Preset) Build(now time.Time, window time.Duration) Query {
	return Query{
		Channel: p.Channel,
		Predicate: Predicate{
			Providers:    p.Providers,
			EventIDs:     p.EventIDs,
			Data:         p.Data,
			WithinMillis: Threshold(now, window),
		},
	}
}

// Lookup returns the preset named token. Matching is exact.
func (c *Config) Lookup(token string) (Preset, bool) {
	if token == "" {
		return Preset{}, false
	}
	for _, p := range c.Presets {
		if p.Name == token {
			return p, true
		}
	}
	return Preset{}, false
}

// WriteHelp lists the accepted presets, the channels they read and the window.
func (c *Config) WriteHelp(w io.Writer) error {
	var b strings.Builder

	b.WriteString("\n| ALLOWED PARAMETERS:\n")
	for _, p := range c.Presets {
		fmt.Fprintf(&b, "|\t%s\n", p.Name)
	}
	b.WriteString("|\n")

	var channels []string
	byChannel := make(map[string][]string)
	for _, ch := range c.Channels {
		if _, ok := byChannel[ch]; ok {
			continue
		}
		for _, p := range c.Presets {
			if p.Channel == ch {
				channels = append(channels, ch)
				byChannel[ch] = nil
				break
			}
		}
	}
	for _, p := range c.Presets {
		if _, ok := byChannel[p.Channel]; !ok {
			channels = append(channels, p.Channel)
		}
		desc := p.Description
		if desc == "" {
			desc = p.Name
		}
		byChannel[p.Channel] = append(byChannel[p.Channel], desc)
	}
	for _, ch := range channels {
		fmt.Fprintf(&b, "| From %s: %s events\n", ch, strings.Join(byChannel[ch], " and "))
	}

	fmt.Fprintf(&b, "| All events shown are within the last %s\n\n", describeWindow(c.Window))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteBanner writes the preset's heading followed by a blank line.
func (p Preset) WriteBanner(w io.Writer) error {
	banner := p.Banner
	if banner == "" {
		banner = strings.ToUpper(p.Name) + " EVENTS"
	}
	_, err := fmt.Fprintf(w, "%s\n\n", banner)
	return err
}

func describeWindow(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d == time.Minute:
		return "minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
