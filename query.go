package winlog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// ErrUnsupportedPredicate is returned when a backend cannot express part of a predicate.
var ErrUnsupportedPredicate = errors.New("predicate not supported by backend")

// Predicate is a structured event filter. Empty fields do not restrict.
type Predicate struct {
	Providers    []string
	EventIDs     []uint64
	Data         map[string][]string
	WithinMillis int64
}

// Query is a predicate scoped to one channel, or to an exported log file
// when Path is set.
type Query struct {
	Channel   string
	Path      string
	Predicate Predicate
}

// Threshold returns the trailing window as elapsed milliseconds measured at now.
func Threshold(now time.Time, window time.Duration) int64 {
	return now.Sub(now.Add(-window)).Milliseconds()
}

// XPath renders the query in the structured XPath subset accepted by EvtQuery.
func (q Query) XPath() string {
	p := q.Predicate
	var clauses []string

	if len(p.Providers) > 0 {
		alts := make([]string, len(p.Providers))
		for i, name := range p.Providers {
			alts[i] = fmt.Sprintf("@Name=%s", xpathLiteral(name))
		}
		clauses = append(clauses, fmt.Sprintf("System/Provider[%s]", strings.Join(alts, " or ")))
	}

	if len(p.EventIDs) > 0 {
		alts := make([]string, len(p.EventIDs))
		for i, id := range p.EventIDs {
			alts[i] = fmt.Sprintf("EventID=%d", id)
		}
		clauses = append(clauses, fmt.Sprintf("System[(%s)]", strings.Join(alts, " or ")))
	}

	clauses = append(clauses, fmt.Sprintf("System[TimeCreated[timediff(@SystemTime) <= %d]]", p.WithinMillis))

	for _, name := range p.dataFields() {
		values := p.Data[name]
		alts := make([]string, len(values))
		for i, v := range values {
			alts[i] = fmt.Sprintf("Data[@Name=%s]=%s", xpathLiteral(name), xpathLiteral(v))
		}
		clauses = append(clauses, fmt.Sprintf("EventData[%s]", strings.Join(alts, " or ")))
	}

	return "*[" + strings.Join(clauses, " and ") + "]"
}

// WQL renders the query against Win32_NTLogEvent. Event data fields have no
// WQL column, so predicates that use them are rejected.
func (q Query) WQL(now time.Time) (string, error) {
	p := q.Predicate
	if len(p.Data) > 0 {
		return "", fmt.Errorf("%w: event data fields %v", ErrUnsupportedPredicate, p.dataFields())
	}
	if q.Path != "" {
		return "", fmt.Errorf("%w: log file path", ErrUnsupportedPredicate)
	}

	since := now.Add(-time.Duration(p.WithinMillis) * time.Millisecond)
	conds := []string{
		fmt.Sprintf("Logfile=%s", wqlLiteral(q.Channel)),
		fmt.Sprintf("TimeGenerated>=%s", wqlLiteral(FormatWMITime(since))),
	}
	if len(p.Providers) > 0 {
		alts := make([]string, len(p.Providers))
		for i, name := range p.Providers {
			alts[i] = fmt.Sprintf("SourceName=%s", wqlLiteral(name))
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	if len(p.EventIDs) > 0 {
		alts := make([]string, len(p.EventIDs))
		for i, id := range p.EventIDs {
			alts[i] = fmt.Sprintf("EventCode=%d", id)
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	return "SELECT * FROM Win32_NTLogEvent WHERE " + strings.Join(conds, " AND "), nil
}

// Matches reports whether r satisfies the predicate when evaluated at now.
func (p Predicate) Matches(r *Record, now time.Time) bool {
	if r == nil {
		return false
	}
	if now.Sub(r.TimeCreated) > time.Duration(p.WithinMillis)*time.Millisecond {
		return false
	}
	if len(p.Providers) > 0 && !slices.Contains(p.Providers, r.Provider) {
		return false
	}
	if len(p.EventIDs) > 0 && !slices.Contains(p.EventIDs, r.EventID) {
		return false
	}
	for name, allowed := range p.Data {
		v, ok := r.Data[name]
		if !ok || !slices.Contains(allowed, v) {
			return false
		}
	}
	return true
}

func (p Predicate) dataFields() []string {
	names := make([]string, 0, len(p.Data))
	for name := range p.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quotable reports whether s can be written as an XPath string literal.
// The event log XPath subset has no concat(), so a value holding both quote
// characters cannot be expressed.
func quotable(s string) bool {
	return !strings.Contains(s, "'") || !strings.Contains(s, `"`)
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

func wqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}
