package winlog

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"
)

// ErrUnsupportedPlatform is returned by event log backends on systems
// without the Windows Event Log.
var ErrUnsupportedPlatform = errors.New("event log backend requires windows")

// Cursor is a forward-only reader over the results of one query.
// Next returns io.EOF once the result set is exhausted.
type Cursor interface {
	Next() (*Record, error)
	Close() error
}

// Source opens cursors. Opening the same query again restarts it.
type Source interface {
	Open(ctx context.Context, q Query) (Cursor, error)
}

// Records yields every record from c until end of stream. A read error is
// yielded once and ends the sequence.
func Records(c Cursor) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			r, err := c.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// MemorySource serves a fixed set of records, filtered by the query
// predicate evaluated at Now (time.Now when unset). Nil entries are
// passed through as-is.
type MemorySource struct {
	Channels map[string][]*Record
	Now      func() time.Time
}

func (m *MemorySource) Open(ctx context.Context, q Query) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, ok := m.Channels[q.Channel]
	if !ok {
		return nil, &ChannelNotFoundError{Channel: q.Channel}
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	var matched []*Record
	for _, r := range records {
		if r == nil || q.Predicate.Matches(r, now) {
			matched = append(matched, r)
		}
	}
	return &sliceCursor{records: matched}, nil
}

// ChannelNotFoundError reports a query against a channel that does not exist.
type ChannelNotFoundError struct {
	Channel string
}

func (e *ChannelNotFoundError) Error() string {
	return "channel " + e.Channel + " not found"
}

type sliceCursor struct {
	records []*Record
	pos     int
	closed  bool
}

func (c *sliceCursor) Next() (*Record, error) {
	if c.closed {
		return nil, errors.New("cursor is closed")
	}
	if c.pos >= len(c.records) {
		return nil, io.EOF
	}
	r := c.records[c.pos]
	c.pos++
	return r, nil
}

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}
