package winlog

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Lister prints the results of a query as a table.
type Lister struct {
	Source Source
	Logger *zap.Logger
}

// NewLister returns a Lister reading from src. A nil logger discards logs.
func NewLister(src Source, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{Source: src, Logger: logger}
}

// List opens q, writes the header and one row per record until the cursor
// is exhausted. The cursor is closed on every return path. It returns the
// number of rows written.
func (l *Lister) List(ctx context.Context, w io.Writer, q Query) (n int, err error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("opening query", zap.String("channel", q.Channel), zap.String("path", q.Path), zap.String("xpath", q.XPath()))

	cursor, err := l.Source.Open(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", queryTarget(q), err)
	}
	defer func() {
		if cerr := cursor.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", queryTarget(q), cerr)
		}
	}()

	if err := WriteHeader(w); err != nil {
		return 0, err
	}

	for r, rerr := range Records(cursor) {
		if rerr != nil {
			return n, fmt.Errorf("read %s: %w", queryTarget(q), rerr)
		}
		if r == nil {
			continue
		}
		if _, err := io.WriteString(w, FormatRow(r)); err != nil {
			return n, err
		}
		n++
	}

	log.Debug("query drained", zap.String("channel", q.Channel), zap.Int("rows", n))
	return n, nil
}

func queryTarget(q Query) string {
	if q.Path != "" {
		return q.Path
	}
	return q.Channel
}
