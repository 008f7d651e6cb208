package winlog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecordsStopsAtEndOfStream(t *testing.T) {
	c := &sliceCursor{records: []*Record{{EventID: 1}, {EventID: 2}}}

	var ids []uint64
	for r, err := range Records(c) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, r.EventID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("ids = %v; want [1 2]", ids)
	}
}

func TestRecordsYieldsErrorOnce(t *testing.T) {
	c := &sliceCursor{closed: true}

	var errs int
	for _, err := range Records(c) {
		if err != nil {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("errors yielded = %d; want 1", errs)
	}
}

func TestMemorySourceIsRestartable(t *testing.T) {
	now := time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC)
	src := &MemorySource{
		Now: func() time.Time { return now },
		Channels: map[string][]*Record{
			"System": {
				{EventID: 1, TimeCreated: now.Add(-time.Minute)},
				{EventID: 2, TimeCreated: now.Add(-time.Hour)},
			},
		},
	}
	q := Query{Channel: "System", Predicate: Predicate{WithinMillis: (10 * time.Minute).Milliseconds()}}

	for run := 0; run < 2; run++ {
		c, err := src.Open(context.Background(), q)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		var n int
		for range Records(c) {
			n++
		}
		c.Close()
		if n != 1 {
			t.Errorf("run %d: records = %d; want 1", run, n)
		}
	}
}

func TestMemorySourceHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&MemorySource{}).Open(ctx, Query{Channel: "System"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Open error = %v; want context.Canceled", err)
	}
}

func TestOpenBackend(t *testing.T) {
	if _, err := OpenBackend("syslog", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("OpenBackend(syslog) error = %v; want ErrUnknownBackend", err)
	}
}
