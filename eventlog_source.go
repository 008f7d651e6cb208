//go:build windows
// +build windows

package winlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

type eventLogSource struct {
	logger *zap.Logger
}

// NewEventLogSource returns a Source that queries the local event log
// service through wevtapi.dll.
func NewEventLogSource(logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventLogSource{logger: logger}, nil
}

func (s *eventLogSource) Open(ctx context.Context, q Query) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, flags := q.Channel, uint32(EvtQueryChannelPath|EvtQueryForwardDirection)
	if q.Path != "" {
		path, flags = q.Path, EvtQueryFilePath|EvtQueryForwardDirection
	}
	widePath, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	wideQuery, err := syscall.UTF16PtrFromString(q.XPath())
	if err != nil {
		return nil, err
	}

	handle, err := EvtQuery(0, widePath, wideQuery, flags)
	if err != nil {
		return nil, fmt.Errorf("EvtQuery: %w", err)
	}
	renderContext, err := EvtCreateRenderContext(0, 0, EvtRenderContextSystem)
	if err != nil {
		EvtClose(syscall.Handle(handle))
		return nil, fmt.Errorf("EvtCreateRenderContext: %w", err)
	}

	return &eventLogCursor{
		query:         handle,
		renderContext: renderContext,
		publishers:    make(map[string]PublisherHandle),
		logger:        s.logger.With(zap.String("channel", path)),
	}, nil
}

type eventLogCursor struct {
	query         QueryHandle
	renderContext SysRenderContext
	publishers    map[string]PublisherHandle
	logger        *zap.Logger
}

func (c *eventLogCursor) Next() (*Record, error) {
	if c.query == 0 {
		return nil, errors.New("cursor is closed")
	}

	var event syscall.Handle
	var returned uint32
	err := EvtNext(c.query, 1, &event, evtInfinite, 0, &returned)
	if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("EvtNext: %w", err)
	}
	if returned == 0 {
		return nil, io.EOF
	}
	defer EvtClose(event)

	return c.render(EventHandle(event)), nil
}

// render never fails: whatever cannot be resolved is left empty.
func (c *eventLogCursor) render(event EventHandle) *Record {
	values, valuesErr := RenderEventValues(c.renderContext, event)
	if valuesErr != nil {
		c.logger.Debug("render system values failed", zap.Error(valuesErr))
	}

	var provider string
	if valuesErr == nil {
		provider, _ = values.String(EvtSystemProviderName)
	}

	var xmlText string
	if provider != "" {
		publisher, err := c.publisher(provider)
		if err == nil {
			xmlText, err = FormatEventXML(publisher, event)
		}
		if err != nil {
			c.logger.Debug("format event through publisher failed", zap.String("provider", provider), zap.Error(err))
		}
	}
	if xmlText == "" {
		var err error
		if xmlText, err = RenderEventXML(event); err != nil {
			c.logger.Debug("render event XML failed", zap.Error(err))
		}
	}

	record := &Record{}
	if xmlText != "" {
		parsed, err := ParseEventXML(xmlText)
		if err != nil {
			c.logger.Debug("parse event XML failed", zap.Error(err))
		} else {
			record = parsed
		}
	}

	if valuesErr == nil {
		if provider != "" {
			record.Provider = provider
		}
		if id, err := values.Uint(EvtSystemEventID); err == nil {
			record.EventID = id
		}
		if created, err := values.FileTime(EvtSystemTimeCreated); err == nil {
			record.TimeCreated = created
		}
	}
	if record.LevelName == "" {
		record.LevelName = StandardLevelName(record.Level)
	}
	return record
}

func (c *eventLogCursor) publisher(provider string) (PublisherHandle, error) {
	if h, ok := c.publishers[provider]; ok {
		if h == 0 {
			return 0, fmt.Errorf("publisher metadata for %q unavailable", provider)
		}
		return h, nil
	}
	wide, err := syscall.UTF16PtrFromString(provider)
	if err != nil {
		return 0, err
	}
	h, err := EvtOpenPublisherMetadata(0, wide, nil, 0, 0)
	// A failed open is remembered so the provider is not retried per event.
	c.publishers[provider] = h
	if err != nil {
		return 0, fmt.Errorf("EvtOpenPublisherMetadata(%s): %w", provider, err)
	}
	return h, nil
}

func (c *eventLogCursor) Close() error {
	if c.query == 0 {
		return nil
	}
	for _, h := range c.publishers {
		if h != 0 {
			EvtClose(syscall.Handle(h))
		}
	}
	c.publishers = nil
	EvtClose(syscall.Handle(c.renderContext))
	err := EvtClose(syscall.Handle(c.query))
	c.query = 0
	return err
}

// RenderEventValues renders the system properties of an event. Read them
// with the EvtVariant accessors using the EvtSystem* indexes.
func RenderEventValues(renderContext SysRenderContext, event EventHandle) (EvtVariant, error) {
	var bufferUsed, propertyCount uint32
	err := EvtRender(syscall.Handle(renderContext), syscall.Handle(event), EvtRenderEventValues, 0, nil, &bufferUsed, &propertyCount)
	if bufferUsed == 0 {
		return nil, err
	}
	buffer := make([]byte, bufferUsed)
	err = EvtRender(syscall.Handle(renderContext), syscall.Handle(event), EvtRenderEventValues, bufferUsed, unsafe.Pointer(&buffer[0]), &bufferUsed, &propertyCount)
	if err != nil {
		return nil, err
	}
	return EvtVariant(buffer), nil
}

// RenderEventXML renders the event as XML without publisher strings.
func RenderEventXML(event EventHandle) (string, error) {
	var bufferUsed, propertyCount uint32
	err := EvtRender(0, syscall.Handle(event), EvtRenderEventXml, 0, nil, &bufferUsed, &propertyCount)
	if bufferUsed == 0 {
		return "", err
	}
	// bufferUsed is in bytes.
	buffer := make([]uint16, (bufferUsed+1)/2)
	err = EvtRender(0, syscall.Handle(event), EvtRenderEventXml, uint32(len(buffer)*2), unsafe.Pointer(&buffer[0]), &bufferUsed, &propertyCount)
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(buffer), nil
}

// FormatEventXML renders the event as XML including the RenderingInfo
// element resolved from the publisher's message tables.
func FormatEventXML(publisher PublisherHandle, event EventHandle) (string, error) {
	var bufferUsed uint32
	err := EvtFormatMessage(publisher, event, 0, 0, nil, EvtFormatMessageXml, 0, nil, &bufferUsed)
	if bufferUsed == 0 {
		return "", err
	}
	// bufferUsed is in characters.
	buffer := make([]uint16, bufferUsed)
	err = EvtFormatMessage(publisher, event, 0, 0, nil, EvtFormatMessageXml, uint32(len(buffer)), &buffer[0], &bufferUsed)
	if err != nil && !(formattedWithMissingInserts(err) && bufferUsed > 0) {
		return "", err
	}
	if int(bufferUsed) < len(buffer) {
		buffer = buffer[:bufferUsed]
	}
	return windows.UTF16ToString(buffer), nil
}

// formattedWithMissingInserts reports whether EvtFormatMessage failed only
// because some insertion strings could not be resolved
// (ERROR_EVT_UNRESOLVED_VALUE_INSERT, ERROR_EVT_UNRESOLVED_PARAMETER_INSERT,
// ERROR_EVT_MAX_INSERTS_REACHED). The buffer still holds the formatted XML.
func formattedWithMissingInserts(err error) bool {
	return errors.Is(err, windows.ERROR_EVT_UNRESOLVED_VALUE_INSERT) ||
		errors.Is(err, windows.ERROR_EVT_UNRESOLVED_PARAMETER_INSERT) ||
		errors.Is(err, windows.ERROR_EVT_MAX_INSERTS_REACHED)
}
