//go:build windows
// +build windows

package winlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"go.uber.org/zap"
)

const sFalse = 0x00000001

type wmiSource struct {
	logger *zap.Logger
}

// NewWMISource returns a Source that reads classic event logs through the
// WMI Win32_NTLogEvent class. It cannot filter on event data fields.
func NewWMISource(logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &wmiSource{logger: logger}, nil
}

func (s *wmiSource) Open(ctx context.Context, q Query) (Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wql, err := q.WQL(time.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("executing WMI query", zap.String("wql", wql))

	// COM state is per thread; the cursor keeps this goroutine on it until Close.
	runtime.LockOSThread()
	c := &wmiCursor{channel: q.Channel}
	if err := c.open(wql); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

type wmiCursor struct {
	channel string

	comInit bool
	locator *ole.IUnknown
	wmi     *ole.IDispatch
	service *ole.IDispatch
	result  *ole.IDispatch

	count  int
	next   int
	closed bool
}

func (c *wmiCursor) open(wql string) error {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	c.comInit = true

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return fmt.Errorf("failed to create WMI locator: %w", err)
	}
	c.locator = unknown

	c.wmi, err = unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query WMI interface: %w", err)
	}

	serviceRaw, err := oleutil.CallMethod(c.wmi, "ConnectServer", ".", `root\cimv2`)
	if err != nil {
		return fmt.Errorf("failed to connect to WMI server: %w", err)
	}
	c.service = serviceRaw.ToIDispatch()

	resultRaw, err := oleutil.CallMethod(c.service, "ExecQuery", wql)
	if err != nil {
		return fmt.Errorf("failed to execute WMI query: %w", err)
	}
	c.result = resultRaw.ToIDispatch()

	countVar, err := oleutil.GetProperty(c.result, "Count")
	if err != nil {
		return fmt.Errorf("failed to get result count: %w", err)
	}
	defer countVar.Clear()
	c.count = int(countVar.Val)
	return nil
}

func (c *wmiCursor) Next() (*Record, error) {
	if c.closed {
		return nil, errors.New("cursor is closed")
	}
	if c.next >= c.count {
		return nil, io.EOF
	}
	i := c.next
	c.next++

	itemRaw, err := oleutil.CallMethod(c.result, "ItemIndex", i)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", i, err)
	}
	item := itemRaw.ToIDispatch()
	defer item.Release()

	return c.convert(item)
}

func (c *wmiCursor) convert(item *ole.IDispatch) (*Record, error) {
	eventCode, err := wmiUint(item, "EventCode")
	if err != nil {
		return nil, err
	}
	generated, err := wmiString(item, "TimeGenerated")
	if err != nil {
		return nil, err
	}
	created, err := ParseWMITime(generated)
	if err != nil {
		return nil, err
	}
	source, err := wmiString(item, "SourceName")
	if err != nil {
		return nil, err
	}
	// Type is the localized entry type, e.g. "Information" or "Audit Success".
	entryType, _ := wmiString(item, "Type")
	message, _ := wmiString(item, "Message")

	return &Record{
		EventID:     eventCode,
		Channel:     c.channel,
		Provider:    source,
		TimeCreated: created,
		LevelName:   entryType,
		Message:     message,
	}, nil
}

func wmiString(item *ole.IDispatch, name string) (string, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer v.Clear()
	return v.ToString(), nil
}

func wmiUint(item *ole.IDispatch, name string) (uint64, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer v.Clear()
	return uint64(v.Val), nil
}

func (c *wmiCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.result != nil {
		c.result.Release()
	}
	if c.service != nil {
		c.service.Release()
	}
	if c.wmi != nil {
		c.wmi.Release()
	}
	if c.locator != nil {
		c.locator.Release()
	}
	if c.comInit {
		ole.CoUninitialize()
	}
	runtime.UnlockOSThread()
	return nil
}
