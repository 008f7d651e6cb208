//go:build windows
// +build windows

package winlog

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

/* Interop code for wevtapi.dll */

var (
	evtQuery                 *windows.LazyProc
	evtNext                  *windows.LazyProc
	evtRender                *windows.LazyProc
	evtClose                 *windows.LazyProc
	evtFormatMessage         *windows.LazyProc
	evtCreateRenderContext   *windows.LazyProc
	evtOpenPublisherMetadata *windows.LazyProc
)

func mustFindProc(mod *windows.LazyDLL, functionName string) *windows.LazyProc {
	if mod.Load() != nil {
		panic(fmt.Sprintf("error loading %v", mod.Name))
	}
	proc := mod.NewProc(functionName)
	if proc == nil || proc.Find() != nil {
		panic(fmt.Sprintf("missing %v from %v", functionName, mod.Name))
	}
	return proc
}

func init() {
	winevtDll := windows.NewLazySystemDLL("wevtapi.dll")
	evtQuery = mustFindProc(winevtDll, "EvtQuery")
	evtNext = mustFindProc(winevtDll, "EvtNext")
	evtRender = mustFindProc(winevtDll, "EvtRender")
	evtClose = mustFindProc(winevtDll, "EvtClose")
	evtFormatMessage = mustFindProc(winevtDll, "EvtFormatMessage")
	evtCreateRenderContext = mustFindProc(winevtDll, "EvtCreateRenderContext")
	evtOpenPublisherMetadata = mustFindProc(winevtDll, "EvtOpenPublisherMetadata")
}

// Handle kinds returned by wevtapi. All of them are released with EvtClose.
type (
	QueryHandle      syscall.Handle
	EventHandle      syscall.Handle
	PublisherHandle  syscall.Handle
	SysRenderContext syscall.Handle
)

/* Fields that can be read from an EvtVariant rendered with the system context */
type EVT_SYSTEM_PROPERTY_ID int

const (
	EvtSystemProviderName = iota
	EvtSystemProviderGuid
	EvtSystemEventID
	EvtSystemQualifiers
	EvtSystemLevel
	EvtSystemTask
	EvtSystemOpcode
	EvtSystemKeywords
	EvtSystemTimeCreated
	EvtSystemEventRecordId
	EvtSystemActivityID
	EvtSystemRelatedActivityID
	EvtSystemProcessID
	EvtSystemThreadID
	EvtSystemChannel
	EvtSystemComputer
	EvtSystemUserID
	EvtSystemVersion
)

type EVT_FORMAT_MESSAGE_FLAGS int

const (
	_ = iota
	EvtFormatMessageEvent
	EvtFormatMessageLevel
	EvtFormatMessageTask
	EvtFormatMessageOpcode
	EvtFormatMessageKeyword
	EvtFormatMessageChannel
	EvtFormatMessageProvider
	EvtFormatMessageId
	EvtFormatMessageXml
)

const (
	EvtRenderEventValues = iota
	EvtRenderEventXml
	EvtRenderBookmark
)

const (
	EvtRenderContextValues = iota
	EvtRenderContextSystem
	EvtRenderContextUser
)

const (
	EvtQueryChannelPath         = 0x1
	EvtQueryFilePath            = 0x2
	EvtQueryForwardDirection    = 0x100
	EvtQueryReverseDirection    = 0x200
	EvtQueryTolerateQueryErrors = 0x1000
)

// Blocks EvtNext until the next event is available or the result set ends.
const evtInfinite = 0xFFFFFFFF

// call runs fn, which must invoke the proc directly so pointer arguments are
// converted inside the Call expression, and turns a zero return or a panic
// into an error.
func call(name string, fn func() (uintptr, uintptr, error)) (r1 uintptr, callErr error) {
	defer func() {
		if r := recover(); r != nil {
			callErr = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()

	r1, _, err := fn()
	if r1 == 0 {
		return 0, err
	}
	return r1, nil
}

func EvtQuery(Session syscall.Handle, Path, Query *uint16, Flags uint32) (QueryHandle, error) {
	if Path == nil {
		return 0, fmt.Errorf("query path is nil")
	}
	r1, err := call("EvtQuery", func() (uintptr, uintptr, error) {
		return evtQuery.Call(uintptr(Session), uintptr(unsafe.Pointer(Path)), uintptr(unsafe.Pointer(Query)), uintptr(Flags))
	})
	if err != nil {
		return 0, err
	}
	return QueryHandle(r1), nil
}

func EvtNext(ResultSet QueryHandle, EventArraySize uint32, EventArray *syscall.Handle, Timeout, Flags uint32, Returned *uint32) error {
	if ResultSet == 0 {
		return fmt.Errorf("invalid result set handle: 0")
	}
	if EventArray == nil {
		return fmt.Errorf("event array is nil")
	}
	if Returned == nil {
		return fmt.Errorf("returned pointer is nil")
	}
	_, err := call("EvtNext", func() (uintptr, uintptr, error) {
		return evtNext.Call(uintptr(ResultSet), uintptr(EventArraySize), uintptr(unsafe.Pointer(EventArray)), uintptr(Timeout), uintptr(Flags), uintptr(unsafe.Pointer(Returned)))
	})
	return err
}

func EvtRender(Context, Fragment syscall.Handle, Flags, BufferSize uint32, Buffer unsafe.Pointer, BufferUsed, PropertyCount *uint32) error {
	if Fragment == 0 {
		return fmt.Errorf("invalid fragment handle: %v", Fragment)
	}
	_, err := call("EvtRender", func() (uintptr, uintptr, error) {
		return evtRender.Call(uintptr(Context), uintptr(Fragment), uintptr(Flags), uintptr(BufferSize), uintptr(Buffer), uintptr(unsafe.Pointer(BufferUsed)), uintptr(unsafe.Pointer(PropertyCount)))
	})
	return err
}

func EvtFormatMessage(PublisherMetadata PublisherHandle, Event EventHandle, MessageId, ValueCount uint32, Values unsafe.Pointer, Flags, BufferSize uint32, Buffer *uint16, BufferUsed *uint32) error {
	if PublisherMetadata == 0 || Event == 0 {
		return fmt.Errorf("invalid handle: PublisherMetadata=%v, Event=%v", PublisherMetadata, Event)
	}
	_, err := call("EvtFormatMessage", func() (uintptr, uintptr, error) {
		return evtFormatMessage.Call(uintptr(PublisherMetadata), uintptr(Event), uintptr(MessageId), uintptr(ValueCount), uintptr(Values), uintptr(Flags), uintptr(BufferSize), uintptr(unsafe.Pointer(Buffer)), uintptr(unsafe.Pointer(BufferUsed)))
	})
	return err
}

func EvtCreateRenderContext(ValuePathsCount uint32, ValuePaths uintptr, Flags uint32) (SysRenderContext, error) {
	r1, err := call("EvtCreateRenderContext", func() (uintptr, uintptr, error) {
		return evtCreateRenderContext.Call(uintptr(ValuePathsCount), ValuePaths, uintptr(Flags))
	})
	if err != nil {
		return 0, err
	}
	return SysRenderContext(r1), nil
}

func EvtOpenPublisherMetadata(Session syscall.Handle, PublisherIdentity, LogFilePath *uint16, Locale, Flags uint32) (PublisherHandle, error) {
	if PublisherIdentity == nil {
		return 0, fmt.Errorf("invalid publisher identity: nil")
	}
	r1, err := call("EvtOpenPublisherMetadata", func() (uintptr, uintptr, error) {
		return evtOpenPublisherMetadata.Call(uintptr(Session), uintptr(unsafe.Pointer(PublisherIdentity)), uintptr(unsafe.Pointer(LogFilePath)), uintptr(Locale), uintptr(Flags))
	})
	if err != nil {
		return 0, err
	}
	return PublisherHandle(r1), nil
}

func EvtClose(Object syscall.Handle) error {
	if Object == 0 {
		return fmt.Errorf("invalid object handle: 0")
	}
	_, err := call("EvtClose", func() (uintptr, uintptr, error) {
		return evtClose.Call(uintptr(Object))
	})
	return err
}
