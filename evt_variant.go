//go:build windows
// +build windows

package winlog

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

/* Accessors for the EVT_VARIANT array produced by EvtRender with
   EvtRenderEventValues */

const (
	EvtVarTypeNull = iota
	EvtVarTypeString
	EvtVarTypeAnsiString
	EvtVarTypeSByte
	EvtVarTypeByte
	EvtVarTypeInt16
	EvtVarTypeUInt16
	EvtVarTypeInt32
	EvtVarTypeUInt32
	EvtVarTypeInt64
	EvtVarTypeUInt64
	EvtVarTypeSingle
	EvtVarTypeDouble
	EvtVarTypeBoolean
	EvtVarTypeBinary
	EvtVarTypeGuid
	EvtVarTypeSizeT
	EvtVarTypeFileTime
	EvtVarTypeSysTime
	EvtVarTypeSid
	EvtVarTypeHexInt32
	EvtVarTypeHexInt64
	EvtVarTypeEvtHandle
	EvtVarTypeEvtXml
)

const evtVariantSize = 16

type evtVariant struct {
	Data  uint64
	Count uint32
	Type  uint32
}

// EvtVariant wraps the buffer filled by EvtRender. String values point back
// into the same buffer.
type EvtVariant []byte

func (e EvtVariant) elemAt(index uint32) (*evtVariant, error) {
	if len(e) == 0 {
		return nil, fmt.Errorf("EvtVariant is empty")
	}
	if int(index+1)*evtVariantSize > len(e) {
		return nil, fmt.Errorf("EvtVariant index %v is out of bounds", index)
	}
	return (*evtVariant)(unsafe.Pointer(&e[index*evtVariantSize])), nil
}

/* Return the string value of the variable at `index`. If the
   variable isn't a string, an error is returned */
func (e EvtVariant) String(index uint32) (string, error) {
	elem, err := e.elemAt(index)
	if err != nil {
		return "", err
	}
	if elem.Type != EvtVarTypeString {
		return "", fmt.Errorf("EvtVariant at index %v was not of type string, type was %v", index, elem.Type)
	}
	if elem.Data == 0 {
		return "", fmt.Errorf("EvtVariant at index %v has nil data", index)
	}

	// The string lives inside the render buffer; locate it by offset so the
	// read stays bounded by the buffer.
	base := uintptr(unsafe.Pointer(&e[0]))
	ptr := uintptr(elem.Data)
	if ptr < base || ptr >= base+uintptr(len(e)) {
		return "", fmt.Errorf("EvtVariant at index %v points outside the render buffer", index)
	}
	tail := e[ptr-base:]
	wide := unsafe.Slice((*uint16)(unsafe.Pointer(&tail[0])), len(tail)/2)
	return windows.UTF16ToString(wide), nil
}

/* Return the unsigned integer value at `index`. If the variable
   isn't a Byte, UInt16, UInt32 or UInt64 an error is returned. */
func (e EvtVariant) Uint(index uint32) (uint64, error) {
	elem, err := e.elemAt(index)
	if err != nil {
		return 0, err
	}
	switch elem.Type {
	case EvtVarTypeByte:
		return uint64(byte(elem.Data)), nil
	case EvtVarTypeUInt16:
		return uint64(uint16(elem.Data)), nil
	case EvtVarTypeUInt32:
		return uint64(uint32(elem.Data)), nil
	case EvtVarTypeUInt64:
		return elem.Data, nil
	default:
		return 0, fmt.Errorf("EvtVariant at index %v was not an unsigned integer, type is %v", index, elem.Type)
	}
}

/* Return the FileTime at `index`, converted to time.Time. If the
   variable isn't a FileTime an error is returned */
func (e EvtVariant) FileTime(index uint32) (time.Time, error) {
	elem, err := e.elemAt(index)
	if err != nil {
		return time.Time{}, err
	}
	if elem.Type != EvtVarTypeFileTime {
		return time.Time{}, fmt.Errorf("EvtVariant at index %v was not of type FileTime, type was %v", index, elem.Type)
	}
	ft := windows.Filetime{LowDateTime: uint32(elem.Data), HighDateTime: uint32(elem.Data >> 32)}
	return time.Unix(0, ft.Nanoseconds()), nil
}

/* Return whether the variable at `index` is missing or has null type */
func (e EvtVariant) IsNull(index uint32) bool {
	elem, err := e.elemAt(index)
	return err != nil || elem.Type == EvtVarTypeNull
}
