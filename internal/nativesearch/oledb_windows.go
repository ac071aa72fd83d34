//go:build windows

package nativesearch

import (
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// OLE DB interfaces used to talk to the Windows Search provider
// (Search.CollatorDSO). Only the vtable slots that are called are named.

var (
	clsidMSDAInitialize = win.CLSID{Data1: 0x2206CDB0, Data2: 0x19C1, Data3: 0x11D1, Data4: [8]byte{0x89, 0xE0, 0x00, 0xC0, 0x4F, 0xD7, 0xA8, 0x29}}

	iidIDataInitialize  = win.IID{Data1: 0x2206CCB1, Data2: 0x19C1, Data3: 0x11D1, Data4: [8]byte{0x89, 0xE0, 0x00, 0xC0, 0x4F, 0xD7, 0xA8, 0x29}}
	iidIDBInitialize    = win.IID{Data1: 0x0C733A8B, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
	iidIDBCreateSession = win.IID{Data1: 0x0C733A5D, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
	iidIDBCreateCommand = win.IID{Data1: 0x0C733A1D, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
	iidICommandText     = win.IID{Data1: 0x0C733A27, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
	iidIRowset          = win.IID{Data1: 0x0C733A7C, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
	iidIAccessor        = win.IID{Data1: 0x0C733A8C, Data2: 0x2A1C, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}

	// DBGUID_DEFAULT: the provider's default SQL dialect.
	dbguidDefault = windows.GUID{Data1: 0xC8B521FB, Data2: 0x5CF3, Data3: 0x11CE, Data4: [8]byte{0xAD, 0xE5, 0x00, 0xAA, 0x00, 0x44, 0x77, 0x3D}}
)

const (
	RPC_E_CHANGED_MODE = 0x80010106
	E_INVALIDARG       = 0x80070057

	DBACCESSOR_ROWDATA     = 0x2
	DBPART_VALUE           = 0x1
	DBMEMOWNER_CLIENTOWNED = 0x0
	DBPARAMIO_NOTPARAM     = 0x0
	DBTYPE_WSTR            = 130
)

type iDataInitializeVtbl struct {
	win.IUnknownVtbl
	GetDataSource           uintptr
	GetInitializationString uintptr
	CreateDBInstance        uintptr
	CreateDBInstanceEx      uintptr
	LoadStringFromStorage   uintptr
	WriteStringToStorage    uintptr
}

type iDataInitialize struct{ vtbl *iDataInitializeVtbl }

type iDBInitializeVtbl struct {
	win.IUnknownVtbl
	Initialize   uintptr
	Uninitialize uintptr
}

type iDBInitialize struct{ vtbl *iDBInitializeVtbl }

type iDBCreateSessionVtbl struct {
	win.IUnknownVtbl
	CreateSession uintptr
}

type iDBCreateSession struct{ vtbl *iDBCreateSessionVtbl }

type iDBCreateCommandVtbl struct {
	win.IUnknownVtbl
	CreateCommand uintptr
}

type iDBCreateCommand struct{ vtbl *iDBCreateCommandVtbl }

type iCommandTextVtbl struct {
	win.IUnknownVtbl
	// ICommand
	Cancel       uintptr
	Execute      uintptr
	GetDBSession uintptr
	// ICommandText
	GetCommandText uintptr
	SetCommandText uintptr
}

type iCommandText struct{ vtbl *iCommandTextVtbl }

type iRowsetVtbl struct {
	win.IUnknownVtbl
	AddRefRows      uintptr
	GetData         uintptr
	GetNextRows     uintptr
	ReleaseRows     uintptr
	RestartPosition uintptr
}

type iRowset struct{ vtbl *iRowsetVtbl }

type iAccessorVtbl struct {
	win.IUnknownVtbl
	AddRefAccessor  uintptr
	CreateAccessor  uintptr
	GetBindings     uintptr
	ReleaseAccessor uintptr
}

type iAccessor struct{ vtbl *iAccessorVtbl }

// dbBinding mirrors DBBINDING. Every field before wType is pointer sized or
// 4-byte aligned, so the Go layout matches both the 32-bit (pack 2) and the
// 64-bit (pack 8) header layouts.
type dbBinding struct {
	iOrdinal   uintptr
	obValue    uintptr
	obLength   uintptr
	obStatus   uintptr
	pTypeInfo  uintptr
	pObject    uintptr
	pBindExt   uintptr
	dwPart     uint32
	dwMemOwner uint32
	eParamIO   uint32
	cbMaxLen   uintptr
	dwFlags    uint32
	wType      uint16
	bPrecision uint8
	bScale     uint8
}

func failed(hr uintptr) bool {
	return win.FAILED(win.HRESULT(int32(uint32(hr))))
}

func comRelease(p unsafe.Pointer) {
	if p == nil {
		return
	}
	u := (*win.IUnknown)(p)
	_, _, _ = syscall.SyscallN(u.LpVtbl.Release, uintptr(p))
}

func comQueryInterface(p unsafe.Pointer, iid *win.IID) (unsafe.Pointer, uintptr) {
	u := (*win.IUnknown)(p)
	var out unsafe.Pointer
	hr, _, _ := syscall.SyscallN(u.LpVtbl.QueryInterface, uintptr(p), uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	return out, hr
}

// comOLEDB is the COM implementation of oledbAPI.
type comOLEDB struct{}

var (
	_ oledbAPI      = comOLEDB{}
	_ oledbAccessor = (*rowsetCursor)(nil)
)

func (comOLEDB) oleInitialize() (bool, uint32) {
	hr := uint32(win.OleInitialize())
	return hr == RPC_E_CHANGED_MODE, hr
}

func (comOLEDB) oleUninitialize() { win.OleUninitialize() }

func (comOLEDB) newDataInitialize() (oledbDataInit, uint32) {
	var unk unsafe.Pointer
	hr := win.CoCreateInstance(&clsidMSDAInitialize, nil, win.CLSCTX_INPROC_SERVER, &iidIDataInitialize, &unk)
	if win.FAILED(hr) || unk == nil {
		return nil, uint32(hr)
	}
	return (*iDataInitialize)(unk), uint32(hr)
}

func (d *iDataInitialize) release() { comRelease(unsafe.Pointer(d)) }

func (d *iDataInitialize) getDataSource(initString string) (oledbDataSource, uint32) {
	s, err := windows.UTF16PtrFromString(initString)
	if err != nil {
		return nil, E_INVALIDARG
	}
	var out *iDBInitialize
	hr, _, _ := syscall.SyscallN(
		d.vtbl.GetDataSource,
		uintptr(unsafe.Pointer(d)),
		0,
		uintptr(win.CLSCTX_INPROC_SERVER),
		uintptr(unsafe.Pointer(s)),
		uintptr(unsafe.Pointer(&iidIDBInitialize)),
		uintptr(unsafe.Pointer(&out)),
	)
	if failed(hr) || out == nil {
		return nil, uint32(hr)
	}
	return out, uint32(hr)
}

func (d *iDBInitialize) release() { comRelease(unsafe.Pointer(d)) }

func (d *iDBInitialize) initialize() uint32 {
	hr, _, _ := syscall.SyscallN(d.vtbl.Initialize, uintptr(unsafe.Pointer(d)))
	return uint32(hr)
}

func (d *iDBInitialize) uninitialize() uint32 {
	hr, _, _ := syscall.SyscallN(d.vtbl.Uninitialize, uintptr(unsafe.Pointer(d)))
	return uint32(hr)
}

func (d *iDBInitialize) sessionFactory() (oledbSessionFactory, uint32) {
	p, hr := comQueryInterface(unsafe.Pointer(d), &iidIDBCreateSession)
	if failed(hr) || p == nil {
		return nil, uint32(hr)
	}
	return (*iDBCreateSession)(p), uint32(hr)
}

func (s *iDBCreateSession) release() { comRelease(unsafe.Pointer(s)) }

func (s *iDBCreateSession) createSession() (oledbSession, uint32) {
	var out *iDBCreateCommand
	hr, _, _ := syscall.SyscallN(
		s.vtbl.CreateSession,
		uintptr(unsafe.Pointer(s)),
		0,
		uintptr(unsafe.Pointer(&iidIDBCreateCommand)),
		uintptr(unsafe.Pointer(&out)),
	)
	if failed(hr) || out == nil {
		return nil, uint32(hr)
	}
	return out, uint32(hr)
}

func (s *iDBCreateCommand) release() { comRelease(unsafe.Pointer(s)) }

func (s *iDBCreateCommand) createCommand() (oledbCommand, uint32) {
	var out *iCommandText
	hr, _, _ := syscall.SyscallN(
		s.vtbl.CreateCommand,
		uintptr(unsafe.Pointer(s)),
		0,
		uintptr(unsafe.Pointer(&iidICommandText)),
		uintptr(unsafe.Pointer(&out)),
	)
	if failed(hr) || out == nil {
		return nil, uint32(hr)
	}
	return out, uint32(hr)
}

func (c *iCommandText) release() { comRelease(unsafe.Pointer(c)) }

func (c *iCommandText) setCommandText(sql string) uint32 {
	text, err := windows.UTF16PtrFromString(sql)
	if err != nil {
		return E_INVALIDARG
	}
	hr, _, _ := syscall.SyscallN(
		c.vtbl.SetCommandText,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(&dbguidDefault)),
		uintptr(unsafe.Pointer(text)),
	)
	return uint32(hr)
}

func (c *iCommandText) execute() (oledbRowset, uint32) {
	var out *iRowset
	hr, _, _ := syscall.SyscallN(
		c.vtbl.Execute,
		uintptr(unsafe.Pointer(c)),
		0,
		uintptr(unsafe.Pointer(&iidIRowset)),
		0,
		0,
		uintptr(unsafe.Pointer(&out)),
	)
	if failed(hr) || out == nil {
		return nil, uint32(hr)
	}
	return out, uint32(hr)
}

func (r *iRowset) release() { comRelease(unsafe.Pointer(r)) }

func (r *iRowset) accessor() (oledbAccessor, uint32) {
	p, hr := comQueryInterface(unsafe.Pointer(r), &iidIAccessor)
	if failed(hr) || p == nil {
		return nil, uint32(hr)
	}
	return &rowsetCursor{rowset: r, accessor: (*iAccessor)(p)}, uint32(hr)
}

// getNextRows fetches one row. The provider allocates the row handle array
// with the COM task allocator; the caller frees it with CoTaskMemFree.
func (r *iRowset) getNextRows() (rows *uintptr, obtained uintptr, hr uintptr) {
	hr, _, _ = syscall.SyscallN(
		r.vtbl.GetNextRows,
		uintptr(unsafe.Pointer(r)),
		0, // DB_NULL_HCHAPTER
		0,
		1,
		uintptr(unsafe.Pointer(&obtained)),
		uintptr(unsafe.Pointer(&rows)),
	)
	return rows, obtained, hr
}

func (r *iRowset) getData(hrow, hacc uintptr, buf []uint16) uintptr {
	hr, _, _ := syscall.SyscallN(
		r.vtbl.GetData,
		uintptr(unsafe.Pointer(r)),
		hrow,
		hacc,
		uintptr(unsafe.Pointer(&buf[0])),
	)
	return hr
}

func (r *iRowset) releaseRows(hrow uintptr) uintptr {
	hr, _, _ := syscall.SyscallN(
		r.vtbl.ReleaseRows,
		uintptr(unsafe.Pointer(r)),
		1,
		uintptr(unsafe.Pointer(&hrow)),
		0,
		0,
		0,
	)
	return hr
}

// createAccessor binds column ordinal as a NUL-terminated WCHAR string of at
// most cbMaxLen bytes at offset 0 of the caller's buffer.
func (a *iAccessor) createAccessor(ordinal int, cbMaxLen uintptr) (uintptr, uintptr) {
	binding := dbBinding{
		iOrdinal:   uintptr(ordinal),
		dwPart:     DBPART_VALUE,
		dwMemOwner: DBMEMOWNER_CLIENTOWNED,
		eParamIO:   DBPARAMIO_NOTPARAM,
		cbMaxLen:   cbMaxLen,
		wType:      DBTYPE_WSTR,
	}
	var (
		hacc   uintptr
		status uint32
	)
	hr, _, _ := syscall.SyscallN(
		a.vtbl.CreateAccessor,
		uintptr(unsafe.Pointer(a)),
		DBACCESSOR_ROWDATA,
		1,
		uintptr(unsafe.Pointer(&binding)),
		0,
		uintptr(unsafe.Pointer(&hacc)),
		uintptr(unsafe.Pointer(&status)),
	)
	return hacc, hr
}

func (a *iAccessor) releaseAccessor(hacc uintptr) uintptr {
	hr, _, _ := syscall.SyscallN(
		a.vtbl.ReleaseAccessor,
		uintptr(unsafe.Pointer(a)),
		hacc,
		0,
	)
	return hr
}
