//go:build windows

package wm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"winhotkeys/keys"
)

const (
	wmHotkey  = 0x0312
	wmUser    = 0x0400
	wmCleanup = wmUser + 1

	// ERROR_HOTKEY_ALREADY_REGISTERED
	errHotkeyAlreadyRegistered = 1409
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey   = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32.NewProc("UnregisterHotKey")
	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procUnregisterClassW = user32.NewProc("UnregisterClassW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procGetMessageW      = user32.NewProc("GetMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
	procPostMessageW     = user32.NewProc("PostMessageW")
)

type point struct {
	x, y int32
}

type msg struct {
	hwnd    windows.Handle
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

var (
	wndprocOnce sync.Once
	wndprocPtr  uintptr

	// Each endpoint registers its own window class; the counter keeps the
	// names unique across listeners in the process.
	classCounter atomic.Uint64
)

// All WM_HOTKEY delivery happens through the thread message queue, so the
// window procedure only has to hand everything to DefWindowProc.
func wndproc() uintptr {
	wndprocOnce.Do(func() {
		wndprocPtr = windows.NewCallback(func(hwnd, m, wparam, lparam uintptr) uintptr {
			ret, _, _ := procDefWindowProcW.Call(hwnd, m, wparam, lparam)
			return ret
		})
	})
	return wndprocPtr
}

type windowsEndpoint struct {
	hwnd      windows.Handle
	hinstance windows.Handle
	className *uint16
}

// Open registers a window class and creates the hidden receiver window. It
// must be called on a goroutine locked to its OS thread; the returned
// endpoint is bound to that thread for message delivery.
func Open() (Endpoint, error) {
	var hinstance windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &hinstance); err != nil {
		return nil, fmt.Errorf("getting module handle: %w", err)
	}

	name := fmt.Sprintf("WinHotkeysRecv%d", classCounter.Add(1))
	className, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}

	wc := wndClassEx{
		lpfnWndProc:   wndproc(),
		hInstance:     hinstance,
		lpszClassName: className,
	}
	wc.cbSize = uint32(unsafe.Sizeof(wc))
	if atom, _, errno := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		return nil, fmt.Errorf("registering window class %s: %w", name, errno)
	}

	// A plain hidden top-level window, not a message-only one: message-only
	// windows miss certain broadcast messages and this endpoint is cheap.
	hwnd, _, errno := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(className)),
		0,
		0, 0, 0, 0,
		0,
		0,
		uintptr(hinstance),
		0,
	)
	if hwnd == 0 {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), uintptr(hinstance))
		return nil, fmt.Errorf("creating receiver window: %w", errno)
	}

	return &windowsEndpoint{
		hwnd:      windows.Handle(hwnd),
		hinstance: hinstance,
		className: className,
	}, nil
}

func (e *windowsEndpoint) Handle() Handle {
	return Handle(e.hwnd)
}

func (e *windowsEndpoint) Register(id int, mods keys.Modifiers, key keys.Code) error {
	ret, _, errno := procRegisterHotKey.Call(
		uintptr(e.hwnd),
		uintptr(id),
		uintptr(mods),
		uintptr(key),
	)
	if ret == 0 {
		if en, ok := errno.(syscall.Errno); ok {
			if en == errHotkeyAlreadyRegistered {
				return ErrAlreadyClaimed
			}
			return &RegistrationError{Code: uint32(en), Err: errno}
		}
		return &RegistrationError{Err: errno}
	}
	return nil
}

func (e *windowsEndpoint) Unregister(id int) error {
	ret, _, errno := procUnregisterHotKey.Call(uintptr(e.hwnd), uintptr(id))
	if ret == 0 {
		return fmt.Errorf("unregistering hotkey id %d: %w", id, errno)
	}
	return nil
}

func (e *windowsEndpoint) Next() (Event, bool) {
	var m msg
	ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
	if r := int32(ret); r == 0 || r == -1 {
		// 0 is WM_QUIT, -1 a dead queue; either way the pump is over.
		return Event{}, false
	}

	switch m.message {
	case wmHotkey:
		return Event{Kind: KindHotkey, ID: int(m.wParam)}, true
	case wmCleanup:
		return Event{Kind: KindCleanup}, true
	default:
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		return Event{Kind: KindOther}, true
	}
}

// PostCleanup is the one cross-thread entry point: PostMessageW enqueues into
// the owning thread's queue regardless of the calling thread.
func (e *windowsEndpoint) PostCleanup() {
	procPostMessageW.Call(uintptr(e.hwnd), wmCleanup, 0, 0)
}

func (e *windowsEndpoint) Close() {
	procDestroyWindow.Call(uintptr(e.hwnd))
	procUnregisterClassW.Call(uintptr(unsafe.Pointer(e.className)), uintptr(e.hinstance))
}
