//go:build windows

package keys

import "golang.org/x/sys/windows"

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procVkKeyScanW = user32.NewProc("VkKeyScanW")
)

// layoutQuery asks the active keyboard layout for the virtual-key code of a
// character. The low byte of VkKeyScanW is the code; -1 means no mapping.
func layoutQuery(r rune) (Code, bool) {
	ret, _, _ := procVkKeyScanW.Call(uintptr(r))
	if int16(ret) == -1 {
		return 0, false
	}
	return Code(ret & 0xFF), true
}
