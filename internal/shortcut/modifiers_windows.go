package shortcut

import "golang.design/x/hotkey"

var modifiers = map[string]hotkey.Modifier{
	"cmdorctrl":        hotkey.ModCtrl,
	"commandorcontrol": hotkey.ModCtrl,
	"ctrl":             hotkey.ModCtrl,
	"control":          hotkey.ModCtrl,
	"shift":            hotkey.ModShift,
	"alt":              hotkey.ModAlt,
	"option":           hotkey.ModAlt,
	"cmd":              hotkey.ModWin,
	"command":          hotkey.ModWin,
	"super":            hotkey.ModWin,
}
