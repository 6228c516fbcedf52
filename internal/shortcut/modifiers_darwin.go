package shortcut

import "golang.design/x/hotkey"

var modifiers = map[string]hotkey.Modifier{
	"cmdorctrl":        hotkey.ModCmd,
	"commandorcontrol": hotkey.ModCmd,
	"cmd":              hotkey.ModCmd,
	"command":          hotkey.ModCmd,
	"super":            hotkey.ModCmd,
	"ctrl":             hotkey.ModCtrl,
	"control":          hotkey.ModCtrl,
	"shift":            hotkey.ModShift,
	"alt":              hotkey.ModOption,
	"option":           hotkey.ModOption,
}
