package shortcut

import "golang.design/x/hotkey"

// X11 maps Alt to Mod1 and Super to Mod4 on common layouts.
var modifiers = map[string]hotkey.Modifier{
	"cmdorctrl":        hotkey.ModCtrl,
	"commandorcontrol": hotkey.ModCtrl,
	"ctrl":             hotkey.ModCtrl,
	"control":          hotkey.ModCtrl,
	"shift":            hotkey.ModShift,
	"alt":              hotkey.Mod1,
	"option":           hotkey.Mod1,
	"cmd":              hotkey.Mod4,
	"command":          hotkey.Mod4,
	"super":            hotkey.Mod4,
}
