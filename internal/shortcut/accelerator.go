package shortcut

import (
	"errors"
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// DefaultAccelerator is the save shortcut: Cmd+S on macOS, Ctrl+S elsewhere.
const DefaultAccelerator = "CmdOrCtrl+S"

// ErrInvalidAccelerator is returned for accelerators that cannot be parsed.
var ErrInvalidAccelerator = errors.New("invalid accelerator")

// Accelerator is a parsed key combination.
type Accelerator struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
}

var keys = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
}

// ParseAccelerator parses strings such as "CmdOrCtrl+S" or "Ctrl+Shift+N".
// Modifier names are case-insensitive; the last element must be a letter or digit.
func ParseAccelerator(s string) (Accelerator, error) {
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return Accelerator{}, fmt.Errorf("%w %q: need at least one modifier and a key", ErrInvalidAccelerator, s)
	}

	keyName := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	key, ok := keys[keyName]
	if !ok {
		return Accelerator{}, fmt.Errorf("%w %q: unsupported key %q", ErrInvalidAccelerator, s, keyName)
	}

	acc := Accelerator{Key: key}
	seen := make(map[hotkey.Modifier]bool)
	for _, part := range parts[:len(parts)-1] {
		name := strings.ToLower(strings.TrimSpace(part))
		mod, ok := modifiers[name]
		if !ok {
			return Accelerator{}, fmt.Errorf("%w %q: unsupported modifier %q", ErrInvalidAccelerator, s, part)
		}
		if seen[mod] {
			continue
		}
		seen[mod] = true
		acc.Modifiers = append(acc.Modifiers, mod)
	}

	return acc, nil
}
