// Package keyboard decodes PC scancode set 1 key codes into ASCII.
package keyboard

import "errors"

const (
	KeyEscape     byte = 0x01
	KeyBackspace  byte = 0x0E
	KeyTab        byte = 0x0F
	KeyEnter      byte = 0x1C
	KeyLeftCtrl   byte = 0x1D
	KeyLeftShift  byte = 0x2A
	KeyRightShift byte = 0x36
	KeyLeftAlt    byte = 0x38
	KeySpace      byte = 0x39

	// ReleaseBit is set on the scancode sent when a key goes up.
	ReleaseBit byte = 0x80
)

var ErrUnencodable = errors.New("character has no scancode in this layout")

// Layout translates key codes to characters.
type Layout interface {
	KeyToASCII(code byte) (byte, bool)
	ShiftKeyToASCII(code byte) (byte, bool)
}

const (
	usPlain   = "\x00\x1b1234567890-=\b\tqwertyuiop[]\n\x00asdfghjkl;'`\x00\\zxcvbnm,./\x00*\x00 "
	usShifted = "\x00\x1b!@#$%^&*()_+\b\tQWERTYUIOP{}\n\x00ASDFGHJKL:\"~\x00|ZXCVBNM<>?\x00*\x00 "
)

// US is the US QWERTY layout.
var US Layout = usLayout{}

type usLayout struct{}

func lookup(table string, code byte) (byte, bool) {
	if int(code) >= len(table) {
		return 0, false
	}
	c := table[code]
	return c, c != 0
}

func (usLayout) KeyToASCII(code byte) (byte, bool) {
	return lookup(usPlain, code)
}

func (usLayout) ShiftKeyToASCII(code byte) (byte, bool) {
	return lookup(usShifted, code)
}

func IsShift(code byte) bool {
	return code == KeyLeftShift || code == KeyRightShift
}

func IsRelease(code byte) bool {
	return code&ReleaseBit != 0
}

type keyRef struct {
	code    byte
	shifted bool
}

var reverse = buildReverse()

func buildReverse() map[byte]keyRef {
	m := make(map[byte]keyRef)
	for i := len(usShifted) - 1; i > 0; i-- {
		if c := usShifted[i]; c != 0 {
			m[c] = keyRef{code: byte(i), shifted: true}
		}
	}
	// plain entries win for keys present in both tables
	for i := len(usPlain) - 1; i > 0; i-- {
		if c := usPlain[i]; c != 0 {
			m[c] = keyRef{code: byte(i)}
		}
	}
	return m
}

// Encode returns the press and release scancodes that type text on the US
// layout, wrapping shifted characters in left shift press and release.
func Encode(text string) ([]byte, error) {
	out := make([]byte, 0, len(text)*2)
	for i := 0; i < len(text); i++ {
		ref, ok := reverse[text[i]]
		if !ok {
			return nil, ErrUnencodable
		}
		if ref.shifted {
			out = append(out, KeyLeftShift)
		}
		out = append(out, ref.code, ref.code|ReleaseBit)
		if ref.shifted {
			out = append(out, KeyLeftShift|ReleaseBit)
		}
	}
	return out, nil
}

// Press returns the scancode pair for tapping a single key.
func Press(code byte) []byte {
	return []byte{code, code | ReleaseBit}
}
