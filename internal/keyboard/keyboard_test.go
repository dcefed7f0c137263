package keyboard

import (
	"bytes"
	"errors"
	"testing"
)

func TestUS_KeyToASCII(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		shifted bool
		want    byte
		wantOK  bool
	}{
		{name: "letter a", code: 0x1E, want: 'a', wantOK: true},
		{name: "shifted letter a", code: 0x1E, shifted: true, want: 'A', wantOK: true},
		{name: "digit one", code: 0x02, want: '1', wantOK: true},
		{name: "shifted digit one", code: 0x02, shifted: true, want: '!', wantOK: true},
		{name: "enter", code: KeyEnter, want: '\n', wantOK: true},
		{name: "space", code: KeySpace, want: ' ', wantOK: true},
		{name: "left shift has no character", code: KeyLeftShift, wantOK: false},
		{name: "ctrl has no character", code: KeyLeftCtrl, wantOK: false},
		{name: "out of table", code: 0x58, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got byte
			var ok bool
			if tt.shifted {
				got, ok = US.ShiftKeyToASCII(tt.code)
			} else {
				got, ok = US.KeyToASCII(tt.code)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []byte
		wantErr error
	}{
		{
			name: "lowercase and newline",
			text: "i\n",
			want: []byte{0x17, 0x97, KeyEnter, KeyEnter | ReleaseBit},
		},
		{
			name: "uppercase wraps shift",
			text: "H",
			want: []byte{KeyLeftShift, 0x23, 0xA3, KeyLeftShift | ReleaseBit},
		},
		{
			name:    "non ascii",
			text:    "é",
			wantErr: ErrUnencodable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Encode() error = %v, want %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	const text = "Hello, World! 123 {x} ~`"
	codes, err := Encode(text)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var out []byte
	shift := false
	for _, c := range codes {
		if IsRelease(c) {
			if IsShift(c &^ ReleaseBit) {
				shift = false
			}
			continue
		}
		if IsShift(c) {
			shift = true
			continue
		}
		var ch byte
		var ok bool
		if shift {
			ch, ok = US.ShiftKeyToASCII(c)
		} else {
			ch, ok = US.KeyToASCII(c)
		}
		if ok {
			out = append(out, ch)
		}
	}

	if string(out) != text {
		t.Errorf("decoded %q, want %q", out, text)
	}
}
