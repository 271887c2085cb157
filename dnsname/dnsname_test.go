package dnsname

import (
	"errors"
	"strings"
	"testing"
)

// appendName appends the uncompressed wire form of a dotted name.
func appendName(b []byte, name string) []byte {
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			b = append(b, byte(len(label)))
			b = append(b, label...)
		}
	}
	return append(b, 0)
}

func TestDecode(t *testing.T) {
	msg := appendName(nil, "goose.feathers")
	nameEnd := len(msg)
	msg = appendName(msg, "")
	rootEnd := len(msg)
	// "down." + pointer to "feathers".
	ptrStart := len(msg)
	msg = append(msg, 4, 'd', 'o', 'w', 'n', 0xC0, 6)
	ptrEnd := len(msg)

	for _, c := range []struct {
		testName string
		off      int
		want     string
		wantNext int
	}{
		{"Plain", 0, "goose.feathers", nameEnd},
		{"Root", nameEnd, "", rootEnd},
		{"Compressed", ptrStart, "down.feathers", ptrEnd},
		{"AtPointerTarget", 6, "feathers", nameEnd},
	} {
		t.Run(c.testName, func(t *testing.T) {
			name, next, err := Decode(msg, c.off)
			if err != nil {
				t.Fatal(err)
			}
			if name != c.want {
				t.Errorf("Decode(msg, %d) name = %q, want %q", c.off, name, c.want)
			}
			if next != c.wantNext {
				t.Errorf("Decode(msg, %d) next = %d, want %d", c.off, next, c.wantNext)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	good := appendName(nil, "goose.feathers")

	for _, c := range []struct {
		testName string
		msg      []byte
		off      int
		wantErr  error
	}{
		{"EmptyBuffer", nil, 0, ErrInvalidPosition},
		{"OffsetPastEnd", good, len(good), ErrInvalidPosition},
		{"MissingTerminator", good[:len(good)-1], 0, ErrTruncatedName},
		{"LabelPastEnd", []byte{5, 'g', 'o'}, 0, ErrTruncatedName},
		{"ForwardPointer", []byte{0xC0, 2, 0}, 0, ErrBadPointer},
		{"SelfPointer", []byte{0xC0, 0}, 0, ErrBadPointer},
		{"TruncatedPointer", []byte{0xC0}, 0, ErrTruncatedName},
		{"ReservedLabelType", []byte{0x40, 0}, 0, ErrBadLabelType},
	} {
		t.Run(c.testName, func(t *testing.T) {
			if _, _, err := Decode(c.msg, c.off); !errors.Is(err, c.wantErr) {
				t.Errorf("Decode error = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestDecodeNameTooLong(t *testing.T) {
	var b []byte
	for i := 0; i < 5; i++ {
		b = append(b, 63)
		b = append(b, make([]byte, 63)...)
	}
	b = append(b, 0)

	if _, _, err := Decode(b, 0); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Decode error = %v, want %v", err, ErrNameTooLong)
	}
}

func TestSkip(t *testing.T) {
	msg := appendName(nil, "goose.feathers")
	nameEnd := len(msg)
	msg = append(msg, 0xC0, 0)
	ptrEnd := len(msg)
	msg = appendName(msg, "")
	rootEnd := len(msg)

	for _, c := range []struct {
		testName string
		off      int
		want     int
	}{
		{"Plain", 0, nameEnd},
		{"Pointer", nameEnd, ptrEnd},
		{"Root", ptrEnd, rootEnd},
	} {
		t.Run(c.testName, func(t *testing.T) {
			next, err := Skip(msg, c.off)
			if err != nil {
				t.Fatal(err)
			}
			if next != c.want {
				t.Errorf("Skip(msg, %d) = %d, want %d", c.off, next, c.want)
			}
		})
	}

	if _, err := Skip(msg[:3], 0); !errors.Is(err, ErrTruncatedName) {
		t.Errorf("Skip error = %v, want %v", err, ErrTruncatedName)
	}
}
