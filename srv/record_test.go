package srv

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// appendUint16s appends the given values in network byte order.
func appendUint16s(b []byte, vs ...uint16) []byte {
	for _, v := range vs {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	return b
}

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

func TestParseRecord(t *testing.T) {
	for _, c := range []struct {
		name   string
		target string
		want   Record
	}{
		{"Nominal", "goose.down", Record{10, 20, 5060, "goose.down"}},
		{"RootTarget", "", Record{10, 20, 5060, ""}},
	} {
		t.Run(c.name, func(t *testing.T) {
			rdata := appendUint16s(nil, c.want.Priority, c.want.Weight, c.want.Port)
			rdata = appendName(rdata, c.target)

			r, err := ParseRecord(rdata, 0, len(rdata))
			if err != nil {
				t.Fatal(err)
			}
			if r != c.want {
				t.Errorf("ParseRecord = %v, want %v", r, c.want)
			}
		})
	}
}

func TestParseRecordCompressedTarget(t *testing.T) {
	// Answer buffer carrying "goose.feathers" ahead of the RDATA, with
	// the record's target pointing back into it.
	msg := appendName(nil, "goose.feathers")
	off := len(msg)
	msg = appendUint16s(msg, 10, 20, 5060)
	msg = append(msg, 4, 'd', 'o', 'w', 'n', 0xC0, 6)
	n := len(msg) - off

	r, err := ParseRecord(msg, off, n)
	if err != nil {
		t.Fatal(err)
	}
	want := Record{10, 20, 5060, "down.feathers"}
	if r != want {
		t.Errorf("ParseRecord = %v, want %v", r, want)
	}
}

func TestParseRecordIdempotent(t *testing.T) {
	rdata := appendUint16s(nil, 10, 20, 5060)
	rdata = appendName(rdata, "goose.down")

	r1, err := ParseRecord(rdata, 0, len(rdata))
	if err != nil {
		t.Fatal(err)
	}
	r2, err := ParseRecord(rdata, 0, len(rdata))
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Errorf("ParseRecord not idempotent: %v != %v", r1, r2)
	}
}

func TestParseRecordRejected(t *testing.T) {
	full := appendUint16s(nil, 10, 20, 5060)
	fullWithName := appendName(append([]byte{}, full...), "goose.down")

	for _, c := range []struct {
		name    string
		rdata   []byte
		wantErr error
	}{
		{"Empty", nil, ErrTruncatedFields},
		{"PriorityOnly", full[:2], ErrTruncatedFields},
		{"MissingPort", full[:4], ErrTruncatedFields},
		{"PortTruncated", full[:5], ErrTruncatedFields},
		{"MissingTarget", full, ErrBadTarget},
		{"TargetUnterminated", fullWithName[:len(fullWithName)-1], ErrBadTarget},
		{"TargetLabelTruncated", append(append([]byte{}, full...), 5, 'g'), ErrBadTarget},
	} {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseRecord(c.rdata, 0, len(c.rdata)); !errors.Is(err, c.wantErr) {
				t.Errorf("ParseRecord error = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestParseRecordTargetOutsideRDATA(t *testing.T) {
	// The message continues past the RDATA with the next record's owner
	// name, so a missing or overlong target has valid bytes to steal.
	msg := appendUint16s(nil, 10, 20, 5060)
	boundary := len(msg)
	msg = appendName(msg, "next.record.owner")

	for _, c := range []struct {
		name string
		n    int
	}{
		{"NoTarget", boundary},
		{"TargetStraddlesBoundary", boundary + 5},
	} {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseRecord(msg, 0, c.n); !errors.Is(err, ErrBadTarget) {
				t.Errorf("ParseRecord error = %v, want %v", err, ErrBadTarget)
			}
		})
	}
}

func TestParseRecordBadBounds(t *testing.T) {
	rdata := appendUint16s(nil, 10, 20, 5060)
	rdata = appendName(rdata, "goose.down")

	for _, c := range []struct {
		name   string
		off, n int
	}{
		{"NegativeOffset", -1, len(rdata)},
		{"NegativeLength", 0, -1},
		{"LengthPastEnd", 0, len(rdata) + 1},
	} {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseRecord(rdata, c.off, c.n); !errors.Is(err, ErrTruncatedFields) {
				t.Errorf("ParseRecord error = %v, want %v", err, ErrTruncatedFields)
			}
		})
	}
}
