// Package srv validates SRV resource records and arranges record sets
// into the RFC 2782 priority/weight target order.
package srv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/srvdns/srvdns-go/dnsname"
)

// fixedFieldsSize is the encoded size of the priority, weight and port
// fields that precede the target name in SRV RDATA.
const fixedFieldsSize = 6

var (
	// ErrTruncatedFields indicates that the RDATA ended before all of
	// priority, weight and port could be read.
	ErrTruncatedFields = errors.New("srv: truncated fixed fields")

	// ErrBadTarget indicates that the target name is absent, truncated,
	// or otherwise undecodable.
	ErrBadTarget = errors.New("srv: missing or malformed target name")
)

// Record is a validated SRV resource record.
// Lower Priority values are tried first; Weight breaks ties.
type Record struct {
	Priority uint16 `json:"priority"`
	Weight   uint16 `json:"weight"`
	Port     uint16 `json:"port"`

	// Target is the target host in dotted form without a trailing dot.
	// The root name is represented as the empty string.
	Target string `json:"target"`
}

func (r Record) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Priority, r.Weight, r.Port, r.Target)
}

// ParseRecord validates the n bytes of SRV RDATA at msg[off:] and
// returns the record.
//
// msg is the enclosing answer message, so the target name's compression
// pointers, if any, resolve against earlier message bytes. The target's
// own labels must still lie within the RDATA; a record whose name would
// spill into the following message bytes is rejected, as are records
// missing any of the four mandatory fields. For a standalone RDATA
// buffer, pass it as msg with off 0.
func ParseRecord(msg []byte, off, n int) (Record, error) {
	if off < 0 || n < 0 || off+n > len(msg) {
		return Record{}, ErrTruncatedFields
	}
	if n < fixedFieldsSize {
		return Record{}, ErrTruncatedFields
	}

	target, next, err := dnsname.Decode(msg, off+fixedFieldsSize)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrBadTarget, err)
	}
	if next > off+n {
		return Record{}, fmt.Errorf("%w: name runs past the RDATA boundary", ErrBadTarget)
	}

	rdata := msg[off:]
	return Record{
		Priority: binary.BigEndian.Uint16(rdata),
		Weight:   binary.BigEndian.Uint16(rdata[2:]),
		Port:     binary.BigEndian.Uint16(rdata[4:]),
		Target:   target,
	}, nil
}
