// Package dnsname decodes domain names at arbitrary offsets in a DNS
// message buffer, following the RFC 1035 label and compression pointer
// rules.
package dnsname

import "errors"

const (
	// maxNameLength is the maximum total length of an encoded name.
	// A plain label never exceeds 63 bytes, as the two top bits of its
	// length octet are the (clear) label type.
	maxNameLength = 255

	pointerMask = 0xC0
)

var (
	ErrTruncatedName   = errors.New("name extends past end of buffer")
	ErrNameTooLong     = errors.New("name exceeds 255 bytes")
	ErrBadLabelType    = errors.New("reserved label type")
	ErrBadPointer      = errors.New("compression pointer does not point backward")
	ErrInvalidPosition = errors.New("name position out of range")
)

// Decode decodes the possibly-compressed domain name starting at off in msg.
// It returns the name in dotted form without a trailing dot (the root name
// decodes to the empty string) and the offset of the first byte after the
// name in the original (uncompressed) run.
func Decode(msg []byte, off int) (string, int, error) {
	if off < 0 || off >= len(msg) {
		return "", 0, ErrInvalidPosition
	}

	var (
		name    []byte
		encoded int
		next    = -1
	)

	for {
		if off >= len(msg) {
			return "", 0, ErrTruncatedName
		}

		c := int(msg[off])
		switch c & pointerMask {
		case 0x00:
			if c == 0 {
				if next == -1 {
					next = off + 1
				}
				return string(name), next, nil
			}
			if off+1+c > len(msg) {
				return "", 0, ErrTruncatedName
			}
			encoded += 1 + c
			if encoded > maxNameLength {
				return "", 0, ErrNameTooLong
			}
			if len(name) > 0 {
				name = append(name, '.')
			}
			name = append(name, msg[off+1:off+1+c]...)
			off += 1 + c

		case pointerMask:
			if off+1 >= len(msg) {
				return "", 0, ErrTruncatedName
			}
			ptr := (c&^pointerMask)<<8 | int(msg[off+1])
			// A pointer must target an earlier occurrence; this also
			// bounds the chase, as each jump strictly decreases off.
			if ptr >= off {
				return "", 0, ErrBadPointer
			}
			if next == -1 {
				next = off + 2
			}
			off = ptr

		default:
			// 0x40 and 0x80 label types are reserved.
			return "", 0, ErrBadLabelType
		}
	}
}

// Skip returns the offset of the first byte after the possibly-compressed
// domain name starting at off in msg.
func Skip(msg []byte, off int) (int, error) {
	if off < 0 || off >= len(msg) {
		return 0, ErrInvalidPosition
	}

	for {
		if off >= len(msg) {
			return 0, ErrTruncatedName
		}

		c := int(msg[off])
		switch c & pointerMask {
		case 0x00:
			if c == 0 {
				return off + 1, nil
			}
			if off+1+c > len(msg) {
				return 0, ErrTruncatedName
			}
			off += 1 + c

		case pointerMask:
			if off+1 >= len(msg) {
				return 0, ErrTruncatedName
			}
			return off + 2, nil

		default:
			return 0, ErrBadLabelType
		}
	}
}
