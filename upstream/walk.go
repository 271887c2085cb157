package upstream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/srvdns/srvdns-go/dnsname"
	"github.com/srvdns/srvdns-go/resolver"
	"go.uber.org/zap"
	"golang.org/x/net/dns/dnsmessage"
)

// headerSize is the fixed size of a DNS message header.
const headerSize = 12

var errShortMessage = errors.New("message too short")

// responseMatches reports whether msg is a response to the query with
// the given transaction ID.
func responseMatches(msg []byte, queryID uint16) bool {
	var parser dnsmessage.Parser
	header, err := parser.Start(msg)
	if err != nil {
		return false
	}
	return header.ID == queryID && header.Response
}

// responseTruncated reports whether msg has the truncated bit set.
func responseTruncated(msg []byte) bool {
	var parser dnsmessage.Parser
	header, err := parser.Start(msg)
	return err == nil && header.Truncated
}

// deliver walks msg's answer section, hands each record to the session,
// and completes the query with the response code.
func (b *Backend) deliver(q *resolver.Query, msg []byte) {
	var parser dnsmessage.Parser
	header, err := parser.Start(msg)
	if err != nil {
		q.Fail(fmt.Errorf("failed to parse response header: %w", err))
		return
	}

	if err := walkAnswers(q, msg); err != nil {
		b.logger.Warn("Malformed answer section",
			zap.String("upstream", b.name),
			zap.String("name", q.Name()),
			zap.Stringer("serverAddrPort", b.serverAddrPort),
			zap.Error(err),
		)
		q.Fail(err)
		return
	}

	if ce := b.logger.Check(zap.DebugLevel, "SRV query completed"); ce != nil {
		ce.Write(
			zap.String("upstream", b.name),
			zap.String("name", q.Name()),
			zap.Stringer("serverAddrPort", b.serverAddrPort),
			zap.Stringer("RCode", header.RCode),
		)
	}
	q.Complete(header.RCode, q.Name(), msg)
}

// walkAnswers walks the question and answer sections of msg at the wire
// level and delivers each answer's type, class, TTL and raw RDATA to q.
// The raw walk keeps RDATA offsets, which the session's validator needs
// and [dnsmessage.Parser] does not expose.
func walkAnswers(q *resolver.Query, msg []byte) error {
	if len(msg) < headerSize {
		return errShortMessage
	}
	qdcount := int(binary.BigEndian.Uint16(msg[4:]))
	ancount := int(binary.BigEndian.Uint16(msg[6:]))

	off := headerSize
	var err error

	for i := 0; i < qdcount; i++ {
		if off, err = dnsname.Skip(msg, off); err != nil {
			return fmt.Errorf("bad question %d: %w", i, err)
		}
		// QTYPE and QCLASS.
		off += 4
		if off > len(msg) {
			return errShortMessage
		}
	}

	for i := 0; i < ancount; i++ {
		if off, err = dnsname.Skip(msg, off); err != nil {
			return fmt.Errorf("bad answer %d: %w", i, err)
		}
		if off+10 > len(msg) {
			return errShortMessage
		}

		typ := dnsmessage.Type(binary.BigEndian.Uint16(msg[off:]))
		class := dnsmessage.Class(binary.BigEndian.Uint16(msg[off+2:]))
		ttl := binary.BigEndian.Uint32(msg[off+4:])
		rdlength := int(binary.BigEndian.Uint16(msg[off+8:]))
		off += 10

		if off+rdlength > len(msg) {
			return errShortMessage
		}
		q.AddRecord(typ, class, ttl, msg, off, rdlength)
		off += rdlength
	}

	return nil
}
