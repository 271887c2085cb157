// Package upstream implements a resolver backend that sends SRV queries
// to a DNS server over UDP, falling back to TCP when the reply is
// truncated or UDP is unavailable.
package upstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/database64128/tfo-go/v2"
	"github.com/srvdns/srvdns-go/fastrand"
	"github.com/srvdns/srvdns-go/jsoncfg"
	"github.com/srvdns/srvdns-go/resolver"
	"go.uber.org/zap"
	"golang.org/x/net/dns/dnsmessage"
)

const (
	// maxDNSPacketSize is the maximum packet size to advertise in EDNS(0).
	// We use the same value as Go itself.
	maxDNSPacketSize = 1232

	defaultTimeout = 20 * time.Second

	// udpResendInterval is how long to wait for a UDP reply before
	// sending the query again.
	udpResendInterval = 2 * time.Second
)

var (
	// ErrCannotCancel is returned by Cancel when the query's answer has
	// already been committed.
	ErrCannotCancel = errors.New("query is no longer cancelable")

	errLookupTimeout = errors.New("lookup timed out")
)

// Config configures an upstream DNS backend.
type Config struct {
	// Name is the backend's name.
	Name string `json:"name"`

	// AddrPort is the upstream server's address and port.
	AddrPort netip.AddrPort `json:"addrPort"`

	// DisableUDP disables the initial UDP exchange.
	DisableUDP bool `json:"disableUDP"`

	// DisableTCP disables the TCP fallback exchange.
	DisableTCP bool `json:"disableTCP"`

	// DialerTFO enables TCP Fast Open on the fallback dialer.
	DialerTFO bool `json:"dialerTFO"`

	// Timeout is the overall per-query timeout. Defaults to 20s.
	Timeout jsoncfg.Duration `json:"timeout"`
}

// Backend returns an upstream backend from the config.
func (c *Config) Backend(logger *zap.Logger) (*Backend, error) {
	if !c.AddrPort.IsValid() {
		return nil, fmt.Errorf("invalid upstream server address: %s", c.AddrPort)
	}
	if c.DisableUDP && c.DisableTCP {
		return nil, errors.New("both UDP and TCP are disabled")
	}

	timeout := c.Timeout.Value()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Backend{
		name:           c.Name,
		serverAddrPort: c.AddrPort,
		disableUDP:     c.DisableUDP,
		disableTCP:     c.DisableTCP,
		dialer:         tfo.Dialer{DisableTFO: !c.DialerTFO},
		timeout:        timeout,
		logger:         logger,
		inflight:       make(map[*resolver.Query]chan struct{}),
	}, nil
}

// Backend issues SRV queries to a single upstream DNS server.
// It implements [resolver.Backend].
type Backend struct {
	// name stores the backend's name to make its log messages more useful.
	name string

	// serverAddrPort is the upstream server's address and port.
	serverAddrPort netip.AddrPort

	disableUDP bool
	disableTCP bool

	// dialer is used for the TCP fallback exchange.
	dialer tfo.Dialer

	// timeout bounds one whole query, both exchanges included.
	timeout time.Duration

	// logger is the shared logger instance.
	logger *zap.Logger

	// mu protects the in-flight query map.
	mu sync.Mutex

	// inflight maps dispatched queries to their stop channels.
	inflight map[*resolver.Query]chan struct{}
}

// Resolve implements [resolver.Backend.Resolve].
func (b *Backend) Resolve(q *resolver.Query) error {
	stop := make(chan struct{})
	b.mu.Lock()
	b.inflight[q] = stop
	b.mu.Unlock()

	go b.run(q, stop)
	return nil
}

// Cancel implements [resolver.Backend.Cancel].
func (b *Backend) Cancel(q *resolver.Query) error {
	b.mu.Lock()
	stop, ok := b.inflight[q]
	if ok {
		delete(b.inflight, q)
	}
	b.mu.Unlock()

	if !ok {
		return ErrCannotCancel
	}
	close(stop)
	return nil
}

// detach removes q from the in-flight map, claiming the right to commit
// its outcome. It reports false if the query was canceled first.
func (b *Backend) detach(q *resolver.Query) bool {
	b.mu.Lock()
	_, ok := b.inflight[q]
	if ok {
		delete(b.inflight, q)
	}
	b.mu.Unlock()
	return ok
}

func (b *Backend) run(q *resolver.Query, stop <-chan struct{}) {
	msg, err := b.exchange(q.Name(), stop)
	if !b.detach(q) {
		// Canceled; the caller has already moved on.
		return
	}
	if err != nil {
		b.logger.Warn("SRV query failed",
			zap.String("upstream", b.name),
			zap.String("name", q.Name()),
			zap.Stringer("serverAddrPort", b.serverAddrPort),
			zap.Error(err),
		)
		q.Fail(err)
		return
	}

	b.deliver(q, msg)
}

// exchange sends the query and returns the raw answer message.
func (b *Backend) exchange(name string, stop <-chan struct{}) ([]byte, error) {
	queryID, pkt, err := b.buildQuery(name)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	deadline := time.Now().Add(b.timeout)

	if !b.disableUDP {
		msg, err := b.exchangeUDP(queryID, pkt, deadline, stop)
		switch {
		case err != nil:
			if b.disableTCP {
				return nil, err
			}
			select {
			case <-stop:
				// Canceled mid-read; the failure is ours, not the
				// transport's. Skip the fallback.
				return nil, err
			default:
			}
			if ce := b.logger.Check(zap.DebugLevel, "UDP exchange failed, falling back to TCP"); ce != nil {
				ce.Write(
					zap.String("upstream", b.name),
					zap.Stringer("serverAddrPort", b.serverAddrPort),
					zap.Error(err),
				)
			}
		case responseTruncated(msg):
			if b.disableTCP {
				return msg, nil
			}
		default:
			return msg, nil
		}
	}

	return b.exchangeTCP(pkt, deadline, stop)
}

// buildQuery packs the SRV/IN question with a random transaction ID and
// an EDNS(0) OPT record advertising our receive buffer size.
func (b *Backend) buildQuery(nameString string) (uint16, []byte, error) {
	if !strings.HasSuffix(nameString, ".") {
		nameString += "."
	}
	name, err := dnsmessage.NewName(nameString)
	if err != nil {
		return 0, nil, err
	}

	var rh dnsmessage.ResourceHeader
	if err = rh.SetEDNS0(maxDNSPacketSize, dnsmessage.RCodeSuccess, false); err != nil {
		return 0, nil, err
	}

	rng := fastrand.New()
	queryID := rng.Uint16()

	m := dnsmessage.Message{
		Header: dnsmessage.Header{
			ID:               queryID,
			RecursionDesired: true,
		},
		Questions: []dnsmessage.Question{
			{
				Name:  name,
				Type:  dnsmessage.TypeSRV,
				Class: dnsmessage.ClassINET,
			},
		},
		Additionals: []dnsmessage.Resource{
			{
				Header: rh,
				Body:   &dnsmessage.OPTResource{},
			},
		},
	}

	pkt, err := m.AppendPack(make([]byte, 0, 512))
	if err != nil {
		return 0, nil, err
	}
	return queryID, pkt, nil
}

// exchangeUDP sends the query over UDP, resending at intervals, until a
// reply with a matching transaction ID arrives or the deadline passes.
func (b *Backend) exchangeUDP(queryID uint16, pkt []byte, deadline time.Time, stop <-chan struct{}) ([]byte, error) {
	c, err := net.Dial("udp", b.serverAddrPort.String())
	if err != nil {
		return nil, err
	}
	defer c.Close()
	defer closeOnStop(c, stop)()

	recvBuf := make([]byte, maxDNSPacketSize)

	for attempt := 0; ; attempt++ {
		now := time.Now()
		if !now.Before(deadline) {
			return nil, errLookupTimeout
		}

		if _, err = c.Write(pkt); err != nil {
			return nil, err
		}

		readDeadline := now.Add(udpResendInterval)
		if readDeadline.After(deadline) {
			readDeadline = deadline
		}
		if err = c.SetReadDeadline(readDeadline); err != nil {
			return nil, err
		}

		for {
			n, err := c.Read(recvBuf)
			if err != nil {
				if errors.Is(err, os.ErrDeadlineExceeded) {
					// Resend and keep waiting.
					break
				}
				return nil, err
			}

			msg := make([]byte, n)
			copy(msg, recvBuf[:n])
			if !responseMatches(msg, queryID) {
				if ce := b.logger.Check(zap.DebugLevel, "Ignoring mismatched UDP reply"); ce != nil {
					ce.Write(
						zap.String("upstream", b.name),
						zap.Stringer("serverAddrPort", b.serverAddrPort),
						zap.Int("packetLength", n),
					)
				}
				continue
			}
			return msg, nil
		}
	}
}

// exchangeTCP sends the length-prefixed query over TCP and reads one reply.
// With TFO enabled, the query rides on the dialer's initial payload.
func (b *Backend) exchangeTCP(pkt []byte, deadline time.Time, stop <-chan struct{}) ([]byte, error) {
	queries := make([]byte, 2+len(pkt))
	binary.BigEndian.PutUint16(queries, uint16(len(pkt)))
	copy(queries[2:], pkt)

	c, err := b.dialer.Dial("tcp", b.serverAddrPort.String(), queries)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	defer closeOnStop(c, stop)()

	if err = c.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	lengthBuf := make([]byte, 2)
	if _, err = io.ReadFull(c, lengthBuf); err != nil {
		return nil, fmt.Errorf("failed to read response length: %w", err)
	}

	msgLen := binary.BigEndian.Uint16(lengthBuf)
	if msgLen == 0 {
		return nil, errors.New("response length is zero")
	}

	msg := make([]byte, msgLen)
	if _, err = io.ReadFull(c, msg); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return msg, nil
}

// closeOnStop closes c early if stop is signaled, unblocking any reads.
// The returned function releases the watcher.
func closeOnStop(c net.Conn, stop <-chan struct{}) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-stop:
			c.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}
