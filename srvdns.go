// Package srvdns implements DNS SRV resolution with RFC 2782
// priority/weight ordering of the returned targets.
package srvdns

import (
	"context"

	"go.uber.org/zap"
)

// Version is the current version of srvdns-go.
const Version = "1.2.0"

// Service is the common service abstraction in this module.
type Service interface {
	// ZapField returns a [zap.Field] that identifies the service.
	ZapField() zap.Field

	// Start starts the service.
	Start(ctx context.Context) error

	// Stop stops the service.
	Stop() error
}
