package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/schoolfinder/internal/core/usecases"
)

// Pinger is any backing service whose reachability is reported by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Schools *usecases.SchoolService
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger

	RequestTimeout time.Duration // per-request deadline, 15s when zero
	MaxInFlight    int64         // concurrent API requests before shedding, 1000 when zero
	RateLimit      int           // requests per minute per IP, 0 disables
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return 15 * time.Second
}

func (d *Dependencies) maxInFlight() int64 {
	if d.MaxInFlight > 0 {
		return d.MaxInFlight
	}
	return 1000
}
