package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/Shadownc/favicon-api/internal/favicon"
	"github.com/Shadownc/favicon-api/internal/upstream"
)

type serviceStrategy struct {
	service *upstream.Service
	getter  Getter
	timeout time.Duration
}

// NewServiceStrategy asks a third-party favicon image service. It steps
// aside while the health checker reports the service as down.
func NewServiceStrategy(service *upstream.Service, getter Getter, timeout time.Duration) Strategy {
	return &serviceStrategy{
		service: service,
		getter:  getter,
		timeout: timeout,
	}
}

func (s *serviceStrategy) Name() string {
	return s.service.Name()
}

func (s *serviceStrategy) Find(ctx context.Context, domain string) (favicon.Result, error) {
	if !s.service.IsHealthy() {
		return favicon.Result{}, fmt.Errorf("%s unhealthy: %w", s.service.Name(), ErrNotApplicable)
	}

	start := time.Now()
	res, err := fetchIcon(ctx, s.getter, s.service.URLFor(domain), s.timeout)
	if err != nil {
		return favicon.Result{}, err
	}
	s.service.RecordResponse(time.Since(start))

	return res, nil
}
