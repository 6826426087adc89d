package upstream

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

// DomainPlaceholder is replaced by the query-escaped domain in a URL template.
const DomainPlaceholder = "{domain}"

// DefaultTemplate queries Google's S2 favicon endpoint.
const DefaultTemplate = "https://www.google.com/s2/favicons?sz=64&domain_url=" + DomainPlaceholder

// Service is a favicon-by-domain image endpoint.
type Service struct {
	name         string
	template     string
	mutex        sync.Mutex
	isHealthy    bool
	responseTime ewma.MovingAverage
}

// New creates a Service for template. The service starts healthy.
func New(name, template string) *Service {
	if template == "" {
		template = DefaultTemplate
	}

	return &Service{
		name:         name,
		template:     template,
		isHealthy:    true,
		responseTime: ewma.NewMovingAverage(),
	}
}

func (s *Service) Name() string {
	return s.name
}

// URLFor returns the service URL that yields the favicon of domain.
func (s *Service) URLFor(domain string) string {
	return strings.ReplaceAll(s.template, DomainPlaceholder, url.QueryEscape(domain))
}

// ProbeURL is the URL the health checker requests.
func (s *Service) ProbeURL() string {
	return s.URLFor("google.com")
}

// IsHealthy returns true if the service is currently usable.
func (s *Service) IsHealthy() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isHealthy
}

// SetHealthy updates the health status and reports whether it changed.
func (s *Service) SetHealthy(healthy bool) (changed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isHealthy == healthy {
		return false
	}

	s.isHealthy = healthy
	return true
}

// RecordResponse folds the latest request duration into the moving average.
func (s *Service) RecordResponse(d time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.responseTime.Add(float64(d))
}

// EWMATime returns the smoothed response time, 0 before any sample.
func (s *Service) EWMATime() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return time.Duration(s.responseTime.Value())
}
