package service

import (
	"context"
	"encoding/json"
	"net/url"
	"unicode"

	"remo_dashboard"
	"remo_dashboard/internal/remo"
)

// Vendor is the subset of the Nature Remo client the proxy forwards to.
type Vendor interface {
	HasToken() bool
	Devices(ctx context.Context) (json.RawMessage, error)
	Appliances(ctx context.Context) (json.RawMessage, error)
	SetAirconSettings(ctx context.Context, applianceID string, form url.Values) (json.RawMessage, error)
	SendSignal(ctx context.Context, signalID string) error
}

var _ Vendor = (*remo.Client)(nil)

type ProxyService struct {
	vendor Vendor
}

func NewProxyService(vendor Vendor) *ProxyService {
	return &ProxyService{vendor: vendor}
}

// validID rejects empty ids and ids with whitespace or control characters.
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// CheckApplianceID runs the checks that precede the method check on the
// aircon endpoint: token first, then the id.
func (s *ProxyService) CheckApplianceID(id string) error {
	if !s.vendor.HasToken() {
		return ErrMissingToken
	}
	if !validID(id) {
		return invalidParam("Invalid applianceId")
	}
	return nil
}

func (s *ProxyService) Devices(ctx context.Context) (json.RawMessage, error) {
	if !s.vendor.HasToken() {
		return nil, ErrMissingToken
	}
	return s.vendor.Devices(ctx)
}

func (s *ProxyService) Appliances(ctx context.Context) (json.RawMessage, error) {
	if !s.vendor.HasToken() {
		return nil, ErrMissingToken
	}
	return s.vendor.Appliances(ctx)
}

// SetAirconSettings forwards only the fields present in req and returns the
// vendor's settings echo.
func (s *ProxyService) SetAirconSettings(ctx context.Context, applianceID string, req remo_dashboard.AirconSettingsRequest) (json.RawMessage, error) {
	if err := s.CheckApplianceID(applianceID); err != nil {
		return nil, err
	}
	return s.vendor.SetAirconSettings(ctx, applianceID, req.Form())
}

func (s *ProxyService) SendSignal(ctx context.Context, signalID string) error {
	if !s.vendor.HasToken() {
		return ErrMissingToken
	}
	if !validID(signalID) {
		return invalidParam("Invalid signalId")
	}
	return s.vendor.SendSignal(ctx, signalID)
}

// BreakerState reports the vendor circuit breaker state, or "" when the
// vendor has no breaker.
func (s *ProxyService) BreakerState() string {
	if b, ok := s.vendor.(interface{ BreakerState() string }); ok {
		return b.BreakerState()
	}
	return ""
}
