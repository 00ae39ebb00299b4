package service

import (
	"context"
	"encoding/json"
	"fmt"

	"remo_dashboard"
)

// LocalBackend feeds the dashboard from the proxy in the same process.
type LocalBackend struct {
	proxy Proxy
}

func NewLocalBackend(proxy Proxy) *LocalBackend {
	return &LocalBackend{proxy: proxy}
}

func (b *LocalBackend) Appliances(ctx context.Context) ([]remo_dashboard.Appliance, error) {
	raw, err := b.proxy.Appliances(ctx)
	if err != nil {
		return nil, err
	}
	var out []remo_dashboard.Appliance
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode appliances: %w", err)
	}
	return out, nil
}

func (b *LocalBackend) Devices(ctx context.Context) ([]remo_dashboard.Device, error) {
	raw, err := b.proxy.Devices(ctx)
	if err != nil {
		return nil, err
	}
	var out []remo_dashboard.Device
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return out, nil
}

func (b *LocalBackend) UpdateAirconSettings(ctx context.Context, applianceID string, req remo_dashboard.AirconSettingsRequest) error {
	_, err := b.proxy.SetAirconSettings(ctx, applianceID, req)
	return err
}

func (b *LocalBackend) SendSignal(ctx context.Context, signalID string) error {
	return b.proxy.SendSignal(ctx, signalID)
}
