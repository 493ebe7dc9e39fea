//go:build protogen

package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsprice87/fill-the-field-sub001/libs/grpcx"
	"github.com/jsprice87/fill-the-field-sub001/libs/runtime"
	franchisev1 "github.com/jsprice87/fill-the-field-sub001/protos/gen/franchise/v1"
)

type grpcProvider struct {
	client franchisev1.FranchiseServiceClient
}

// NewFranchisePolicyProvider dials the franchise service for booking settings.
// When the address is empty or the dial fails, the fallback provider is used.
func NewFranchisePolicyProvider(logger *slog.Logger, fallback Provider, addr string) (Provider, error) {
	if addr == "" {
		addr = runtime.Getenv("FRANCHISE_GRPC_ADDR", "")
	}
	if addr == "" {
		return fallback, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc policy provider unavailable, using fallback", "err", err)
		return fallback, nil
	}

	logger.Info("grpc policy provider enabled", "addr", addr)
	return &grpcProvider{client: franchisev1.NewFranchiseServiceClient(conn)}, nil
}

func (p *grpcProvider) BookingPolicy(ctx context.Context, franchiseID string) (Policy, error) {
	resp, err := p.client.GetBookingSettings(ctx, &franchisev1.BookingSettingsRequest{FranchiseId: franchiseID})
	if err != nil {
		return Policy{}, err
	}
	return FromSettings(resp.GetSettings())
}
