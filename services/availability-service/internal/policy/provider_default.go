//go:build !protogen

package policy

import "log/slog"

// NewFranchisePolicyProvider returns the fallback provider in builds without
// generated proto clients.
func NewFranchisePolicyProvider(_ *slog.Logger, fallback Provider, _ string) (Provider, error) {
	return fallback, nil
}
