package contract

import (
	"context"
	"log/slog"
)

// Caller abstracts the RPC layer the service reads and writes through.
type Caller interface {
	Call(ctx context.Context, to, data string) (string, error)
	SendTransaction(ctx context.Context, to, data, from string) (string, error)
}

// Service exposes the domain-level contract operations. It does not
// validate addresses: callers are responsible for that, since the same
// operations also run against free-text lookup addresses.
type Service struct {
	caller Caller
	log    *slog.Logger
}

func NewService(caller Caller, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{caller: caller, log: log}
}

// WithdrawableAmount returns the claimable reward for account as a hex
// wei string. The primary selector is tried first; on any failure the
// alternate is tried once, and only the second failure propagates.
func (s *Service) WithdrawableAmount(ctx context.Context, contract, account string) (string, error) {
	return s.firstSuccess(ctx, "withdrawable-amount", withdrawableCandidates(account), func(ctx context.Context, data string) (string, error) {
		return s.caller.Call(ctx, contract, data)
	})
}

// TokenBalance returns the account's token balance as a hex wei string.
func (s *Service) TokenBalance(ctx context.Context, token, account string) (string, error) {
	return s.firstSuccess(ctx, "balance-of", balanceCandidates(account), func(ctx context.Context, data string) (string, error) {
		return s.caller.Call(ctx, token, data)
	})
}

// Claim submits the claim transaction, trying each candidate encoding
// until one is accepted, and returns the resulting transaction hash.
func (s *Service) Claim(ctx context.Context, contract, account string) (string, error) {
	return s.firstSuccess(ctx, "claim-withdrawal", claimCandidates(account), func(ctx context.Context, data string) (string, error) {
		return s.caller.SendTransaction(ctx, contract, data, account)
	})
}

// firstSuccess tries each candidate encoding in order and returns the
// first successful result. Intermediate failures are logged, not
// raised; exhaustion returns the last error.
func (s *Service) firstSuccess(ctx context.Context, op string, candidates []string, fn func(ctx context.Context, data string) (string, error)) (string, error) {
	var lastErr error
	for _, data := range candidates {
		result, err := fn(ctx, data)
		if err == nil {
			return result, nil
		}
		s.log.Warn("contract call attempt failed", "op", op, "selector", data[:10], "err", err)
		lastErr = err
	}
	return "", lastErr
}
