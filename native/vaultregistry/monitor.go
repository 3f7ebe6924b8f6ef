package vaultregistry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vaultchain/core/types"
)

const tracerName = "vaultchain/vaultregistry"

// Monitor periodically liquidates vaults that fell below their liquidation
// threshold. Calls into the engine are serialized through mu, which callers
// share with every other writer of the same state.
type Monitor struct {
	engine *Engine
	mu     sync.Locker
	commit func() error
	tracer trace.Tracer
}

// NewMonitor returns a monitor for engine. commit, when set, runs after every
// successful liquidation while mu is still held.
func NewMonitor(engine *Engine, mu sync.Locker, commit func() error) *Monitor {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Monitor{engine: engine, mu: mu, commit: commit, tracer: otel.Tracer(tracerName)}
}

// SetTracerProvider replaces the global tracer provider for sweep spans.
func (m *Monitor) SetTracerProvider(tp trace.TracerProvider) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m.tracer = tp.Tracer(tracerName)
}

// Sweep checks every registered vault once and returns the ones liquidated.
func (m *Monitor) Sweep(ctx context.Context) (liquidated []types.VaultID, err error) {
	ctx, span := m.tracer.Start(ctx, "vaultregistry.sweep")
	defer func() {
		span.SetAttributes(attribute.Int("vaults.liquidated", len(liquidated)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	m.mu.Lock()
	ids, err := m.engine.Vaults()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("vaults.checked", len(ids)))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return liquidated, err
		}
		ok, err := m.check(ctx, id)
		if err != nil {
			return liquidated, err
		}
		if ok {
			liquidated = append(liquidated, id)
		}
	}
	return liquidated, nil
}

func (m *Monitor) check(ctx context.Context, id types.VaultID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, span := m.tracer.Start(ctx, "vaultregistry.report_undercollateralized_vault",
		trace.WithAttributes(attribute.String("vault", id.String())))
	defer span.End()
	moved, err := m.engine.ReportUndercollateralizedVault(id)
	switch {
	case err == nil:
	case errors.Is(err, ErrVaultNotBelowLiquidation), errors.Is(err, ErrVaultLiquidated):
		return false, nil
	case errors.Is(err, ErrNotFound):
		m.engine.logger.Warn("skipping vault", "vault", id.String(), "err", err)
		return false, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.engine.logger.Error("liquidation check failed", "vault", id.String(), "err", err)
		return false, nil
	}
	span.SetAttributes(
		attribute.Bool("liquidated", true),
		attribute.String("collateral.to_liquidation_vault", moved.Value()),
	)
	if m.commit != nil {
		if err := m.commit(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return false, err
		}
	}
	return true, nil
}

// Run sweeps every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			liquidated, err := m.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.engine.logger.Error("liquidation sweep failed", "err", err)
			}
			if len(liquidated) > 0 {
				m.engine.logger.Info("liquidation sweep", "liquidated", len(liquidated))
			}
		}
	}
}
