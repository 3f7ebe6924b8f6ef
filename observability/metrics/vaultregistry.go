package metrics

import (
	"errors"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultRegistryMetrics tracks registry operation outcomes and liquidations.
type VaultRegistryMetrics struct {
	operations           *prometheus.CounterVec
	liquidations         *prometheus.CounterVec
	liquidatedCollateral *prometheus.CounterVec
	systemIssued         *prometheus.GaugeVec
	nominations          *prometheus.CounterVec
}

var (
	vaultRegistryOnce     sync.Once
	vaultRegistryRegistry *VaultRegistryMetrics
)

type errorKind struct {
	target error
	label  string
}

// errorKinds maps errors to low-cardinality labels. The first registered
// match wins.
var (
	errorKindsMu sync.RWMutex
	errorKinds   []errorKind
)

// RegisterErrorKind labels operation failures matching err with kind.
func RegisterErrorKind(err error, kind string) {
	if err == nil || kind == "" {
		return
	}
	errorKindsMu.Lock()
	errorKinds = append(errorKinds, errorKind{target: err, label: kind})
	errorKindsMu.Unlock()
}

func errorLabel(err error) string {
	if err == nil {
		return "ok"
	}
	errorKindsMu.RLock()
	defer errorKindsMu.RUnlock()
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return kind.label
		}
	}
	return "error"
}

func VaultRegistry() *VaultRegistryMetrics {
	vaultRegistryOnce.Do(func() {
		vaultRegistryRegistry = &VaultRegistryMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultregistry_operations_total",
				Help: "Vault registry operations by name and outcome.",
			}, []string{"op", "outcome"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultregistry_liquidations_total",
				Help: "Vault liquidations by currency pair.",
			}, []string{"pair"}),
			liquidatedCollateral: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultregistry_liquidated_collateral_total",
				Help: "Collateral moved into liquidation vaults, in base units.",
			}, []string{"pair"}),
			systemIssued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vaultregistry_system_vault_issued",
				Help: "Issued tokens held by the liquidation vault of each pair.",
			}, []string{"pair"}),
			nominations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nomination_operations_total",
				Help: "Nomination operations by name and outcome.",
			}, []string{"op", "outcome"}),
		}
		prometheus.MustRegister(
			vaultRegistryRegistry.operations,
			vaultRegistryRegistry.liquidations,
			vaultRegistryRegistry.liquidatedCollateral,
			vaultRegistryRegistry.systemIssued,
			vaultRegistryRegistry.nominations,
		)
	})
	return vaultRegistryRegistry
}

func (m *VaultRegistryMetrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.operations.WithLabelValues(op, errorLabel(err)).Inc()
}

func (m *VaultRegistryMetrics) ObserveNomination(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.nominations.WithLabelValues(op, errorLabel(err)).Inc()
}

// ObserveLiquidation records one liquidation and the collateral it moved.
func (m *VaultRegistryMetrics) ObserveLiquidation(pair string, collateral *big.Int) {
	if m == nil {
		return
	}
	m.liquidations.WithLabelValues(pair).Inc()
	m.liquidatedCollateral.WithLabelValues(pair).Add(toFloat(collateral))
}

func (m *VaultRegistryMetrics) SetSystemVaultIssued(pair string, issued *big.Int) {
	if m == nil {
		return
	}
	m.systemIssued.WithLabelValues(pair).Set(toFloat(issued))
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
