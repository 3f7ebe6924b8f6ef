package vaultregistry

import "vaultchain/core/types"

const moduleName = "vaultregistry"

// LiquidationAccountName names the module account that holds the collateral
// of every liquidation vault.
const LiquidationAccountName = moduleName + "/liquidation"

var (
	vaultIndexKey    = []byte("vaultregistry/vaults")
	globalParamsKey  = []byte("vaultregistry/params/global")
	vaultPrefix      = "vaultregistry/vault/"
	systemPrefix     = "vaultregistry/system/"
	pairParamsPrefix = "vaultregistry/params/pair/"
	totalCollPrefix  = "vaultregistry/total-collateral/"
)

func vaultKey(id types.VaultID) []byte {
	return append([]byte(vaultPrefix), id.Key()...)
}

func systemVaultKey(pair types.CurrencyPair) []byte {
	return []byte(systemPrefix + pair.String())
}

func pairParamsKey(pair types.CurrencyPair) []byte {
	return []byte(pairParamsPrefix + pair.String())
}

func totalCollateralKey(pair types.CurrencyPair) []byte {
	return []byte(totalCollPrefix + pair.String())
}
