package params

const (
	// ParamsKeyPauses stores the module pause configuration.
	ParamsKeyPauses = "system/pauses"
)

// Module names understood by the pause configuration.
const (
	ModuleVaultRegistry = "vaultregistry"
	ModuleNomination    = "nomination"
)
