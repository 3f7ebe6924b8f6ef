package nomination

import "vaultchain/core/types"

const moduleName = "nomination"

var enabledKey = []byte("nomination/enabled")

func optInKey(id types.VaultID) []byte {
	return append([]byte("nomination/opted-in/"), id.Key()...)
}

func limitKey(id types.VaultID) []byte {
	return append([]byte("nomination/limit/"), id.Key()...)
}
