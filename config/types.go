package config

// Pauses toggles state-changing calls per module. The same structure is
// persisted by native/params and can be seeded from the config file or the
// genesis document.
type Pauses struct {
	VaultRegistry bool `toml:"VaultRegistry" json:"vaultregistry" yaml:"vaultregistry"`
	Nomination    bool `toml:"Nomination" json:"nomination" yaml:"nomination"`
}

// Telemetry configures OTLP trace export. Headers uses the OTEL
// key=value,key=value format.
type Telemetry struct {
	Traces      bool    `toml:"Traces"`
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	SampleRatio float64 `toml:"SampleRatio"`
}
