package config

import (
	"fmt"
	"time"
)

var (
	MinMonitorInterval = time.Second
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.DBBackend {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("db: unknown backend %q", c.DBBackend)
	}
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.MonitorInterval.Duration < MinMonitorInterval {
		return fmt.Errorf("monitor: interval %s below %s", c.MonitorInterval.Duration, MinMonitorInterval)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample ratio %v outside [0, 1]", c.Telemetry.SampleRatio)
	}
	if c.MetricsAddress != "" && c.MetricsAddress == c.ListenAddress {
		return fmt.Errorf("metrics address must differ from listen address")
	}
	return nil
}
