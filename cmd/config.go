package cmd

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// envConfig supplies flag defaults from the environment, so deployments can
// pin settings without repeating them on every invocation.
type envConfig struct {
	LogLevel  string `env:"LOG" envDefault:"error"`
	Seed      int64  `env:"SEED" envDefault:"42"`
	EventLog  string `env:"EVENT_LOG"`
	ParamFile string `env:"PARAMS"`
}

func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{}
	opts := env.Options{Prefix: "ADMISSION_SIM_"}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) {
			// only the first error keeps the output readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}
