package common

import (
	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/cwkey/cmd/common/config"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// LoadConfig loads the config file at path, or ~/.cwkey/config.json when path
// is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}
