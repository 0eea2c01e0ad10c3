package flags

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lifebook-lab/lifebook/pkg/extraction"
)

// ConfigFlags points at an optional YAML file overriding the pipeline's
// context bounds and resolver settings.
type ConfigFlags struct {
	Path string
}

func NewConfigFlags() *ConfigFlags {
	return &ConfigFlags{}
}

func (f *ConfigFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Path,
		"config",
		f.Path,
		"Pipeline configuration file (context bounds, resolver settings)")
}

func (f *ConfigFlags) GetConfig() (extraction.Config, error) {
	cfg := extraction.DefaultConfig()
	if f.Path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return cfg, errors.WithMessage(err, "could not load config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WithMessage(err, "couldn't unmarshal config")
	}

	return cfg, nil
}
