// Package config loads VM tunables from flags, environment variables
// (LAVASCRIPT_*) and an optional config file via Viper, the way the
// rest of the retrieved Go corpus wires CLI configuration rather than
// hand-rolling flag parsing.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lavascript-go/lavascript/vm"
)

// Config holds every VM tunable plus the CLI-only trace option, which
// never reaches vm.Config. The config file path is read by Load from
// the --config flag and is not stored here.
type Config struct {
	StackSize       int  `mapstructure:"stack-size"`
	PoolGranularity int  `mapstructure:"pool-granularity"`
	Debug           bool `mapstructure:"debug"`
	GlobalsTable    bool `mapstructure:"globals-table"`
	SaveCallstack   bool `mapstructure:"save-callstack"`
	GCMaxCount      int  `mapstructure:"gc-max-count"`
	GCAdaptive      bool `mapstructure:"gc-adaptive"`
	Trace           bool `mapstructure:"trace"`
}

// BindFlags registers every Config field as a pflag on fs, so a Cobra
// command can expose them as `--stack-size`, `--debug`, etc.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to an optional YAML/TOML/JSON config file")
	fs.Int("stack-size", vm.DefaultStackSize, "evaluation and locals stack capacity")
	fs.Int("pool-granularity", 0, "objects allocated per pool block growth (0 = default)")
	fs.Bool("debug", false, "zero pooled memory on deallocate and enable verbose logging")
	fs.Bool("globals-table", false, "enable the optional name-indexed globals table")
	fs.Bool("save-callstack", false, "record script call frames for PrintStackTrace")
	fs.Int("gc-max-count", vm.DefaultGCMaxCount, "live-object threshold that triggers a collection")
	fs.Bool("gc-adaptive", false, "scale the GC threshold to twice the last survivor count, never below gc-max-count")
	fs.Bool("trace", false, "print VM state before every instruction")
}

// Load builds a Config from bound flags, LAVASCRIPT_*-prefixed
// environment variables, and an optional config file named by
// --config (if the flag set defines one).
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LAVASCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if cfgFile, err := fs.GetString("config"); err == nil && cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// VMConfig translates this Config into a vm.Config, attaching logger.
func (c *Config) VMConfig(logger *zap.Logger) vm.Config {
	return vm.Config{
		StackSize:       c.StackSize,
		PoolGranularity: c.PoolGranularity,
		Debug:           c.Debug,
		GlobalsTable:    c.GlobalsTable,
		SaveCallstack:   c.SaveCallstack,
		GCMaxCount:      c.GCMaxCount,
		GCAdaptive:      c.GCAdaptive,
		Logger:          logger,
	}
}

// NewLogger builds the process-wide zap logger, matching Debug to
// zap's development preset (human-readable, caller-annotated) and
// otherwise using the production JSON preset.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
