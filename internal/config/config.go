package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/engine"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig       `yaml:"store" mapstructure:"store"`
	Engine   engine.Parameters `yaml:"engine" mapstructure:"engine"`
	Scenario ScenarioConfig    `yaml:"scenario" mapstructure:"scenario"`
	IO       IOConfig          `yaml:"io" mapstructure:"io"`
	Log      LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScenarioConfig points at the scenario coefficient file.
type ScenarioConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IOConfig configures grid input/output.
type IOConfig struct {
	// NoDataValue marks missing cells in CSV grids; they load as zero.
	NoDataValue float64 `yaml:"nodata_value" mapstructure:"nodata_value"`
	OutputDir   string  `yaml:"output_dir" mapstructure:"output_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ECOFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "ecoflow.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("io.nodata_value", -9999)
	v.SetDefault("io.output_dir", ".")
	v.SetDefault("engine.alpha", 0.5)
	v.SetDefault("engine.beta", 0.5)
	v.SetDefault("engine.gamma", 1.0)
	v.SetDefault("engine.max_distance", 1000.0)
	v.SetDefault("engine.flow_threshold", 0.001)
	v.SetDefault("engine.resistance_factor", 1.0)
	v.SetDefault("engine.distance_decay", decay.CurveExponential)
	v.SetDefault("engine.source_type", string(engine.CapacityFinite))
	v.SetDefault("engine.sink_type", string(engine.CapacityFinite))
	v.SetDefault("engine.use_type", string(engine.CapacityFinite))
	v.SetDefault("engine.benefit_type", string(engine.BenefitRival))
	v.SetDefault("engine.cell_width", 30.0)
	v.SetDefault("engine.cell_height", 30.0)
	v.SetDefault("engine.validation_threshold", 0.2)
	v.SetDefault("engine.uncertainty_threshold", 0.7)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.top_bottlenecks", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
