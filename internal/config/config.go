// Package config loads the twinview CLI configuration from a YAML file and
// TWINVIEW_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the entire CLI configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Models ModelsConfig `mapstructure:"models"`
	Output OutputConfig `mapstructure:"output"`
	Broker BrokerConfig `mapstructure:"broker"`
	Neo4j  Neo4jConfig  `mapstructure:"neo4j"`
}

// LoggerConfig controls the CLI's zap logger.
type LoggerConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format selects the encoder: console or json.
	Format string `mapstructure:"format"`
}

// ModelsConfig locates the DTDL interface documents.
type ModelsConfig struct {
	// Dir is a directory of *.json interface documents. Empty selects the
	// embedded demo models.
	Dir string `mapstructure:"dir"`
}

// OutputConfig names the generated artifacts.
type OutputConfig struct {
	// Diagram is the path of the generated tree-diagram page.
	Diagram string `mapstructure:"diagram"`
	// FlowModel is the path of the exported flow-model JSON document.
	FlowModel string `mapstructure:"flow_model"`
	// Template is an optional page template file; empty selects the
	// embedded template.
	Template string `mapstructure:"template"`
}

// BrokerConfig locates the pubsub broker for telemetry snapshots.
type BrokerConfig struct {
	// URL is a gocloud.dev/pubsub URL, e.g. "mem://telemetry".
	URL string `mapstructure:"url"`
}

// Neo4jConfig locates the Neo4j database used by the export command.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Load reads the configuration from the given file (or ./twinview.yaml when
// empty), layered under TWINVIEW_* environment variables. A missing config
// file is not an error; defaults and the environment apply.
func Load(file string) (Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("twinview")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TWINVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("output.diagram", "tree_diagram.html")
	v.SetDefault("output.flow_model", "flow_model.json")
	v.SetDefault("broker.url", "mem://telemetry")
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.database", "neo4j")
}
