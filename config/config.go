// Ininicializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	App     AppConfig     `mapstructure:"app"`
	Elastix ElastixConfig `mapstructure:"elastix"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Idle_timeout   time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 disables
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type AppConfig struct {
	// WorkDir is the base directory relative request paths are resolved against.
	WorkDir           string `mapstructure:"work_dir"`
	DefaultOutput     string `mapstructure:"default_output"`
	DefaultParameters string `mapstructure:"default_parameter_map"`
	KeepScratch       bool   `mapstructure:"keep_scratch"`
}

type ElastixConfig struct {
	ElastixBin     string `mapstructure:"elastix_bin"`
	TransformixBin string `mapstructure:"transformix_bin"`
	Threads        int    `mapstructure:"threads"` // 0 lets elastix decide
}

type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads ./config/config.yaml, or the file given explicitly.
// A missing default file is not an error: defaults and env vars still apply.
func LoadConfig(file string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix("ELASTIX_API")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if file != "" {
		viperInstance.SetConfigFile(file)
	} else {
		viperInstance.AddConfigPath("./config")
		viperInstance.SetConfigName("config")
		viperInstance.SetConfigType("yaml")
	}

	err := viperInstance.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && file == "" {
			logrus.Warn("config file not found, using defaults")
			return viperInstance, nil
		}
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		logrus.Errorf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.timeout", 0)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 0)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("app.work_dir", "./temp_data")
	v.SetDefault("app.default_output", "registered_image.nrrd")
	v.SetDefault("app.default_parameter_map", "translation")
	v.SetDefault("app.keep_scratch", false)

	v.SetDefault("elastix.elastix_bin", "elastix")
	v.SetDefault("elastix.transformix_bin", "transformix")
	v.SetDefault("elastix.threads", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9094")
	v.SetDefault("kafka.topic", "elastix-runs")

	v.SetDefault("log.level", "info")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
