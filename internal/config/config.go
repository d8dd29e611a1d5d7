package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseDriver string

const (
	DriverPostgres DatabaseDriver = "postgres"
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverMemory   DatabaseDriver = "memory"
)

const (
	defaultRunAddress = "localhost:3000"
	defaultDriver     = string(DriverSQLite)
	defaultDSN        = "ledger.db"
	defaultKafkaTopic = "ledger.transactions"
)

type Config struct {
	RunAddress     string         `env:"RUN_ADDRESS"`
	DatabaseDriver DatabaseDriver `env:"DATABASE_DRIVER"`
	DatabaseDSN    string         `env:"DATABASE_URI"`
	KafkaBrokers   []string       `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string         `env:"KAFKA_TOPIC"`
}

// LoadConfig собирает конфиг из переменных окружения и флагов. Непустое значение из окружения
// имеет приоритет. Если рядом есть .env файл, его переменные загружаются в окружение.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %s", err.Error())
	}
	return loadConfig(flag.CommandLine, os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(fs, args, &flagsConfig); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadFlags(fs *flag.FlagSet, args []string, flagConfig *Config) error {
	var driver, brokers string

	fs.StringVar(&flagConfig.RunAddress, "a", defaultRunAddress, "Run address in format host:port")
	fs.StringVar(&driver, "driver", defaultDriver, "Database driver: postgres, sqlite or memory")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", defaultDSN, "Database DSN (sqlite file path for sqlite driver)")
	fs.StringVar(&brokers, "k", "", "Comma separated kafka brokers, events are not published if empty")
	fs.StringVar(&flagConfig.KafkaTopic, "t", defaultKafkaTopic, "Kafka topic for transaction events")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}

	flagConfig.DatabaseDriver = DatabaseDriver(driver)
	flagConfig.KafkaBrokers = splitList(brokers)
	return nil
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	brokers := envConfig.KafkaBrokers
	if len(brokers) == 0 {
		brokers = flagsConfig.KafkaBrokers
	}
	return &Config{
		RunAddress: defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDriver: DatabaseDriver(
			strings.ToLower(defaultIfBlank(string(envConfig.DatabaseDriver), string(flagsConfig.DatabaseDriver))),
		),
		DatabaseDSN:  defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		KafkaBrokers: brokers,
		KafkaTopic:   defaultIfBlank(envConfig.KafkaTopic, flagsConfig.KafkaTopic),
	}
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return errors.New("database DSN is not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("kafka topic is not set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
