package config

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	MainNetwork = "mainnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork = fmt.Errorf("network must be equal to 'mainnet' or 'testnet' only")

	ErrorInvalidAccrualInterval = fmt.Errorf("invalid time interval for accrual process")
	ErrorInvalidMaxCommitRetry  = fmt.Errorf("max_commit_retry must be positive")
	ErrorInvalidTokenDecimals   = fmt.Errorf("token_decimals must be between 0 and 18")
	ErrorInvalidLogLevel        = fmt.Errorf("log_level must be one of debug, info, warn or error")
)

var (
	TrailingSlashRE = regexp.MustCompile("/+$")
)

const (
	defaultAccrualInterval = "1m"
	defaultMetricsAddress  = ":9100"
	defaultMaxCommitRetry  = 5
	defaultTokenDecimals   = 6
	defaultLogLevel        = "info"
)

var (
	dbUri   string
	network string

	accrualInterval time.Duration
	metricsAddress  string
	maxCommitRetry  int
	tokenDecimals   int32
	logLevel        zapcore.Level
)

func ReadConfig(filePath string) {
	viper.SetConfigFile(filePath)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Failed reading config file: %v\n", err.Error())
	}

	err := initializeVariables()
	if err != nil {
		log.Fatalf("Configuration error - %v\n", err.Error())
	}
}

func setDefaults() {
	viper.SetDefault("network", MainNetwork)
	viper.SetDefault("accrual_interval", defaultAccrualInterval)
	viper.SetDefault("metrics_address", defaultMetricsAddress)
	viper.SetDefault("max_commit_retry", defaultMaxCommitRetry)
	viper.SetDefault("token_decimals", defaultTokenDecimals)
	viper.SetDefault("log_level", defaultLogLevel)
}

// This method processes the configuration parameters and keeps the processed values
// in some variables for later accesses rapidly.
func initializeVariables() error {
	var err error

	setDefaults()

	// Database stuff
	dbUri = TrailingSlashRE.ReplaceAllString(viper.GetString("service_db_uri"), "")

	// Network stuff
	network = strings.TrimSpace(strings.ToLower(viper.GetString("network")))
	if network != MainNetwork && network != TestNetwork {
		return ErrorInvalidNetwork
	}

	//---------------------------------------------------------------
	// accrual interval
	accrualInterval, err = time.ParseDuration(viper.GetString("accrual_interval"))
	if err != nil || accrualInterval <= 0 {
		return ErrorInvalidAccrualInterval
	}

	metricsAddress = strings.TrimSpace(viper.GetString("metrics_address"))

	maxCommitRetry = viper.GetInt("max_commit_retry")
	if maxCommitRetry <= 0 {
		return ErrorInvalidMaxCommitRetry
	}

	decimals := viper.GetInt("token_decimals")
	if decimals < 0 || decimals > 18 {
		return ErrorInvalidTokenDecimals
	}
	tokenDecimals = int32(decimals)

	switch level := strings.TrimSpace(strings.ToLower(viper.GetString("log_level"))); level {
	case "debug", "info", "warn", "error":
		if err = logLevel.Set(level); err != nil {
			return ErrorInvalidLogLevel
		}
	default:
		return ErrorInvalidLogLevel
	}

	return nil
}

//-------------------------------------------------------------------
// Normal configuration values

func GetDbUri() string {
	return dbUri
}

func GetNetwork() string {
	return network
}

func GetAccrualInterval() time.Duration {
	return accrualInterval
}

func GetMetricsAddress() string {
	return metricsAddress
}

func GetMaxCommitRetry() int {
	return maxCommitRetry
}

func GetTokenDecimals() int32 {
	return tokenDecimals
}

func GetLogLevel() zapcore.Level {
	return logLevel
}

// -------------------------------------------------------------------
// Evaluating values

func IsTestNet() bool {
	return network == TestNetwork
}
