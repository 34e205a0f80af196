package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Sweep      SweepConfig
	Instrument InstrumentConfig
	Monitor    MonitorConfig
	Database   DatabaseConfig
	AWS        AWSConfig
	Export     ExportConfig
}

// SweepConfig holds the sweep schedule and retry policy knobs
type SweepConfig struct {
	StartHz            float64
	StopHz             float64
	Steps              int
	MaxAttempts        int
	NudgeStepHz        float64
	LowBandWidthHz     float64
	OverflowSentinel   float64
	SettleInitial      time.Duration
	SettleBetween      time.Duration
	GeneratorAmplitude float64
	GeneratorOffset    float64
}

// InstrumentConfig selects and addresses the oscilloscope transport
type InstrumentConfig struct {
	Transport string // sim, tcp or gpib
	Address   string // host:port for tcp, serial device for gpib
	GPIBAddr  int
}

// MonitorConfig holds the monitor API configuration
type MonitorConfig struct {
	Enabled bool
	Port    string
	Env     string
}

// DatabaseConfig holds the sweep archive configuration
type DatabaseConfig struct {
	URL string // empty disables archiving
}

// AWSConfig holds AWS/S3 configuration for artifact uploads
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string // empty disables uploads
	S3Endpoint      string
}

// ExportConfig holds local artifact output configuration
type ExportConfig struct {
	DataDir string
	PlotDir string
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SWEEP_START_HZ", 100.0)
	viper.SetDefault("SWEEP_STOP_HZ", 10000.0)
	viper.SetDefault("SWEEP_STEPS", 25)
	viper.SetDefault("SWEEP_MAX_ATTEMPTS", 5)
	viper.SetDefault("SWEEP_NUDGE_STEP_HZ", 2.0)
	viper.SetDefault("SWEEP_LOW_BAND_WIDTH_HZ", 50.0)
	viper.SetDefault("SWEEP_OVERFLOW_SENTINEL", 1e10)
	viper.SetDefault("SWEEP_SETTLE_INITIAL", "3s")
	viper.SetDefault("SWEEP_SETTLE_BETWEEN", "750ms")
	viper.SetDefault("GEN_AMPLITUDE_VPP", 1.0)
	viper.SetDefault("GEN_OFFSET_V", 0.0)
	viper.SetDefault("INSTRUMENT_TRANSPORT", "sim")
	viper.SetDefault("INSTRUMENT_ADDRESS", "")
	viper.SetDefault("INSTRUMENT_GPIB_ADDR", 7)
	viper.SetDefault("MONITOR_ENABLED", false)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "dev")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("PLOT_DIR", "data")

	// Read from .env files based on environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	_ = viper.ReadInConfig()

	// Environment variables override .env file values
	viper.AutomaticEnv()

	viper.BindEnv("SWEEP_START_HZ")
	viper.BindEnv("SWEEP_STOP_HZ")
	viper.BindEnv("SWEEP_STEPS")
	viper.BindEnv("SWEEP_MAX_ATTEMPTS")
	viper.BindEnv("SWEEP_NUDGE_STEP_HZ")
	viper.BindEnv("SWEEP_LOW_BAND_WIDTH_HZ")
	viper.BindEnv("SWEEP_OVERFLOW_SENTINEL")
	viper.BindEnv("SWEEP_SETTLE_INITIAL")
	viper.BindEnv("SWEEP_SETTLE_BETWEEN")
	viper.BindEnv("GEN_AMPLITUDE_VPP")
	viper.BindEnv("GEN_OFFSET_V")
	viper.BindEnv("INSTRUMENT_TRANSPORT")
	viper.BindEnv("INSTRUMENT_ADDRESS")
	viper.BindEnv("INSTRUMENT_GPIB_ADDR")
	viper.BindEnv("MONITOR_ENABLED")
	viper.BindEnv("PORT")
	viper.BindEnv("ENVIRONMENT")
	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("AWS_REGION")
	viper.BindEnv("AWS_ACCESS_KEY_ID")
	viper.BindEnv("AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("S3_BUCKET")
	viper.BindEnv("S3_ENDPOINT")
	viper.BindEnv("DATA_DIR")
	viper.BindEnv("PLOT_DIR")

	var config Config
	config.Sweep.StartHz = viper.GetFloat64("SWEEP_START_HZ")
	config.Sweep.StopHz = viper.GetFloat64("SWEEP_STOP_HZ")
	config.Sweep.Steps = viper.GetInt("SWEEP_STEPS")
	config.Sweep.MaxAttempts = viper.GetInt("SWEEP_MAX_ATTEMPTS")
	config.Sweep.NudgeStepHz = viper.GetFloat64("SWEEP_NUDGE_STEP_HZ")
	config.Sweep.LowBandWidthHz = viper.GetFloat64("SWEEP_LOW_BAND_WIDTH_HZ")
	config.Sweep.OverflowSentinel = viper.GetFloat64("SWEEP_OVERFLOW_SENTINEL")
	config.Sweep.SettleInitial = viper.GetDuration("SWEEP_SETTLE_INITIAL")
	config.Sweep.SettleBetween = viper.GetDuration("SWEEP_SETTLE_BETWEEN")
	config.Sweep.GeneratorAmplitude = viper.GetFloat64("GEN_AMPLITUDE_VPP")
	config.Sweep.GeneratorOffset = viper.GetFloat64("GEN_OFFSET_V")
	config.Instrument.Transport = viper.GetString("INSTRUMENT_TRANSPORT")
	config.Instrument.Address = viper.GetString("INSTRUMENT_ADDRESS")
	config.Instrument.GPIBAddr = viper.GetInt("INSTRUMENT_GPIB_ADDR")
	config.Monitor.Enabled = viper.GetBool("MONITOR_ENABLED")
	config.Monitor.Port = viper.GetString("PORT")
	config.Monitor.Env = viper.GetString("ENVIRONMENT")
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.AWS.Region = viper.GetString("AWS_REGION")
	config.AWS.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = viper.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = viper.GetString("S3_ENDPOINT")
	config.Export.DataDir = viper.GetString("DATA_DIR")
	config.Export.PlotDir = viper.GetString("PLOT_DIR")

	return &config, nil
}
