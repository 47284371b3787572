package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

// MaxSegmentLength is the size of one GSM SMS segment. Longer replies would be
// split and billed as several messages.
const MaxSegmentLength = 160

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	SMS       SMSConfig
	Weather   WeatherConfig
	Advisory  AdvisoryConfig
	Parser    ParserConfig
	Formatter FormatterConfig
	Tables    Tables
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// SMSConfig contains credentials and options for the Africa's Talking SMS API.
type SMSConfig struct {
	Username    string
	APIKey      string
	SenderID    string
	Environment string
	BaseURL     string
	// SendRate is the maximum number of outbound messages per second.
	SendRate float64
	// MaxLength is the reply cap in characters, shared with the formatter.
	MaxLength int
}

// Sandbox reports whether the sandbox gateway should be used.
func (c SMSConfig) Sandbox() bool {
	return strings.EqualFold(c.Environment, "sandbox")
}

// WeatherConfig points at the Open-Meteo compatible weather API.
type WeatherConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AdvisoryConfig points at the quote and planting backend. Empty BaseURL disables it.
type AdvisoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ParserConfig drives command recognition.
type ParserConfig struct {
	AnchorKeywords bool
	BoundsPolicy   models.BoundsPolicy
	Region         models.Bounds
	DefaultCrop    models.Crop
}

// FormatterConfig drives reply rendering.
type FormatterConfig struct {
	MaxLength       int
	RainThresholdMM float64
	ForecastDays    int
}

// MongoDBConfig holds settings for MongoDB. Empty URI disables persistence.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to append audit rows to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether both sheet settings are present.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DigestSchedule   string
	BalanceSchedule  string
	Timezone         string
	OperatorPhone    string
	BalanceThreshold float64
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	var errs []error
	region, err := parseBounds(getenvWithDefault("SMS_REGION_BOUNDS", "-35,37,-20,55"))
	errs = append(errs, err)
	timeout, err := getenvInt("SMS_TIMEOUT", 30000)
	errs = append(errs, err)
	anchor, err := getenvBool("SMS_ANCHOR_KEYWORDS", false)
	errs = append(errs, err)
	maxLength, err := getenvInt("SMS_MAX_LENGTH", 150)
	errs = append(errs, err)
	forecastDays, err := getenvInt("SMS_FORECAST_DAYS", 4)
	errs = append(errs, err)
	threshold, err := getenvFloat("SMS_RAIN_THRESHOLD_MM", 1)
	errs = append(errs, err)
	sendRate, err := getenvFloat("AT_SEND_RATE", 5)
	errs = append(errs, err)
	balanceThreshold, err := getenvFloat("BALANCE_ALERT_THRESHOLD", 5)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	tables, err := LoadTables(os.Getenv("SMS_TABLES_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		SMS: SMSConfig{
			Username:    os.Getenv("AT_USERNAME"),
			APIKey:      os.Getenv("AT_API_KEY"),
			SenderID:    os.Getenv("AT_SENDER_ID"),
			Environment: getenvWithDefault("AT_ENVIRONMENT", "production"),
			BaseURL:     os.Getenv("AT_BASE_URL"),
			SendRate:    sendRate,
			MaxLength:   maxLength,
		},
		Weather: WeatherConfig{
			BaseURL: getenvWithDefault("WEATHER_BASE", "https://api.open-meteo.com"),
			Timeout: 15 * time.Second,
		},
		Advisory: AdvisoryConfig{
			BaseURL: os.Getenv("FLASK_BASE_URL"),
			Timeout: time.Duration(timeout) * time.Millisecond,
		},
		Parser: ParserConfig{
			AnchorKeywords: anchor,
			BoundsPolicy:   models.BoundsPolicy(strings.ToLower(getenvWithDefault("SMS_BOUNDS_POLICY", string(models.BoundsRegional)))),
			Region:         region,
			DefaultCrop:    models.Crop(strings.ToUpper(getenvWithDefault("SMS_DEFAULT_CROP", "MAIZE"))),
		},
		Formatter: FormatterConfig{
			MaxLength:       maxLength,
			RainThresholdMM: threshold,
			ForecastDays:    forecastDays,
		},
		Tables: tables,
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "agrisms"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			DigestSchedule:   getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			BalanceSchedule:  getenvWithDefault("BALANCE_CRON_SCHEDULE", "0 */6 * * *"),
			Timezone:         getenvWithDefault("TIMEZONE", "Africa/Harare"),
			OperatorPhone:    os.Getenv("OPERATOR_PHONE"),
			BalanceThreshold: balanceThreshold,
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.SMS.Username == "":
		return errors.New("AT_USERNAME must be provided")
	case c.SMS.APIKey == "":
		return errors.New("AT_API_KEY must be provided")
	case c.SMS.SendRate <= 0:
		return errors.New("AT_SEND_RATE must be positive")
	}

	if c.Weather.BaseURL == "" {
		return errors.New("WEATHER_BASE must not be empty")
	}

	switch c.Parser.BoundsPolicy {
	case models.BoundsGlobal, models.BoundsRegional:
	default:
		return fmt.Errorf("SMS_BOUNDS_POLICY must be %q or %q, got %q", models.BoundsGlobal, models.BoundsRegional, c.Parser.BoundsPolicy)
	}

	if r := c.Parser.Region; r.MinLat >= r.MaxLat || r.MinLng >= r.MaxLng || !models.GlobalBounds.Contains(r.MinLat, r.MinLng) || !models.GlobalBounds.Contains(r.MaxLat, r.MaxLng) {
		return errors.New("SMS_REGION_BOUNDS must be minLat,maxLat,minLng,maxLng within global bounds")
	}

	if !c.Tables.HasCrop(c.Parser.DefaultCrop) {
		return fmt.Errorf("SMS_DEFAULT_CROP %q is not in the crop vocabulary", c.Parser.DefaultCrop)
	}

	if c.Formatter.MaxLength <= 0 || c.Formatter.MaxLength > MaxSegmentLength {
		return fmt.Errorf("SMS_MAX_LENGTH must be between 1 and %d", MaxSegmentLength)
	}

	if c.Formatter.ForecastDays < 1 || c.Formatter.ForecastDays > 7 {
		return errors.New("SMS_FORECAST_DAYS must be between 1 and 7")
	}

	if c.Formatter.RainThresholdMM <= 0 {
		return errors.New("SMS_RAIN_THRESHOLD_MM must be positive")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func parseBounds(value string) (models.Bounds, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return models.Bounds{}, fmt.Errorf("SMS_REGION_BOUNDS must have 4 comma separated values, got %q", value)
	}

	var nums [4]float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return models.Bounds{}, fmt.Errorf("SMS_REGION_BOUNDS value %q: %w", part, err)
		}
		nums[i] = n
	}

	return models.Bounds{MinLat: nums[0], MaxLat: nums[1], MinLng: nums[2], MaxLng: nums[3]}, nil
}
