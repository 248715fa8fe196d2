package config

import (
	"errors"
	"fmt"
	"os"

	"soulcare/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	LLM        LLMConfig        `yaml:"llm"`
	Store      StoreConfig      `yaml:"store"`
	Google     GoogleConfig     `yaml:"google"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Clinic     ClinicConfig     `yaml:"clinic"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	ShutdownSeconds int `yaml:"shutdown_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StoreConfig selects the availability backend. "sheets" talks to a
// Google spreadsheet, "excel" keeps a local workbook on disk.
type StoreConfig struct {
	Backend        string `yaml:"backend"`
	ExcelPath      string `yaml:"excel_path"`
	SheetName      string `yaml:"sheet_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ReadRetries    int    `yaml:"read_retries"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
}

type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	From           string `yaml:"from"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// ClinicConfig carries the identity woven into replies and emails.
type ClinicConfig struct {
	Name           string `yaml:"name"`
	TherapistName  string `yaml:"therapist_name"`
	OrganizerName  string `yaml:"organizer_name"`
	OrganizerEmail string `yaml:"organizer_email"`
	Location       string `yaml:"location"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.LLM.APIKey == "" || c.LLM.APIKey == "YOUR_API_KEY_HERE" {
		return errors.New("llm api key is required")
	}

	switch c.Store.Backend {
	case "sheets":
		if c.Google.CredentialsFile == "" || c.Google.SpreadsheetID == "" {
			return errors.New("store.backend=sheets requires google.credentials_file and google.spreadsheet_id")
		}
	case "excel":
		if c.Store.ExcelPath == "" {
			return errors.New("store.backend=excel requires store.excel_path")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.SMTP.Host != "" && c.SMTP.Username == "" {
		return errors.New("smtp.host set but smtp.username is empty")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 10
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = models.DefaultLLMTimeoutSeconds
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "excel"
	}
	if c.Store.SheetName == "" {
		c.Store.SheetName = "Appointments"
	}
	if c.Store.TimeoutSeconds == 0 {
		c.Store.TimeoutSeconds = models.DefaultStoreTimeoutSeconds
	}
	if c.Store.ReadRetries == 0 {
		c.Store.ReadRetries = 3
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TimeoutSeconds == 0 {
		c.SMTP.TimeoutSeconds = models.DefaultSMTPTimeoutSeconds
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = models.RateLimitRequests
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = models.RateLimitWindowSeconds
	}
	if c.Clinic.Name == "" {
		c.Clinic.Name = "SoulCare Therapy Center"
	}
	if c.Clinic.TherapistName == "" {
		c.Clinic.TherapistName = "Mizo"
	}
	if c.Clinic.OrganizerName == "" {
		c.Clinic.OrganizerName = "Therapist"
	}
	if c.Clinic.OrganizerEmail == "" {
		c.Clinic.OrganizerEmail = c.SMTP.From
	}
}
