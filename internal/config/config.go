package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	SendGrid    SendGridConfig    `yaml:"sendgrid"`
	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	Invitations InvitationsConfig `yaml:"invitations"`
	Comparison  ComparisonConfig  `yaml:"comparison"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PortalBaseURL is prepended to access tokens to build magic links,
	// e.g. https://compass.example.com/vendor-portal
	PortalBaseURL string `yaml:"portal_base_url"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SendGridConfig contains email delivery settings
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	// OrgNotifyEmail receives completion notices when the vendor submits.
	OrgNotifyEmail string `yaml:"org_notify_email"`
}

// JWTConfig contains token settings for organization API auth and
// vendor portal sessions
type JWTConfig struct {
	Secret                  string `yaml:"secret"`
	VendorSessionTTLMinutes int    `yaml:"vendor_session_ttl_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// InvitationsConfig contains invitation lifecycle settings
type InvitationsConfig struct {
	DefaultExpiryDays int `yaml:"default_expiry_days"`
	// ReissueResetsAnswers controls whether issuing a fresh invitation for
	// an assessment whose previous invitation completed wipes the vendor's
	// prior answers back to not_assessed.
	ReissueResetsAnswers bool   `yaml:"reissue_resets_answers"`
	ReminderSchedule     string `yaml:"reminder_schedule"`
	ReminderWindowHours  int    `yaml:"reminder_window_hours"`
}

// ComparisonConfig contains comparison engine settings
type ComparisonConfig struct {
	// ExcludeNotApplicable moves controls the organization marked
	// not_applicable out of the differences count into their own bucket.
	ExcludeNotApplicable bool `yaml:"exclude_not_applicable"`
}

// RateLimitConfig throttles the unauthenticated vendor portal endpoints
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.SendGrid.FromEmail = val
	}
	if val := os.Getenv("SENDGRID_FROM_NAME"); val != "" {
		c.SendGrid.FromName = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("PORTAL_BASE_URL"); val != "" {
		c.Server.PortalBaseURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.PortalBaseURL == "" {
		return fmt.Errorf("portal base URL is required")
	}
	c.Server.PortalBaseURL = strings.TrimRight(c.Server.PortalBaseURL, "/")

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.VendorSessionTTLMinutes <= 0 {
		c.JWT.VendorSessionTTLMinutes = 60
	}

	// Invitation defaults
	if c.Invitations.DefaultExpiryDays <= 0 {
		c.Invitations.DefaultExpiryDays = 30
	}
	if c.Invitations.ReminderSchedule == "" {
		c.Invitations.ReminderSchedule = "0 0 9 * * *" // 9 AM UTC daily
	}
	if c.Invitations.ReminderWindowHours <= 0 {
		c.Invitations.ReminderWindowHours = 72
	}

	// Rate limit defaults
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VendorSessionTTL returns the vendor portal session lifetime
func (c *Config) VendorSessionTTL() time.Duration {
	return time.Duration(c.JWT.VendorSessionTTLMinutes) * time.Minute
}
