package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "config.yaml"

// Placeholder credentials shipped in the example configuration.
const (
	PlaceholderSender   = "seu_email_aqui@gmail.com"
	PlaceholderPassword = "sua_senha_de_app_aqui"
)

// Section names a top-level block of the configuration file.
type Section string

const (
	SectionPortal Section = "portal"
	SectionMail   Section = "mail"
	SectionAgenda Section = "agenda"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Section Section
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s.%s: %s", e.Section, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Config is the complete application configuration.
type Config struct {
	Portal PortalConfig `yaml:"portal"`
	Mail   MailConfig   `yaml:"mail"`
	Agenda AgendaConfig `yaml:"agenda"`
}

// PortalConfig describes how to reach the school portal.
type PortalConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// RemoteURL points at an already running browser's DevTools endpoint.
	// Empty means a local browser is started.
	RemoteURL      string `yaml:"remote_url,omitempty"`
	Headless       bool   `yaml:"headless"`
	WaitSeconds    int    `yaml:"wait_seconds"`    // pause after opening the agenda, default 59
	TimeoutSeconds int    `yaml:"timeout_seconds"` // whole session, default 180
	UserAgent      string `yaml:"user_agent,omitempty"`
}

// MailConfig holds the SMTP account used to send reminders.
type MailConfig struct {
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
	SenderEmail string   `yaml:"sender_email"`
	AppPassword string   `yaml:"app_password"`
	Receivers   []string `yaml:"receivers"`
}

// AgendaConfig controls extraction, storage and event selection.
type AgendaConfig struct {
	DataDir         string   `yaml:"data_dir"`
	HTMLFile        string   `yaml:"html_file"`
	JSONFile        string   `yaml:"json_file"`
	Headers         []string `yaml:"headers"`
	DateTimeHeader  string   `yaml:"datetime_header"`
	EventHeader     string   `yaml:"event_header"`
	ProfessorHeader string   `yaml:"professor_header"`
	Timezone        string   `yaml:"timezone"`
}

// Default returns the configuration used for values absent from the file.
func Default() *Config {
	cols := event.DefaultColumns()
	return &Config{
		Portal: PortalConfig{
			Headless:       true,
			WaitSeconds:    59,
			TimeoutSeconds: 180,
		},
		Mail: MailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		Agenda: AgendaConfig{
			DataDir:         "~/.local/share/inovar-agenda",
			HTMLFile:        "inovar_agenda.html",
			JSONFile:        "agenda_sorted.json",
			Headers:         []string{cols.DateTime, cols.Event, cols.Professor},
			DateTimeHeader:  cols.DateTime,
			EventHeader:     cols.Event,
			ProfessorHeader: cols.Professor,
			Timezone:        "Europe/Lisbon",
		},
	}
}

// Load reads the configuration at path. If path is empty or is the default
// path and does not exist, the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables within the YAML content (e.g. ${INOVAR_PASSWORD})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Mail.Receivers = splitReceivers(cfg.Mail.Receivers)
	return cfg, nil
}

// Validate checks the given sections, or every section when none is given.
func (c *Config) Validate(sections ...Section) error {
	if len(sections) == 0 {
		sections = []Section{SectionPortal, SectionMail, SectionAgenda}
	}

	for _, s := range sections {
		var err error
		switch s {
		case SectionPortal:
			err = c.Portal.Validate()
		case SectionMail:
			err = c.Mail.Validate()
		case SectionAgenda:
			err = c.Agenda.Validate()
		default:
			err = &ConfigError{Section: s, Field: "*", Reason: "unknown section"}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the portal section.
func (p PortalConfig) Validate() error {
	invalid := func(field, reason string) error {
		return &ConfigError{Section: SectionPortal, Field: field, Reason: reason}
	}

	if p.BaseURL == "" {
		return invalid("base_url", "must be set")
	}
	if u, err := url.Parse(p.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("base_url", "must be an http(s) URL")
	}
	if p.Username == "" {
		return invalid("username", "must be set")
	}
	if p.Password == "" {
		return invalid("password", "must be set")
	}
	if p.RemoteURL != "" {
		u, err := url.Parse(p.RemoteURL)
		if err != nil || u.Host == "" {
			return invalid("remote_url", "must be a ws(s) or http(s) URL")
		}
		switch u.Scheme {
		case "ws", "wss", "http", "https":
		default:
			return invalid("remote_url", "must be a ws(s) or http(s) URL")
		}
	}
	if p.WaitSeconds < 0 {
		return invalid("wait_seconds", "must not be negative")
	}
	if p.TimeoutSeconds <= 0 {
		return invalid("timeout_seconds", "must be positive")
	}
	if p.TimeoutSeconds <= p.WaitSeconds {
		return invalid("timeout_seconds", "must be greater than wait_seconds")
	}
	return nil
}

// LoginURL is the portal's sign-in page.
func (p PortalConfig) LoginURL() string {
	return strings.TrimRight(p.BaseURL, "/") + "/consulta/app/index.html"
}

// Wait returns WaitSeconds as a duration.
func (p PortalConfig) Wait() time.Duration {
	return time.Duration(p.WaitSeconds) * time.Second
}

// Timeout returns TimeoutSeconds as a duration.
func (p PortalConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Validate checks the mail section, rejecting the example placeholders.
func (m MailConfig) Validate() error {
	invalid := func(field, reason string) error {
		return &ConfigError{Section: SectionMail, Field: field, Reason: reason}
	}

	if m.SMTPHost == "" {
		return invalid("smtp_host", "must be set")
	}
	if m.SMTPPort <= 0 || m.SMTPPort > 65535 {
		return invalid("smtp_port", "must be between 1 and 65535")
	}
	if m.SenderEmail == "" {
		return invalid("sender_email", "must be set")
	}
	if m.SenderEmail == PlaceholderSender {
		return invalid("sender_email", "still set to the example placeholder")
	}
	if _, err := mail.ParseAddress(m.SenderEmail); err != nil {
		return invalid("sender_email", "not a valid address")
	}
	if m.AppPassword == "" {
		return invalid("app_password", "must be set")
	}
	if m.AppPassword == PlaceholderPassword {
		return invalid("app_password", "still set to the example placeholder")
	}
	if len(m.Receivers) == 0 {
		return invalid("receivers", "at least one receiver is required")
	}
	for _, r := range m.Receivers {
		if _, err := mail.ParseAddress(r); err != nil {
			return invalid("receivers", fmt.Sprintf("%q is not a valid address", r))
		}
	}
	return nil
}

// Validate checks the agenda section.
func (a AgendaConfig) Validate() error {
	invalid := func(field, reason string) error {
		return &ConfigError{Section: SectionAgenda, Field: field, Reason: reason}
	}

	if len(a.Headers) == 0 {
		return invalid("headers", "at least one header is required")
	}
	for _, h := range a.Headers {
		if strings.TrimSpace(h) == "" {
			return invalid("headers", "headers must not be blank")
		}
	}
	if a.DateTimeHeader == "" {
		return invalid("datetime_header", "must be set")
	}
	if a.HTMLFile == "" {
		return invalid("html_file", "must be set")
	}
	if a.JSONFile == "" {
		return invalid("json_file", "must be set")
	}
	if _, err := a.Location(); err != nil {
		return invalid("timezone", err.Error())
	}
	return nil
}

// Location loads the configured time zone. Empty means local time.
func (a AgendaConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}

// Columns returns the headers used for event selection.
func (a AgendaConfig) Columns() event.Columns {
	cols := event.DefaultColumns()
	if a.DateTimeHeader != "" {
		cols.DateTime = a.DateTimeHeader
	}
	if a.EventHeader != "" {
		cols.Event = a.EventHeader
	}
	if a.ProfessorHeader != "" {
		cols.Professor = a.ProfessorHeader
	}
	return cols
}

// splitReceivers accepts both list entries and comma separated strings.
func splitReceivers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, r := range strings.Split(entry, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
	}
	return out
}
