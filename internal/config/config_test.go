package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const validYAML = `
portal:
  base_url: https://escola.inovarmais.com
  username: aluno
  password: ${TEST_INOVAR_PASSWORD}
  wait_seconds: 5
mail:
  sender_email: pais@example.com
  app_password: abcd efgh ijkl mnop
  receivers:
    - mae@example.com
    - "pai@example.com, avo@example.com"
agenda:
  data_dir: /tmp/agenda
  timezone: UTC
`

func TestParse(t *testing.T) {
	t.Setenv("TEST_INOVAR_PASSWORD", "s3gr3do")

	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Portal.Password != "s3gr3do" {
		t.Errorf("Portal.Password = %q, want expanded env value", cfg.Portal.Password)
	}
	if cfg.Portal.WaitSeconds != 5 {
		t.Errorf("Portal.WaitSeconds = %d, want 5", cfg.Portal.WaitSeconds)
	}
	if !cfg.Portal.Headless {
		t.Error("Portal.Headless should default to true")
	}
	if cfg.Portal.TimeoutSeconds != 180 {
		t.Errorf("Portal.TimeoutSeconds = %d, want default 180", cfg.Portal.TimeoutSeconds)
	}
	if cfg.Mail.SMTPHost != "smtp.gmail.com" || cfg.Mail.SMTPPort != 587 {
		t.Errorf("Mail SMTP = %s:%d, want smtp.gmail.com:587", cfg.Mail.SMTPHost, cfg.Mail.SMTPPort)
	}
	wantReceivers := []string{"mae@example.com", "pai@example.com", "avo@example.com"}
	if !reflect.DeepEqual(cfg.Mail.Receivers, wantReceivers) {
		t.Errorf("Mail.Receivers = %v, want %v", cfg.Mail.Receivers, wantReceivers)
	}
	if cfg.Agenda.DataDir != "/tmp/agenda" {
		t.Errorf("Agenda.DataDir = %q", cfg.Agenda.DataDir)
	}
	if !reflect.DeepEqual(cfg.Agenda.Headers, []string{"Data/Hora", "Evento", "Professor"}) {
		t.Errorf("Agenda.Headers = %v, want defaults", cfg.Agenda.Headers)
	}
	if cfg.Agenda.JSONFile != "agenda_sorted.json" {
		t.Errorf("Agenda.JSONFile = %q, want default", cfg.Agenda.JSONFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("portal: [unclosed")); err == nil {
		t.Error("Parse() expected error for malformed YAML")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_INOVAR_PASSWORD", "x")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Portal.Username != "aluno" {
		t.Errorf("Portal.Username = %q, want aluno", cfg.Portal.Username)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Portal.BaseURL = "https://escola.inovarmais.com"
		cfg.Portal.Username = "aluno"
		cfg.Portal.Password = "senha"
		cfg.Mail.SenderEmail = "pais@example.com"
		cfg.Mail.AppPassword = "app-password"
		cfg.Mail.Receivers = []string{"mae@example.com"}
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		sections    []Section
		wantSection Section
		wantField   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.Portal.BaseURL = "" }, wantSection: SectionPortal, wantField: "base_url"},
		{name: "base url without scheme", mutate: func(c *Config) { c.Portal.BaseURL = "escola.inovarmais.com" }, wantSection: SectionPortal, wantField: "base_url"},
		{name: "missing username", mutate: func(c *Config) { c.Portal.Username = "" }, wantSection: SectionPortal, wantField: "username"},
		{name: "missing password", mutate: func(c *Config) { c.Portal.Password = "" }, wantSection: SectionPortal, wantField: "password"},
		{name: "bad remote url", mutate: func(c *Config) { c.Portal.RemoteURL = "ftp://hub:4444" }, wantSection: SectionPortal, wantField: "remote_url"},
		{name: "remote devtools url", mutate: func(c *Config) { c.Portal.RemoteURL = "ws://chrome:9222" }},
		{name: "negative wait", mutate: func(c *Config) { c.Portal.WaitSeconds = -1 }, wantSection: SectionPortal, wantField: "wait_seconds"},
		{name: "timeout shorter than wait", mutate: func(c *Config) { c.Portal.TimeoutSeconds = 30 }, wantSection: SectionPortal, wantField: "timeout_seconds"},
		{name: "placeholder sender", mutate: func(c *Config) { c.Mail.SenderEmail = PlaceholderSender }, wantSection: SectionMail, wantField: "sender_email"},
		{name: "placeholder password", mutate: func(c *Config) { c.Mail.AppPassword = PlaceholderPassword }, wantSection: SectionMail, wantField: "app_password"},
		{name: "no receivers", mutate: func(c *Config) { c.Mail.Receivers = nil }, wantSection: SectionMail, wantField: "receivers"},
		{name: "bad receiver", mutate: func(c *Config) { c.Mail.Receivers = []string{"not an address"} }, wantSection: SectionMail, wantField: "receivers"},
		{name: "bad port", mutate: func(c *Config) { c.Mail.SMTPPort = 0 }, wantSection: SectionMail, wantField: "smtp_port"},
		{name: "no headers", mutate: func(c *Config) { c.Agenda.Headers = nil }, wantSection: SectionAgenda, wantField: "headers"},
		{name: "blank header", mutate: func(c *Config) { c.Agenda.Headers = []string{"Evento", " "} }, wantSection: SectionAgenda, wantField: "headers"},
		{name: "unknown timezone", mutate: func(c *Config) { c.Agenda.Timezone = "Mars/Olympus" }, wantSection: SectionAgenda, wantField: "timezone"},
		{
			name:     "portal problems ignored when only agenda is checked",
			mutate:   func(c *Config) { c.Portal = PortalConfig{} },
			sections: []Section{SectionAgenda},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate(tt.sections...)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Section != tt.wantSection || cfgErr.Field != tt.wantField {
				t.Errorf("Validate() error at %s.%s, want %s.%s", cfgErr.Section, cfgErr.Field, tt.wantSection, tt.wantField)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("errors.Is(err, ErrInvalidConfig) = false")
			}
		})
	}
}

func TestPortalHelpers(t *testing.T) {
	p := PortalConfig{BaseURL: "https://escola.inovarmais.com/", WaitSeconds: 3, TimeoutSeconds: 60}

	if got := p.LoginURL(); got != "https://escola.inovarmais.com/consulta/app/index.html" {
		t.Errorf("LoginURL() = %q", got)
	}
	if p.Wait().Seconds() != 3 || p.Timeout().Seconds() != 60 {
		t.Errorf("Wait()/Timeout() = %v/%v", p.Wait(), p.Timeout())
	}
}

func TestAgendaColumns(t *testing.T) {
	a := AgendaConfig{EventHeader: "Atividade"}
	cols := a.Columns()

	if cols.DateTime != "Data/Hora" || cols.Event != "Atividade" || cols.Professor != "Professor" {
		t.Errorf("Columns() = %+v", cols)
	}
}
