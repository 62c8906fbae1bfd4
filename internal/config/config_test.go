package config

import "testing"

func validBase() Config {
	return Config{
		App:      AppConfig{Env: "local", Port: 8080},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "leadsync"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Auth:     AuthConfig{JWTSecret: "secret"},
		Provider: ProviderConfig{BaseURL: "https://provider.example", APIKey: "k"},
		Extraction: ExtractionConfig{
			APIKey: "k",
		},
		Booking: BookingConfig{BaseURL: "https://booking.example"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "leadsync"
	c.Auth.JWTAudience = "ops"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Schedules.Ingestion == "" || c.Schedules.Enrichment == "" || c.Schedules.BookingSync == "" {
		t.Fatalf("expected schedule defaults, got %+v", c.Schedules)
	}
}

func TestValidate_RequiresCollaboratorEndpoints(t *testing.T) {
	c := validBase()
	c.Provider.BaseURL = ""
	c.Booking.BaseURL = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing collaborator endpoints")
	}
}
