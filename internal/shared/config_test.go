package shared_test

import (
	"testing"
	"time"

	"soarfare/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "")
	t.Setenv("SESSION_KEY", "k")
	c := shared.Load()
	if c.APIBaseURL != shared.DefaultAPIBaseURL {
		t.Fatalf("base url: %s", c.APIBaseURL)
	}
	if c.FlightSearchMock {
		t.Fatalf("mock must be off by default")
	}
	if c.SessionTTL != 2*time.Hour {
		t.Fatalf("session ttl: %v", c.SessionTTL)
	}
}

func TestLoad_PublicBaseURLFallback(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "https://staging.example.com/api")
	t.Setenv("FLIGHT_SEARCH_MOCK", "true")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	c := shared.Load()
	if c.APIBaseURL != "https://staging.example.com/api" {
		t.Fatalf("base url: %s", c.APIBaseURL)
	}
	if !c.FlightSearchMock {
		t.Fatalf("expected mock mode")
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("cors origins: %v", c.CORSOrigins)
	}
	if c.SessionKey == "" {
		t.Fatalf("expected a development session key")
	}
}
