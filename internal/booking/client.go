package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"leadsync/internal/normalize"
)

// AuthToken is an ephemeral session with the scheduling platform. It is
// fetched fresh per sync attempt and never cached across runs.
type AuthToken struct {
	AccessToken string
	CompanyID   string
	// Timezone is the company's IANA region name, empty when unknown.
	Timezone string
}

// AuthClient authenticates against the scheduling platform.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (AuthToken, error)

	// CompanyTimezone resolves the company's configured timezone region via
	// an authenticated lookup.
	CompanyTimezone(ctx context.Context, token AuthToken) (string, error)
}

// BookingPayload is the outbound booking request body.
type BookingPayload struct {
	CustomerName   string            `json:"customer_name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Address        normalize.Address `json:"address"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	JobDescription string            `json:"job_description"`
	CompanyID      string            `json:"company_id"`
	Source         string            `json:"source"`
}

// Creator creates bookings on the scheduling platform.
type Creator interface {
	// CreateBooking returns the platform booking id, or a *ProviderError
	// carrying the platform's failure message.
	CreateBooking(ctx context.Context, token AuthToken, p BookingPayload) (string, error)
}

// ProviderError is a non-2xx or error-body response from the platform.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("booking platform: status %d: %s", e.StatusCode, e.Message)
}

// ClientConfig for the platform HTTP client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements AuthClient and Creator over the platform's REST API.
type Client struct {
	http *resty.Client
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(timeout)}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	CompanyID   string `json:"company_id"`
	Timezone    string `json:"timezone,omitempty"`
	Message     string `json:"message,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthToken, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&out).
		Post("/auth/login")
	if err != nil {
		return AuthToken{}, fmt.Errorf("booking: login: %w", err)
	}
	if resp.IsError() || out.AccessToken == "" {
		return AuthToken{}, &ProviderError{StatusCode: resp.StatusCode(), Message: out.Message}
	}
	return AuthToken{AccessToken: out.AccessToken, CompanyID: out.CompanyID, Timezone: out.Timezone}, nil
}

type companyInfoResponse struct {
	Timezone string `json:"timezone"`
	Message  string `json:"message,omitempty"`
}

func (c *Client) CompanyTimezone(ctx context.Context, token AuthToken) (string, error) {
	var out companyInfoResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&out).
		Get("/companies/" + token.CompanyID)
	if err != nil {
		return "", fmt.Errorf("booking: company info: %w", err)
	}
	if resp.IsError() || out.Timezone == "" {
		return "", &ProviderError{StatusCode: resp.StatusCode(), Message: out.Message}
	}
	return out.Timezone, nil
}

type createBookingResponse struct {
	BookingID string `json:"booking_id"`
	Message   string `json:"message,omitempty"`
}

func (c *Client) CreateBooking(ctx context.Context, token AuthToken, p BookingPayload) (string, error) {
	var out createBookingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(p).
		SetResult(&out).
		SetError(&out).
		Post("/bookings")
	if err != nil {
		return "", fmt.Errorf("booking: create: %w", err)
	}
	if resp.IsError() || out.BookingID == "" {
		msg := out.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", &ProviderError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return out.BookingID, nil
}
