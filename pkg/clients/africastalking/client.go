package africastalking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const (
	productionBaseURL = "https://api.africastalking.com"
	sandboxBaseURL    = "https://api.sandbox.africastalking.com"

	// MaxMessageLength is the send cap used when none is configured.
	MaxMessageLength = 150

	statusSuccess = "Success"
)

// ErrInvalidRequest indicates a send was attempted without recipient or body.
var ErrInvalidRequest = errors.New("phone number and message are required")

// Client exposes the Africa's Talking operations used by the application.
type Client interface {
	SendSMS(ctx context.Context, to, message string) (*models.SendResult, error)
	FetchBalance(ctx context.Context) (*models.Balance, error)
}

var _ Client = (*APIClient)(nil)

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	username   string
	senderID   string
	maxLength  int
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient builds an Africa's Talking API client using the provided configuration values.
func NewClient(cfg config.SMSConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := cfg.BaseURL
	if base == "" {
		base = productionBaseURL
		if cfg.Sandbox() {
			base = sandboxBaseURL
		}
	}

	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}

	sendRate := cfg.SendRate
	if sendRate <= 0 {
		sendRate = 5
	}

	restyClient := resty.New()
	restyClient.
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetBaseURL(strings.TrimSuffix(base, "/")).
		SetHeader("apiKey", cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		username:   cfg.Username,
		senderID:   cfg.SenderID,
		maxLength:  maxLength,
		limiter:    rate.NewLimiter(rate.Limit(sendRate), max(1, int(sendRate))),
		logger:     logger,
	}
}

type sendResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Status     string `json:"status"`
			Cost       string `json:"cost"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

type balanceResponse struct {
	UserData struct {
		Balance string `json:"balance"`
	} `json:"UserData"`
}

// SendSMS delivers message to a single recipient. The number is prefixed with
// "+" when missing and the body is cut to the single-segment budget.
func (c *APIClient) SendSMS(ctx context.Context, to, message string) (*models.SendResult, error) {
	to = strings.TrimSpace(to)
	if to == "" || message == "" {
		return nil, ErrInvalidRequest
	}

	if n := utf8.RuneCountInString(message); n > c.maxLength {
		c.logger.Warn("message truncated before send", zap.Int("length", n), zap.Int("limit", c.maxLength))
		if c.maxLength > 3 {
			message = string([]rune(message)[:c.maxLength-3]) + "..."
		} else {
			message = string([]rune(message)[:c.maxLength])
		}
	}

	recipient := FormatPhoneNumber(to)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for send slot: %w", err)
	}

	form := map[string]string{
		"username": c.username,
		"to":       recipient,
		"message":  message,
	}
	if c.senderID != "" {
		form["from"] = c.senderID
	}

	result := new(sendResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(result).
		Post("/version1/messaging")
	if err != nil {
		return nil, fmt.Errorf("send sms: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("africastalking api error: code=%d, message=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	recipients := result.SMSMessageData.Recipients
	if len(recipients) == 0 {
		return nil, fmt.Errorf("unexpected response format from sms service: %s", result.SMSMessageData.Message)
	}

	first := recipients[0]
	if first.Status != statusSuccess {
		return nil, fmt.Errorf("sms failed to %s: %s", recipient, first.Status)
	}

	c.logger.Info("sms sent",
		zap.String("to", recipient),
		zap.String("message_id", first.MessageID),
		zap.String("cost", first.Cost))

	return &models.SendResult{
		MessageID: first.MessageID,
		Cost:      first.Cost,
		Status:    first.Status,
		Number:    first.Number,
	}, nil
}

// FetchBalance returns the account balance, e.g. "USD 12.50".
func (c *APIClient) FetchBalance(ctx context.Context) (*models.Balance, error) {
	result := new(balanceResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("username", c.username).
		SetResult(result).
		Get("/version1/user")
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("africastalking api error: code=%d, message=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return ParseBalance(result.UserData.Balance)
}

// ParseBalance splits a "<CURRENCY> <amount>" balance string.
func ParseBalance(raw string) (*models.Balance, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return nil, fmt.Errorf("unexpected balance format %q", raw)
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[1], ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("parse balance amount %q: %w", fields[1], err)
	}

	return &models.Balance{Raw: raw, Amount: amount, Currency: fields[0]}, nil
}

// FormatPhoneNumber ensures the number is in international "+" form.
func FormatPhoneNumber(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + number
}
