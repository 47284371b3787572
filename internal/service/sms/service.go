package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

var (
	// ErrMissingFields indicates an inbound message without sender or text.
	ErrMissingFields = errors.New("missing required sms fields (from/phoneNumber or text)")
	// ErrInvalidDeliveryReport indicates a delivery report without id or status.
	ErrInvalidDeliveryReport = errors.New("delivery report requires id and status")
	// ErrStoreUnavailable indicates persistence is not configured.
	ErrStoreUnavailable = errors.New("message store not configured")
)

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer and scheduler can perform.
type MessagingService interface {
	HandleInbound(ctx context.Context, msg models.InboundSMS) (models.InboundResult, error)
	HandleDeliveryReport(ctx context.Context, report models.DeliveryReport) error
	DeliveryStats(ctx context.Context, since time.Time) (models.DeliveryStats, error)
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	Balance(ctx context.Context) (*models.Balance, error)
}

// Parser turns SMS text into commands.
type Parser interface {
	Parse(text string) models.ParsedCommand
}

// Dispatcher produces the reply for a parsed command.
type Dispatcher interface {
	Reply(ctx context.Context, cmd models.ParsedCommand) string
}

// Gateway sends SMS through the provider.
type Gateway interface {
	SendSMS(ctx context.Context, to, message string) (*models.SendResult, error)
	FetchBalance(ctx context.Context) (*models.Balance, error)
}

// Store persists message logs and delivery reports.
type Store interface {
	SaveMessageLog(ctx context.Context, entry models.MessageLog) error
	SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error
	DeliveryStats(ctx context.Context, since time.Time) (models.DeliveryStats, error)
}

// AuditLog receives a copy of every handled message.
type AuditLog interface {
	AppendMessage(ctx context.Context, entry models.MessageLog) error
}

// Service is the production MessagingService. store and audit are optional.
type Service struct {
	parser     Parser
	dispatcher Dispatcher
	gateway    Gateway
	store      Store
	audit      AuditLog
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a new service instance.
func NewService(parser Parser, dispatcher Dispatcher, gateway Gateway, store Store, audit AuditLog, logger *zap.Logger) *Service {
	svc := &Service{
		parser:     parser,
		dispatcher: dispatcher,
		gateway:    gateway,
		store:      store,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// HandleInbound parses one SMS, computes the reply and sends it back to the sender.
func (s *Service) HandleInbound(ctx context.Context, msg models.InboundSMS) (models.InboundResult, error) {
	if strings.TrimSpace(msg.From) == "" || msg.Text == "" {
		return models.InboundResult{}, ErrMissingFields
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	format := models.PayloadFormatSandbox
	if strings.Contains(msg.From, "+") {
		format = models.PayloadFormatProduction
	}
	phone := CleanPhoneNumber(msg.From)

	cmd := s.parser.Parse(msg.Text)
	fields := []zap.Field{
		zap.String("message_id", msg.ID),
		zap.String("from", phone),
		zap.String("to", msg.To),
		zap.String("raw_text", msg.Text),
		zap.String("normalized_text", cmd.NormalizedText),
		zap.String("command", string(cmd.Kind)),
	}
	if cmd.Valid() {
		s.logger.Info("parsed inbound command", fields...)
	} else {
		s.logger.Info("invalid inbound command", append(fields,
			zap.String("reason", cmd.Reason()),
			zap.Bool("coordinate_error", models.IsCoordinateError(cmd.Err)))...)
	}

	reply := s.dispatcher.Reply(ctx, cmd)

	result := models.InboundResult{
		Status:         models.InboundStatusSuccess,
		Command:        cmd.Kind,
		ResponseLength: utf8.RuneCountInString(reply),
		PayloadFormat:  format,
	}
	if !cmd.Valid() {
		result.Status = models.InboundStatusHelpSent
		result.Command = ""
	}

	s.record(ctx, models.MessageLog{
		MessageID:      msg.ID,
		From:           phone,
		To:             msg.To,
		RawText:        msg.Text,
		NormalizedText: cmd.NormalizedText,
		Command:        cmd.Kind,
		Coordinates:    cmd.Coordinates,
		Crop:           cmd.Crop,
		ParseError:     cmd.Reason(),
		Reply:          reply,
		ReplyLength:    result.ResponseLength,
		ReceivedAt:     s.now().UTC(),
	})

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := s.gateway.SendSMS(ctxWithTimeout, phone, reply); err != nil {
		return result, fmt.Errorf("send reply: %w", err)
	}

	return result, nil
}

// HandleDeliveryReport records a delivery report. Without a store it is only logged.
func (s *Service) HandleDeliveryReport(ctx context.Context, report models.DeliveryReport) error {
	if report.ID == "" || report.Status == "" {
		return ErrInvalidDeliveryReport
	}
	report.ReceivedAt = s.now().UTC()

	s.logger.Info("delivery report",
		zap.String("message_id", report.ID),
		zap.String("phone", report.PhoneNumber),
		zap.String("status", report.Status),
		zap.String("network", report.NetworkCode),
		zap.String("failure_reason", report.FailureReason),
		zap.String("cost", report.Cost))

	if s.store == nil {
		return nil
	}

	if err := s.store.SaveDeliveryReport(ctx, report); err != nil {
		return fmt.Errorf("store delivery report: %w", err)
	}
	return nil
}

// DeliveryStats summarizes delivery reports and inbound traffic since the given time.
func (s *Service) DeliveryStats(ctx context.Context, since time.Time) (models.DeliveryStats, error) {
	if s.store == nil {
		return models.DeliveryStats{}, ErrStoreUnavailable
	}
	return s.store.DeliveryStats(ctx, since)
}

// SendOutbound lets internal operators push notifications.
func (s *Service) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.gateway.SendSMS(ctxWithTimeout, CleanPhoneNumber(req.To), req.Message)
	return err
}

// Balance returns the SMS account balance.
func (s *Service) Balance(ctx context.Context) (*models.Balance, error) {
	return s.gateway.FetchBalance(ctx)
}

func (s *Service) record(ctx context.Context, entry models.MessageLog) {
	if s.store != nil {
		if err := s.store.SaveMessageLog(ctx, entry); err != nil {
			s.logger.Error("failed to store message log", zap.Error(err), zap.String("message_id", entry.MessageID))
		}
	}

	if s.audit != nil {
		if err := s.audit.AppendMessage(ctx, entry); err != nil {
			s.logger.Error("failed to append audit row", zap.Error(err), zap.String("message_id", entry.MessageID))
		}
	}
}

// CleanPhoneNumber strips whitespace and the leading "+" from a sender number.
func CleanPhoneNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, number)
}
