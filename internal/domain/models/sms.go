package models

import "time"

// InboundSMSPayload mirrors the Africa's Talking incoming message callback.
// Production and sandbox use different names for some fields, so both are bound.
type InboundSMSPayload struct {
	From        string `form:"from" json:"from"`
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber"`
	Text        string `form:"text" json:"text"`
	To          string `form:"to" json:"to"`
	ShortCode   string `form:"shortCode" json:"shortCode"`
	Date        string `form:"date" json:"date"`
	ID          string `form:"id" json:"id"`
	MessageID   string `form:"messageId" json:"messageId"`
	LinkID      string `form:"linkId" json:"linkId"`
	NetworkCode string `form:"networkCode" json:"networkCode"`
}

// InboundSMS is the provider-neutral record handed to the SMS service.
type InboundSMS struct {
	ID   string
	From string
	To   string
	Text string
	Date string
}

// Normalize collapses the provider field variants into an InboundSMS.
func (p InboundSMSPayload) Normalize() InboundSMS {
	return InboundSMS{
		ID:   firstNonEmpty(p.ID, p.MessageID),
		From: firstNonEmpty(p.From, p.PhoneNumber),
		To:   firstNonEmpty(p.To, p.ShortCode),
		Text: p.Text,
		Date: p.Date,
	}
}

// InboundResult summarizes how an inbound message was handled.
type InboundResult struct {
	Status         string      `json:"status"`
	Command        CommandKind `json:"command,omitempty"`
	ResponseLength int         `json:"response_length"`
	PayloadFormat  string      `json:"payload_format"`
}

const (
	InboundStatusSuccess  = "success"
	InboundStatusHelpSent = "help_sent"

	PayloadFormatProduction = "production"
	PayloadFormatSandbox    = "sandbox"
)

// MessageLog is the stored audit entry of one inbound message and its reply.
type MessageLog struct {
	MessageID      string       `bson:"message_id" json:"message_id"`
	From           string       `bson:"from" json:"from"`
	To             string       `bson:"to" json:"to"`
	RawText        string       `bson:"raw_text" json:"raw_text"`
	NormalizedText string       `bson:"normalized_text" json:"normalized_text"`
	Command        CommandKind  `bson:"command" json:"command"`
	Coordinates    *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Crop           Crop         `bson:"crop,omitempty" json:"crop,omitempty"`
	ParseError     string       `bson:"parse_error,omitempty" json:"parse_error,omitempty"`
	Reply          string       `bson:"reply" json:"reply"`
	ReplyLength    int          `bson:"reply_length" json:"reply_length"`
	ReceivedAt     time.Time    `bson:"received_at" json:"received_at"`
}

// DeliveryReport mirrors the Africa's Talking delivery report callback.
type DeliveryReport struct {
	ID            string    `form:"id" json:"id" bson:"message_id"`
	PhoneNumber   string    `form:"phoneNumber" json:"phoneNumber" bson:"phone_number"`
	Status        string    `form:"status" json:"status" bson:"status"`
	NetworkCode   string    `form:"networkCode" json:"networkCode" bson:"network_code"`
	FailureReason string    `form:"failureReason" json:"failureReason" bson:"failure_reason,omitempty"`
	RetryCount    string    `form:"retryCount" json:"retryCount" bson:"retry_count,omitempty"`
	Cost          string    `form:"cost" json:"cost" bson:"cost,omitempty"`
	Date          string    `form:"date" json:"date" bson:"date,omitempty"`
	ReceivedAt    time.Time `form:"-" json:"-" bson:"received_at"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
