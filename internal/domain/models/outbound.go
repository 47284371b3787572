package models

// OutboundMessageRequest represents requests to send an SMS manually via the API.
type OutboundMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SendResult is the gateway acknowledgement of one sent SMS.
type SendResult struct {
	MessageID string `json:"message_id"`
	Cost      string `json:"cost"`
	Status    string `json:"status"`
	Number    string `json:"number"`
}

// Balance is the SMS gateway account balance.
type Balance struct {
	Raw      string  `json:"balance"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}
