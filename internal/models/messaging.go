// Package models defines messaging event structures for DebtBridge.
package models

// MessageStatus represents the delivery status of an outbound message.
type MessageStatus string

const (
	// MessageStatusSent indicates the message was accepted by the carrier API.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusDelivered indicates carrier-confirmed delivery.
	MessageStatusDelivered MessageStatus = "delivered"
	// MessageStatusFailed indicates the carrier rejected the message.
	MessageStatusFailed MessageStatus = "failed"
)

// Receipt records the delivery status of one outbound message.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response is an inbound participant message from a messaging channel.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
