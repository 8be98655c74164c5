package models

import (
	"time"
)

// Message is one support chat entry on a CO2 order
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Order     CO2Order  `gorm:"foreignKey:OrderID" json:"-"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    User      `gorm:"foreignKey:SenderID" json:"sender"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "support_messages"
}

// SupportSLA summarises how quickly an admin answered the customer on a thread
type SupportSLA struct {
	TargetSeconds        int64      `json:"target_seconds"`
	FirstCustomerMessage *time.Time `json:"first_customer_message_at"`
	FirstAdminResponse   *time.Time `json:"first_admin_response_at"`
	FirstResponseSeconds *int64     `json:"first_response_seconds"`
	Breached             bool       `json:"breached"`
	AwaitingResponse     bool       `json:"awaiting_response"`
}

// ComputeSupportSLA measures the first admin reply after the first customer message.
// Messages must be ordered by CreatedAt ascending and have Sender loaded.
func ComputeSupportSLA(messages []Message, target time.Duration, now time.Time) SupportSLA {
	sla := SupportSLA{TargetSeconds: int64(target / time.Second)}

	for i := range messages {
		m := messages[i]
		if sla.FirstCustomerMessage == nil {
			if !m.Sender.IsAdmin() {
				at := m.CreatedAt
				sla.FirstCustomerMessage = &at
			}
			continue
		}
		if m.Sender.IsAdmin() {
			at := m.CreatedAt
			sla.FirstAdminResponse = &at
			break
		}
	}

	if sla.FirstCustomerMessage == nil {
		return sla
	}

	if sla.FirstAdminResponse != nil {
		elapsed := sla.FirstAdminResponse.Sub(*sla.FirstCustomerMessage)
		secs := int64(elapsed / time.Second)
		sla.FirstResponseSeconds = &secs
		sla.Breached = target > 0 && elapsed > target
		return sla
	}

	sla.AwaitingResponse = true
	sla.Breached = target > 0 && now.Sub(*sla.FirstCustomerMessage) > target
	return sla
}
