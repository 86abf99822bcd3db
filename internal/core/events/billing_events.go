package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeBillCreated      = "bill.created"
	EventTypeBillsSwept       = "bill.swept_overdue"
	EventTypePaymentSubmitted = "payment.submitted"
	EventTypePaymentConfirmed = "payment.confirmed"
	EventTypePaymentRejected  = "payment.rejected"
)

type BillCreatedEvent struct {
	BaseEvent
	BillID     int64  `json:"bill_id"`
	BillNumber string `json:"bill_number"`
	StudentID  int64  `json:"student_id"`
	CreatedBy  int64  `json:"created_by"`
}

func NewBillCreatedEvent(billID int64, billNumber string, studentID, createdBy int64) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBillCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"bill_id":     billID,
				"bill_number": billNumber,
				"student_id":  studentID,
				"created_by":  createdBy,
			},
		},
		BillID:     billID,
		BillNumber: billNumber,
		StudentID:  studentID,
		CreatedBy:  createdBy,
	}
}

type BillsSweptEvent struct {
	BaseEvent
	SweptCount int64 `json:"swept_count"`
	ActorID    int64 `json:"actor_id"`
}

func NewBillsSweptEvent(sweptCount, actorID int64) *BillsSweptEvent {
	return &BillsSweptEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBillsSwept,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"swept_count": sweptCount,
				"actor_id":    actorID,
			},
		},
		SweptCount: sweptCount,
		ActorID:    actorID,
	}
}

type PaymentSubmittedEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	PaymentNumber string `json:"payment_number"`
	BillID        int64  `json:"bill_id"`
	StudentID     int64  `json:"student_id"`
}

func NewPaymentSubmittedEvent(paymentID int64, paymentNumber string, billID, studentID int64) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"payment_number": paymentNumber,
				"bill_id":        billID,
				"student_id":     studentID,
			},
		},
		PaymentID:     paymentID,
		PaymentNumber: paymentNumber,
		BillID:        billID,
		StudentID:     studentID,
	}
}

type PaymentConfirmedEvent struct {
	BaseEvent
	PaymentID   int64 `json:"payment_id"`
	BillID      int64 `json:"bill_id"`
	ConfirmedBy int64 `json:"confirmed_by"`
}

func NewPaymentConfirmedEvent(paymentID, billID, confirmedBy int64) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":   paymentID,
				"bill_id":      billID,
				"confirmed_by": confirmedBy,
			},
		},
		PaymentID:   paymentID,
		BillID:      billID,
		ConfirmedBy: confirmedBy,
	}
}

type PaymentRejectedEvent struct {
	BaseEvent
	PaymentID  int64  `json:"payment_id"`
	RejectedBy int64  `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewPaymentRejectedEvent(paymentID, rejectedBy int64, reason string) *PaymentRejectedEvent {
	return &PaymentRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":  paymentID,
				"rejected_by": rejectedBy,
				"reason":      reason,
			},
		},
		PaymentID:  paymentID,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}
