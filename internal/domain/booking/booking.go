package booking

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/events"
	"stayloop/internal/domain/shared/money"
)

var (
	ErrInvalidGuests    = errors.New("booking: at least 1 adult guest is required")
	ErrNegativeGuests   = errors.New("booking: guest counts cannot be negative")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrNotGuest         = errors.New("booking: only the guest may perform this action")
	ErrNotHost          = errors.New("booking: only the host may perform this action")
	ErrNotCancellable   = errors.New("booking: booking can no longer be cancelled")
	ErrInvalidPayment   = errors.New("booking: invalid payment method")
	ErrRequestsTooLong  = errors.New("booking: special requests cannot exceed 500 characters")
	ErrMessageRequired  = errors.New("booking: message body is required")
	ErrMessageTooLong   = errors.New("booking: message cannot exceed 1000 characters")
	ErrNotFound         = errors.New("booking: not found")
	ErrConcurrentUpdate = errors.New("booking: concurrent update detected")
	ErrNotParticipant   = errors.New("booking: caller is not part of this booking")
	ErrCheckInInPast    = errors.New("booking: check-in date is in the past")
	ErrUnknownStatus    = errors.New("booking: unknown target status")
)

type BookingID string

type Status string

const (
	StatusPending          Status = "pending"
	StatusConfirmed        Status = "confirmed"
	StatusInProgress       Status = "in_progress"
	StatusCompleted        Status = "completed"
	StatusCancelledByGuest Status = "cancelled_by_guest"
	StatusCancelledByHost  Status = "cancelled_by_host"
	StatusNoShow           Status = "no_show"
)

func (s Status) Cancelled() bool {
	return s == StatusCancelledByGuest || s == StatusCancelledByHost
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusNoShow, StatusCancelledByGuest, StatusCancelledByHost:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPaypal     PaymentMethod = "paypal"
	PaymentStripe     PaymentMethod = "stripe"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentStripe:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type GuestCounts struct {
	Adults   int
	Children int
	Infants  int
	Pets     int
	Total    int
}

// Payment is the booking's payment sub-record. Pets do not affect it; only
// the refund fields mutate after creation.
type Payment struct {
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PaidAt        time.Time
	RefundedAt    time.Time
	RefundAmount  money.Money
	RefundReason  string
}

type Cancellation struct {
	CancelledBy  string
	CancelledAt  time.Time
	Reason       string
	Policy       RefundPolicy
	RefundAmount money.Money
}

type Message struct {
	Sender string
	Body   string
	SentAt time.Time
	Read   bool
}

// Booking is a guest's reservation of a listing. The pricing snapshot is
// immutable after creation; only status, payment, cancellation and the
// communication log mutate.
type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Nights          int
	Guests          GuestCounts
	Price           pricing.Quote
	Payment         Payment
	Status          Status
	Policy          RefundPolicy
	SpecialRequests string
	Cancellation    *Cancellation
	Communication   []Message
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string, status Status, limit, offset int) ([]*Booking, int, error)
	ListByHost(ctx context.Context, hostID string, status Status, limit, offset int) ([]*Booking, int, error)
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Guests          GuestCounts
	Price           pricing.Quote
	PaymentMethod   PaymentMethod
	Policy          RefundPolicy
	SpecialRequests string
	Now             time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests.Adults < 1 {
		return nil, ErrInvalidGuests
	}
	if params.Guests.Children < 0 || params.Guests.Infants < 0 || params.Guests.Pets < 0 {
		return nil, ErrNegativeGuests
	}
	if params.GuestID == "" {
		return nil, errors.New("booking: guest id required")
	}
	if params.HostID == "" {
		return nil, errors.New("booking: host id required")
	}
	if !params.PaymentMethod.Valid() {
		return nil, ErrInvalidPayment
	}
	requests := strings.TrimSpace(params.SpecialRequests)
	if utf8.RuneCountInString(requests) > 500 {
		return nil, ErrRequestsTooLong
	}
	policy := params.Policy
	if !policy.Valid() {
		policy = DefaultRefundPolicy
	}

	counts := params.Guests
	counts.Total = counts.Adults + counts.Children + counts.Infants

	now := params.Now.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		HostID:    params.HostID,
		Range:     params.Range,
		Nights:    params.Range.Nights(),
		Guests:    counts,
		Price:     params.Price,
		Payment: Payment{
			Method: params.PaymentMethod,
			Status: PaymentPending,
		},
		Status:          StatusPending,
		Policy:          policy,
		SpecialRequests: requests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingCreated{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		CheckIn:   b.Range.CheckIn,
		CheckOut:  b.Range.CheckOut,
		Guests:    counts.Total,
		Total:     b.Price.Total,
		At:        now,
	})
	return b, nil
}

// Confirm moves a pending booking to confirmed. Only the host may confirm.
func (b *Booking) Confirm(actor string, now time.Time) error {
	if actor != b.HostID {
		return ErrNotHost
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.touch(now)
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// CanBeCancelled is the guard exposed before offering the cancel action:
// false once the stay has started, finished, or been cancelled, and false
// once check-in is no longer strictly in the future.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	switch b.Status {
	case StatusCompleted, StatusInProgress, StatusNoShow:
		return false
	}
	if b.Status.Cancelled() {
		return false
	}
	return b.Range.CheckIn.After(now.UTC())
}

// CancelByGuest cancels on behalf of the guest, computing the refund from the
// booking's policy snapshot and recording it on both the cancellation and
// payment sub-records.
func (b *Booking) CancelByGuest(actor, reason string, now time.Time) (money.Money, error) {
	if actor != b.GuestID {
		return money.Money{}, ErrNotGuest
	}
	return b.cancel(StatusCancelledByGuest, actor, reason, now)
}

// CancelByHost cancels on behalf of the host.
func (b *Booking) CancelByHost(actor, reason string, now time.Time) (money.Money, error) {
	if actor != b.HostID {
		return money.Money{}, ErrNotHost
	}
	return b.cancel(StatusCancelledByHost, actor, reason, now)
}

func (b *Booking) cancel(target Status, actor, reason string, now time.Time) (money.Money, error) {
	if !b.CanBeCancelled(now) {
		return money.Money{}, ErrNotCancellable
	}
	refund := CalculateRefund(b.Price.Total, b.Range, b.Policy, now)
	b.Cancellation = &Cancellation{
		CancelledBy:  actor,
		CancelledAt:  now.UTC(),
		Reason:       strings.TrimSpace(reason),
		Policy:       b.Policy,
		RefundAmount: refund,
	}
	b.Payment.RefundAmount = refund
	b.Payment.RefundReason = b.Cancellation.Reason
	if refund.Amount > 0 {
		b.Payment.RefundedAt = now.UTC()
		if refund.Amount >= b.Price.Total.Amount {
			b.Payment.Status = PaymentRefunded
		} else {
			b.Payment.Status = PaymentPartiallyRefunded
		}
	}
	b.Status = target
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, By: actor, Refund: refund, Reason: b.Cancellation.Reason, At: b.UpdatedAt})
	return refund, nil
}

// Start marks the stay as underway.
func (b *Booking) Start(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusInProgress
	b.touch(now)
	return nil
}

// Complete finishes an in-progress stay.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusInProgress {
		return ErrInvalidState
	}
	b.Status = StatusCompleted
	b.touch(now)
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// MarkNoShow records that a confirmed guest never arrived. Host only.
func (b *Booking) MarkNoShow(actor string, now time.Time) error {
	if actor != b.HostID {
		return ErrNotHost
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusNoShow
	b.touch(now)
	return nil
}

// Involves reports whether the given user is the booking's guest or host.
func (b *Booking) Involves(userID string) bool {
	return userID == b.GuestID || userID == b.HostID
}

// AddMessage appends to the communication log. Only participants may write.
func (b *Booking) AddMessage(sender, body string, now time.Time) error {
	if !b.Involves(sender) {
		return ErrNotParticipant
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrMessageRequired
	}
	if utf8.RuneCountInString(body) > 1000 {
		return ErrMessageTooLong
	}
	b.Communication = append(b.Communication, Message{
		Sender: sender,
		Body:   body,
		SentAt: now.UTC(),
	})
	b.touch(now)
	return nil
}

// MarkMessagesRead flags every message not sent by the reader as read.
func (b *Booking) MarkMessagesRead(reader string) error {
	if !b.Involves(reader) {
		return ErrNotParticipant
	}
	for i := range b.Communication {
		if b.Communication[i].Sender != reader {
			b.Communication[i].Read = true
		}
	}
	return nil
}

func (b *Booking) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
}
