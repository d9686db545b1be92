package dto

import (
	"time"

	domainbooking "stayloop/internal/domain/booking"
)

type GuestCountsDTO struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Pets     int `json:"pets"`
	Total    int `json:"total"`
}

type QuoteDTO struct {
	BasePrice   MoneyDTO `json:"base_price"`
	Nights      int      `json:"nights"`
	Subtotal    MoneyDTO `json:"subtotal"`
	CleaningFee MoneyDTO `json:"cleaning_fee"`
	ServiceFee  MoneyDTO `json:"service_fee"`
	Taxes       MoneyDTO `json:"taxes"`
	Total       MoneyDTO `json:"total"`
}

type PaymentDTO struct {
	Method       string     `json:"method"`
	Status       string     `json:"status"`
	RefundAmount MoneyDTO   `json:"refund_amount"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
}

type CancellationDTO struct {
	CancelledBy  string    `json:"cancelled_by"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
	Policy       string    `json:"policy"`
	RefundAmount MoneyDTO  `json:"refund_amount"`
}

type MessageDTO struct {
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
	Read   bool      `json:"read"`
}

type BookingDetail struct {
	ID              string           `json:"id"`
	ListingID       string           `json:"listing_id"`
	GuestID         string           `json:"guest_id"`
	HostID          string           `json:"host_id"`
	CheckIn         time.Time        `json:"check_in"`
	CheckOut        time.Time        `json:"check_out"`
	Nights          int              `json:"nights"`
	Guests          GuestCountsDTO   `json:"guests"`
	Price           QuoteDTO         `json:"price"`
	Payment         PaymentDTO       `json:"payment"`
	Status          string           `json:"status"`
	Policy          string           `json:"policy"`
	SpecialRequests string           `json:"special_requests,omitempty"`
	Cancellation    *CancellationDTO `json:"cancellation,omitempty"`
	Communication   []MessageDTO     `json:"communication,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingDetail `json:"items"`
	Total int             `json:"total"`
}

func MapBookingDetail(b *domainbooking.Booking) BookingDetail {
	if b == nil {
		return BookingDetail{}
	}
	detail := BookingDetail{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		CheckIn:   b.Range.CheckIn,
		CheckOut:  b.Range.CheckOut,
		Nights:    b.Nights,
		Guests: GuestCountsDTO{
			Adults:   b.Guests.Adults,
			Children: b.Guests.Children,
			Infants:  b.Guests.Infants,
			Pets:     b.Guests.Pets,
			Total:    b.Guests.Total,
		},
		Price: QuoteDTO{
			BasePrice:   MapMoney(b.Price.BasePrice),
			Nights:      b.Price.Nights,
			Subtotal:    MapMoney(b.Price.Subtotal),
			CleaningFee: MapMoney(b.Price.CleaningFee),
			ServiceFee:  MapMoney(b.Price.ServiceFee),
			Taxes:       MapMoney(b.Price.Taxes),
			Total:       MapMoney(b.Price.Total),
		},
		Payment: PaymentDTO{
			Method:       string(b.Payment.Method),
			Status:       string(b.Payment.Status),
			RefundAmount: MapMoney(b.Payment.RefundAmount),
			RefundReason: b.Payment.RefundReason,
		},
		Status:          string(b.Status),
		Policy:          string(b.Policy),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if !b.Payment.RefundedAt.IsZero() {
		refundedAt := b.Payment.RefundedAt
		detail.Payment.RefundedAt = &refundedAt
	}
	if b.Cancellation != nil {
		detail.Cancellation = &CancellationDTO{
			CancelledBy:  b.Cancellation.CancelledBy,
			CancelledAt:  b.Cancellation.CancelledAt,
			Reason:       b.Cancellation.Reason,
			Policy:       string(b.Cancellation.Policy),
			RefundAmount: MapMoney(b.Cancellation.RefundAmount),
		}
	}
	for _, msg := range b.Communication {
		detail.Communication = append(detail.Communication, MessageDTO{
			Sender: msg.Sender,
			Body:   msg.Body,
			SentAt: msg.SentAt,
			Read:   msg.Read,
		})
	}
	return detail
}

func MapBookingCollection(items []*domainbooking.Booking, total int) BookingCollection {
	out := BookingCollection{Items: make([]BookingDetail, 0, len(items)), Total: total}
	for _, item := range items {
		out.Items = append(out.Items, MapBookingDetail(item))
	}
	return out
}
