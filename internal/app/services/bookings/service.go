package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "stayloop/internal/app/outbox"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/events"
	domainuser "stayloop/internal/domain/user"
)

var (
	ErrNotAuthorized = errors.New("bookings: caller may not view this booking")
	ErrOwnListing    = errors.New("bookings: hosts cannot book their own listing")
	ErrTooContended  = errors.New("bookings: could not reserve dates, please retry")
)

// reserveAttempts bounds the optimistic-concurrency retry loop when two
// bookings race for the same listing.
const reserveAttempts = 3

type Service struct {
	Bookings domainbooking.Repository
	Listings domainlistings.Repository
	Users    domainuser.Repository
	Outbox   appoutbox.Outbox
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

type CreateParams struct {
	GuestID         string
	ListingID       string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          domainbooking.GuestCounts
	PaymentMethod   string
	SpecialRequests string
}

// Create books a listing for the guest. The availability check and the
// blocked-range append happen against the same loaded listing version; the
// conditional save rejects any interleaved writer, and the loop reloads and
// re-checks before retrying.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domainbooking.Booking, error) {
	now := s.now()
	dr, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, err
	}
	if !dr.CheckIn.After(now.UTC()) {
		return nil, domainbooking.ErrCheckInInPast
	}

	var booking *domainbooking.Booking
	var listingEvents []events.DomainEvent
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(params.ListingID))
		if err != nil {
			return nil, err
		}
		if string(listing.Host) == params.GuestID {
			return nil, ErrOwnListing
		}
		if err := listing.ValidateStay(dr); err != nil {
			return nil, err
		}
		total := params.Guests.Adults + params.Guests.Children + params.Guests.Infants
		if !listing.FitsGuests(total) {
			return nil, domainlistings.ErrCapacityExceeded
		}

		quote, err := pricing.Compute(listing.Pricing.BaseNightly, dr.Nights(), listing.Pricing.CleaningFee)
		if err != nil {
			return nil, err
		}
		booking, err = domainbooking.NewBooking(domainbooking.CreateParams{
			ID:              domainbooking.BookingID(uuid.NewString()),
			ListingID:       listing.ID,
			GuestID:         params.GuestID,
			HostID:          string(listing.Host),
			Range:           dr,
			Guests:          params.Guests,
			Price:           quote,
			PaymentMethod:   domainbooking.PaymentMethod(params.PaymentMethod),
			SpecialRequests: params.SpecialRequests,
			Now:             now,
		})
		if err != nil {
			return nil, err
		}

		if err := listing.Reserve(dr, string(booking.ID), quote.Total, now); err != nil {
			return nil, err
		}
		listingEvents = listing.PendingEvents()
		if err := s.Listings.Save(ctx, listing); err != nil {
			if errors.Is(err, domainlistings.ErrConcurrentUpdate) {
				continue
			}
			return nil, err
		}
		listing.ClearEvents()
		if err := s.Bookings.Save(ctx, booking); err != nil {
			return nil, err
		}
		s.drain(ctx, booking, listingEvents)
		if s.Logger != nil {
			s.Logger.Info("booking created",
				"booking_id", booking.ID,
				"listing_id", booking.ListingID,
				"guest_id", booking.GuestID,
				"total", booking.Price.Total,
			)
		}
		return booking, nil
	}
	return nil, ErrTooContended
}

// Get returns a booking visible to its guest, its host, or an admin.
func (s *Service) Get(ctx context.Context, actorID, bookingID string) (*domainbooking.Booking, error) {
	booking, err := s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if booking.Involves(actorID) {
		return booking, nil
	}
	actor, err := s.Users.ByID(ctx, domainuser.ID(actorID))
	if err == nil && actor.IsAdmin() {
		return booking, nil
	}
	return nil, ErrNotAuthorized
}

type ListParams struct {
	Status string
	Limit  int
	Offset int
}

type ListResult struct {
	Items []*domainbooking.Booking
	Total int
}

func (s *Service) ListForGuest(ctx context.Context, guestID string, params ListParams) (ListResult, error) {
	items, total, err := s.Bookings.ListByGuest(ctx, guestID, domainbooking.Status(params.Status), params.Limit, params.Offset)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) ListForHost(ctx context.Context, hostID string, params ListParams) (ListResult, error) {
	items, total, err := s.Bookings.ListByHost(ctx, hostID, domainbooking.Status(params.Status), params.Limit, params.Offset)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

type StatusUpdateParams struct {
	ActorID string
	Target  string
	Reason  string
}

// UpdateStatus dispatches a lifecycle transition. Which actor may request
// which target status is enforced by the aggregate.
func (s *Service) UpdateStatus(ctx context.Context, bookingID string, params StatusUpdateParams) (*domainbooking.Booking, error) {
	booking, err := s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	now := s.now()
	switch domainbooking.Status(params.Target) {
	case domainbooking.StatusConfirmed:
		err = booking.Confirm(params.ActorID, now)
	case domainbooking.StatusCancelledByGuest:
		_, err = booking.CancelByGuest(params.ActorID, params.Reason, now)
	case domainbooking.StatusCancelledByHost:
		_, err = booking.CancelByHost(params.ActorID, params.Reason, now)
	case domainbooking.StatusInProgress:
		if !booking.Involves(params.ActorID) {
			return nil, ErrNotAuthorized
		}
		err = booking.Start(now)
	case domainbooking.StatusCompleted:
		if !booking.Involves(params.ActorID) {
			return nil, ErrNotAuthorized
		}
		err = booking.Complete(now)
	case domainbooking.StatusNoShow:
		err = booking.MarkNoShow(params.ActorID, now)
	default:
		return nil, domainbooking.ErrUnknownStatus
	}
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return nil, err
	}
	s.drain(ctx, booking, nil)
	if s.Logger != nil {
		s.Logger.Info("booking status updated", "booking_id", booking.ID, "status", booking.Status)
	}
	return booking, nil
}

func (s *Service) AddMessage(ctx context.Context, bookingID, senderID, body string) (*domainbooking.Booking, error) {
	booking, err := s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if err := booking.AddMessage(senderID, body, s.now()); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Service) MarkMessagesRead(ctx context.Context, bookingID, readerID string) error {
	booking, err := s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return err
	}
	if err := booking.MarkMessagesRead(readerID); err != nil {
		return err
	}
	return s.Bookings.Save(ctx, booking)
}

func (s *Service) drain(ctx context.Context, booking *domainbooking.Booking, extra []events.DomainEvent) {
	pending := append(booking.PendingEvents(), extra...)
	booking.ClearEvents()
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, nil, pending); err != nil && s.Logger != nil {
		s.Logger.Error("outbox append failed", "booking_id", booking.ID, "error", err)
	}
}
