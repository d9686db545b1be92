package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
	domainuser "stayloop/internal/domain/user"
	"stayloop/internal/infra/storage/memory"
)

var (
	svcNow     = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svcCheckIn = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc      *Service
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	users    *memory.UserRepository
	outbox   *memory.Outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		listings: memory.NewListingRepository(),
		bookings: memory.NewBookingRepository(),
		users:    memory.NewUserRepository(),
		outbox:   memory.NewOutbox(),
	}
	f.svc = &Service{
		Bookings: f.bookings,
		Listings: f.listings,
		Users:    f.users,
		Outbox:   f.outbox,
		Clock:    func() time.Time { return svcNow },
	}

	ctx := context.Background()
	host, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "host-1",
		Email:        "host@example.com",
		FirstName:    "Rui",
		LastName:     "Costa",
		PasswordHash: "$2a$10$hash",
		Role:         domainuser.RoleHost,
		CreatedAt:    svcNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, host))

	guest, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "guest-1",
		Email:        "guest@example.com",
		FirstName:    "Ana",
		LastName:     "Silva",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    svcNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, guest))

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           "lst-1",
		Host:         "host-1",
		Title:        "Sunny loft near the harbour",
		PropertyType: "loft",
		RoomType:     "entire_place",
		Location: domainlistings.Location{
			Address: "12 Harbour St",
			City:    "Lisbon",
			Country: "Portugal",
		},
		Capacity: domainlistings.Capacity{Guests: 4, Bedrooms: 2, Beds: 2, Bathrooms: 1},
		Pricing: domainlistings.Pricing{
			BaseNightly: money.Must(15000, "USD"),
			CleaningFee: money.Must(2500, "USD"),
		},
		MinNights: 1,
		MaxNights: 30,
		Now:       svcNow,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Activate(svcNow))
	listing.ClearEvents()
	require.NoError(t, f.listings.Save(ctx, listing))
	return f
}

func createParams() CreateParams {
	return CreateParams{
		GuestID:       "guest-1",
		ListingID:     "lst-1",
		CheckIn:       svcCheckIn,
		CheckOut:      svcCheckIn.AddDate(0, 0, 3),
		Guests:        domainbooking.GuestCounts{Adults: 2},
		PaymentMethod: "credit_card",
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	assert.Equal(t, domainbooking.StatusPending, booking.Status)
	assert.Equal(t, "host-1", booking.HostID)
	assert.Equal(t, int64(57400), booking.Price.Total.Amount)

	// The listing calendar now carries a booked block.
	listing, err := f.listings.ByID(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, listing.Availability.Blocked, 1)
	assert.Equal(t, string(booking.ID), listing.Availability.Blocked[0].Reference)

	// Created and reserved events landed in the outbox.
	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "booking.created")
	assert.Contains(t, names, "listing.reserved")
}

func TestCreateRejectsOverlappingDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	overlapping := createParams()
	overlapping.CheckIn = svcCheckIn.AddDate(0, 0, 2)
	overlapping.CheckOut = svcCheckIn.AddDate(0, 0, 5)
	_, err = f.svc.Create(ctx, overlapping)
	assert.ErrorIs(t, err, domainlistings.ErrDatesUnavailable)

	// Sharing the checkout date as check-in also conflicts.
	boundary := createParams()
	boundary.CheckIn = svcCheckIn.AddDate(0, 0, 3)
	boundary.CheckOut = svcCheckIn.AddDate(0, 0, 6)
	_, err = f.svc.Create(ctx, boundary)
	assert.ErrorIs(t, err, domainlistings.ErrDatesUnavailable)
}

func TestCreateRejectsPastCheckIn(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.CheckIn = svcNow.AddDate(0, 0, -1)
	params.CheckOut = svcNow.AddDate(0, 0, 2)
	_, err := f.svc.Create(context.Background(), params)
	assert.ErrorIs(t, err, domainbooking.ErrCheckInInPast)
}

func TestCreateRejectsOwnListing(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.GuestID = "host-1"
	_, err := f.svc.Create(context.Background(), params)
	assert.ErrorIs(t, err, ErrOwnListing)
}

func TestCreateRejectsCapacityOverflow(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.Guests = domainbooking.GuestCounts{Adults: 3, Children: 2}
	_, err := f.svc.Create(context.Background(), params)
	assert.ErrorIs(t, err, domainlistings.ErrCapacityExceeded)
}

func TestCreateUnknownListing(t *testing.T) {
	f := newFixture(t)

	params := createParams()
	params.ListingID = "lst-missing"
	_, err := f.svc.Create(context.Background(), params)
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestGetAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "guest-1", string(booking.ID))
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, "host-1", string(booking.ID))
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, "stranger", string(booking.ID))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	admin, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "admin-1",
		Email:        "admin@example.com",
		FirstName:    "Eva",
		LastName:     "Reis",
		PasswordHash: "$2a$10$hash",
		Role:         domainuser.RoleAdmin,
		CreatedAt:    svcNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, admin))
	_, err = f.svc.Get(ctx, "admin-1", string(booking.ID))
	assert.NoError(t, err)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)
	id := string(booking.ID)

	// Guests cannot confirm.
	_, err = f.svc.UpdateStatus(ctx, id, StatusUpdateParams{ActorID: "guest-1", Target: "confirmed"})
	assert.ErrorIs(t, err, domainbooking.ErrNotHost)

	updated, err := f.svc.UpdateStatus(ctx, id, StatusUpdateParams{ActorID: "host-1", Target: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, updated.Status)

	updated, err = f.svc.UpdateStatus(ctx, id, StatusUpdateParams{ActorID: "host-1", Target: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusInProgress, updated.Status)

	updated, err = f.svc.UpdateStatus(ctx, id, StatusUpdateParams{ActorID: "guest-1", Target: "completed"})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCompleted, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, id, StatusUpdateParams{ActorID: "host-1", Target: "launched"})
	assert.ErrorIs(t, err, domainbooking.ErrUnknownStatus)
}

func TestUpdateStatusCancelByGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, string(booking.ID), StatusUpdateParams{
		ActorID: "guest-1",
		Target:  "cancelled_by_guest",
		Reason:  "change of plans",
	})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelledByGuest, updated.Status)
	require.NotNil(t, updated.Cancellation)
	// 40 days out on the default moderate policy refunds in full.
	assert.Equal(t, updated.Price.Total, updated.Cancellation.RefundAmount)
}

func TestListForGuestAndHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)

	second := createParams()
	second.CheckIn = svcCheckIn.AddDate(0, 1, 0)
	second.CheckOut = svcCheckIn.AddDate(0, 1, 2)
	_, err = f.svc.Create(ctx, second)
	require.NoError(t, err)

	guestList, err := f.svc.ListForGuest(ctx, "guest-1", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, guestList.Total)
	assert.Len(t, guestList.Items, 2)

	hostList, err := f.svc.ListForHost(ctx, "host-1", ListParams{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, hostList.Total)
	assert.Len(t, hostList.Items, 1)

	_, err = f.svc.UpdateStatus(ctx, string(first.ID), StatusUpdateParams{ActorID: "host-1", Target: "confirmed"})
	require.NoError(t, err)

	confirmed, err := f.svc.ListForGuest(ctx, "guest-1", ListParams{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed.Total)
}

func TestMessaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.svc.Create(ctx, createParams())
	require.NoError(t, err)
	id := string(booking.ID)

	_, err = f.svc.AddMessage(ctx, id, "stranger", "hello")
	assert.ErrorIs(t, err, domainbooking.ErrNotParticipant)

	updated, err := f.svc.AddMessage(ctx, id, "guest-1", "what's the door code?")
	require.NoError(t, err)
	require.Len(t, updated.Communication, 1)

	require.NoError(t, f.svc.MarkMessagesRead(ctx, id, "host-1"))
	stored, err := f.bookings.ByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, stored.Communication[0].Read)
}

// racingListings wraps the in-memory repository and slips a competing write in
// ahead of the service's save.
type racingListings struct {
	*memory.ListingRepository
	compete func(ctx context.Context) error
	races   int
	limit   int
}

func (r *racingListings) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if r.races < r.limit {
		r.races++
		if err := r.compete(ctx); err != nil {
			return err
		}
	}
	return r.ListingRepository.Save(ctx, listing)
}

func TestCreateRetriesWhenReservationRaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	racing := &racingListings{ListingRepository: f.listings, limit: 1}
	racing.compete = func(ctx context.Context) error {
		rival, err := f.listings.ByID(ctx, "lst-1")
		if err != nil {
			return err
		}
		dr, err := daterange.New(svcCheckIn, svcCheckIn.AddDate(0, 0, 3))
		if err != nil {
			return err
		}
		if err := rival.Reserve(dr, "bkg-rival", money.Must(57400, "USD"), svcNow); err != nil {
			return err
		}
		return f.listings.Save(ctx, rival)
	}
	f.svc.Listings = racing

	// The first save loses the version race; the reload sees the rival's
	// block and reports the dates as taken.
	_, err := f.svc.Create(ctx, createParams())
	assert.ErrorIs(t, err, domainlistings.ErrDatesUnavailable)
	assert.Equal(t, 1, racing.races)

	listing, err := f.listings.ByID(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, listing.Availability.Blocked, 1)
	assert.Equal(t, "bkg-rival", listing.Availability.Blocked[0].Reference)
}

func TestCreateGivesUpUnderSustainedContention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	racing := &racingListings{ListingRepository: f.listings, limit: reserveAttempts}
	racing.compete = func(ctx context.Context) error {
		rival, err := f.listings.ByID(ctx, "lst-1")
		if err != nil {
			return err
		}
		rival.RecordView()
		return f.listings.Save(ctx, rival)
	}
	f.svc.Listings = racing

	_, err := f.svc.Create(ctx, createParams())
	assert.ErrorIs(t, err, ErrTooContended)
	assert.Equal(t, reserveAttempts, racing.races)

	// Nothing was reserved and no booking was persisted.
	listing, err := f.listings.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Empty(t, listing.Availability.Blocked)

	list, err := f.svc.ListForGuest(ctx, "guest-1", ListParams{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}
