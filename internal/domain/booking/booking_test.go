package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

var (
	testNow     = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	testCheckIn = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
)

func testQuote(t *testing.T) pricing.Quote {
	t.Helper()
	quote, err := pricing.Compute(money.Must(15000, "USD"), 3, money.Must(2500, "USD"))
	require.NoError(t, err)
	return quote
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	dr, err := daterange.New(testCheckIn, testCheckIn.AddDate(0, 0, 3))
	require.NoError(t, err)

	b, err := NewBooking(CreateParams{
		ID:            "bkg-1",
		ListingID:     "lst-1",
		GuestID:       "guest-1",
		HostID:        "host-1",
		Range:         dr,
		Guests:        GuestCounts{Adults: 2, Children: 1},
		Price:         testQuote(t),
		PaymentMethod: PaymentCreditCard,
		Policy:        PolicyModerate,
		Now:           testNow,
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newTestBooking(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, 3, b.Guests.Total)
	assert.Equal(t, PaymentPending, b.Payment.Status)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(BookingCreated)
	require.True(t, ok)
	assert.Equal(t, BookingID("bkg-1"), created.BookingID)
	assert.Equal(t, int64(57400), created.Total.Amount)
}

func TestNewBookingValidation(t *testing.T) {
	dr, err := daterange.New(testCheckIn, testCheckIn.AddDate(0, 0, 3))
	require.NoError(t, err)

	params := CreateParams{
		ID:            "bkg-1",
		ListingID:     "lst-1",
		GuestID:       "guest-1",
		HostID:        "host-1",
		Range:         dr,
		Guests:        GuestCounts{Adults: 1},
		Price:         testQuote(t),
		PaymentMethod: PaymentCreditCard,
		Now:           testNow,
	}

	noAdults := params
	noAdults.Guests = GuestCounts{Children: 2}
	_, err = NewBooking(noAdults)
	assert.ErrorIs(t, err, ErrInvalidGuests)

	negative := params
	negative.Guests = GuestCounts{Adults: 1, Pets: -1}
	_, err = NewBooking(negative)
	assert.ErrorIs(t, err, ErrNegativeGuests)

	badPayment := params
	badPayment.PaymentMethod = "cash"
	_, err = NewBooking(badPayment)
	assert.ErrorIs(t, err, ErrInvalidPayment)

	// Unknown policies fall back to the default instead of failing.
	oddPolicy := params
	oddPolicy.Policy = "whatever"
	b, err := NewBooking(oddPolicy)
	require.NoError(t, err)
	assert.Equal(t, DefaultRefundPolicy, b.Policy)
}

func TestConfirmIsHostOnly(t *testing.T) {
	b := newTestBooking(t)

	assert.ErrorIs(t, b.Confirm("guest-1", testNow), ErrNotHost)
	require.NoError(t, b.Confirm("host-1", testNow))
	assert.Equal(t, StatusConfirmed, b.Status)

	// Confirming twice is an invalid transition.
	assert.ErrorIs(t, b.Confirm("host-1", testNow), ErrInvalidState)
}

func TestCanBeCancelled(t *testing.T) {
	b := newTestBooking(t)

	assert.True(t, b.CanBeCancelled(testNow))
	// Not once check-in has arrived.
	assert.False(t, b.CanBeCancelled(testCheckIn))

	require.NoError(t, b.Confirm("host-1", testNow))
	assert.True(t, b.CanBeCancelled(testNow))

	require.NoError(t, b.Start(testCheckIn))
	assert.False(t, b.CanBeCancelled(testNow))

	require.NoError(t, b.Complete(testCheckIn.AddDate(0, 0, 3)))
	assert.False(t, b.CanBeCancelled(testNow))
}

func TestCancelByGuestFullRefund(t *testing.T) {
	b := newTestBooking(t)

	// Six days out on a moderate policy refunds everything.
	refund, err := b.CancelByGuest("guest-1", "change of plans", testCheckIn.AddDate(0, 0, -6))
	require.NoError(t, err)

	assert.Equal(t, int64(57400), refund.Amount)
	assert.Equal(t, StatusCancelledByGuest, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, "guest-1", b.Cancellation.CancelledBy)
	assert.Equal(t, PolicyModerate, b.Cancellation.Policy)
	assert.Equal(t, refund, b.Cancellation.RefundAmount)
	assert.Equal(t, PaymentRefunded, b.Payment.Status)
	assert.Equal(t, refund, b.Payment.RefundAmount)
}

func TestCancelByGuestPartialRefund(t *testing.T) {
	b := newTestBooking(t)

	refund, err := b.CancelByGuest("guest-1", "", testCheckIn.AddDate(0, 0, -2))
	require.NoError(t, err)

	assert.Equal(t, int64(28700), refund.Amount)
	assert.Equal(t, PaymentPartiallyRefunded, b.Payment.Status)
}

func TestCancelByHost(t *testing.T) {
	b := newTestBooking(t)

	_, err := b.CancelByHost("guest-1", "", testNow)
	assert.ErrorIs(t, err, ErrNotHost)

	refund, err := b.CancelByHost("host-1", "double booked", testCheckIn.AddDate(0, 0, -6))
	require.NoError(t, err)
	assert.Equal(t, int64(57400), refund.Amount)
	assert.Equal(t, StatusCancelledByHost, b.Status)
}

func TestCancelAfterCheckIn(t *testing.T) {
	b := newTestBooking(t)

	_, err := b.CancelByGuest("guest-1", "", testCheckIn.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrNotCancellable)

	// Cancelling an already-cancelled booking fails too.
	_, err = b.CancelByGuest("guest-1", "", testCheckIn.AddDate(0, 0, -6))
	require.NoError(t, err)
	_, err = b.CancelByGuest("guest-1", "", testCheckIn.AddDate(0, 0, -6))
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestMarkNoShow(t *testing.T) {
	b := newTestBooking(t)

	assert.ErrorIs(t, b.MarkNoShow("host-1", testNow), ErrInvalidState)

	require.NoError(t, b.Confirm("host-1", testNow))
	assert.ErrorIs(t, b.MarkNoShow("guest-1", testNow), ErrNotHost)
	require.NoError(t, b.MarkNoShow("host-1", testCheckIn.AddDate(0, 0, 1)))
	assert.Equal(t, StatusNoShow, b.Status)
	assert.True(t, b.Status.Terminal())
}

func TestStartRequiresConfirmed(t *testing.T) {
	b := newTestBooking(t)
	assert.ErrorIs(t, b.Start(testCheckIn), ErrInvalidState)
	assert.ErrorIs(t, b.Complete(testCheckIn), ErrInvalidState)
}

func TestMessages(t *testing.T) {
	b := newTestBooking(t)

	assert.ErrorIs(t, b.AddMessage("stranger", "hi", testNow), ErrNotParticipant)
	assert.ErrorIs(t, b.AddMessage("guest-1", "   ", testNow), ErrMessageRequired)

	require.NoError(t, b.AddMessage("guest-1", "what's the door code?", testNow))
	require.NoError(t, b.AddMessage("host-1", "it's 4242", testNow.Add(time.Minute)))
	require.Len(t, b.Communication, 2)

	require.NoError(t, b.MarkMessagesRead("guest-1"))
	assert.False(t, b.Communication[0].Read) // own message untouched
	assert.True(t, b.Communication[1].Read)

	assert.ErrorIs(t, b.MarkMessagesRead("stranger"), ErrNotParticipant)
}

func TestInvolves(t *testing.T) {
	b := newTestBooking(t)
	assert.True(t, b.Involves("guest-1"))
	assert.True(t, b.Involves("host-1"))
	assert.False(t, b.Involves("admin-1"))
}


func TestTextLimitsCountCharacters(t *testing.T) {
	dr, err := daterange.New(testCheckIn, testCheckIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	params := CreateParams{
		ID:            "bkg-1",
		ListingID:     "lst-1",
		GuestID:       "guest-1",
		HostID:        "host-1",
		Range:         dr,
		Guests:        GuestCounts{Adults: 2},
		Price:         testQuote(t),
		PaymentMethod: PaymentCreditCard,
		Now:           testNow,
	}

	// 500 two-byte characters stay within the limit.
	params.SpecialRequests = strings.Repeat("é", 500)
	b, err := NewBooking(params)
	require.NoError(t, err)

	params.SpecialRequests = strings.Repeat("é", 501)
	_, err = NewBooking(params)
	assert.ErrorIs(t, err, ErrRequestsTooLong)

	require.NoError(t, b.AddMessage("guest-1", strings.Repeat("ß", 1000), testNow))
	assert.ErrorIs(t, b.AddMessage("host-1", strings.Repeat("ß", 1001), testNow), ErrMessageTooLong)
}
