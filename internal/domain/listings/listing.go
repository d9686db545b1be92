package listings

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/events"
	"stayloop/internal/domain/shared/money"
)

var (
	ErrTitleRequired     = errors.New("listings: title is required")
	ErrTitleTooLong      = errors.New("listings: title cannot exceed 100 characters")
	ErrDescriptionLong   = errors.New("listings: description cannot exceed 2000 characters")
	ErrGuestsLimit       = errors.New("listings: must accommodate at least 1 guest")
	ErrNightsRange       = errors.New("listings: min nights must be <= max nights")
	ErrInvalidState      = errors.New("listings: invalid state transition")
	ErrInvalidProperty   = errors.New("listings: invalid property type")
	ErrInvalidRoomType   = errors.New("listings: invalid room type")
	ErrNightlyRate       = errors.New("listings: nightly rate must be at least 1")
	ErrLocationRequired  = errors.New("listings: address, city and country are required")
	ErrNotActive         = errors.New("listings: listing is not active")
	ErrDatesUnavailable  = errors.New("listings: dates are not available")
	ErrStayTooShort      = errors.New("listings: stay is shorter than the minimum nights")
	ErrStayTooLong       = errors.New("listings: stay is longer than the maximum nights")
	ErrCapacityExceeded  = errors.New("listings: guest count exceeds listing capacity")
	ErrAlreadyReviewed   = errors.New("listings: guest already reviewed this listing")
	ErrInvalidRating     = errors.New("listings: rating must be between 1 and 5")
	ErrNotFound          = errors.New("listings: not found")
	ErrConcurrentUpdate  = errors.New("listings: concurrent update detected")
	ErrInvalidBlockRange = errors.New("listings: blocked range overlaps an existing block")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "draft"
	ListingActive    ListingState = "active"
	ListingInactive  ListingState = "inactive"
	ListingSuspended ListingState = "suspended"
)

type BlockReason string

const (
	BlockBooked      BlockReason = "booked"
	BlockHost        BlockReason = "blocked"
	BlockMaintenance BlockReason = "maintenance"
)

var propertyTypes = map[string]struct{}{
	"apartment": {}, "house": {}, "villa": {}, "condo": {}, "townhouse": {},
	"loft": {}, "cabin": {}, "cottage": {}, "castle": {}, "boat": {},
	"camper": {}, "treehouse": {}, "other": {},
}

var roomTypes = map[string]struct{}{
	"entire_place": {}, "private_room": {}, "shared_room": {},
}

type Location struct {
	Address string
	City    string
	State   string
	Country string
	ZipCode string
	Lat     float64
	Lon     float64
}

func (l Location) Valid() bool {
	return strings.TrimSpace(l.Address) != "" && strings.TrimSpace(l.City) != "" && strings.TrimSpace(l.Country) != ""
}

type Capacity struct {
	Guests    int
	Bedrooms  int
	Beds      int
	Bathrooms float64
}

type Pricing struct {
	BaseNightly            money.Money
	CleaningFee            money.Money
	WeeklyDiscountPercent  int
	MonthlyDiscountPercent int
}

// BlockedRange marks an interval on the calendar as unavailable. Ranges tagged
// BlockBooked reference the booking that created them.
type BlockedRange struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

type AvailabilityRules struct {
	MinNights    int
	MaxNights    int
	InstantBook  bool
	CheckInTime  string
	CheckOutTime string
	Blocked      []BlockedRange
}

type Review struct {
	ID        string
	AuthorID  string
	BookingID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type Statistics struct {
	TotalBookings int
	TotalRevenue  money.Money
	AverageRating float64
	TotalReviews  int
	ViewCount     int64
	FavoriteCount int
}

type Listing struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	RoomType     string
	Location     Location
	Capacity     Capacity
	Amenities    []string
	Pricing      Pricing
	Availability AvailabilityRules
	HouseRules   []string
	Photos       []string
	State        ListingState
	Reviews      []Review
	Stats        Statistics
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	RoomType     string
	Location     Location
	Capacity     Capacity
	Amenities    []string
	Pricing      Pricing
	MinNights    int
	MaxNights    int
	InstantBook  bool
	HouseRules   []string
	Photos       []string
	Now          time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > 100 {
		return nil, ErrTitleTooLong
	}
	if utf8.RuneCountInString(params.Description) > 2000 {
		return nil, ErrDescriptionLong
	}
	if _, ok := propertyTypes[params.PropertyType]; !ok {
		return nil, ErrInvalidProperty
	}
	if _, ok := roomTypes[params.RoomType]; !ok {
		return nil, ErrInvalidRoomType
	}
	if !params.Location.Valid() {
		return nil, ErrLocationRequired
	}
	if params.Capacity.Guests < 1 {
		return nil, ErrGuestsLimit
	}
	if params.Pricing.BaseNightly.Amount < 100 {
		return nil, ErrNightlyRate
	}
	minNights := params.MinNights
	if minNights < 1 {
		minNights = 1
	}
	maxNights := params.MaxNights
	if maxNights < 1 {
		maxNights = 365
	}
	if minNights > maxNights {
		return nil, ErrNightsRange
	}

	now := params.Now.UTC()
	listing := &Listing{
		ID:           params.ID,
		Host:         params.Host,
		Title:        title,
		Description:  strings.TrimSpace(params.Description),
		PropertyType: params.PropertyType,
		RoomType:     params.RoomType,
		Location:     params.Location,
		Capacity:     params.Capacity,
		Amenities:    append([]string(nil), params.Amenities...),
		Pricing:      params.Pricing,
		Availability: AvailabilityRules{
			MinNights:    minNights,
			MaxNights:    maxNights,
			InstantBook:  params.InstantBook,
			CheckInTime:  "15:00",
			CheckOutTime: "11:00",
		},
		HouseRules: append([]string(nil), params.HouseRules...),
		Photos:     append([]string(nil), params.Photos...),
		State:      ListingDraft,
		Stats:      Statistics{TotalRevenue: money.Money{Currency: params.Pricing.BaseNightly.Currency}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if l.State == ListingSuspended {
		return ErrInvalidState
	}
	if !l.Location.Valid() {
		return ErrLocationRequired
	}
	l.State = ListingActive
	l.touch(now)
	l.Record(ListingActivatedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Deactivate(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingInactive
	l.touch(now)
	return nil
}

func (l *Listing) Suspend(reason string, now time.Time) error {
	if l.State == ListingSuspended {
		return nil
	}
	l.State = ListingSuspended
	l.touch(now)
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// IsAvailable reports whether the requested range conflicts with no blocked
// range. Pure check over the blocked-date list; the caller validates range
// ordering beforehand.
func (l *Listing) IsAvailable(dr daterange.DateRange) bool {
	for _, blocked := range l.Availability.Blocked {
		if dr.Conflicts(blocked.Range) {
			return false
		}
	}
	return true
}

// ValidateStay enforces the listing's min/max nights rules.
func (l *Listing) ValidateStay(dr daterange.DateRange) error {
	nights := dr.Nights()
	if nights < l.Availability.MinNights {
		return ErrStayTooShort
	}
	if nights > l.Availability.MaxNights {
		return ErrStayTooLong
	}
	return nil
}

// FitsGuests checks the requested total guests against capacity. Pets are
// tracked on the booking but do not count toward the guest limit.
func (l *Listing) FitsGuests(total int) bool {
	return total <= l.Capacity.Guests
}

// Reserve appends a booked blocked range after re-checking availability.
// Combined with the repository's versioned save this closes the
// check-then-act race between concurrent bookings.
func (l *Listing) Reserve(dr daterange.DateRange, bookingID string, total money.Money, now time.Time) error {
	if l.State != ListingActive {
		return ErrNotActive
	}
	if !l.IsAvailable(dr) {
		return ErrDatesUnavailable
	}
	l.Availability.Blocked = append(l.Availability.Blocked, BlockedRange{
		Range:     dr,
		Reason:    BlockBooked,
		Reference: bookingID,
		CreatedAt: now.UTC(),
	})
	l.Stats.TotalBookings++
	if sum, err := l.Stats.TotalRevenue.Add(total); err == nil {
		l.Stats.TotalRevenue = sum
	}
	l.touch(now)
	l.Record(ListingReservedEvent{ListingID: l.ID, BookingID: bookingID, CheckIn: dr.CheckIn, CheckOut: dr.CheckOut, At: l.UpdatedAt})
	return nil
}

// BlockRange lets the host mark dates unavailable for non-booking reasons.
func (l *Listing) BlockRange(dr daterange.DateRange, reason BlockReason, now time.Time) error {
	switch reason {
	case BlockHost, BlockMaintenance:
	default:
		reason = BlockHost
	}
	if !l.IsAvailable(dr) {
		return ErrInvalidBlockRange
	}
	l.Availability.Blocked = append(l.Availability.Blocked, BlockedRange{
		Range:     dr,
		Reason:    reason,
		CreatedAt: now.UTC(),
	})
	l.touch(now)
	return nil
}

type ReviewParams struct {
	ID        string
	AuthorID  string
	BookingID string
	Rating    int
	Comment   string
	Now       time.Time
}

// AddReview appends a guest review (one per guest) and recomputes the average
// rating to one decimal place.
func (l *Listing) AddReview(params ReviewParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	for _, existing := range l.Reviews {
		if existing.AuthorID == params.AuthorID {
			return nil, ErrAlreadyReviewed
		}
	}
	review := Review{
		ID:        params.ID,
		AuthorID:  params.AuthorID,
		BookingID: params.BookingID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: params.Now.UTC(),
	}
	l.Reviews = append(l.Reviews, review)
	l.recalculateRating()
	l.touch(params.Now)
	l.Record(ListingReviewedEvent{ListingID: l.ID, ReviewID: review.ID, Rating: review.Rating, At: l.UpdatedAt})
	return &l.Reviews[len(l.Reviews)-1], nil
}

func (l *Listing) recalculateRating() {
	if len(l.Reviews) == 0 {
		l.Stats.AverageRating = 0
		l.Stats.TotalReviews = 0
		return
	}
	sum := 0
	for _, review := range l.Reviews {
		sum += review.Rating
	}
	l.Stats.AverageRating = math.Round(float64(sum)/float64(len(l.Reviews))*10) / 10
	l.Stats.TotalReviews = len(l.Reviews)
}

func (l *Listing) RecordView() {
	l.Stats.ViewCount++
}

func (l *Listing) AttachPhotos(urls []string, now time.Time) {
	l.Photos = append(l.Photos, urls...)
	l.touch(now)
}

type UpdateParams struct {
	Title        string
	Description  string
	PropertyType string
	RoomType     string
	Location     Location
	Capacity     Capacity
	Amenities    []string
	Pricing      Pricing
	MinNights    int
	MaxNights    int
	InstantBook  bool
	HouseRules   []string
	Now          time.Time
}

func (l *Listing) UpdateAttributes(params UpdateParams) error {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > 100 {
		return ErrTitleTooLong
	}
	if _, ok := propertyTypes[params.PropertyType]; !ok {
		return ErrInvalidProperty
	}
	if _, ok := roomTypes[params.RoomType]; !ok {
		return ErrInvalidRoomType
	}
	if params.Capacity.Guests < 1 {
		return ErrGuestsLimit
	}
	if params.Pricing.BaseNightly.Amount < 100 {
		return ErrNightlyRate
	}
	if params.MinNights > params.MaxNights {
		return ErrNightsRange
	}

	l.Title = title
	l.Description = strings.TrimSpace(params.Description)
	l.PropertyType = params.PropertyType
	l.RoomType = params.RoomType
	l.Location = params.Location
	l.Capacity = params.Capacity
	l.Amenities = append([]string(nil), params.Amenities...)
	l.Pricing = params.Pricing
	l.Availability.MinNights = params.MinNights
	l.Availability.MaxNights = params.MaxNights
	l.Availability.InstantBook = params.InstantBook
	l.HouseRules = append([]string(nil), params.HouseRules...)
	l.touch(params.Now)
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
}
