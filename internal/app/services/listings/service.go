package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "stayloop/internal/app/outbox"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
	domainuser "stayloop/internal/domain/user"
	"stayloop/internal/infra/storage/s3"
)

var (
	ErrNotOwner       = errors.New("listings: caller does not own this listing")
	ErrHostRequired   = errors.New("listings: caller must be a host")
	ErrStayNotElapsed = errors.New("listings: only guests with a completed stay may review")
)

type Service struct {
	Listings domainlistings.Repository
	Bookings domainbooking.Repository
	Users    domainuser.Repository
	Uploader s3.Uploader
	Outbox   appoutbox.Outbox
	Logger   *slog.Logger
}

type CreateParams struct {
	HostID           string
	Title            string
	Description      string
	PropertyType     string
	RoomType         string
	Location         domainlistings.Location
	Capacity         domainlistings.Capacity
	Amenities        []string
	BaseNightlyCents int64
	CleaningFeeCents int64
	Currency         string
	MinNights        int
	MaxNights        int
	InstantBook      bool
	HouseRules       []string
	Photos           []string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainlistings.Listing, error) {
	host, err := s.Users.ByID(ctx, domainuser.ID(params.HostID))
	if err != nil {
		return nil, err
	}
	if !host.CanHost() {
		return nil, ErrHostRequired
	}
	currency := params.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	nightly, err := money.New(params.BaseNightlyCents, currency)
	if err != nil {
		return nil, err
	}
	cleaning, err := money.New(params.CleaningFeeCents, currency)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		Host:         domainlistings.HostID(params.HostID),
		Title:        params.Title,
		Description:  params.Description,
		PropertyType: params.PropertyType,
		RoomType:     params.RoomType,
		Location:     params.Location,
		Capacity:     params.Capacity,
		Amenities:    params.Amenities,
		Pricing: domainlistings.Pricing{
			BaseNightly: nightly,
			CleaningFee: cleaning,
		},
		MinNights:   params.MinNights,
		MaxNights:   params.MaxNights,
		InstantBook: params.InstantBook,
		HouseRules:  params.HouseRules,
		Photos:      params.Photos,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	// New listings go live immediately; draft state is reachable later via
	// deactivate.
	if err := listing.Activate(time.Now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, listing); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing created", "listing_id", listing.ID, "host_id", listing.Host)
	}
	return listing, nil
}

// Get fetches a listing and bumps its view count. The bump is best effort:
// a failed save does not fail the read.
func (s *Service) Get(ctx context.Context, id string, countView bool) (*domainlistings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	if countView {
		listing.RecordView()
		_ = s.Listings.Save(ctx, listing)
	}
	return listing, nil
}

func (s *Service) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	return s.Listings.Search(ctx, params)
}

func (s *Service) Mine(ctx context.Context, hostID string) ([]*domainlistings.Listing, error) {
	return s.Listings.ListByHost(ctx, domainlistings.HostID(hostID))
}

type UpdateParams struct {
	Title            string
	Description      string
	PropertyType     string
	RoomType         string
	Location         domainlistings.Location
	Capacity         domainlistings.Capacity
	Amenities        []string
	BaseNightlyCents int64
	CleaningFeeCents int64
	Currency         string
	MinNights        int
	MaxNights        int
	InstantBook      bool
	HouseRules       []string
}

func (s *Service) Update(ctx context.Context, actorID, listingID string, params UpdateParams) (*domainlistings.Listing, error) {
	listing, err := s.authorizeOwner(ctx, actorID, listingID)
	if err != nil {
		return nil, err
	}
	currency := params.Currency
	if currency == "" {
		currency = listing.Pricing.BaseNightly.Currency
	}
	nightly, err := money.New(params.BaseNightlyCents, currency)
	if err != nil {
		return nil, err
	}
	cleaning, err := money.New(params.CleaningFeeCents, currency)
	if err != nil {
		return nil, err
	}
	err = listing.UpdateAttributes(domainlistings.UpdateParams{
		Title:        params.Title,
		Description:  params.Description,
		PropertyType: params.PropertyType,
		RoomType:     params.RoomType,
		Location:     params.Location,
		Capacity:     params.Capacity,
		Amenities:    params.Amenities,
		Pricing: domainlistings.Pricing{
			BaseNightly: nightly,
			CleaningFee: cleaning,
		},
		MinNights:   params.MinNights,
		MaxNights:   params.MaxNights,
		InstantBook: params.InstantBook,
		HouseRules:  params.HouseRules,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) Delete(ctx context.Context, actorID, listingID string) error {
	if _, err := s.authorizeOwner(ctx, actorID, listingID); err != nil {
		return err
	}
	return s.Listings.Delete(ctx, domainlistings.ListingID(listingID))
}

type ReviewParams struct {
	AuthorID string
	Rating   int
	Comment  string
}

// AddReview records a guest review. Only guests who completed a stay at the
// listing may review it, once each.
func (s *Service) AddReview(ctx context.Context, listingID string, params ReviewParams) (*domainlistings.Review, error) {
	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, err
	}
	bookingID, err := s.completedStay(ctx, params.AuthorID, listing.ID)
	if err != nil {
		return nil, err
	}
	review, err := listing.AddReview(domainlistings.ReviewParams{
		ID:        uuid.NewString(),
		AuthorID:  params.AuthorID,
		BookingID: bookingID,
		Rating:    params.Rating,
		Comment:   params.Comment,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, listing); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) completedStay(ctx context.Context, guestID string, listingID domainlistings.ListingID) (string, error) {
	items, _, err := s.Bookings.ListByGuest(ctx, guestID, domainbooking.StatusCompleted, 0, 0)
	if err != nil {
		return "", err
	}
	for _, b := range items {
		if b.ListingID == listingID {
			return string(b.ID), nil
		}
	}
	return "", ErrStayNotElapsed
}

// Similar returns active listings sharing the city and property type,
// excluding the listing itself.
func (s *Service) Similar(ctx context.Context, listingID string, limit int) ([]*domainlistings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}
	result, err := s.Listings.Search(ctx, domainlistings.SearchParams{
		Location:     listing.Location.City,
		PropertyType: listing.PropertyType,
		Sort:         domainlistings.SortRating,
		Limit:        limit + 1,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, limit)
	for _, item := range result.Items {
		if item.ID == listing.ID {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type BlockDatesParams struct {
	CheckIn  time.Time
	CheckOut time.Time
	Reason   string
}

func (s *Service) BlockDates(ctx context.Context, actorID, listingID string, params BlockDatesParams) error {
	listing, err := s.authorizeOwner(ctx, actorID, listingID)
	if err != nil {
		return err
	}
	dr, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return err
	}
	if err := listing.BlockRange(dr, domainlistings.BlockReason(params.Reason), time.Now()); err != nil {
		return err
	}
	return s.save(ctx, listing)
}

type PhotoUpload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// UploadPhotos stores each file in object storage and attaches the resulting
// URLs to the listing.
func (s *Service) UploadPhotos(ctx context.Context, actorID, listingID string, uploads []PhotoUpload) ([]string, error) {
	listing, err := s.authorizeOwner(ctx, actorID, listingID)
	if err != nil {
		return nil, err
	}
	if s.Uploader == nil {
		return nil, errors.New("listings: photo storage is not configured")
	}
	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		key := fmt.Sprintf("listings/%s/%s-%s", listingID, uuid.NewString(), upload.Name)
		url, err := s.Uploader.Upload(ctx, key, upload.Reader, upload.ContentType)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	listing.AttachPhotos(urls, time.Now())
	if err := s.save(ctx, listing); err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *Service) authorizeOwner(ctx context.Context, actorID, listingID string) (*domainlistings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, err
	}
	if string(listing.Host) == actorID {
		return listing, nil
	}
	actor, err := s.Users.ByID(ctx, domainuser.ID(actorID))
	if err == nil && actor.IsAdmin() {
		return listing, nil
	}
	return nil, ErrNotOwner
}

func (s *Service) save(ctx context.Context, listing *domainlistings.Listing) error {
	pending := listing.PendingEvents()
	if err := s.Listings.Save(ctx, listing); err != nil {
		return err
	}
	listing.ClearEvents()
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, nil, pending); err != nil && s.Logger != nil {
		s.Logger.Error("outbox append failed", "listing_id", listing.ID, "error", err)
	}
	return nil
}
