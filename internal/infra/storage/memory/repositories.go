package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation used in dev mode and tests.
// Loads hand out copies and Save is conditional on the stored version, so
// service level retry logic behaves identically against this and Mongo.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[listing.ID]; ok && stored.Version != listing.Version {
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version++
	stored := cloneListing(listing)
	stored.ClearEvents()
	r.items[listing.ID] = stored
	return nil
}

// cloneListing detaches the stored aggregate from the caller's copy, the way a
// decode from Mongo would.
func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	cp := *l
	cp.Amenities = append([]string(nil), l.Amenities...)
	cp.HouseRules = append([]string(nil), l.HouseRules...)
	cp.Photos = append([]string(nil), l.Photos...)
	cp.Reviews = append([]domainlistings.Review(nil), l.Reviews...)
	cp.Availability.Blocked = append([]domainlistings.BlockedRange(nil), l.Availability.Blocked...)
	return &cp
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlistings.Listing
	for _, listing := range r.items {
		if listing.Host == host {
			out = append(out, listing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	r.mu.RLock()
	var matched []*domainlistings.Listing
	for _, listing := range r.items {
		if matchesSearch(listing, params) {
			matched = append(matched, listing)
		}
	}
	r.mu.RUnlock()

	sortListings(matched, params.Sort)
	total := len(matched)
	if params.Offset >= total {
		return domainlistings.SearchResult{Total: total}, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return domainlistings.SearchResult{Items: matched[params.Offset:end], Total: total}, nil
}

func matchesSearch(l *domainlistings.Listing, p domainlistings.SearchParams) bool {
	if l.State != domainlistings.ListingActive {
		return false
	}
	if p.Location != "" &&
		strings.ToLower(l.Location.City) != p.Location &&
		strings.ToLower(l.Location.Country) != p.Location {
		return false
	}
	if p.PropertyType != "" && l.PropertyType != p.PropertyType {
		return false
	}
	if p.RoomType != "" && l.RoomType != p.RoomType {
		return false
	}
	if p.MinPriceCents > 0 && l.Pricing.BaseNightly.Amount < p.MinPriceCents {
		return false
	}
	if p.MaxPriceCents > 0 && l.Pricing.BaseNightly.Amount > p.MaxPriceCents {
		return false
	}
	if p.MinGuests > 0 && l.Capacity.Guests < p.MinGuests {
		return false
	}
	if p.MinBedrooms > 0 && l.Capacity.Bedrooms < p.MinBedrooms {
		return false
	}
	for _, want := range p.Amenities {
		found := false
		for _, have := range l.Amenities {
			if strings.ToLower(have) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !p.CheckIn.IsZero() && !p.CheckOut.IsZero() {
		dr := daterange.DateRange{CheckIn: p.CheckIn, CheckOut: p.CheckOut}
		if !l.IsAvailable(dr) {
			return false
		}
	}
	return true
}

func sortListings(items []*domainlistings.Listing, order domainlistings.SortOrder) {
	switch order {
	case domainlistings.SortPriceAsc:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Pricing.BaseNightly.Amount < items[j].Pricing.BaseNightly.Amount
		})
	case domainlistings.SortPriceDesc:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Pricing.BaseNightly.Amount > items[j].Pricing.BaseNightly.Amount
		})
	case domainlistings.SortRating:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Stats.AverageRating > items[j].Stats.AverageRating
		})
	default:
		sort.Slice(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }, status, limit, offset)
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.HostID == hostID }, status, limit, offset)
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool, status domainbooking.Status, limit, offset int) ([]*domainbooking.Booking, int, error) {
	r.mu.RLock()
	var matched []*domainbooking.Booking
	for _, booking := range r.items {
		if !match(booking) {
			continue
		}
		if status != "" && booking.Status != status {
			continue
		}
		matched = append(matched, booking)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}
