package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/daterange"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("listings")
	idxHost := mongo.IndexModel{Keys: bson.D{{Key: "host_id", Value: 1}}}
	idxSearch := mongo.IndexModel{Keys: bson.D{
		{Key: "state", Value: 1},
		{Key: "location.city", Value: 1},
		{Key: "pricing.base_nightly.amount", Value: 1},
	}}
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{idxHost, idxSearch})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, listings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *listings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return listings.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return listings.ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id listings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host listings.HostID) ([]*listings.Listing, error) {
	cursor, err := r.col.Find(ctx, bson.M{"host_id": string(host)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*listings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

// Search filters active listings. Price, capacity and textual filters map to
// the query; date-availability filtering happens in memory because blocked
// ranges are closed intervals over arbitrary dates. When dates are given the
// full match set is decoded and paginated here so Total stays exact.
func (r *ListingRepository) Search(ctx context.Context, params listings.SearchParams) (listings.SearchResult, error) {
	params = params.Normalized()
	filter := bson.M{"state": string(listings.ListingActive)}
	if params.Location != "" {
		filter["$or"] = bson.A{
			bson.M{"location.city_lower": params.Location},
			bson.M{"location.country_lower": params.Location},
		}
	}
	if params.PropertyType != "" {
		filter["property_type"] = params.PropertyType
	}
	if params.RoomType != "" {
		filter["room_type"] = params.RoomType
	}
	price := bson.M{}
	if params.MinPriceCents > 0 {
		price["$gte"] = params.MinPriceCents
	}
	if params.MaxPriceCents > 0 {
		price["$lte"] = params.MaxPriceCents
	}
	if len(price) > 0 {
		filter["pricing.base_nightly.amount"] = price
	}
	if params.MinGuests > 0 {
		filter["capacity.guests"] = bson.M{"$gte": params.MinGuests}
	}
	if params.MinBedrooms > 0 {
		filter["capacity.bedrooms"] = bson.M{"$gte": params.MinBedrooms}
	}
	if len(params.Amenities) > 0 {
		filter["amenities_lower"] = bson.M{"$all": params.Amenities}
	}

	dateFilter := !params.CheckIn.IsZero() && !params.CheckOut.IsZero()
	opts := options.Find().SetSort(sortSpec(params.Sort))
	if !dateFilter {
		opts.SetSkip(int64(params.Offset)).SetLimit(int64(params.Limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return listings.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	dr := daterange.DateRange{CheckIn: params.CheckIn, CheckOut: params.CheckOut}
	var items []*listings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return listings.SearchResult{}, err
		}
		listing := doc.toAggregate()
		if dateFilter && !listing.IsAvailable(dr) {
			continue
		}
		items = append(items, listing)
	}
	if err := cursor.Err(); err != nil {
		return listings.SearchResult{}, err
	}

	if dateFilter {
		total := len(items)
		if params.Offset >= total {
			return listings.SearchResult{Total: total}, nil
		}
		end := params.Offset + params.Limit
		if end > total {
			end = total
		}
		return listings.SearchResult{Items: items[params.Offset:end], Total: total}, nil
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return listings.SearchResult{}, err
	}
	return listings.SearchResult{Items: items, Total: int(total)}, nil
}

func sortSpec(sort listings.SortOrder) bson.D {
	switch sort {
	case listings.SortPriceAsc:
		return bson.D{{Key: "pricing.base_nightly.amount", Value: 1}}
	case listings.SortPriceDesc:
		return bson.D{{Key: "pricing.base_nightly.amount", Value: -1}}
	case listings.SortRating:
		return bson.D{{Key: "stats.average_rating", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

type listingDocument struct {
	ID           string             `bson:"_id"`
	HostID       string             `bson:"host_id"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description,omitempty"`
	PropertyType string             `bson:"property_type"`
	RoomType     string             `bson:"room_type"`
	Location     locationDocument   `bson:"location"`
	Capacity     capacityDocument   `bson:"capacity"`
	Amenities    []string           `bson:"amenities,omitempty"`
	AmenitiesLC  []string           `bson:"amenities_lower,omitempty"`
	Pricing      pricingDocument    `bson:"pricing"`
	Availability availabilityDoc    `bson:"availability"`
	HouseRules   []string           `bson:"house_rules,omitempty"`
	Photos       []string           `bson:"photos,omitempty"`
	State        string             `bson:"state"`
	Reviews      []reviewDocument   `bson:"reviews,omitempty"`
	Stats        statisticsDocument `bson:"stats"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
	Version      int64              `bson:"version"`
}

type locationDocument struct {
	Address      string  `bson:"address"`
	City         string  `bson:"city"`
	CityLower    string  `bson:"city_lower"`
	State        string  `bson:"state,omitempty"`
	Country      string  `bson:"country"`
	CountryLower string  `bson:"country_lower"`
	ZipCode      string  `bson:"zip_code,omitempty"`
	Lat          float64 `bson:"lat,omitempty"`
	Lon          float64 `bson:"lon,omitempty"`
}

type capacityDocument struct {
	Guests    int     `bson:"guests"`
	Bedrooms  int     `bson:"bedrooms"`
	Beds      int     `bson:"beds"`
	Bathrooms float64 `bson:"bathrooms"`
}

type pricingDocument struct {
	BaseNightly            moneyDocument `bson:"base_nightly"`
	CleaningFee            moneyDocument `bson:"cleaning_fee"`
	WeeklyDiscountPercent  int           `bson:"weekly_discount_percent,omitempty"`
	MonthlyDiscountPercent int           `bson:"monthly_discount_percent,omitempty"`
}

type blockedRangeDocument struct {
	CheckIn   int64  `bson:"check_in"`
	CheckOut  int64  `bson:"check_out"`
	Reason    string `bson:"reason"`
	Reference string `bson:"reference,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

type availabilityDoc struct {
	MinNights    int                    `bson:"min_nights"`
	MaxNights    int                    `bson:"max_nights"`
	InstantBook  bool                   `bson:"instant_book"`
	CheckInTime  string                 `bson:"check_in_time"`
	CheckOutTime string                 `bson:"check_out_time"`
	Blocked      []blockedRangeDocument `bson:"blocked,omitempty"`
}

type reviewDocument struct {
	ID        string `bson:"id"`
	AuthorID  string `bson:"author_id"`
	BookingID string `bson:"booking_id,omitempty"`
	Rating    int    `bson:"rating"`
	Comment   string `bson:"comment,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

type statisticsDocument struct {
	TotalBookings int           `bson:"total_bookings"`
	TotalRevenue  moneyDocument `bson:"total_revenue"`
	AverageRating float64       `bson:"average_rating"`
	TotalReviews  int           `bson:"total_reviews"`
	ViewCount     int64         `bson:"view_count"`
	FavoriteCount int           `bson:"favorite_count"`
}

func newListingDocument(l *listings.Listing) listingDocument {
	doc := listingDocument{
		ID:           string(l.ID),
		HostID:       string(l.Host),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		RoomType:     l.RoomType,
		Location: locationDocument{
			Address:      l.Location.Address,
			City:         l.Location.City,
			CityLower:    lower(l.Location.City),
			State:        l.Location.State,
			Country:      l.Location.Country,
			CountryLower: lower(l.Location.Country),
			ZipCode:      l.Location.ZipCode,
			Lat:          l.Location.Lat,
			Lon:          l.Location.Lon,
		},
		Capacity: capacityDocument{
			Guests:    l.Capacity.Guests,
			Bedrooms:  l.Capacity.Bedrooms,
			Beds:      l.Capacity.Beds,
			Bathrooms: l.Capacity.Bathrooms,
		},
		Amenities: l.Amenities,
		Pricing: pricingDocument{
			BaseNightly:            toMoneyDocument(l.Pricing.BaseNightly),
			CleaningFee:            toMoneyDocument(l.Pricing.CleaningFee),
			WeeklyDiscountPercent:  l.Pricing.WeeklyDiscountPercent,
			MonthlyDiscountPercent: l.Pricing.MonthlyDiscountPercent,
		},
		Availability: availabilityDoc{
			MinNights:    l.Availability.MinNights,
			MaxNights:    l.Availability.MaxNights,
			InstantBook:  l.Availability.InstantBook,
			CheckInTime:  l.Availability.CheckInTime,
			CheckOutTime: l.Availability.CheckOutTime,
		},
		HouseRules: l.HouseRules,
		Photos:     l.Photos,
		State:      string(l.State),
		Stats: statisticsDocument{
			TotalBookings: l.Stats.TotalBookings,
			TotalRevenue:  toMoneyDocument(l.Stats.TotalRevenue),
			AverageRating: l.Stats.AverageRating,
			TotalReviews:  l.Stats.TotalReviews,
			ViewCount:     l.Stats.ViewCount,
			FavoriteCount: l.Stats.FavoriteCount,
		},
		CreatedAt: timeToTimestamp(l.CreatedAt),
		UpdatedAt: timeToTimestamp(l.UpdatedAt),
		Version:   l.Version,
	}
	for _, a := range l.Amenities {
		doc.AmenitiesLC = append(doc.AmenitiesLC, lower(a))
	}
	for _, blocked := range l.Availability.Blocked {
		doc.Availability.Blocked = append(doc.Availability.Blocked, blockedRangeDocument{
			CheckIn:   timeToTimestamp(blocked.Range.CheckIn),
			CheckOut:  timeToTimestamp(blocked.Range.CheckOut),
			Reason:    string(blocked.Reason),
			Reference: blocked.Reference,
			CreatedAt: timeToTimestamp(blocked.CreatedAt),
		})
	}
	for _, review := range l.Reviews {
		doc.Reviews = append(doc.Reviews, reviewDocument{
			ID:        review.ID,
			AuthorID:  review.AuthorID,
			BookingID: review.BookingID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: timeToTimestamp(review.CreatedAt),
		})
	}
	return doc
}

func (d listingDocument) toAggregate() *listings.Listing {
	l := &listings.Listing{
		ID:           listings.ListingID(d.ID),
		Host:         listings.HostID(d.HostID),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		RoomType:     d.RoomType,
		Location: listings.Location{
			Address: d.Location.Address,
			City:    d.Location.City,
			State:   d.Location.State,
			Country: d.Location.Country,
			ZipCode: d.Location.ZipCode,
			Lat:     d.Location.Lat,
			Lon:     d.Location.Lon,
		},
		Capacity: listings.Capacity{
			Guests:    d.Capacity.Guests,
			Bedrooms:  d.Capacity.Bedrooms,
			Beds:      d.Capacity.Beds,
			Bathrooms: d.Capacity.Bathrooms,
		},
		Amenities: d.Amenities,
		Pricing: listings.Pricing{
			BaseNightly:            d.Pricing.BaseNightly.toMoney(),
			CleaningFee:            d.Pricing.CleaningFee.toMoney(),
			WeeklyDiscountPercent:  d.Pricing.WeeklyDiscountPercent,
			MonthlyDiscountPercent: d.Pricing.MonthlyDiscountPercent,
		},
		Availability: listings.AvailabilityRules{
			MinNights:    d.Availability.MinNights,
			MaxNights:    d.Availability.MaxNights,
			InstantBook:  d.Availability.InstantBook,
			CheckInTime:  d.Availability.CheckInTime,
			CheckOutTime: d.Availability.CheckOutTime,
		},
		HouseRules: d.HouseRules,
		Photos:     d.Photos,
		State:      listings.ListingState(d.State),
		Stats: listings.Statistics{
			TotalBookings: d.Stats.TotalBookings,
			TotalRevenue:  d.Stats.TotalRevenue.toMoney(),
			AverageRating: d.Stats.AverageRating,
			TotalReviews:  d.Stats.TotalReviews,
			ViewCount:     d.Stats.ViewCount,
			FavoriteCount: d.Stats.FavoriteCount,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	for _, blocked := range d.Availability.Blocked {
		l.Availability.Blocked = append(l.Availability.Blocked, listings.BlockedRange{
			Range: daterange.DateRange{
				CheckIn:  timestampToTime(blocked.CheckIn),
				CheckOut: timestampToTime(blocked.CheckOut),
			},
			Reason:    listings.BlockReason(blocked.Reason),
			Reference: blocked.Reference,
			CreatedAt: timestampToTime(blocked.CreatedAt),
		})
	}
	for _, review := range d.Reviews {
		l.Reviews = append(l.Reviews, listings.Review{
			ID:        review.ID,
			AuthorID:  review.AuthorID,
			BookingID: review.BookingID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: timestampToTime(review.CreatedAt),
		})
	}
	return l
}
