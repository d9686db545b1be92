package dto

import (
	"time"

	domainlistings "stayloop/internal/domain/listings"
)

type LocationDTO struct {
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	ZipCode string  `json:"zip_code,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

type CapacityDTO struct {
	Guests    int     `json:"guests"`
	Bedrooms  int     `json:"bedrooms"`
	Beds      int     `json:"beds"`
	Bathrooms float64 `json:"bathrooms"`
}

type ListingPricingDTO struct {
	BaseNightly MoneyDTO `json:"base_nightly"`
	CleaningFee MoneyDTO `json:"cleaning_fee"`
}

type BlockedRangeDTO struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Reason   string    `json:"reason"`
}

type AvailabilityDTO struct {
	MinNights    int               `json:"min_nights"`
	MaxNights    int               `json:"max_nights"`
	InstantBook  bool              `json:"instant_book"`
	CheckInTime  string            `json:"check_in_time"`
	CheckOutTime string            `json:"check_out_time"`
	Blocked      []BlockedRangeDTO `json:"blocked,omitempty"`
}

type ReviewDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StatisticsDTO struct {
	TotalBookings int      `json:"total_bookings"`
	TotalRevenue  MoneyDTO `json:"total_revenue"`
	AverageRating float64  `json:"average_rating"`
	TotalReviews  int      `json:"total_reviews"`
	ViewCount     int64    `json:"view_count"`
	FavoriteCount int      `json:"favorite_count"`
}

type ListingDetail struct {
	ID           string            `json:"id"`
	HostID       string            `json:"host_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	PropertyType string            `json:"property_type"`
	RoomType     string            `json:"room_type"`
	Location     LocationDTO       `json:"location"`
	Capacity     CapacityDTO       `json:"capacity"`
	Amenities    []string          `json:"amenities,omitempty"`
	Pricing      ListingPricingDTO `json:"pricing"`
	Availability AvailabilityDTO   `json:"availability"`
	HouseRules   []string          `json:"house_rules,omitempty"`
	Photos       []string          `json:"photos,omitempty"`
	State        string            `json:"state"`
	Reviews      []ReviewDTO       `json:"reviews,omitempty"`
	Stats        StatisticsDTO     `json:"stats"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ListingSummary struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	PropertyType  string      `json:"property_type"`
	RoomType      string      `json:"room_type"`
	Location      LocationDTO `json:"location"`
	Capacity      CapacityDTO `json:"capacity"`
	BaseNightly   MoneyDTO    `json:"base_nightly"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Photo         string      `json:"photo,omitempty"`
}

type ListingCollection struct {
	Items []ListingSummary `json:"items"`
	Total int              `json:"total"`
}

func MapListingDetail(l *domainlistings.Listing) ListingDetail {
	if l == nil {
		return ListingDetail{}
	}
	detail := ListingDetail{
		ID:           string(l.ID),
		HostID:       string(l.Host),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		RoomType:     l.RoomType,
		Location: LocationDTO{
			Address: l.Location.Address,
			City:    l.Location.City,
			State:   l.Location.State,
			Country: l.Location.Country,
			ZipCode: l.Location.ZipCode,
			Lat:     l.Location.Lat,
			Lon:     l.Location.Lon,
		},
		Capacity: CapacityDTO{
			Guests:    l.Capacity.Guests,
			Bedrooms:  l.Capacity.Bedrooms,
			Beds:      l.Capacity.Beds,
			Bathrooms: l.Capacity.Bathrooms,
		},
		Amenities: l.Amenities,
		Pricing: ListingPricingDTO{
			BaseNightly: MapMoney(l.Pricing.BaseNightly),
			CleaningFee: MapMoney(l.Pricing.CleaningFee),
		},
		Availability: AvailabilityDTO{
			MinNights:    l.Availability.MinNights,
			MaxNights:    l.Availability.MaxNights,
			InstantBook:  l.Availability.InstantBook,
			CheckInTime:  l.Availability.CheckInTime,
			CheckOutTime: l.Availability.CheckOutTime,
		},
		HouseRules: l.HouseRules,
		Photos:     l.Photos,
		State:      string(l.State),
		Stats: StatisticsDTO{
			TotalBookings: l.Stats.TotalBookings,
			TotalRevenue:  MapMoney(l.Stats.TotalRevenue),
			AverageRating: l.Stats.AverageRating,
			TotalReviews:  l.Stats.TotalReviews,
			ViewCount:     l.Stats.ViewCount,
			FavoriteCount: l.Stats.FavoriteCount,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	for _, blocked := range l.Availability.Blocked {
		detail.Availability.Blocked = append(detail.Availability.Blocked, BlockedRangeDTO{
			CheckIn:  blocked.Range.CheckIn,
			CheckOut: blocked.Range.CheckOut,
			Reason:   string(blocked.Reason),
		})
	}
	for _, review := range l.Reviews {
		detail.Reviews = append(detail.Reviews, MapReview(review))
	}
	return detail
}

func MapReview(review domainlistings.Review) ReviewDTO {
	return ReviewDTO{
		ID:        review.ID,
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

func MapListingSummary(l *domainlistings.Listing) ListingSummary {
	summary := ListingSummary{
		ID:           string(l.ID),
		Title:        l.Title,
		PropertyType: l.PropertyType,
		RoomType:     l.RoomType,
		Location: LocationDTO{
			City:    l.Location.City,
			State:   l.Location.State,
			Country: l.Location.Country,
		},
		Capacity: CapacityDTO{
			Guests:    l.Capacity.Guests,
			Bedrooms:  l.Capacity.Bedrooms,
			Beds:      l.Capacity.Beds,
			Bathrooms: l.Capacity.Bathrooms,
		},
		BaseNightly:   MapMoney(l.Pricing.BaseNightly),
		AverageRating: l.Stats.AverageRating,
		TotalReviews:  l.Stats.TotalReviews,
	}
	if len(l.Photos) > 0 {
		summary.Photo = l.Photos[0]
	}
	return summary
}

func MapListingCollection(items []*domainlistings.Listing, total int) ListingCollection {
	out := ListingCollection{Items: make([]ListingSummary, 0, len(items)), Total: total}
	for _, item := range items {
		out.Items = append(out.Items, MapListingSummary(item))
	}
	return out
}
