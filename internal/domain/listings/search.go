package listings

import (
	"strings"
	"time"
)

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortRating    SortOrder = "rating"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
)

type SearchParams struct {
	Location      string
	PropertyType  string
	RoomType      string
	MinPriceCents int64
	MaxPriceCents int64
	MinGuests     int
	MinBedrooms   int
	Amenities     []string
	CheckIn       time.Time
	CheckOut      time.Time
	Sort          SortOrder
	Limit         int
	Offset        int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

// Normalized clamps pagination and lowercases textual filters so repository
// implementations can compare without re-cleaning.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.Location = strings.ToLower(strings.TrimSpace(p.Location))
	out.PropertyType = strings.ToLower(strings.TrimSpace(p.PropertyType))
	out.RoomType = strings.ToLower(strings.TrimSpace(p.RoomType))
	amenities := make([]string, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			amenities = append(amenities, a)
		}
	}
	out.Amenities = amenities
	if out.Limit <= 0 {
		out.Limit = defaultPageSize
	}
	if out.Limit > maxPageSize {
		out.Limit = maxPageSize
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	switch out.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
	default:
		out.Sort = SortNewest
	}
	return out
}
