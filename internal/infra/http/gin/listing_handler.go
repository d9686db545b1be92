package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/app/dto"
	svclistings "stayloop/internal/app/services/listings"
	domainlistings "stayloop/internal/domain/listings"
)

type ListingHandler struct {
	Service *svclistings.Service
	Logger  *slog.Logger
}

type listingPayload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PropertyType     string   `json:"property_type"`
	RoomType         string   `json:"room_type"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Country          string   `json:"country"`
	ZipCode          string   `json:"zip_code"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	Guests           int      `json:"guests"`
	Bedrooms         int      `json:"bedrooms"`
	Beds             int      `json:"beds"`
	Bathrooms        float64  `json:"bathrooms"`
	Amenities        []string `json:"amenities"`
	BaseNightlyCents int64    `json:"base_nightly_cents"`
	CleaningFeeCents int64    `json:"cleaning_fee_cents"`
	Currency         string   `json:"currency"`
	MinNights        int      `json:"min_nights"`
	MaxNights        int      `json:"max_nights"`
	InstantBook      bool     `json:"instant_book"`
	HouseRules       []string `json:"house_rules"`
	Photos           []string `json:"photos"`
}

func (p listingPayload) location() domainlistings.Location {
	return domainlistings.Location{
		Address: p.Address,
		City:    p.City,
		State:   p.State,
		Country: p.Country,
		ZipCode: p.ZipCode,
		Lat:     p.Lat,
		Lon:     p.Lon,
	}
}

func (p listingPayload) capacity() domainlistings.Capacity {
	return domainlistings.Capacity{
		Guests:    p.Guests,
		Bedrooms:  p.Bedrooms,
		Beds:      p.Beds,
		Bathrooms: p.Bathrooms,
	}
}

func (h ListingHandler) Create(c *gin.Context) {
	p, ok := requireHost(c)
	if !ok {
		return
	}
	var req listingPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := h.Service.Create(c.Request.Context(), svclistings.CreateParams{
		HostID:           p.ID,
		Title:            req.Title,
		Description:      req.Description,
		PropertyType:     req.PropertyType,
		RoomType:         req.RoomType,
		Location:         req.location(),
		Capacity:         req.capacity(),
		Amenities:        req.Amenities,
		BaseNightlyCents: req.BaseNightlyCents,
		CleaningFeeCents: req.CleaningFeeCents,
		Currency:         req.Currency,
		MinNights:        req.MinNights,
		MaxNights:        req.MaxNights,
		InstantBook:      req.InstantBook,
		HouseRules:       req.HouseRules,
		Photos:           req.Photos,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapListingDetail(listing))
}

func (h ListingHandler) Get(c *gin.Context) {
	listing, err := h.Service.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListingDetail(listing))
}

func (h ListingHandler) Search(c *gin.Context) {
	params := domainlistings.SearchParams{
		Location:      c.Query("location"),
		PropertyType:  c.Query("property_type"),
		RoomType:      c.Query("room_type"),
		MinPriceCents: queryInt64(c, "min_price_cents"),
		MaxPriceCents: queryInt64(c, "max_price_cents"),
		MinGuests:     queryInt(c, "guests"),
		MinBedrooms:   queryInt(c, "bedrooms"),
		Sort:          domainlistings.SortOrder(c.Query("sort")),
		Limit:         queryInt(c, "limit"),
		Offset:        queryInt(c, "offset"),
	}
	if raw := c.Query("amenities"); raw != "" {
		params.Amenities = strings.Split(raw, ",")
	}
	params.CheckIn = queryDate(c, "check_in")
	params.CheckOut = queryDate(c, "check_out")

	result, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListingCollection(result.Items, result.Total))
}

func (h ListingHandler) Mine(c *gin.Context) {
	p, ok := requireHost(c)
	if !ok {
		return
	}
	items, err := h.Service.Mine(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListingCollection(items, len(items)))
}

func (h ListingHandler) Update(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req listingPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := h.Service.Update(c.Request.Context(), p.ID, c.Param("id"), svclistings.UpdateParams{
		Title:            req.Title,
		Description:      req.Description,
		PropertyType:     req.PropertyType,
		RoomType:         req.RoomType,
		Location:         req.location(),
		Capacity:         req.capacity(),
		Amenities:        req.Amenities,
		BaseNightlyCents: req.BaseNightlyCents,
		CleaningFeeCents: req.CleaningFeeCents,
		Currency:         req.Currency,
		MinNights:        req.MinNights,
		MaxNights:        req.MaxNights,
		InstantBook:      req.InstantBook,
		HouseRules:       req.HouseRules,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListingDetail(listing))
}

func (h ListingHandler) Delete(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), p.ID, c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ListingHandler) AddReview(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	review, err := h.Service.AddReview(c.Request.Context(), c.Param("id"), svclistings.ReviewParams{
		AuthorID: p.ID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapReview(*review))
}

func (h ListingHandler) Similar(c *gin.Context) {
	items, err := h.Service.Similar(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListingCollection(items, len(items)))
}

type blockDatesRequest struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Reason   string    `json:"reason"`
}

func (h ListingHandler) BlockDates(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.Service.BlockDates(c.Request.Context(), p.ID, c.Param("id"), svclistings.BlockDatesParams{
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Reason:   req.Reason,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhotos accepts a multipart form with one or more "photos" files.
func (h ListingHandler) UploadPhotos(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	files := form.File["photos"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no photos provided"})
		return
	}
	uploads := make([]svclistings.PhotoUpload, 0, len(files))
	for _, file := range files {
		reader, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer reader.Close()
		uploads = append(uploads, svclistings.PhotoUpload{
			Name:        file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Reader:      reader,
		})
	}
	urls, err := h.Service.UploadPhotos(c.Request.Context(), p.ID, c.Param("id"), uploads)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"urls": urls})
}

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

func queryInt64(c *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return v
}

func queryDate(c *gin.Context, key string) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, raw)
	return t
}
