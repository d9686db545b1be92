package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/money"
)

var repoNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func seedListing(t *testing.T, repo *ListingRepository) domainlistings.ListingID {
	t.Helper()
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
		Capacity: domainlistings.Capacity{Guests: 4},
		Pricing: domainlistings.Pricing{
			BaseNightly: money.Must(15000, "USD"),
			CleaningFee: money.Must(2500, "USD"),
		},
		Now: repoNow,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), listing))
	return listing.ID
}

func TestListingSaveRejectsStaleVersion(t *testing.T) {
	repo := NewListingRepository()
	id := seedListing(t, repo)
	ctx := context.Background()

	first, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.ByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	assert.ErrorIs(t, repo.Save(ctx, second), domainlistings.ErrConcurrentUpdate)

	// The winner may keep writing on its bumped version.
	require.NoError(t, repo.Save(ctx, first))
}

func TestListingByIDDetachesFromStore(t *testing.T) {
	repo := NewListingRepository()
	id := seedListing(t, repo)
	ctx := context.Background()

	loaded, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	loaded.Title = "Scribbled over"
	loaded.Amenities = append(loaded.Amenities, "sauna")

	stored, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sunny loft near the harbour", stored.Title)
	assert.Empty(t, stored.Amenities)
}
