package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ListingKeyPrefix = "listing:%d"
	CategoriesKey    = "categories:all"

	// listingsVersionKey is bumped whenever the set of active listings
	// changes so that browse-page caches expire immediately.
	listingsVersionKey = "listings:version"
)

const (
	UserTTL       = 5 * time.Minute
	ListingTTL    = 10 * time.Minute
	CategoriesTTL = time.Hour
	ListTTL       = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ListingKey(listingID uint) string {
	return fmt.Sprintf(ListingKeyPrefix, listingID)
}

// ListingsBrowseKey returns the versioned key for the default browse page.
// Only the unfiltered first page is cached.
func ListingsBrowseKey(ctx context.Context) string {
	return fmt.Sprintf("listings:v%d:first", listingsVersion(ctx))
}

func listingsVersion(ctx context.Context) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, listingsVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// BumpListingsVersion invalidates all browse-page caches at once.
func BumpListingsVersion(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, listingsVersionKey)
	}
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesKey)
}
