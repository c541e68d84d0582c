package seed

import (
	"fmt"
	"log"
	"time"

	"campusmarket/internal/models"

	"gorm.io/gorm"
)

// StatusDistribution describes what fraction of generated listings land in
// each lifecycle state. Fractions are applied in order; rounding remainder
// goes to active.
type StatusDistribution struct {
	Active   float64
	Pending  float64
	Sold     float64
	Rejected float64
}

var defaultDistribution = StatusDistribution{
	Active:   0.6,
	Pending:  0.2,
	Sold:     0.15,
	Rejected: 0.05,
}

// computeCounts splits total into per-status counts. The remainder after
// rounding is assigned to active so the sum always equals total.
func computeCounts(total int, d StatusDistribution) (active, pending, sold, rejected int) {
	pending = int(float64(total) * d.Pending)
	sold = int(float64(total) * d.Sold)
	rejected = int(float64(total) * d.Rejected)
	active = total - pending - sold - rejected
	return active, pending, sold, rejected
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d listings...", opts.NumUsers, opts.NumListings)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	if err := Categories(db); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	var categories []models.Category
	if err := db.Where("is_active = ?", true).Order("sort_order").Find(&categories).Error; err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("no active categories after seeding")
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)
	}
	if len(users) < 2 {
		return fmt.Errorf("need at least 2 seeded users, got %d", len(users))
	}
	log.Printf("%d demo users created", len(users))

	active, pending, sold, rejected := computeCounts(opts.NumListings, defaultDistribution)
	statuses := make([]string, 0, opts.NumListings)
	for i := 0; i < active; i++ {
		statuses = append(statuses, models.ListingStatusActive)
	}
	for i := 0; i < pending; i++ {
		statuses = append(statuses, models.ListingStatusPending)
	}
	for i := 0; i < sold; i++ {
		statuses = append(statuses, models.ListingStatusSold)
	}
	for i := 0; i < rejected; i++ {
		statuses = append(statuses, models.ListingStatusRejected)
	}

	listings := make([]*models.Listing, 0, opts.NumListings)
	for i, status := range statuses {
		seller := users[f.rng.Intn(len(users))]
		category := &categories[f.rng.Intn(len(categories))]
		listing, err := f.CreateListing(seller, category, func(l *models.Listing) {
			l.Status = status
			if status == models.ListingStatusSold {
				soldAt := l.CreatedAt.Add(48 * time.Hour)
				l.SoldAt = &soldAt
			}
			if status == models.ListingStatusRejected {
				l.RejectionReason = "Listing does not meet marketplace guidelines"
			}
		})
		if err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		listings = append(listings, listing)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d listings...", i)
		}
	}
	log.Printf("%d listings created", len(listings))

	if err := seedInteractions(f, users, listings); err != nil {
		return fmt.Errorf("failed to seed interactions: %w", err)
	}

	log.Println("Database seeding completed successfully")
	return nil
}

// seedInteractions adds favorites, conversations with a few messages, and a
// handful of reports on active listings.
func seedInteractions(f *Factory, users []*models.User, listings []*models.Listing) error {
	reasons := []string{
		models.ReportReasonSpam,
		models.ReportReasonInappropriate,
		models.ReportReasonWrongCategory,
		models.ReportReasonOther,
	}

	for _, listing := range listings {
		if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
			continue
		}

		// Roughly a third of visible listings get buyer interest.
		if f.rng.Float64() > 0.35 {
			continue
		}

		buyer := users[f.rng.Intn(len(users))]
		if buyer.ID == listing.SellerID {
			continue
		}

		if err := f.CreateFavorite(buyer, listing); err != nil {
			continue // unique constraint collisions are fine
		}

		conv, err := f.CreateConversation(listing, buyer)
		if err != nil {
			continue
		}
		if _, err := f.CreateMessage(conv, buyer); err != nil {
			return err
		}
		if f.rng.Float64() < 0.7 {
			seller := &models.User{ID: listing.SellerID}
			if _, err := f.CreateMessage(conv, seller); err != nil {
				return err
			}
		}

		if f.rng.Float64() < 0.05 {
			reason := reasons[f.rng.Intn(len(reasons))]
			if err := f.CreateReport(buyer, listing, reason); err != nil {
				return err
			}
		}
	}

	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE reports, notifications, favorites, messages, conversations, listing_images, listings, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
