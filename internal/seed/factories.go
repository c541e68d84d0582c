// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"campusmarket/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configure demo data generation.
type Options struct {
	NumUsers    int
	NumListings int
	// MaxDays bounds how far in the past generated timestamps are spread.
	MaxDays int
	// ShouldClean truncates marketplace tables before seeding.
	ShouldClean bool
	// DryRun builds entities without persisting them. Used in tests.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

func (f *Factory) persist(value interface{}) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(value).Error
}

func (f *Factory) allocID() uint {
	f.nextID++
	return f.nextID
}

// spreadCreatedAt returns a timestamp scattered over the last MaxDays days.
func (f *Factory) spreadCreatedAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample student account.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s-%s%d", first, string([]rune(last)[0]), f.rng.Intn(1000)))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       username,
		Email:          fmt.Sprintf("%s@edu.tr", username),
		FullName:       fmt.Sprintf("%s %s", first, last),
		Password:       string(hashedPassword),
		Bio:            gofakeit.Sentence(8),
		AvatarURL:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		UniversityName: "Campus University",
		IsVerified:     true,
		CreatedAt:      f.spreadCreatedAt(),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.allocID()
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// listingTemplate pairs generated content with a category slug so that demo
// listings read plausibly for their category.
type listingTemplate struct {
	title      func() string
	priceMin   float64
	priceMax   float64
	conditions []string
}

var listingTemplates = map[string]listingTemplate{
	"textbooks": {
		title: func() string {
			return fmt.Sprintf("%s, %d. edition", gofakeit.BookTitle(), 3+rand.Intn(9))
		},
		priceMin:   50,
		priceMax:   600,
		conditions: []string{models.ConditionLikeNew, models.ConditionGood, models.ConditionFair},
	},
	"electronics": {
		title: func() string {
			return fmt.Sprintf("%s %s", gofakeit.Company(), gofakeit.ProductName())
		},
		priceMin:   200,
		priceMax:   15000,
		conditions: []string{models.ConditionNew, models.ConditionLikeNew, models.ConditionGood},
	},
	"furniture": {
		title: func() string {
			return fmt.Sprintf("%s desk and chair set", gofakeit.Color())
		},
		priceMin:   100,
		priceMax:   3000,
		conditions: []string{models.ConditionGood, models.ConditionFair, models.ConditionPoor},
	},
}

// BuildListing constructs a listing for the given seller and category without
// persisting it. Useful for batching.
func (f *Factory) BuildListing(seller *models.User, category *models.Category, overrides ...func(*models.Listing)) *models.Listing {
	template, ok := listingTemplates[category.Slug]
	if !ok {
		template = listingTemplate{
			title:      func() string { return gofakeit.ProductName() },
			priceMin:   20,
			priceMax:   2000,
			conditions: []string{models.ConditionNew, models.ConditionLikeNew, models.ConditionGood, models.ConditionFair},
		}
	}

	price := template.priceMin + f.rng.Float64()*(template.priceMax-template.priceMin)
	listing := &models.Listing{
		SellerID:    seller.ID,
		CategoryID:  category.ID,
		Title:       template.title(),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		Price:       float64(int(price*100)) / 100,
		Condition:   template.conditions[f.rng.Intn(len(template.conditions))],
		Status:      models.ListingStatusActive,
		CreatedAt:   f.spreadCreatedAt(),
	}

	imageSeed := gofakeit.UUID()
	listing.Images = []models.ListingImage{{
		URL:          fmt.Sprintf("https://picsum.photos/seed/%s/800/800", imageSeed),
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/400/400", imageSeed),
		IsPrimary:    true,
	}}

	for _, override := range overrides {
		override(listing)
	}
	return listing
}

// CreateListing constructs and persists a sample listing.
func (f *Factory) CreateListing(seller *models.User, category *models.Category, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := f.BuildListing(seller, category, overrides...)
	if f.opts.DryRun {
		listing.ID = f.allocID()
		return listing, nil
	}
	if err := f.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateListingsBatch persists multiple listings in a single DB call.
func (f *Factory) CreateListingsBatch(listings []*models.Listing) error {
	if len(listings) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.CreateInBatches(listings, 100).Error
}

// CreateConversation persists a buyer-seller conversation about a listing.
func (f *Factory) CreateConversation(listing *models.Listing, buyer *models.User) (*models.Conversation, error) {
	conv := &models.Conversation{
		ListingID: listing.ID,
		BuyerID:   buyer.ID,
		SellerID:  listing.SellerID,
	}
	if f.opts.DryRun {
		conv.ID = f.allocID()
		return conv, nil
	}
	if err := f.db.Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateMessage constructs and persists a sample message in the provided
// conversation from the provided sender.
func (f *Factory) CreateMessage(conv *models.Conversation, sender *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        gofakeit.Question(),
		Status:         "sent",
	}
	for _, override := range overrides {
		override(message)
	}
	if f.opts.DryRun {
		message.ID = f.allocID()
		return message, nil
	}
	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// CreateFavorite persists a favorite from user on listing.
func (f *Factory) CreateFavorite(user *models.User, listing *models.Listing) error {
	return f.persist(&models.Favorite{
		UserID:    user.ID,
		ListingID: listing.ID,
	})
}

// CreateReport persists a report from user on listing.
func (f *Factory) CreateReport(reporter *models.User, listing *models.Listing, reason string) error {
	return f.persist(&models.Report{
		ReporterID:  reporter.ID,
		ListingID:   listing.ID,
		Reason:      reason,
		Description: gofakeit.Sentence(12),
		Status:      models.ReportStatusPending,
	})
}
