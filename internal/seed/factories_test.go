package seed

import (
	"strings"
	"testing"
	"time"

	"campusmarket/internal/models"
)

func TestBuildListing_TemplatesAndTimestamps(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	seller := &models.User{ID: 1}

	textbooks := &models.Category{ID: 2, Slug: "textbooks"}
	l := f.BuildListing(seller, textbooks)
	if l.SellerID != 1 || l.CategoryID != 2 {
		t.Fatalf("listing not bound to seller/category: %+v", l)
	}
	if l.Price < 50 || l.Price > 600 {
		t.Fatalf("textbook price out of template range: %v", l.Price)
	}
	if l.Condition == models.ConditionNew {
		t.Fatalf("textbook template should not produce new condition")
	}
	if len(l.Images) != 1 || !l.Images[0].IsPrimary {
		t.Fatalf("expected one primary image, got %+v", l.Images)
	}

	// timestamps should be within MaxDays
	if time.Since(l.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
		t.Fatalf("created_at too old: %v", l.CreatedAt)
	}

	unknown := &models.Category{ID: 9, Slug: "tickets"}
	l2 := f.BuildListing(seller, unknown)
	if l2.Title == "" || l2.Description == "" {
		t.Fatalf("fallback template produced empty content")
	}
}

func TestCreateUser_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})

	user, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("dry run should assign a synthetic ID")
	}
	if !strings.HasSuffix(user.Email, "@edu.tr") {
		t.Fatalf("seed users must carry the campus email domain, got %s", user.Email)
	}
	if user.Username == "" || user.FullName == "" {
		t.Fatalf("incomplete user: %+v", user)
	}
}

func TestCreateConversation_DryRunBindsTriple(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})

	listing := &models.Listing{ID: 7, SellerID: 3}
	buyer := &models.User{ID: 4}

	conv, err := f.CreateConversation(listing, buyer)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.ListingID != 7 || conv.BuyerID != 4 || conv.SellerID != 3 {
		t.Fatalf("conversation triple mismatch: %+v", conv)
	}
}
