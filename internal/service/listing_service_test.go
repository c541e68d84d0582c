package service

import (
	"context"
	"testing"

	"campusmarket/internal/models"
	"campusmarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func adminOnly(adminIDs ...uint) func(context.Context, uint) (bool, error) {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range adminIDs {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

// listingRepoStub is a stub for repository.ListingRepository.
type listingRepoStub struct {
	createFn                func(context.Context, *models.Listing) error
	getByIDFn               func(context.Context, uint) (*models.Listing, error)
	browseFn                func(context.Context, repository.ListingFilter) ([]*models.Listing, int64, error)
	getBySellerIDFn         func(context.Context, uint, []string, int, int) ([]*models.Listing, error)
	listByStatusFn          func(context.Context, string, int, int) ([]*models.Listing, int64, error)
	updateFn                func(context.Context, *models.Listing) error
	updateStatusFn          func(context.Context, uint, map[string]interface{}) error
	replaceImagesFn         func(context.Context, uint, []models.ListingImage) error
	incrementViewCountFn    func(context.Context, uint) error
	adjustFavoriteCountFn   func(context.Context, uint, int) error
	incrementMessageCountFn func(context.Context, uint) error
	getFavoritedIDsFn       func(context.Context, uint, []uint) ([]uint, error)
}

func (s *listingRepoStub) Create(ctx context.Context, l *models.Listing) error {
	return s.createFn(ctx, l)
}
func (s *listingRepoStub) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	return s.getByIDFn(ctx, id)
}
func (s *listingRepoStub) Browse(ctx context.Context, filter repository.ListingFilter) ([]*models.Listing, int64, error) {
	return s.browseFn(ctx, filter)
}
func (s *listingRepoStub) GetBySellerID(ctx context.Context, sellerID uint, statuses []string, limit, offset int) ([]*models.Listing, error) {
	return s.getBySellerIDFn(ctx, sellerID, statuses, limit, offset)
}
func (s *listingRepoStub) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Listing, int64, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *listingRepoStub) Update(ctx context.Context, l *models.Listing) error {
	return s.updateFn(ctx, l)
}
func (s *listingRepoStub) UpdateStatus(ctx context.Context, id uint, updates map[string]interface{}) error {
	return s.updateStatusFn(ctx, id, updates)
}
func (s *listingRepoStub) ReplaceImages(ctx context.Context, listingID uint, images []models.ListingImage) error {
	return s.replaceImagesFn(ctx, listingID, images)
}
func (s *listingRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewCountFn(ctx, id)
}
func (s *listingRepoStub) AdjustFavoriteCount(ctx context.Context, id uint, delta int) error {
	return s.adjustFavoriteCountFn(ctx, id, delta)
}
func (s *listingRepoStub) IncrementMessageCount(ctx context.Context, id uint) error {
	return s.incrementMessageCountFn(ctx, id)
}
func (s *listingRepoStub) GetFavoritedIDs(ctx context.Context, userID uint, listingIDs []uint) ([]uint, error) {
	return s.getFavoritedIDsFn(ctx, userID, listingIDs)
}

func noopListingRepo() *listingRepoStub {
	return &listingRepoStub{
		createFn: func(_ context.Context, l *models.Listing) error {
			l.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, Status: models.ListingStatusActive}, nil
		},
		browseFn: func(context.Context, repository.ListingFilter) ([]*models.Listing, int64, error) {
			return nil, 0, nil
		},
		getBySellerIDFn: func(context.Context, uint, []string, int, int) ([]*models.Listing, error) {
			return nil, nil
		},
		listByStatusFn: func(context.Context, string, int, int) ([]*models.Listing, int64, error) {
			return nil, 0, nil
		},
		updateFn:                func(context.Context, *models.Listing) error { return nil },
		updateStatusFn:          func(context.Context, uint, map[string]interface{}) error { return nil },
		replaceImagesFn:         func(context.Context, uint, []models.ListingImage) error { return nil },
		incrementViewCountFn:    func(context.Context, uint) error { return nil },
		adjustFavoriteCountFn:   func(context.Context, uint, int) error { return nil },
		incrementMessageCountFn: func(context.Context, uint) error { return nil },
		getFavoritedIDsFn:       func(context.Context, uint, []uint) ([]uint, error) { return nil, nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn      func(context.Context) ([]models.Category, error)
	getByIDFn   func(context.Context, uint) (*models.Category, error)
	getBySlugFn func(context.Context, string) (*models.Category, error)
	createFn    func(context.Context, *models.Category) error
	updateFn    func(context.Context, *models.Category) error
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) Update(ctx context.Context, c *models.Category) error {
	return s.updateFn(ctx, c)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn: func(context.Context) ([]models.Category, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) {
			return &models.Category{ID: id, Name: "Textbooks", Slug: "textbooks", IsActive: true}, nil
		},
		getBySlugFn: func(context.Context, string) (*models.Category, error) { return nil, nil },
		createFn:    func(context.Context, *models.Category) error { return nil },
		updateFn:    func(context.Context, *models.Category) error { return nil },
	}
}

func newListingServiceForTest(listingRepo *listingRepoStub, categoryRepo *categoryRepoStub, userRepo *userRepoStub, adminIDs ...uint) *ListingService {
	return NewListingService(listingRepo, categoryRepo, userRepo, nil, nil, adminOnly(adminIDs...))
}

func validCreateInput() CreateListingInput {
	return CreateListingInput{
		SellerID:    1,
		CategoryID:  3,
		Title:       "Calculus textbook, 9th edition",
		Description: "Stewart Calculus, barely used, no highlights or notes inside.",
		Price:       250,
		Condition:   models.ConditionGood,
	}
}

func TestListingService_CreateListing_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*CreateListingInput)
	}{
		{"title too short", func(in *CreateListingInput) { in.Title = "Book" }},
		{"description too short", func(in *CreateListingInput) { in.Description = "Used book" }},
		{"price zero", func(in *CreateListingInput) { in.Price = 0 }},
		{"price above cap", func(in *CreateListingInput) { in.Price = 60000 }},
		{"bad condition", func(in *CreateListingInput) { in.Condition = "mint" }},
		{"too many images", func(in *CreateListingInput) {
			in.Images = make([]ListingImageInput, 6)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := newListingServiceForTest(noopListingRepo(), noopCategoryRepo(), noopUserRepo())
			in := validCreateInput()
			tc.mutate(&in)
			_, err := svc.CreateListing(context.Background(), in)
			assertValidationError(t, err)
		})
	}
}

func TestListingService_CreateListing_EntersPending(t *testing.T) {
	t.Parallel()

	var created *models.Listing
	repo := noopListingRepo()
	repo.createFn = func(_ context.Context, l *models.Listing) error {
		l.ID = 42
		created = l
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
		return created, nil
	}
	svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())

	listing, err := svc.CreateListing(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusPending, listing.Status)
	require.NotNil(t, created)
	assert.Equal(t, models.ListingStatusPending, created.Status)
}

func TestListingService_CreateListing_BannedSeller(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, IsBanned: true}, nil
	}
	svc := newListingServiceForTest(noopListingRepo(), noopCategoryRepo(), userRepo)

	_, err := svc.CreateListing(context.Background(), validCreateInput())
	assertForbiddenError(t, err)
}

func TestListingService_CreateListing_InactiveCategory(t *testing.T) {
	t.Parallel()

	categoryRepo := noopCategoryRepo()
	categoryRepo.getByIDFn = func(_ context.Context, id uint) (*models.Category, error) {
		return &models.Category{ID: id, IsActive: false}, nil
	}
	svc := newListingServiceForTest(noopListingRepo(), categoryRepo, noopUserRepo())

	_, err := svc.CreateListing(context.Background(), validCreateInput())
	assertValidationError(t, err)
}

func TestListingService_CreateListing_PrimaryImageFallback(t *testing.T) {
	t.Parallel()

	var created *models.Listing
	repo := noopListingRepo()
	repo.createFn = func(_ context.Context, l *models.Listing) error {
		l.ID = 1
		created = l
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
		return created, nil
	}
	svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())

	in := validCreateInput()
	in.Images = []ListingImageInput{
		{URL: "/media/a/full.webp"},
		{URL: "/media/b/full.webp"},
	}
	_, err := svc.CreateListing(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, created.Images, 2)
	assert.True(t, created.Images[0].IsPrimary)
	assert.False(t, created.Images[1].IsPrimary)
}

func TestListingService_GetListing_Visibility(t *testing.T) {
	t.Parallel()

	pending := func() *models.Listing {
		return &models.Listing{ID: 5, SellerID: 1, Status: models.ListingStatusPending}
	}

	t.Run("pending hidden from strangers", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(context.Context, uint) (*models.Listing, error) { return pending(), nil }
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.GetListing(context.Background(), 5, 2)
		assertNotFoundError(t, err)
	})

	t.Run("pending visible to seller", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(context.Context, uint) (*models.Listing, error) { return pending(), nil }
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		listing, err := svc.GetListing(context.Background(), 5, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(5), listing.ID)
	})

	t.Run("pending visible to admin", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(context.Context, uint) (*models.Listing, error) { return pending(), nil }
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		listing, err := svc.GetListing(context.Background(), 5, 9)
		require.NoError(t, err)
		assert.Equal(t, uint(5), listing.ID)
	})
}

func TestListingService_GetListing_ViewCount(t *testing.T) {
	t.Parallel()

	t.Run("buyer view increments", func(t *testing.T) {
		t.Parallel()
		incremented := false
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive, ViewCount: 10}, nil
		}
		repo.incrementViewCountFn = func(context.Context, uint) error {
			incremented = true
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		listing, err := svc.GetListing(context.Background(), 5, 2)
		require.NoError(t, err)
		assert.True(t, incremented)
		assert.Equal(t, 11, listing.ViewCount)
	})

	t.Run("seller view does not increment", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive, ViewCount: 10}, nil
		}
		repo.incrementViewCountFn = func(context.Context, uint) error {
			t.Fatal("view count should not be incremented for the seller")
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		listing, err := svc.GetListing(context.Background(), 5, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, listing.ViewCount)
	})
}

func TestListingService_UpdateListing(t *testing.T) {
	t.Parallel()

	rejected := func() *models.Listing {
		approvedBy := uint(9)
		return &models.Listing{
			ID:              5,
			SellerID:        1,
			CategoryID:      3,
			Status:          models.ListingStatusRejected,
			RejectionReason: "Price looks like a typo",
			ApprovedBy:      &approvedBy,
		}
	}

	validUpdate := func() UpdateListingInput {
		return UpdateListingInput{
			UserID:      1,
			ListingID:   5,
			Title:       "Calculus textbook, 9th edition",
			Description: "Stewart Calculus, barely used, no highlights or notes inside.",
			Price:       200,
			Condition:   models.ConditionGood,
		}
	}

	t.Run("non-owner forbidden", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(context.Context, uint) (*models.Listing, error) { return rejected(), nil }
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		in := validUpdate()
		in.UserID = 2
		_, err := svc.UpdateListing(context.Background(), in)
		assertForbiddenError(t, err)
	})

	t.Run("sold listing no longer editable", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusSold}, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.UpdateListing(context.Background(), validUpdate())
		assertValidationError(t, err)
	})

	t.Run("edit resets rejected listing to pending and clears moderation fields", func(t *testing.T) {
		t.Parallel()
		var updated *models.Listing
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			if updated != nil {
				return updated, nil
			}
			return rejected(), nil
		}
		repo.updateFn = func(_ context.Context, l *models.Listing) error {
			updated = l
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())

		listing, err := svc.UpdateListing(context.Background(), validUpdate())
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusPending, listing.Status)
		assert.Empty(t, listing.RejectionReason)
		assert.Nil(t, listing.ApprovedBy)
		assert.Nil(t, listing.ApprovedAt)
	})

	t.Run("nil images keep existing set", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			l := rejected()
			l.Status = models.ListingStatusActive
			return l, nil
		}
		repo.replaceImagesFn = func(context.Context, uint, []models.ListingImage) error {
			t.Fatal("images should not be replaced when none were submitted")
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.UpdateListing(context.Background(), validUpdate())
		require.NoError(t, err)
	})
}

func TestListingService_DeleteListing(t *testing.T) {
	t.Parallel()

	t.Run("stranger forbidden", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		err := svc.DeleteListing(context.Background(), 2, 5)
		assertForbiddenError(t, err)
	})

	t.Run("admin can delete any listing", func(t *testing.T) {
		t.Parallel()
		var gotStatus string
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		repo.updateStatusFn = func(_ context.Context, _ uint, updates map[string]interface{}) error {
			gotStatus, _ = updates["status"].(string)
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		require.NoError(t, svc.DeleteListing(context.Background(), 9, 5))
		assert.Equal(t, models.ListingStatusDeleted, gotStatus)
	})

	t.Run("deleting an already deleted listing is a no-op", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusDeleted}, nil
		}
		repo.updateStatusFn = func(context.Context, uint, map[string]interface{}) error {
			t.Fatal("status should not be written again")
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		require.NoError(t, svc.DeleteListing(context.Background(), 1, 5))
	})

	t.Run("delete decrements seller count", func(t *testing.T) {
		t.Parallel()
		var gotDelta int
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		userRepo := noopUserRepo()
		userRepo.adjustListingsCountFn = func(_ context.Context, _ uint, delta int) error {
			gotDelta = delta
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), userRepo)
		require.NoError(t, svc.DeleteListing(context.Background(), 1, 5))
		assert.Equal(t, -1, gotDelta)
	})
}

func TestListingService_MarkSold(t *testing.T) {
	t.Parallel()

	t.Run("only seller can mark sold", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.MarkSold(context.Background(), 2, 5)
		assertForbiddenError(t, err)
	})

	t.Run("only active listings can be marked sold", func(t *testing.T) {
		t.Parallel()
		for _, status := range []string{models.ListingStatusPending, models.ListingStatusRejected, models.ListingStatusSold} {
			repo := noopListingRepo()
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
				return &models.Listing{ID: id, SellerID: 1, Status: status}, nil
			}
			svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
			_, err := svc.MarkSold(context.Background(), 1, 5)
			assertValidationError(t, err)
		}
	})

	t.Run("active listing transitions to sold with timestamp", func(t *testing.T) {
		t.Parallel()
		var updates map[string]interface{}
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		repo.updateStatusFn = func(_ context.Context, _ uint, u map[string]interface{}) error {
			updates = u
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.MarkSold(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusSold, updates["status"])
		assert.Contains(t, updates, "sold_at")
	})

	t.Run("favoriters are notified of the sale", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Title: "Mini fridge", Status: models.ListingStatusActive}, nil
		}

		favRepo := noopFavoriteRepo()
		favRepo.listUserIDsByListingFn = func(_ context.Context, listingID uint) ([]uint, error) {
			assert.Equal(t, uint(5), listingID)
			// The seller saved their own listing too; they must not be notified.
			return []uint{2, 1, 3}, nil
		}

		var created []*models.Notification
		notifRepo := noopNotificationRepo()
		notifRepo.createFn = func(_ context.Context, n *models.Notification) error {
			created = append(created, n)
			return nil
		}

		svc := NewListingService(repo, noopCategoryRepo(), noopUserRepo(), favRepo,
			NewNotificationService(notifRepo, nil), adminOnly())
		_, err := svc.MarkSold(context.Background(), 1, 5)
		require.NoError(t, err)

		require.Len(t, created, 2)
		recipients := []uint{created[0].UserID, created[1].UserID}
		assert.ElementsMatch(t, []uint{2, 3}, recipients)
		for _, n := range created {
			assert.Equal(t, models.NotificationTypeListingSold, n.Type)
			require.NotNil(t, n.RelatedListingID)
			assert.Equal(t, uint(5), *n.RelatedListingID)
		}
	})
}

func TestListingService_Moderation(t *testing.T) {
	t.Parallel()

	pendingListing := func(id uint) *models.Listing {
		return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusPending}
	}

	t.Run("queue requires admin", func(t *testing.T) {
		t.Parallel()
		svc := newListingServiceForTest(noopListingRepo(), noopCategoryRepo(), noopUserRepo(), 9)
		_, _, err := svc.GetModerationQueue(context.Background(), 2, 20, 0)
		assertForbiddenError(t, err)
	})

	t.Run("approve requires admin", func(t *testing.T) {
		t.Parallel()
		svc := newListingServiceForTest(noopListingRepo(), noopCategoryRepo(), noopUserRepo(), 9)
		_, err := svc.ApproveListing(context.Background(), 2, 5)
		assertForbiddenError(t, err)
	})

	t.Run("approve only from pending", func(t *testing.T) {
		t.Parallel()
		for _, status := range []string{models.ListingStatusActive, models.ListingStatusRejected, models.ListingStatusSold} {
			repo := noopListingRepo()
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
				return &models.Listing{ID: id, SellerID: 1, Status: status}, nil
			}
			svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
			_, err := svc.ApproveListing(context.Background(), 9, 5)
			assertValidationError(t, err)
		}
	})

	t.Run("approve stamps admin and clears rejection reason", func(t *testing.T) {
		t.Parallel()
		var updates map[string]interface{}
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return pendingListing(id), nil
		}
		repo.updateStatusFn = func(_ context.Context, _ uint, u map[string]interface{}) error {
			updates = u
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		_, err := svc.ApproveListing(context.Background(), 9, 5)
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusActive, updates["status"])
		assert.Equal(t, uint(9), updates["approved_by"])
		assert.Equal(t, "", updates["rejection_reason"])
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return pendingListing(id), nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		_, err := svc.RejectListing(context.Background(), RejectListingInput{AdminID: 9, ListingID: 5, Reason: "   "})
		assertValidationError(t, err)
	})

	t.Run("reject only from pending", func(t *testing.T) {
		t.Parallel()
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return &models.Listing{ID: id, SellerID: 1, Status: models.ListingStatusActive}, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		_, err := svc.RejectListing(context.Background(), RejectListingInput{AdminID: 9, ListingID: 5, Reason: "Not allowed on campus"})
		assertValidationError(t, err)
	})

	t.Run("reject stores the reason", func(t *testing.T) {
		t.Parallel()
		var updates map[string]interface{}
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Listing, error) {
			return pendingListing(id), nil
		}
		repo.updateStatusFn = func(_ context.Context, _ uint, u map[string]interface{}) error {
			updates = u
			return nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo(), 9)
		_, err := svc.RejectListing(context.Background(), RejectListingInput{AdminID: 9, ListingID: 5, Reason: "Prohibited item"})
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusRejected, updates["status"])
		assert.Equal(t, "Prohibited item", updates["rejection_reason"])
	})
}

func TestListingService_BrowseListings_EnrichesFavorites(t *testing.T) {
	t.Parallel()

	repo := noopListingRepo()
	repo.browseFn = func(context.Context, repository.ListingFilter) ([]*models.Listing, int64, error) {
		return []*models.Listing{
			{ID: 1, Status: models.ListingStatusActive},
			{ID: 2, Status: models.ListingStatusActive},
		}, 2, nil
	}
	repo.getFavoritedIDsFn = func(_ context.Context, _ uint, _ []uint) ([]uint, error) {
		return []uint{2}, nil
	}
	svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())

	listings, total, err := svc.BrowseListings(context.Background(), BrowseListingsInput{
		Condition:     models.ConditionGood,
		CurrentUserID: 7,
		Limit:         12,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, listings, 2)
	assert.False(t, listings[0].Favorited)
	assert.True(t, listings[1].Favorited)
}

func TestListingService_GetSellerListings_StatusScoping(t *testing.T) {
	t.Parallel()

	t.Run("stranger sees only active and sold", func(t *testing.T) {
		t.Parallel()
		var gotStatuses []string
		repo := noopListingRepo()
		repo.getBySellerIDFn = func(_ context.Context, _ uint, statuses []string, _, _ int) ([]*models.Listing, error) {
			gotStatuses = statuses
			return nil, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.GetSellerListings(context.Background(), 1, 2, 12, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{models.ListingStatusActive, models.ListingStatusSold}, gotStatuses)
	})

	t.Run("seller sees every status", func(t *testing.T) {
		t.Parallel()
		var gotStatuses []string
		called := false
		repo := noopListingRepo()
		repo.getBySellerIDFn = func(_ context.Context, _ uint, statuses []string, _, _ int) ([]*models.Listing, error) {
			called = true
			gotStatuses = statuses
			return nil, nil
		}
		svc := newListingServiceForTest(repo, noopCategoryRepo(), noopUserRepo())
		_, err := svc.GetSellerListings(context.Background(), 1, 1, 12, 0)
		require.NoError(t, err)
		assert.True(t, called)
		assert.Nil(t, gotStatuses)
	})
}
