package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campusmarket/internal/config"
	"campusmarket/internal/featureflags"
	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAdminGate(t *testing.T, mockRepo *MockUserRepository) *fiber.App {
	t.Helper()

	s := &Server{
		config:      testAuthConfig(),
		userService: service.NewUserService(mockRepo, nil),
	}

	app := fiber.New()
	app.Get("/api/admin/overview", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.Next()
	}, s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	return app
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		expectedStatus int
	}{
		{
			name:           "Admin Passes",
			user:           &models.User{Username: "root", IsAdmin: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Regular User Forbidden",
			user:           &models.User{Username: "student", IsAdmin: false},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.user.ID = 7
			mockRepo.On("GetByID", mock.Anything, uint(7)).Return(tt.user, nil)

			app := setupAdminGate(t, mockRepo)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/overview", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetFeatureFlags(t *testing.T) {
	s := &Server{
		config:       &config.Config{JWTSecret: "test_secret"},
		featureFlags: featureflags.NewManager("reports=on,bulk_upload=off"),
	}

	app := fiber.New()
	app.Get("/api/admin/flags", s.GetFeatureFlags)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/flags", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
