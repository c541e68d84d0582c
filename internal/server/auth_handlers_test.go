package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"campusmarket/internal/captcha"
	"campusmarket/internal/config"
	"campusmarket/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) SetBan(ctx context.Context, id uint, banned bool, reason string, until *time.Time) error {
	args := m.Called(ctx, id, banned, reason, until)
	return args.Error(0)
}

func (m *MockUserRepository) AdjustListingsCount(ctx context.Context, id uint, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastSeen(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test_secret",
		AllowedEmailDomain: "edu.tr",
	}
}

func TestSignup(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)

	s := &Server{
		config:   testAuthConfig(),
		userRepo: mockRepo,
	}

	app.Post("/signup", s.Signup)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"username":  "newstudent",
				"email":     "newstudent@edu.tr",
				"full_name": "New Student",
				"password":  "Password123!",
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "newstudent@edu.tr").Return(nil, nil)
				mockRepo.On("GetByUsername", mock.Anything, "newstudent").Return(nil, nil)
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate Email",
			body: map[string]string{
				"username": "otherstudent",
				"email":    "exists@edu.tr",
				"password": "Password123!",
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "exists@edu.tr").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Taken Username",
			body: map[string]string{
				"username": "takenname",
				"email":    "fresh@edu.tr",
				"password": "Password123!",
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "fresh@edu.tr").Return(nil, nil)
				mockRepo.On("GetByUsername", mock.Anything, "takenname").Return(&models.User{ID: 2}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Non-University Email",
			body: map[string]string{
				"username": "outsider",
				"email":    "outsider@gmail.com",
				"password": "Password123!",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Weak Password",
			body: map[string]string{
				"username": "weakpass",
				"email":    "weakpass@edu.tr",
				"password": "password",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)

	s := &Server{
		config:   testAuthConfig(),
		userRepo: mockRepo,
	}

	app.Post("/login", s.Login)

	hashed, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	pastBan := time.Now().Add(-time.Hour)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{"email": "ok@edu.tr", "password": "Password123!"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "ok@edu.tr").
					Return(&models.User{ID: 1, Username: "ok", Password: string(hashed)}, nil)
				mockRepo.On("TouchLastSeen", mock.Anything, uint(1)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Wrong Password",
			body: map[string]string{"email": "wrongpw@edu.tr", "password": "Different123!"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "wrongpw@edu.tr").
					Return(&models.User{ID: 2, Password: string(hashed)}, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Unknown Email",
			body: map[string]string{"email": "ghost@edu.tr", "password": "Password123!"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "ghost@edu.tr").Return(nil, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Banned Account",
			body: map[string]string{"email": "banned@edu.tr", "password": "Password123!"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "banned@edu.tr").
					Return(&models.User{ID: 3, Password: string(hashed), IsBanned: true, BanReason: "fraud"}, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "Expired Ban Lapses",
			body: map[string]string{"email": "lapsed@edu.tr", "password": "Password123!"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "lapsed@edu.tr").
					Return(&models.User{ID: 4, Username: "lapsed", Password: string(hashed), IsBanned: true, BanUntil: &pastBan}, nil)
				mockRepo.On("SetBan", mock.Anything, uint(4), false, "", (*time.Time)(nil)).Return(nil)
				mockRepo.On("TouchLastSeen", mock.Anything, uint(4)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var result struct {
					Token string `json:"token"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.NotEmpty(t, result.Token)
			}
		})
	}
}

func TestLogin_CaptchaGate(t *testing.T) {
	var verifyCalls int32
	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&verifyCalls, 1)
		require.NoError(t, r.ParseForm())
		success := r.FormValue("response") == "good-token"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": success})
	}))
	defer siteverify.Close()

	app := fiber.New()
	mockRepo := new(MockUserRepository)

	s := &Server{
		config:   testAuthConfig(),
		userRepo: mockRepo,
		captcha:  captcha.NewVerifier("captcha-secret", siteverify.URL),
	}

	app.Post("/login", s.Login)

	hashed, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name:           "Missing Captcha Token",
			body:           map[string]string{"email": "ok@edu.tr", "password": "Password123!"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Rejected Captcha Token",
			body:           map[string]string{"email": "ok@edu.tr", "password": "Password123!", "captcha_token": "bad-token"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Valid Captcha Token",
			body: map[string]string{"email": "ok@edu.tr", "password": "Password123!", "captcha_token": "good-token"},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "ok@edu.tr").
					Return(&models.User{ID: 1, Username: "ok", Password: string(hashed)}, nil)
				mockRepo.On("TouchLastSeen", mock.Anything, uint(1)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	// Credentials are never checked before the captcha passed.
	mockRepo.AssertNumberOfCalls(t, "GetByEmail", 1)
	assert.Positive(t, atomic.LoadInt32(&verifyCalls))
}

func TestTokenRoundTrip(t *testing.T) {
	s := &Server{config: testAuthConfig()}

	token, err := s.generateToken(42, "ayse-k")
	require.NoError(t, err)

	claims, err := s.parseToken(token)
	require.NoError(t, err)

	userID, err := userIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "ayse-k", claims["username"])
	assert.NotEmpty(t, claims["jti"])
}

func TestParseToken_RejectsForeignIssuer(t *testing.T) {
	s := &Server{config: testAuthConfig()}

	now := time.Now()
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"iss": "some-other-api",
		"aud": tokenAudience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	})
	signed, err := foreign.SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)

	_, err = s.parseToken(signed)
	assert.Error(t, err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	s := &Server{config: testAuthConfig()}

	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(-time.Hour).Unix(),
		"iat": now.Add(-2 * time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)

	_, err = s.parseToken(signed)
	assert.Error(t, err)
}
