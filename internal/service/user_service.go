package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"campusmarket/internal/models"
	"campusmarket/internal/repository"
	"campusmarket/internal/validation"
)

type UserService struct {
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
}

type UpdateProfileInput struct {
	UserID   uint
	Username string
	FullName string
	Bio      string
	Phone    string
	Avatar   string
}

type BanUserInput struct {
	AdminID  uint
	TargetID uint
	Reason   string
	Until    *time.Time
}

func NewUserService(userRepo repository.UserRepository, notificationSvc *NotificationService) *UserService {
	return &UserService{userRepo: userRepo, notificationSvc: notificationSvc}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxFullNameLen = 100

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, models.NewConflictError("Username is already taken")
		}
		user.Username = in.Username
	}
	if in.FullName != "" {
		if utf8.RuneCountInString(in.FullName) > maxFullNameLen {
			return nil, models.NewValidationError("Name too long (max 100 characters)")
		}
		user.FullName = strings.TrimSpace(in.FullName)
	}
	if in.Bio != "" {
		if utf8.RuneCountInString(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.Phone != "" {
		user.Phone = strings.TrimSpace(in.Phone)
	}
	if in.Avatar != "" {
		user.AvatarURL = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetAdmin grants or revokes admin rights on the target user.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BanUser bans the target with a required reason and an optional expiry,
// and tells them why. Admins cannot ban themselves or other admins.
func (s *UserService) BanUser(ctx context.Context, in BanUserInput) (*models.User, error) {
	if in.AdminID == in.TargetID {
		return nil, models.NewValidationError("You cannot ban yourself")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, models.NewValidationError("Ban reason is required")
	}

	target, err := s.userRepo.GetByID(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin {
		return nil, models.NewForbiddenError("Admins cannot be banned")
	}

	if err := s.userRepo.SetBan(ctx, in.TargetID, true, reason, in.Until); err != nil {
		return nil, err
	}

	if s.notificationSvc != nil {
		_ = s.notificationSvc.Notify(ctx, &models.Notification{
			UserID: in.TargetID,
			Type:   models.NotificationTypeSystem,
			Title:  "Account suspended",
			Body:   reason,
		})
	}

	return s.userRepo.GetByID(ctx, in.TargetID)
}

// UnbanUser lifts a ban.
func (s *UserService) UnbanUser(ctx context.Context, targetID uint) (*models.User, error) {
	if err := s.userRepo.SetBan(ctx, targetID, false, "", nil); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// IsAdmin reports whether the user holds admin rights. Wired into services
// that take an isAdmin callback.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
