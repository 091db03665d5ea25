package service

import (
	"context"
	"errors"
	"math"
	"time"

	accountserrors "wayfarer/internal/accounts/errors"
	"wayfarer/internal/accounts/repository"
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/accounts/validator"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/model"
	"wayfarer/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type UserService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.Profile, error)
	AttemptLogin(ctx context.Context, req *model.LoginRequest) (string, error)
	Profile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd *model.ProfileUpdate) (*model.Profile, error)
	ChangePassword(ctx context.Context, userID string, req *model.PasswordChange) error
	VerifyToken(tokenString string) (*token.Claims, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	hasher    PasswordHasher
	issuer    *token.Issuer
	clock     clock.Clock
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	hasher PasswordHasher,
	issuer *token.Issuer,
	clk clock.Clock,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		hasher:    hasher,
		issuer:    issuer,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, reg *model.Registration) (*model.Profile, error) {
	s.sanitizeRegistration(reg)
	if err := s.validator.ValidateRegistration(reg); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.UserCredential{
		Email:        reg.Email,
		PasswordHash: hash,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Phone:        reg.Phone,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, accountserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "user_id", user.ID)
	return profileOf(user), nil
}

// AttemptLogin runs the credential check and the failure counter as one
// flow. Order matters: the lockout gate comes before any password
// verification, so a locked account never reaches the hasher.
func (s *userService) AttemptLogin(ctx context.Context, req *model.LoginRequest) (string, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return "", apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			// Same response as a wrong password, so the endpoint does
			// not reveal which emails are registered.
			return "", apperrors.InvalidCredentials()
		}
		s.cfg.Log.Error("Failed to look up user", "error", err)
		return "", apperrors.Internal("Failed to process login", err)
	}

	now := s.clock.Now()

	if user.AccountLockedUntil != nil {
		if now.Before(*user.AccountLockedUntil) {
			retryAfter := int64(math.Ceil(user.AccountLockedUntil.Sub(now).Seconds()))
			s.cfg.Log.Warn("Login attempt on locked account", "user_id", user.ID)
			return "", apperrors.AccountLocked(retryAfter)
		}
		// Lock expired at or before now: clear it and start a fresh
		// window before evaluating this attempt.
		if err := s.repo.ResetAttempts(ctx, user.ID); err != nil {
			s.cfg.Log.Error("Failed to clear expired lockout", "user_id", user.ID, "error", err)
			return "", apperrors.Internal("Failed to process login", err)
		}
		user.FailedLoginAttempts = 0
		user.AccountLockedUntil = nil
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return "", s.recordFailure(ctx, user.ID, now)
	}

	if user.FailedLoginAttempts > 0 {
		if err := s.repo.ResetAttempts(ctx, user.ID); err != nil {
			s.cfg.Log.Error("Failed to reset failed attempts", "user_id", user.ID, "error", err)
			return "", apperrors.Internal("Failed to process login", err)
		}
	}

	signed, err := s.issuer.Issue(user.ID, user.Email, now)
	if err != nil {
		return "", apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID)
	return signed, nil
}

// recordFailure increments the counter and, when the threshold is
// reached, sets the lockout inside the same transaction so concurrent
// failures cannot split the two writes.
func (s *userService) recordFailure(ctx context.Context, userID string, now time.Time) error {
	var lockedUntil *time.Time

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		attempts, err := s.repo.IncrementFailedAttempts(sessCtx, userID)
		if err != nil {
			return apperrors.Internal("Failed to record login failure", err)
		}

		if attempts >= s.cfg.LoginMaxAttempts {
			until := now.Add(s.cfg.LoginLockoutWindow)
			if err := s.repo.LockUntil(sessCtx, userID, until); err != nil {
				return apperrors.Internal("Failed to lock account", err)
			}
			lockedUntil = &until
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record login failure", "user_id", userID, "error", err)
		return err
	}

	if lockedUntil != nil {
		s.cfg.Log.Warn("Account locked after repeated login failures",
			"user_id", userID, "locked_until", *lockedUntil)
		retryAfter := int64(math.Ceil(lockedUntil.Sub(now).Seconds()))
		return apperrors.AccountLocked(retryAfter)
	}

	return apperrors.InvalidCredentials()
}

func (s *userService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		if errors.Is(err, accountserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return profileOf(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, upd *model.ProfileUpdate) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	s.sanitizeProfileUpdate(upd)
	if err := s.validator.ValidateProfileUpdate(upd); err != nil {
		return nil, apperrors.Validation("Invalid profile input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		if errors.Is(err, accountserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to update profile", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to update profile", err)
	}

	s.cfg.Log.Info("Profile updated", "user_id", userID)
	return profileOf(user), nil
}

// ChangePassword verifies the caller's current password before storing
// the new hash. The repository write also clears lockout state.
func (s *userService) ChangePassword(ctx context.Context, userID string, req *model.PasswordChange) error {
	if userID == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	if err := s.validator.ValidatePasswordChange(req); err != nil {
		return apperrors.Validation("Invalid password input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, accountserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("User", userID)
		}
		if errors.Is(err, accountserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid user ID format")
		}
		return apperrors.Internal("Failed to retrieve user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return apperrors.InvalidCredentials()
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		s.cfg.Log.Error("Failed to update password", "user_id", userID, "error", err)
		return apperrors.Internal("Failed to update password", err)
	}

	s.cfg.Log.Info("Password changed", "user_id", userID)
	return nil
}

func (s *userService) VerifyToken(tokenString string) (*token.Claims, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

func (s *userService) sanitizeProfileUpdate(upd *model.ProfileUpdate) {
	if upd.FirstName != nil {
		first := sanitizer.NormalizeName(*upd.FirstName)
		upd.FirstName = &first
	}
	if upd.LastName != nil {
		last := sanitizer.NormalizeName(*upd.LastName)
		upd.LastName = &last
	}
	if upd.Phone != nil {
		phone := sanitizer.NormalizePhone(*upd.Phone)
		upd.Phone = &phone
	}
}

func (s *userService) sanitizeRegistration(reg *model.Registration) {
	reg.Email = sanitizer.NormalizeEmail(reg.Email)
	reg.FirstName = sanitizer.NormalizeName(reg.FirstName)
	reg.LastName = sanitizer.NormalizeName(reg.LastName)
	reg.Phone = sanitizer.NormalizePhone(reg.Phone)
}

func profileOf(user *model.UserCredential) *model.Profile {
	return &model.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
}
