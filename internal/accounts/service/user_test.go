package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	accountserrors "wayfarer/internal/accounts/errors"
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/accounts/validator"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	mongotx "wayfarer/pkg/db/mongo"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockUserRepository struct {
	user *model.UserCredential

	createFunc          func(ctx context.Context, user *model.UserCredential) error
	resetAttemptsErr    error
	incrementErr        error
	lockUntilErr        error
	resetAttemptCalls   int
	updatePasswordErr   error
	updatePasswordHash  string
	updatePasswordCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.UserCredential) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.UserCredential, error) {
	if m.user == nil || m.user.ID != id {
		return nil, accountserrors.ErrNotFound
	}
	copied := *m.user
	return &copied, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.UserCredential, error) {
	if m.user == nil || m.user.Email != email {
		return nil, accountserrors.ErrNotFound
	}
	copied := *m.user
	return &copied, nil
}

func (m *mockUserRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	m.user.FailedLoginAttempts++
	return m.user.FailedLoginAttempts, nil
}

func (m *mockUserRepository) LockUntil(ctx context.Context, id string, until time.Time) error {
	if m.lockUntilErr != nil {
		return m.lockUntilErr
	}
	u := until
	m.user.AccountLockedUntil = &u
	return nil
}

func (m *mockUserRepository) ResetAttempts(ctx context.Context, id string) error {
	if m.resetAttemptsErr != nil {
		return m.resetAttemptsErr
	}
	m.resetAttemptCalls++
	m.user.FailedLoginAttempts = 0
	m.user.AccountLockedUntil = nil
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.updatePasswordCalls++
	m.updatePasswordHash = passwordHash
	m.user.PasswordHash = passwordHash
	m.user.FailedLoginAttempts = 0
	m.user.AccountLockedUntil = nil
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id string, upd *model.ProfileUpdate) (*model.UserCredential, error) {
	if m.user == nil || m.user.ID != id {
		return nil, accountserrors.ErrNotFound
	}
	if upd.FirstName != nil {
		m.user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		m.user.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		m.user.Phone = *upd.Phone
	}
	copied := *m.user
	return &copied, nil
}

func (m *mockUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

// countingHasher records how many times Compare runs, so tests can
// assert that locked accounts never reach password verification.
type countingHasher struct {
	correct      string
	compareCalls int
}

func (h *countingHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *countingHasher) Compare(hash, password string) error {
	h.compareCalls++
	if password != h.correct {
		return errors.New("password mismatch")
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		LoginMaxAttempts:   5,
		LoginLockoutWindow: 5 * time.Minute,
	}
}

func newTestService(repo *mockUserRepository, hasher PasswordHasher, clk clock.Clock) UserService {
	cfg := testConfig()
	return NewUserService(
		repo,
		validator.NewUserValidator(cfg.Log),
		hasher,
		token.NewIssuer("test-secret", time.Hour),
		clk,
		cfg,
	)
}

func baseUser() *model.UserCredential {
	return &model.UserCredential{
		ID:           "507f1f77bcf86cd799439011",
		Email:        "traveler@example.com",
		PasswordHash: "hashed:correct-password",
	}
}

func loginReq(password string) *model.LoginRequest {
	return &model.LoginRequest{Email: "traveler@example.com", Password: password}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %s, want %s (err: %v)", appErr.Code, code, err)
	}
}

// ────────────────────────────────────────────────
// Tests for AttemptLogin()
// ────────────────────────────────────────────────

func TestAttemptLogin_Success(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	signed, err := svc.AttemptLogin(context.Background(), loginReq("correct-password"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed == "" {
		t.Fatal("expected a signed token")
	}
}

func TestAttemptLogin_UnknownEmailMatchesWrongPassword(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	_, unknownErr := svc.AttemptLogin(context.Background(), &model.LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})
	_, wrongErr := svc.AttemptLogin(context.Background(), loginReq("wrong-password"))

	assertCode(t, unknownErr, apperrors.CodeInvalidCredentials)
	assertCode(t, wrongErr, apperrors.CodeInvalidCredentials)

	unknownApp := apperrors.AsAppError(unknownErr)
	wrongApp := apperrors.AsAppError(wrongErr)
	if unknownApp.Message != wrongApp.Message {
		t.Errorf("messages differ, enumeration possible: %q vs %q", unknownApp.Message, wrongApp.Message)
	}
}

func TestAttemptLogin_LocksAfterMaxFailures(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewFixed(now))

	for i := 0; i < 4; i++ {
		_, err := svc.AttemptLogin(context.Background(), loginReq("wrong-password"))
		assertCode(t, err, apperrors.CodeInvalidCredentials)
	}

	// Fifth failure crosses the threshold.
	_, err := svc.AttemptLogin(context.Background(), loginReq("wrong-password"))
	assertCode(t, err, apperrors.CodeAccountLocked)

	if repo.user.AccountLockedUntil == nil {
		t.Fatal("expected lockout timestamp to be set")
	}
	want := now.Add(5 * time.Minute)
	if !repo.user.AccountLockedUntil.Equal(want) {
		t.Errorf("locked until %v, want %v", repo.user.AccountLockedUntil, want)
	}
}

func TestAttemptLogin_LockedAccountSkipsVerification(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	lockedUntil := now.Add(3 * time.Minute)

	user := baseUser()
	user.FailedLoginAttempts = 5
	user.AccountLockedUntil = &lockedUntil

	repo := &mockUserRepository{user: user}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewFixed(now))

	// Even the correct password is rejected without reaching the hasher.
	_, err := svc.AttemptLogin(context.Background(), loginReq("correct-password"))
	assertCode(t, err, apperrors.CodeAccountLocked)

	if hasher.compareCalls != 0 {
		t.Errorf("hasher ran %d times during lockout, want 0", hasher.compareCalls)
	}

	appErr := apperrors.AsAppError(err)
	retryAfter, ok := appErr.Details["retry_after_seconds"].(int64)
	if !ok || retryAfter != 180 {
		t.Errorf("retry_after_seconds = %v, want 180", appErr.Details["retry_after_seconds"])
	}
}

func TestAttemptLogin_UnlocksAtExactExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	user := baseUser()
	user.FailedLoginAttempts = 5
	lockedUntil := now // expiry is exactly now: lock no longer active
	user.AccountLockedUntil = &lockedUntil

	repo := &mockUserRepository{user: user}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewFixed(now))

	signed, err := svc.AttemptLogin(context.Background(), loginReq("correct-password"))
	if err != nil {
		t.Fatalf("unexpected error at exact expiry instant: %v", err)
	}
	if signed == "" {
		t.Fatal("expected a signed token")
	}
	if repo.user.AccountLockedUntil != nil {
		t.Error("expected lockout to be cleared")
	}
	if repo.user.FailedLoginAttempts != 0 {
		t.Errorf("failed attempts = %d, want 0", repo.user.FailedLoginAttempts)
	}
}

func TestAttemptLogin_ExpiredLockStartsFreshWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	user := baseUser()
	user.FailedLoginAttempts = 5
	lockedUntil := now.Add(-time.Second)
	user.AccountLockedUntil = &lockedUntil

	repo := &mockUserRepository{user: user}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewFixed(now))

	// A wrong password after expiry counts as failure 1 of a fresh
	// window, not failure 6 of the old one.
	_, err := svc.AttemptLogin(context.Background(), loginReq("wrong-password"))
	assertCode(t, err, apperrors.CodeInvalidCredentials)

	if repo.user.FailedLoginAttempts != 1 {
		t.Errorf("failed attempts = %d, want 1", repo.user.FailedLoginAttempts)
	}
	if repo.user.AccountLockedUntil != nil {
		t.Error("expected no lockout after a single fresh failure")
	}
}

func TestAttemptLogin_SuccessResetsCounter(t *testing.T) {
	user := baseUser()
	user.FailedLoginAttempts = 4

	repo := &mockUserRepository{user: user}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	if _, err := svc.AttemptLogin(context.Background(), loginReq("correct-password")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.user.FailedLoginAttempts != 0 {
		t.Errorf("failed attempts = %d, want 0 after successful login", repo.user.FailedLoginAttempts)
	}

	// Four more failures fit inside the fresh window without locking.
	for i := 0; i < 4; i++ {
		_, err := svc.AttemptLogin(context.Background(), loginReq("wrong-password"))
		assertCode(t, err, apperrors.CodeInvalidCredentials)
	}
	if repo.user.AccountLockedUntil != nil {
		t.Error("account locked after fewer failures than the threshold")
	}
}

func TestAttemptLogin_ValidationRejectsMalformedEmail(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	_, err := svc.AttemptLogin(context.Background(), &model.LoginRequest{
		Email: "not-an-email", Password: "something",
	})
	assertCode(t, err, apperrors.CodeValidation)
	if hasher.compareCalls != 0 {
		t.Errorf("hasher ran %d times on invalid input, want 0", hasher.compareCalls)
	}
}

// ────────────────────────────────────────────────
// Tests for Register()
// ────────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	repo := &mockUserRepository{}
	hasher := &countingHasher{}
	svc := newTestService(repo, hasher, clock.NewSystem())

	profile, err := svc.Register(context.Background(), &model.Registration{
		Email:     " New.Traveler@Example.COM ",
		Password:  "str0ng-password",
		FirstName: "  Marie ",
		LastName:  "Curie",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Email != "new.traveler@example.com" {
		t.Errorf("email not normalized: %q", profile.Email)
	}
	if profile.FirstName != "Marie" {
		t.Errorf("first name not normalized: %q", profile.FirstName)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.UserCredential) error {
			return accountserrors.ErrDuplicateEmail
		},
	}
	hasher := &countingHasher{}
	svc := newTestService(repo, hasher, clock.NewSystem())

	_, err := svc.Register(context.Background(), &model.Registration{
		Email:    "taken@example.com",
		Password: "str0ng-password",
	})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	repo := &mockUserRepository{}
	hasher := &countingHasher{}
	svc := newTestService(repo, hasher, clock.NewSystem())

	_, err := svc.Register(context.Background(), &model.Registration{
		Email:    "new@example.com",
		Password: "short",
	})
	assertCode(t, err, apperrors.CodeValidation)
}

// ────────────────────────────────────────────────
// Tests for ChangePassword()
// ────────────────────────────────────────────────

func TestChangePassword_StoresNewHashAndClearsLockout(t *testing.T) {
	user := baseUser()
	user.FailedLoginAttempts = 3
	repo := &mockUserRepository{user: user}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	err := svc.ChangePassword(context.Background(), user.ID, &model.PasswordChange{
		CurrentPassword: "correct-password",
		NewPassword:     "brand-new-password",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updatePasswordCalls != 1 {
		t.Fatalf("UpdatePassword calls = %d, want 1", repo.updatePasswordCalls)
	}
	if repo.updatePasswordHash != "hashed:brand-new-password" {
		t.Errorf("stored hash = %q, want new password hash", repo.updatePasswordHash)
	}
	if repo.user.FailedLoginAttempts != 0 || repo.user.AccountLockedUntil != nil {
		t.Error("expected lockout state cleared after password change")
	}
}

func TestChangePassword_WrongCurrentPasswordRejected(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	err := svc.ChangePassword(context.Background(), baseUser().ID, &model.PasswordChange{
		CurrentPassword: "wrong-password",
		NewPassword:     "brand-new-password",
	})
	assertCode(t, err, apperrors.CodeInvalidCredentials)
	if repo.updatePasswordCalls != 0 {
		t.Fatalf("UpdatePassword calls = %d, want 0", repo.updatePasswordCalls)
	}
}

func TestChangePassword_WeakNewPasswordRejected(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	hasher := &countingHasher{correct: "correct-password"}
	svc := newTestService(repo, hasher, clock.NewSystem())

	err := svc.ChangePassword(context.Background(), baseUser().ID, &model.PasswordChange{
		CurrentPassword: "correct-password",
		NewPassword:     "short",
	})
	assertCode(t, err, apperrors.CodeValidation)
}

// ────────────────────────────────────────────────
// Tests for UpdateProfile()
// ────────────────────────────────────────────────

func TestUpdateProfile_UpdatesOnlyProvidedFields(t *testing.T) {
	user := baseUser()
	user.FirstName = "Ada"
	user.LastName = "Lovelace"
	repo := &mockUserRepository{user: user}
	svc := newTestService(repo, &countingHasher{}, clock.NewSystem())

	first := "  Grace "
	profile, err := svc.UpdateProfile(context.Background(), user.ID, &model.ProfileUpdate{
		FirstName: &first,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.FirstName != "Grace" {
		t.Errorf("first name = %q, want sanitized %q", profile.FirstName, "Grace")
	}
	if profile.LastName != "Lovelace" {
		t.Errorf("last name = %q, want untouched %q", profile.LastName, "Lovelace")
	}
}

func TestUpdateProfile_OverlongNameRejected(t *testing.T) {
	repo := &mockUserRepository{user: baseUser()}
	svc := newTestService(repo, &countingHasher{}, clock.NewSystem())

	name := strings.Repeat("x", 101)
	_, err := svc.UpdateProfile(context.Background(), baseUser().ID, &model.ProfileUpdate{
		FirstName: &name,
	})
	assertCode(t, err, apperrors.CodeValidation)
}
