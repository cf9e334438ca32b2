package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

func newTestRegistrationService(repo RegistrationUserRepository, pending PendingRegistrationStore, mailer Mailer) *RegistrationService {
	svc := NewRegistrationService(repo, pending, mailer, 10*time.Minute, testLogger(), testAuditLogger())
	svc.now = fixedClock(testNow)
	return svc
}

func validRegistration() RegistrationInput {
	return RegistrationInput{Name: "Jane", Email: "Jane@Example.com", Phone: "5551234567", Password: "Abc123!@"}
}

// sentCode extracts the emailed code from the last message
func sentCode(t *testing.T, mailer *MockMailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.Sent)
	code := otpPattern.FindString(mailer.Sent[len(mailer.Sent)-1].Message.Text)
	require.NotEmpty(t, code, "message must carry a 6-digit code")
	return code
}

func TestRegistration_RequestAndConfirm(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) {
			created = user
			pub := user.Public()
			pub.ID = "new-id"
			return pub, nil
		},
	}
	pending := NewMockPendingStore()
	mailer := &MockMailer{}
	svc := newTestRegistrationService(repo, pending, mailer)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "jane@example.com", mailer.Sent[0].To)
	assert.Equal(t, 1, pending.Len())

	stored, err := pending.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Abc123!@", stored.PasswordHash, "password is hashed before parking")
	assert.NoError(t, pkgauth.ComparePassword(stored.PasswordHash, "Abc123!@"))
	assert.Equal(t, testNow.Add(10*time.Minute), stored.ExpiresAt)

	user, err := svc.ConfirmOTP(ctx, "JANE@example.com", sentCode(t, mailer))
	require.NoError(t, err)
	assert.Equal(t, "new-id", user.ID)

	require.NotNil(t, created)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.Active)
	assert.True(t, created.IsVerified)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Zero(t, pending.Len(), "pending sign-up is consumed")
}

func TestRegistration_WeakPasswordListsEveryRule(t *testing.T) {
	pending := NewMockPendingStore()
	mailer := &MockMailer{}
	svc := newTestRegistrationService(&MockUserRepository{}, pending, mailer)

	in := validRegistration()
	in.Password = "abcdefgh"
	err := svc.RequestOTP(context.Background(), in)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "Password must contain at least one uppercase letter")
	assert.Contains(t, validationErr.Errors, "Password must contain at least one number")
	assert.Contains(t, validationErr.Errors, "Password must contain at least one symbol")
	assert.Empty(t, mailer.Sent)
	assert.Zero(t, pending.Len())
}

func TestRegistration_MissingFields(t *testing.T) {
	svc := newTestRegistrationService(&MockUserRepository{}, NewMockPendingStore(), &MockMailer{})

	err := svc.RequestOTP(context.Background(), RegistrationInput{})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{
		"Name is required", "Email is required", "Phone is required", "Password is required",
	}, validationErr.Errors)
}

func TestRegistration_ExistingAccountConflicts(t *testing.T) {
	existing := NewTestUser("jane@example.com", "Abc123!@")
	mailer := &MockMailer{}
	svc := newTestRegistrationService(&MockUserRepository{
		FindCredentialsByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return existing, nil },
	}, NewMockPendingStore(), mailer)

	err := svc.RequestOTP(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Empty(t, mailer.Sent)
}

func TestRegistration_SendFailureStoresNothing(t *testing.T) {
	pending := NewMockPendingStore()
	mailer := &MockMailer{SendFunc: func(ctx context.Context, to string, msg Message) error {
		return errors.New("relay down")
	}}
	svc := newTestRegistrationService(&MockUserRepository{}, pending, mailer)

	err := svc.RequestOTP(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrDependency)
	assert.Zero(t, pending.Len())
}

func TestRegistration_PendingStoreFailure(t *testing.T) {
	pending := NewMockPendingStore()
	pending.SaveErr = errors.New("redis unavailable")
	svc := newTestRegistrationService(&MockUserRepository{}, pending, &MockMailer{})

	err := svc.RequestOTP(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrDependency)
}

func TestRegistration_RepeatRequestReplacesCode(t *testing.T) {
	pending := NewMockPendingStore()
	mailer := &MockMailer{}
	svc := newTestRegistrationService(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) { return user.Public(), nil },
	}, pending, mailer)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
	require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
	assert.Equal(t, 1, pending.Len())

	latest, err := pending.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, sentCode(t, mailer), latest.OTP)
}

func TestRegistration_ConfirmFailuresLeavePendingIntact(t *testing.T) {
	tests := []struct {
		name  string
		at    time.Duration
		wrong bool
	}{
		{name: "wrong code", at: time.Minute, wrong: true},
		{name: "expired at exactly ten minutes", at: 10 * time.Minute},
		{name: "expired after ten minutes", at: 10*time.Minute + time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending := NewMockPendingStore()
			mailer := &MockMailer{}
			svc := newTestRegistrationService(&MockUserRepository{
				CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) {
					t.Fatal("no principal may be created")
					return nil, nil
				},
			}, pending, mailer)
			ctx := context.Background()

			require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
			code := sentCode(t, mailer)
			if tt.wrong {
				code = wrongCode(code)
			}

			svc.now = fixedClock(testNow.Add(tt.at))
			_, err := svc.ConfirmOTP(ctx, "jane@example.com", code)

			assert.ErrorIs(t, err, models.ErrInvalidOTP)
			assert.Equal(t, 1, pending.Len())
		})
	}
}

func TestRegistration_ConfirmJustBeforeExpiry(t *testing.T) {
	mailer := &MockMailer{}
	svc := newTestRegistrationService(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) { return user.Public(), nil },
	}, NewMockPendingStore(), mailer)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
	svc.now = fixedClock(testNow.Add(9*time.Minute + 59*time.Second))

	_, err := svc.ConfirmOTP(ctx, "jane@example.com", sentCode(t, mailer))
	assert.NoError(t, err)
}

func TestRegistration_ConfirmUnknownEmail(t *testing.T) {
	svc := newTestRegistrationService(&MockUserRepository{}, NewMockPendingStore(), &MockMailer{})

	_, err := svc.ConfirmOTP(context.Background(), "nobody@example.com", "123456")

	assert.ErrorIs(t, err, models.ErrInvalidOTP)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRegistration_ConfirmRaceLosesToExistingAccount(t *testing.T) {
	pending := NewMockPendingStore()
	mailer := &MockMailer{}
	svc := newTestRegistrationService(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) {
			return nil, models.ErrConflict
		},
	}, pending, mailer)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, validRegistration()))
	_, err := svc.ConfirmOTP(ctx, "jane@example.com", sentCode(t, mailer))

	assert.ErrorIs(t, err, models.ErrConflict)
}

// wrongCode returns a 6-digit code that differs from code
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}
