package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository implements every Record Store interface the services consume
type MockUserRepository struct {
	FindByIDFunc                  func(ctx context.Context, id string) (*models.PublicUser, error)
	FindCredentialsByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	FindCredentialsByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	ListFunc                      func(ctx context.Context, limit, offset int) ([]*models.PublicUser, error)
	CountFunc                     func(ctx context.Context) (int64, error)
	CreateFunc                    func(ctx context.Context, user *models.User) (*models.PublicUser, error)
	UpdateProfileFunc             func(ctx context.Context, id, name, phone string) (*models.PublicUser, error)
	SetActiveFunc                 func(ctx context.Context, id string, active bool) (*models.PublicUser, error)
	SetRoleFunc                   func(ctx context.Context, id, role string) (*models.PublicUser, error)
	SetVerifiedFunc               func(ctx context.Context, id string) (*models.PublicUser, error)
	DeleteFunc                    func(ctx context.Context, id string) error
	UpdatePasswordFunc            func(ctx context.Context, id, passwordHash string) error
	RecordLoginFailureFunc        func(ctx context.Context, id string, attempt models.LoginAttempt, policy models.LockoutPolicy) (*models.User, error)
	RecordLoginSuccessFunc        func(ctx context.Context, id string, attempt models.LoginAttempt) error
	RecordLockedAttemptFunc       func(ctx context.Context, id string, attempt models.LoginAttempt) error
	ListLoginHistoryFunc          func(ctx context.Context, id string) ([]models.LoginAttempt, error)
	SetResetOTPFunc               func(ctx context.Context, id, code string, expiresAt time.Time) error
	IncrementResetOTPAttemptsFunc func(ctx context.Context, id string) (int, error)
	ClearResetOTPFunc             func(ctx context.Context, id string) error
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.PublicUser, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindCredentialsByEmailFunc != nil {
		return m.FindCredentialsByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) FindCredentialsByID(ctx context.Context, id string) (*models.User, error) {
	if m.FindCredentialsByIDFunc != nil {
		return m.FindCredentialsByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.PublicUser{}, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.PublicUser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, phone)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetActive(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetRole(ctx context.Context, id, role string) (*models.PublicUser, error) {
	if m.SetRoleFunc != nil {
		return m.SetRoleFunc(ctx, id, role)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetVerified(ctx context.Context, id string) (*models.PublicUser, error) {
	if m.SetVerifiedFunc != nil {
		return m.SetVerifiedFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, id string, attempt models.LoginAttempt, policy models.LockoutPolicy) (*models.User, error) {
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, attempt, policy)
	}
	return &models.User{}, nil
}

func (m *MockUserRepository) RecordLoginSuccess(ctx context.Context, id string, attempt models.LoginAttempt) error {
	if m.RecordLoginSuccessFunc != nil {
		return m.RecordLoginSuccessFunc(ctx, id, attempt)
	}
	return nil
}

func (m *MockUserRepository) RecordLockedAttempt(ctx context.Context, id string, attempt models.LoginAttempt) error {
	if m.RecordLockedAttemptFunc != nil {
		return m.RecordLockedAttemptFunc(ctx, id, attempt)
	}
	return nil
}

func (m *MockUserRepository) ListLoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error) {
	if m.ListLoginHistoryFunc != nil {
		return m.ListLoginHistoryFunc(ctx, id)
	}
	return []models.LoginAttempt{}, nil
}

func (m *MockUserRepository) SetResetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	if m.SetResetOTPFunc != nil {
		return m.SetResetOTPFunc(ctx, id, code, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) IncrementResetOTPAttempts(ctx context.Context, id string) (int, error) {
	if m.IncrementResetOTPAttemptsFunc != nil {
		return m.IncrementResetOTPAttemptsFunc(ctx, id)
	}
	return 1, nil
}

func (m *MockUserRepository) ClearResetOTP(ctx context.Context, id string) error {
	if m.ClearResetOTPFunc != nil {
		return m.ClearResetOTPFunc(ctx, id)
	}
	return nil
}

// MockPendingStore is an in-memory PendingRegistrationStore. Expiry is left
// to the service so boundary tests control the clock.
type MockPendingStore struct {
	mu      sync.Mutex
	entries map[string]*models.PendingRegistration
	SaveErr error
	GetErr  error
}

func NewMockPendingStore() *MockPendingStore {
	return &MockPendingStore{entries: make(map[string]*models.PendingRegistration)}
}

func (m *MockPendingStore) Save(ctx context.Context, p *models.PendingRegistration, ttl time.Duration) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.entries[p.Email] = &cp
	return nil
}

func (m *MockPendingStore) Get(ctx context.Context, email string) (*models.PendingRegistration, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPendingStore) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, email)
	return nil
}

func (m *MockPendingStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MockMailer records sent messages
type MockMailer struct {
	SendFunc func(ctx context.Context, to string, msg Message) error
	Sent     []SentMessage
}

type SentMessage struct {
	To      string
	Message Message
}

func (m *MockMailer) Send(ctx context.Context, to string, msg Message) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, msg); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, SentMessage{To: to, Message: msg})
	return nil
}

// NewTestUser returns an active, verified, unlocked principal whose password is password
func NewTestUser(email, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.User{
		PublicUser: models.PublicUser{
			ID:         uuid.New().String(),
			Name:       "Test User",
			Email:      email,
			Phone:      "5551234567",
			Role:       models.RoleUser,
			Active:     true,
			IsVerified: true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		PasswordHash: string(hash),
	}
}

// NewTestAdmin is NewTestUser with the admin role
func NewTestAdmin(email, password string) *models.User {
	u := NewTestUser(email, password)
	u.Role = models.RoleAdmin
	return u
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
