package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/storefront/internal/database"
	"github.com/BradenHooton/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const publicUserColumns = `id, name, email, phone, role, active, is_verified, account_locked, lock_until, last_login, created_at, updated_at`

const credentialUserColumns = publicUserColumns + `, password_hash, failed_login_attempts, reset_otp, reset_otp_expires_at, reset_otp_attempts, password_changed_at`

// UserRepository is the Postgres-backed Record Store for principals and
// their login history.
type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool, now: time.Now}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func publicScanTargets(u *models.PublicUser) []interface{} {
	return []interface{}{
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Active, &u.IsVerified,
		&u.AccountLocked, &u.LockUntil, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	}
}

func scanPublicUser(scanner rowScanner) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := scanner.Scan(publicScanTargets(&user)...); err != nil {
		return nil, database.MapPostgresError(err)
	}
	user.SetActive(user.Active)
	return &user, nil
}

// scanCredentialUser handles nullable secret fields and populates the full record
func scanCredentialUser(scanner rowScanner) (*models.User, error) {
	var user models.User
	var resetOTP *string

	dest := append(publicScanTargets(&user.PublicUser),
		&user.PasswordHash, &user.FailedLoginAttempts, &resetOTP,
		&user.ResetOTPExpiresAt, &user.ResetOTPAttempts, &user.PasswordChangedAt,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	if resetOTP != nil {
		user.ResetOTP = *resetOTP
	}
	user.SetActive(user.Active)

	return &user, nil
}

// validID rejects identifiers that cannot name a stored principal, so a
// malformed id reads as not-found instead of a driver error.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.PublicUser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + publicUserColumns + ` FROM users WHERE id = $1`
	return scanPublicUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.PublicUser, 0)
	for rows.Next() {
		user, err := scanPublicUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// FindCredentialsByEmail returns the full record including the password hash.
// Lookup is case-insensitive.
func (r *UserRepository) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + credentialUserColumns + ` FROM users WHERE lower(email) = $1`
	return scanCredentialUser(r.pool.QueryRow(ctx, query, models.NormalizeEmail(email)))
}

// FindCredentialsByID is FindCredentialsByEmail keyed by id
func (r *UserRepository) FindCredentialsByID(ctx context.Context, id string) (*models.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + credentialUserColumns + ` FROM users WHERE id = $1`
	return scanCredentialUser(r.pool.QueryRow(ctx, query, id))
}

// Create inserts a new principal. A duplicate email (any case) yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.PublicUser, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := r.now()

	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role, active, is_verified, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $9)
		RETURNING ` + publicUserColumns

	return scanPublicUser(r.pool.QueryRow(ctx, query,
		user.ID, user.Name, models.NormalizeEmail(user.Email), user.Phone, user.PasswordHash,
		user.Role, user.Active, user.IsVerified, now,
	))
}

// UpdateProfile sets name and phone; an empty argument leaves that column as is
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, phone string) (*models.PublicUser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			phone = COALESCE(NULLIF($3, ''), phone),
			updated_at = $4
		WHERE id = $1
		RETURNING ` + publicUserColumns
	return scanPublicUser(r.pool.QueryRow(ctx, query, id, name, phone, r.now()))
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `UPDATE users SET active = $2, updated_at = $3 WHERE id = $1 RETURNING ` + publicUserColumns
	return scanPublicUser(r.pool.QueryRow(ctx, query, id, active, r.now()))
}

func (r *UserRepository) SetRole(ctx context.Context, id, role string) (*models.PublicUser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 RETURNING ` + publicUserColumns
	return scanPublicUser(r.pool.QueryRow(ctx, query, id, role, r.now()))
}

// SetVerified marks the principal's email as verified
func (r *UserRepository) SetVerified(ctx context.Context, id string) (*models.PublicUser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `UPDATE users SET is_verified = TRUE, updated_at = $2 WHERE id = $1 RETURNING ` + publicUserColumns
	return scanPublicUser(r.pool.QueryRow(ctx, query, id, r.now()))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", database.MapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordLoginFailure increments the failure counter in a single statement so
// concurrent failures cannot lose updates, locks the account once the new
// count reaches the policy threshold, and appends to the login history.
// A lock still in force at the attempt time keeps its deadline.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, attempt models.LoginAttempt, policy models.LockoutPolicy) (*models.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	lockUntil := attempt.Timestamp.Add(policy.LockDuration)

	query := `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			account_locked = CASE WHEN failed_login_attempts + 1 >= $2 THEN TRUE ELSE account_locked END,
			lock_until = CASE
				WHEN failed_login_attempts + 1 >= $2
					AND NOT (account_locked AND COALESCE(lock_until > $5, FALSE))
				THEN $3::timestamptz
				ELSE lock_until
			END,
			updated_at = $4
		WHERE id = $1
		RETURNING ` + credentialUserColumns

	var user *models.User
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		user, err = scanCredentialUser(tx.QueryRow(ctx, query, id, policy.MaxFailedAttempts, lockUntil, r.now(), attempt.Timestamp))
		if err != nil {
			return err
		}
		return appendLoginHistory(ctx, tx, id, attempt)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// RecordLoginSuccess clears the lockout state, stamps last_login and appends
// to the login history.
func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string, attempt models.LoginAttempt) error {
	if err := validID(id); err != nil {
		return err
	}
	query := `
		UPDATE users SET
			failed_login_attempts = 0,
			account_locked = FALSE,
			lock_until = NULL,
			last_login = $2,
			updated_at = $2
		WHERE id = $1`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, id, attempt.Timestamp)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return appendLoginHistory(ctx, tx, id, attempt)
	})
}

// RecordLockedAttempt logs a refused attempt against a locked account without
// touching the failure counter.
func (r *UserRepository) RecordLockedAttempt(ctx context.Context, id string, attempt models.LoginAttempt) error {
	if err := validID(id); err != nil {
		return err
	}
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return appendLoginHistory(ctx, tx, id, attempt)
	})
}

// appendLoginHistory inserts the attempt and evicts all but the newest
// MaxLoginHistory entries for the principal.
func appendLoginHistory(ctx context.Context, tx pgx.Tx, id string, attempt models.LoginAttempt) error {
	insert := `
		INSERT INTO login_history (user_id, ip_address, user_agent, successful, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insert, id, attempt.IPAddress, attempt.UserAgent, attempt.Successful, attempt.Timestamp); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", database.MapPostgresError(err))
	}

	trim := `
		DELETE FROM login_history
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM login_history WHERE user_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2
		)`
	if _, err := tx.Exec(ctx, trim, id, models.MaxLoginHistory); err != nil {
		return fmt.Errorf("failed to trim login history: %w", err)
	}
	return nil
}

// ListLoginHistory returns the principal's recorded attempts, newest first
func (r *UserRepository) ListLoginHistory(ctx context.Context, id string) ([]models.LoginAttempt, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `
		SELECT created_at, ip_address, user_agent, successful
		FROM login_history WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, id, models.MaxLoginHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to query login history: %w", err)
	}
	defer rows.Close()

	history := make([]models.LoginAttempt, 0, models.MaxLoginHistory)
	for rows.Next() {
		var a models.LoginAttempt
		if err := rows.Scan(&a.Timestamp, &a.IPAddress, &a.UserAgent, &a.Successful); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		history = append(history, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return history, nil
}

// SetResetOTP stores a freshly delivered reset code and resets its attempt counter
func (r *UserRepository) SetResetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_otp = $2, reset_otp_expires_at = $3, reset_otp_attempts = 0, updated_at = $4 WHERE id = $1`
	return r.execByID(ctx, query, id, code, expiresAt, r.now())
}

// IncrementResetOTPAttempts atomically bumps the wrong-code counter and returns the new value
func (r *UserRepository) IncrementResetOTPAttempts(ctx context.Context, id string) (int, error) {
	if err := validID(id); err != nil {
		return 0, err
	}
	var attempts int
	query := `UPDATE users SET reset_otp_attempts = reset_otp_attempts + 1 WHERE id = $1 RETURNING reset_otp_attempts`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return attempts, nil
}

func (r *UserRepository) ClearResetOTP(ctx context.Context, id string) error {
	query := `UPDATE users SET reset_otp = NULL, reset_otp_expires_at = NULL, reset_otp_attempts = 0, updated_at = $2 WHERE id = $1`
	return r.execByID(ctx, query, id, r.now())
}

// ClearExpiredResetOTPs drops reset codes whose expiry is at or before cutoff
func (r *UserRepository) ClearExpiredResetOTPs(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE users SET reset_otp = NULL, reset_otp_expires_at = NULL, reset_otp_attempts = 0
		WHERE reset_otp IS NOT NULL AND reset_otp_expires_at <= $1`
	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// UpdatePassword replaces the hash, invalidates any outstanding reset code and
// stamps password_changed_at.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users SET
			password_hash = $2,
			reset_otp = NULL,
			reset_otp_expires_at = NULL,
			reset_otp_attempts = 0,
			password_changed_at = $3,
			updated_at = $3
		WHERE id = $1`
	return r.execByID(ctx, query, id, passwordHash, r.now())
}

func (r *UserRepository) execByID(ctx context.Context, query, id string, args ...interface{}) error {
	if err := validID(id); err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
