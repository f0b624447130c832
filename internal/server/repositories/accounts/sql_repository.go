package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/dbx"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
)

const accountColumns = `id, name, email, password_hash, role, account_verified,
	verification_code, verification_code_expire, reset_password_token, reset_password_expire,
	registration_attempts, borrowed_books, created_at, updated_at`

// SQLRepository implements Repository on top of database/sql. Queries are
// written with '?' placeholders and rebound for the dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	books, err := encodeBooks(a.BorrowedBooks)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := r.dialect.Rebind(`INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.AccountVerified,
		a.VerificationCode, utcPtr(a.VerificationCodeExpire), a.ResetPasswordToken, utcPtr(a.ResetPasswordExpire),
		a.RegistrationAttempts, books, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, r.wrap(err)
	}

	return a, nil
}

func (r *SQLRepository) Update(ctx context.Context, a *models.Account) error {
	if err := validateID(a.ID); err != nil {
		return err
	}

	books, err := encodeBooks(a.BorrowedBooks)
	if err != nil {
		return err
	}

	a.UpdatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`UPDATE accounts SET
		name = ?, email = ?, password_hash = ?, role = ?, account_verified = ?,
		verification_code = ?, verification_code_expire = ?,
		reset_password_token = ?, reset_password_expire = ?,
		registration_attempts = ?, borrowed_books = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		a.Name, a.Email, a.PasswordHash, string(a.Role), a.AccountVerified,
		a.VerificationCode, utcPtr(a.VerificationCodeExpire),
		a.ResetPasswordToken, utcPtr(a.ResetPasswordExpire),
		a.RegistrationAttempts, books, a.UpdatedAt,
		a.ID)
	if err != nil {
		return r.wrap(err)
	}

	return affectedOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return r.wrap(err)
	}

	return affectedOne(res)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, r.wrap(err)
	}

	return a, nil
}

func (r *SQLRepository) FindVerifiedByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM accounts
		WHERE email = ? AND account_verified = ?
		ORDER BY created_at DESC LIMIT 1`)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email, true))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, r.wrap(err)
	}

	return a, nil
}

func (r *SQLRepository) ListUnverifiedByEmail(ctx context.Context, email string) ([]*models.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM accounts
		WHERE email = ? AND account_verified = ?
		ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, query, email, false)
	if err != nil {
		return nil, r.wrap(err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, r.wrap(err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap(err)
	}

	return result, nil
}

func (r *SQLRepository) wrap(err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", common.ErrDuplicate, err)
	}
	return fmt.Errorf("db error: %w", err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var (
		a          models.Account
		role       string
		code       sql.NullString
		codeExpire sql.NullTime
		reset      sql.NullString
		resetExp   sql.NullTime
		books      string
	)

	err := s.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.AccountVerified,
		&code, &codeExpire, &reset, &resetExp,
		&a.RegistrationAttempts, &books, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if a.Role, err = models.ParseRole(role); err != nil {
		return nil, err
	}
	if code.Valid {
		a.VerificationCode = &code.String
	}
	if codeExpire.Valid {
		a.VerificationCodeExpire = &codeExpire.Time
	}
	if reset.Valid {
		a.ResetPasswordToken = &reset.String
	}
	if resetExp.Valid {
		a.ResetPasswordExpire = &resetExp.Time
	}
	if err := json.Unmarshal([]byte(books), &a.BorrowedBooks); err != nil {
		return nil, fmt.Errorf("borrowed_books: %w", err)
	}

	return &a, nil
}

func encodeBooks(books []string) (string, error) {
	if books == nil {
		books = []string{}
	}
	b, err := json.Marshal(books)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
