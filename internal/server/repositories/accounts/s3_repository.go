package accounts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
)

// S3API is the subset of *s3.Client used by S3Repository.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const (
	accountsPrefix = "accounts/"
	idsPrefix      = "account-ids/"
)

// S3Repository stores each account as a JSON document under
// accounts/<email key>/<id>.json, plus an account-ids/<id> object holding
// the email key for lookups by id.
//
// The verified-email uniqueness check is read-then-write and not atomic.
type S3Repository struct {
	client S3API
	bucket string
}

func NewS3Repository(client S3API, bucket string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket}
}

type s3Document struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"passwordHash"`
	Role                   string     `json:"role"`
	AccountVerified        bool       `json:"accountVerified"`
	VerificationCode       *string    `json:"verificationCode"`
	VerificationCodeExpire *time.Time `json:"verificationCodeExpire"`
	ResetPasswordToken     *string    `json:"resetPasswordToken"`
	ResetPasswordExpire    *time.Time `json:"resetPasswordExpire"`
	RegistrationAttempts   int        `json:"registrationAttempts"`
	BorrowedBooks          []string   `json:"borrowedBooks"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

func toDocument(a *models.Account) *s3Document {
	return &s3Document{
		ID: a.ID, Name: a.Name, Email: a.Email, PasswordHash: a.PasswordHash,
		Role: string(a.Role), AccountVerified: a.AccountVerified,
		VerificationCode: a.VerificationCode, VerificationCodeExpire: a.VerificationCodeExpire,
		ResetPasswordToken: a.ResetPasswordToken, ResetPasswordExpire: a.ResetPasswordExpire,
		RegistrationAttempts: a.RegistrationAttempts, BorrowedBooks: a.BorrowedBooks,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (d *s3Document) account() (*models.Account, error) {
	role, err := models.ParseRole(d.Role)
	if err != nil {
		return nil, err
	}
	return &models.Account{
		ID: d.ID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: role, AccountVerified: d.AccountVerified,
		VerificationCode: d.VerificationCode, VerificationCodeExpire: d.VerificationCodeExpire,
		ResetPasswordToken: d.ResetPasswordToken, ResetPasswordExpire: d.ResetPasswordExpire,
		RegistrationAttempts: d.RegistrationAttempts, BorrowedBooks: d.BorrowedBooks,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

func emailKey(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

func documentKey(ek, id string) string {
	return accountsPrefix + ek + "/" + id + ".json"
}

func (r *S3Repository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.AccountVerified {
		if err := r.ensureNoOtherVerified(ctx, a.Email, ""); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := r.write(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (r *S3Repository) Update(ctx context.Context, a *models.Account) error {
	if err := validateID(a.ID); err != nil {
		return err
	}

	oldKey, err := r.lookupEmailKey(ctx, a.ID)
	if err != nil {
		return err
	}

	if a.AccountVerified {
		if err := r.ensureNoOtherVerified(ctx, a.Email, a.ID); err != nil {
			return err
		}
	}

	a.UpdatedAt = time.Now().UTC()
	if err := r.write(ctx, a); err != nil {
		return err
	}

	if ek := emailKey(a.Email); ek != oldKey {
		if err := r.deleteObject(ctx, documentKey(oldKey, a.ID)); err != nil {
			return err
		}
	}

	return nil
}

func (r *S3Repository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	ek, err := r.lookupEmailKey(ctx, id)
	if err != nil {
		return err
	}

	if err := r.deleteObject(ctx, documentKey(ek, id)); err != nil {
		return err
	}
	return r.deleteObject(ctx, idsPrefix+id)
}

func (r *S3Repository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ek, err := r.lookupEmailKey(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.readDocument(ctx, documentKey(ek, id))
}

func (r *S3Repository) FindVerifiedByEmail(ctx context.Context, email string) (*models.Account, error) {
	all, err := r.listByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	for _, a := range all {
		if a.AccountVerified {
			return a, nil
		}
	}

	return nil, common.ErrorNotFound
}

func (r *S3Repository) ListUnverifiedByEmail(ctx context.Context, email string) ([]*models.Account, error) {
	all, err := r.listByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var result []*models.Account
	for _, a := range all {
		if !a.AccountVerified {
			result = append(result, a)
		}
	}

	return result, nil
}

// listByEmail returns every record for email, most recent first.
func (r *S3Repository) listByEmail(ctx context.Context, email string) ([]*models.Account, error) {
	p := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(accountsPrefix + emailKey(email) + "/"),
	})

	var result []*models.Account
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 error: %w", err)
		}
		for _, obj := range page.Contents {
			a, err := r.readDocument(ctx, aws.ToString(obj.Key))
			if err != nil {
				// deleted between list and get
				if errors.Is(err, common.ErrorNotFound) {
					continue
				}
				return nil, err
			}
			result = append(result, a)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *S3Repository) ensureNoOtherVerified(ctx context.Context, email, exceptID string) error {
	existing, err := r.FindVerifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != exceptID {
		return common.ErrDuplicate
	}
	return nil
}

func (r *S3Repository) write(ctx context.Context, a *models.Account) error {
	body, err := json.Marshal(toDocument(a))
	if err != nil {
		return err
	}

	ek := emailKey(a.Email)
	if err := r.putObject(ctx, documentKey(ek, a.ID), body, "application/json"); err != nil {
		return err
	}
	return r.putObject(ctx, idsPrefix+a.ID, []byte(ek), "text/plain")
}

func (r *S3Repository) lookupEmailKey(ctx context.Context, id string) (string, error) {
	b, err := r.getObject(ctx, idsPrefix+id)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (r *S3Repository) readDocument(ctx context.Context, key string) (*models.Account, error) {
	b, err := r.getObject(ctx, key)
	if err != nil {
		return nil, err
	}

	var d s3Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	return d.account()
}

func (r *S3Repository) putObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func (r *S3Repository) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	return b, nil
}

func (r *S3Repository) deleteObject(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
