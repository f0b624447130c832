package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
)

type memoryRecord struct {
	account *models.Account
	seq     uint64
}

// MemoryRepository keeps accounts in a mutex-guarded map. Records are
// copied on the way in and out.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	seq     uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]memoryRecord)}
}

func (r *MemoryRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.AccountVerified && r.verifiedExistsLocked(a.Email, "") {
		return nil, common.ErrDuplicate
	}

	now := time.Now().UTC()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now

	r.seq++
	r.records[a.ID] = memoryRecord{account: a.Clone(), seq: r.seq}

	return a, nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *models.Account) error {
	if err := validateID(a.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if a.AccountVerified && r.verifiedExistsLocked(a.Email, a.ID) {
		return common.ErrDuplicate
	}

	a.UpdatedAt = time.Now().UTC()
	a.CreatedAt = rec.account.CreatedAt
	rec.account = a.Clone()
	r.records[a.ID] = rec

	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.records, id)

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	return rec.account.Clone(), nil
}

func (r *MemoryRepository) FindVerifiedByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.account.Email == email && rec.account.AccountVerified {
			return rec.account.Clone(), nil
		}
	}

	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) ListUnverifiedByEmail(ctx context.Context, email string) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recs []memoryRecord
	for _, rec := range r.records {
		if rec.account.Email == email && !rec.account.AccountVerified {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	result := make([]*models.Account, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.account.Clone())
	}

	return result, nil
}

func (r *MemoryRepository) verifiedExistsLocked(email, exceptID string) bool {
	for id, rec := range r.records {
		if id != exceptID && rec.account.Email == email && rec.account.AccountVerified {
			return true
		}
	}
	return false
}
