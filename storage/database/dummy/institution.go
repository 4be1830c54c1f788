package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/escolarhq/escolar/core/institution"
)

type institutionRepository struct {
	db *institutionTable
}

var _ institution.Repository = (*institutionRepository)(nil) // interface compliance check

func NewInstitutionRepository(db *DB) *institutionRepository {
	return &institutionRepository{db: db.institution}
}

func (repo *institutionRepository) query() []institution.Institution {
	insts := make([]institution.Institution, 0, len(repo.db.table))
	for _, inst := range repo.db.table {
		insts = append(insts, *inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].CreatedAt.Before(insts[j].CreatedAt) })
	return insts
}

func (repo *institutionRepository) CheckNameUniqueness(_ context.Context, name string, excluded ...institution.Institution) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, inst := range repo.db.table {
		if inst.Name != name {
			continue
		}
		isExcluded := false
		for _, excl := range excluded {
			if excl.ID == inst.ID {
				isExcluded = true
				break
			}
		}
		if !isExcluded {
			return institution.ErrNameExists
		}
	}
	return nil
}

func (repo *institutionRepository) CreateInstitution(_ context.Context, inst institution.Institution) (institution.Institution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[inst.ID] = &inst
	return inst, nil
}

func (repo *institutionRepository) QueryAllInstitutions(_ context.Context) ([]institution.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.query(), nil
}

func (repo *institutionRepository) FilterInstitutions(_ context.Context, filter institution.QueryFilter) ([]institution.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	insts := make([]institution.Institution, 0)
	for _, inst := range repo.query() {
		if filter.Search != "" && !contains(inst.Name, filter.Search) && !contains(inst.Email.String, filter.Search) {
			continue
		}
		if !filter.CreatedFrom.IsZero() && inst.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && !inst.CreatedAt.Before(filter.CreatedTo.AddDate(0, 0, 1)) {
			continue
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func (repo *institutionRepository) GetInstitutionByID(_ context.Context, id string) (institution.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inst, ok := repo.db.table[id]; ok {
		return *inst, nil
	}
	return institution.Institution{}, institution.ErrNotFound
}

func (repo *institutionRepository) UpdateInstitution(_ context.Context, inst institution.Institution) (institution.Institution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[inst.ID]; !ok {
		return institution.Institution{}, institution.ErrNotFound
	}
	repo.db.table[inst.ID] = &inst
	return inst, nil
}

func (repo *institutionRepository) DeleteInstitutionsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.stats, id)
	}
	return nil
}

func (repo *institutionRepository) QueryStatistics(_ context.Context, ids ...string) (map[string]institution.Statistics, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stats := make(map[string]institution.Statistics)
	for _, id := range ids {
		if st, ok := repo.db.stats[id]; ok {
			stats[id] = st
		}
	}
	return stats, nil
}

// SetStatistics seeds aggregate counts; tests use this.
func (repo *institutionRepository) SetStatistics(id string, stats institution.Statistics) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.stats[id] = stats
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
