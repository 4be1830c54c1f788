package institution

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/escolarhq/escolar/core"
)

var (
	// errors
	ErrNotFound   = errors.New("institución no encontrada")
	ErrNameExists = errors.New("ya existe una institución con este nombre")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excluded ...Institution) error
		CreateInstitution(ctx context.Context, inst Institution) (Institution, error)
		QueryAllInstitutions(ctx context.Context) ([]Institution, error)
		FilterInstitutions(ctx context.Context, filter QueryFilter) ([]Institution, error)
		GetInstitutionByID(ctx context.Context, id string) (Institution, error)
		UpdateInstitution(ctx context.Context, inst Institution) (Institution, error)
		DeleteInstitutionsByID(ctx context.Context, ids ...string) error
		QueryStatistics(ctx context.Context, ids ...string) (map[string]Statistics, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) checkUniqueness(ctx context.Context, name string, excluded ...Institution) error {
	if err := s.repo.CheckNameUniqueness(ctx, name, excluded...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ni NewInstitution) (Institution, error) {
	name := core.CleanString(ni.Name)
	if err := s.checkUniqueness(ctx, name); err != nil {
		return Institution{}, err
	}

	now := time.Now().UTC()
	inst := Institution{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   null.NewString(ni.Address, ni.Address != ""),
		Phone:     null.NewString(ni.Phone, ni.Phone != ""),
		Email:     null.NewString(core.CleanString(ni.Email, true), ni.Email != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.CreateInstitution(ctx, inst)
}

func (s *Service) QueryAll(ctx context.Context) ([]Institution, error) {
	return s.repo.QueryAllInstitutions(ctx)
}

func (s *Service) Filter(ctx context.Context, filter QueryFilter) ([]Institution, error) {
	filter.Search = core.CleanString(filter.Search)
	return s.repo.FilterInstitutions(ctx, filter)
}

func (s *Service) GetByID(ctx context.Context, id string) (Institution, error) {
	return s.repo.GetInstitutionByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, ui UpdateInstitution) (Institution, error) {
	inst, err := s.repo.GetInstitutionByID(ctx, id)
	if err != nil {
		return Institution{}, err
	}

	if name := core.CleanString(ui.Name); name != "" && name != inst.Name {
		if err := s.checkUniqueness(ctx, name, inst); err != nil {
			return Institution{}, err
		}
		inst.Name = name
	}
	if ui.Address != "" {
		inst.Address = null.StringFrom(ui.Address)
	}
	if ui.Phone != "" {
		inst.Phone = null.StringFrom(ui.Phone)
	}
	if ui.Email != "" {
		inst.Email = null.StringFrom(core.CleanString(ui.Email, true))
	}
	inst.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateInstitution(ctx, inst)
}

func (s *Service) Delete(ctx context.Context, ids ...string) error {
	return s.repo.DeleteInstitutionsByID(ctx, ids...)
}

// Statistics returns aggregate counts keyed by institution ID.
// IDs without stored activity are simply absent from the result.
func (s *Service) Statistics(ctx context.Context, ids ...string) (map[string]Statistics, error) {
	return s.repo.QueryStatistics(ctx, ids...)
}
