package institution_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/institution"
	dummydb "github.com/escolarhq/escolar/storage/database/dummy"
)

func setup(t *testing.T) (*institution.Service, institution.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewInstitutionRepository(db)
	return institution.NewService(repo), repo
}

func TestServiceCreate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	inst, err := svc.Create(ctx, institution.NewInstitution{
		Name:    "  Colegio San Martín  ",
		Address: "Av. Libertador 1234",
		Email:   "Info@SanMartin.edu",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, "Colegio San Martín", inst.Name, "name is cleaned")
	assert.Equal(t, "info@sanmartin.edu", inst.Email.String, "email is lowered")
	assert.False(t, inst.Phone.Valid, "absent phone stays NULL")
	assert.False(t, inst.CreatedAt.IsZero())
}

func TestServiceCreateDuplicateName(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, institution.NewInstitution{Name: "Colegio A"})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, institution.NewInstitution{Name: "Colegio A"})
	vErr, ok := err.(*core.ValidationError)
	assert.True(t, ok, "expected a ValidationError, got %v", err)
	assert.Equal(t, "name", vErr.Fields[0].Field)
}

func TestServiceUpdate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	inst, err := svc.Create(ctx, institution.NewInstitution{Name: "Colegio A"})
	assert.NoError(t, err)

	updated, err := svc.Update(ctx, inst.ID, institution.UpdateInstitution{Phone: "+54 11 4444-5555"})
	assert.NoError(t, err)
	assert.Equal(t, "Colegio A", updated.Name, "unset fields keep their values")
	assert.Equal(t, "+54 11 4444-5555", updated.Phone.String)
	assert.True(t, updated.UpdatedAt.After(inst.UpdatedAt) || updated.UpdatedAt.Equal(inst.UpdatedAt))

	// renaming to an existing name is rejected
	other, err := svc.Create(ctx, institution.NewInstitution{Name: "Colegio B"})
	assert.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, institution.UpdateInstitution{Name: "Colegio A"})
	_, ok := err.(*core.ValidationError)
	assert.True(t, ok, "expected a ValidationError, got %v", err)

	// renaming to its own name is fine
	_, err = svc.Update(ctx, inst.ID, institution.UpdateInstitution{Name: "Colegio A"})
	assert.NoError(t, err)
}

func TestServiceGetAndDelete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	inst, err := svc.Create(ctx, institution.NewInstitution{Name: "Colegio A"})
	assert.NoError(t, err)

	got, err := svc.GetByID(ctx, inst.ID)
	assert.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)

	assert.NoError(t, svc.Delete(ctx, inst.ID))
	_, err = svc.GetByID(ctx, inst.ID)
	assert.Equal(t, institution.ErrNotFound, err)
}

func TestServiceStatistics(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	inst, err := svc.Create(ctx, institution.NewInstitution{Name: "Colegio A"})
	assert.NoError(t, err)

	repo.(interface {
		SetStatistics(string, institution.Statistics)
	}).SetStatistics(inst.ID, institution.Statistics{CoursesCount: 2, StudentsCount: 40, ProfessorsCount: 5})

	stats, err := svc.Statistics(ctx, inst.ID, "missing-id")
	assert.NoError(t, err)
	assert.Len(t, stats, 1)
	assert.Equal(t, 40, stats[inst.ID].StudentsCount)
	_, ok := stats["missing-id"]
	assert.False(t, ok, "unknown ids are simply absent")
}
