package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/escolarhq/escolar/core/institution"
)

func CreateInstitution(
	t *testing.T,
	repo institution.Repository,
	name, address, phone, email string,
	createdAt ...time.Time,
) institution.Institution {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	inst := institution.Institution{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   null.NewString(address, address != ""),
		Phone:     null.NewString(phone, phone != ""),
		Email:     null.NewString(email, email != ""),
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	inst, err := repo.CreateInstitution(context.Background(), inst)
	if err != nil {
		t.Fatalf("CreateInstitution() failed: %v", err)
	}
	return inst
}
