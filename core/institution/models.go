package institution

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type (
	// Institution is a school record as stored by the backend.
	// Address, Phone and Email are nullable; consumers must not assume presence.
	Institution struct {
		ID        string      `db:"id" json:"id"`
		Name      string      `db:"name" json:"name"`
		Address   null.String `db:"address" json:"address"`
		Phone     null.String `db:"phone" json:"phone"`
		Email     null.String `db:"email" json:"email"`
		CreatedAt time.Time   `db:"created_at" json:"created_at"`
		UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
	}

	// ActivityEntry is a recent event attached to an institution's statistics.
	ActivityEntry struct {
		Kind        string    `json:"kind"` // "course" | "student" | "professor"
		Description string    `json:"description"`
		OccurredAt  time.Time `json:"occurred_at"`
	}

	// Statistics aggregates counts for one institution.
	Statistics struct {
		CoursesCount    int             `json:"courses_count"`
		StudentsCount   int             `json:"students_count"`
		ProfessorsCount int             `json:"professors_count"`
		RecentActivity  []ActivityEntry `json:"recent_activity"`
	}

	NewInstitution struct {
		Name    string `json:"name" validate:"required,min=2,max=150"`
		Address string `json:"address" validate:"omitempty,max=250"`
		Phone   string `json:"phone" validate:"omitempty,telefono"`
		Email   string `json:"email" validate:"omitempty,email"`
	}

	UpdateInstitution struct {
		Name    string `json:"name" validate:"omitempty,min=2,max=150"`
		Address string `json:"address" validate:"omitempty,max=250"`
		Phone   string `json:"phone" validate:"omitempty,telefono"`
		Email   string `json:"email" validate:"omitempty,email"`
	}

	// QueryFilter narrows listing queries; zero values are ignored.
	QueryFilter struct {
		Search      string
		CreatedFrom time.Time
		CreatedTo   time.Time
	}
)
