package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.InvitationRepository
	repository.AssessmentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                   db,
		InvitationRepository: NewInvitationRepository(db),
		AssessmentRepository: NewAssessmentRepository(db),
	}
}
