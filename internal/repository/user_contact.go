package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserContactNotFound = errors.New("user contact not found")
)

type UserContactRepository interface {
	Upsert(contact *model.UserContact) error
	ByUser(userID string) (*model.UserContact, error)
}

type userContactRepository struct {
	db *sqlx.DB
}

func NewUserContactRepository(db *sqlx.DB) UserContactRepository {
	return &userContactRepository{db: db}
}

func (r *userContactRepository) Upsert(contact *model.UserContact) error {
	query := `INSERT INTO user_contacts (user_id, name, phone, email, channel_set, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id) DO UPDATE SET name = $2, phone = $3, email = $4, channel_set = $5, updated_at = $6`

	_, err := r.db.Exec(query,
		contact.UserID,
		contact.Name,
		contact.Phone,
		contact.Email,
		contact.ChannelSet,
		time.Now(),
	)

	return err
}

func (r *userContactRepository) ByUser(userID string) (*model.UserContact, error) {
	contact := &model.UserContact{}
	query := `SELECT * FROM user_contacts WHERE user_id = $1`

	err := r.db.Get(contact, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserContactNotFound
	}

	return contact, err
}
