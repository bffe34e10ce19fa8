package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrSupportMemberNotFound = errors.New("support member not found")
)

type SupportMemberRepository interface {
	Create(member *model.SupportMember) error
	ByID(memberID string) (*model.SupportMember, error)
	ListFor(userID string) ([]*model.SupportMember, error)
	UpdateConsent(memberID, consentState string, active bool) error
	RecordContact(memberID string, at time.Time) error
	MarkChannelUnusable(memberID, channel string) error
}

type supportMemberRepository struct {
	db *sqlx.DB
}

func NewSupportMemberRepository(db *sqlx.DB) SupportMemberRepository {
	return &supportMemberRepository{db: db}
}

func (r *supportMemberRepository) Create(member *model.SupportMember) error {
	query := `INSERT INTO support_members (id, user_id, name, phone, email, channel_set, consent_state, active,
	                                       phone_unusable, email_unusable, contact_count, last_contacted_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		member.ID,
		member.UserID,
		member.Name,
		member.Phone,
		member.Email,
		member.ChannelSet,
		member.ConsentState,
		member.Active,
		member.PhoneUnusable,
		member.EmailUnusable,
		member.ContactCount,
		member.LastContactedAt,
		member.CreatedAt,
		member.UpdatedAt,
	)

	return err
}

func (r *supportMemberRepository) ByID(memberID string) (*model.SupportMember, error) {
	member := &model.SupportMember{}
	query := `SELECT * FROM support_members WHERE id = $1`

	err := r.db.Get(member, query, memberID)
	if err == sql.ErrNoRows {
		return nil, ErrSupportMemberNotFound
	}

	return member, err
}

func (r *supportMemberRepository) ListFor(userID string) ([]*model.SupportMember, error) {
	var members []*model.SupportMember
	query := `SELECT * FROM support_members WHERE user_id = $1 ORDER BY created_at ASC`

	err := r.db.Select(&members, query, userID)
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (r *supportMemberRepository) UpdateConsent(memberID, consentState string, active bool) error {
	query := `UPDATE support_members
	          SET consent_state = $1, active = $2, updated_at = $3
	          WHERE id = $4`

	result, err := r.db.Exec(query, consentState, active, time.Now(), memberID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrSupportMemberNotFound
	}

	return nil
}

// RecordContact bumps the contact counter and last-contacted timestamp.
// Only the dispatcher calls this, on successful delivery.
func (r *supportMemberRepository) RecordContact(memberID string, at time.Time) error {
	query := `UPDATE support_members
	          SET contact_count = contact_count + 1, last_contacted_at = $1, updated_at = $2
	          WHERE id = $3`

	result, err := r.db.Exec(query, at, time.Now(), memberID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrSupportMemberNotFound
	}

	return nil
}

// MarkChannelUnusable flags a contact address after a permanent delivery
// failure so later runs stop attempting it. Cleared manually, never by the
// engine.
func (r *supportMemberRepository) MarkChannelUnusable(memberID, channel string) error {
	var column string
	switch channel {
	case model.ChannelText, model.ChannelVoice:
		column = "phone_unusable"
	case model.ChannelEmail:
		column = "email_unusable"
	default:
		return errors.New("unknown channel: " + channel)
	}

	query := `UPDATE support_members SET ` + column + ` = TRUE, updated_at = $1 WHERE id = $2`

	result, err := r.db.Exec(query, time.Now(), memberID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrSupportMemberNotFound
	}

	return nil
}
