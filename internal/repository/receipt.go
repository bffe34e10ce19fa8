package repository

import (
	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

type ReceiptRepository interface {
	Create(receipt *model.DeliveryReceipt) error
	ByEscalation(escalationID string) ([]*model.DeliveryReceipt, error)
	ByMilestone(milestoneID string) ([]*model.DeliveryReceipt, error)
}

type receiptRepository struct {
	db *sqlx.DB
}

func NewReceiptRepository(db *sqlx.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(receipt *model.DeliveryReceipt) error {
	query := `INSERT INTO delivery_receipts (id, escalation_id, milestone_id, member_id, channel, recipient, result, provider_id, error_detail, attempted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		receipt.ID,
		receipt.EscalationID,
		receipt.MilestoneID,
		receipt.MemberID,
		receipt.Channel,
		receipt.Recipient,
		receipt.Result,
		receipt.ProviderID,
		receipt.ErrorDetail,
		receipt.AttemptedAt,
	)

	return err
}

func (r *receiptRepository) ByEscalation(escalationID string) ([]*model.DeliveryReceipt, error) {
	var receipts []*model.DeliveryReceipt
	query := `SELECT * FROM delivery_receipts WHERE escalation_id = $1 ORDER BY attempted_at ASC`

	err := r.db.Select(&receipts, query, escalationID)
	if err != nil {
		return nil, err
	}

	return receipts, nil
}

func (r *receiptRepository) ByMilestone(milestoneID string) ([]*model.DeliveryReceipt, error) {
	var receipts []*model.DeliveryReceipt
	query := `SELECT * FROM delivery_receipts WHERE milestone_id = $1 ORDER BY attempted_at ASC`

	err := r.db.Select(&receipts, query, milestoneID)
	if err != nil {
		return nil, err
	}

	return receipts, nil
}
