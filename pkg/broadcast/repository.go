package broadcast

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, b Broadcast) (int, error)
	MarkSending(ctx context.Context, id int, reportMessageId int) error
	Finish(ctx context.Context, id int, report Report) error
	LogDelivery(ctx context.Context, d Delivery) error
	Get(ctx context.Context, id int) (Broadcast, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, b Broadcast) (int, error) {
	query := `INSERT INTO broadcasts (admin_message_id, admin_chat_id, method, target_description, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query, b.AdminMessageId, b.AdminChatId, string(b.Method), b.TargetDescription,
		string(StatusPending), b.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("could not create broadcast: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) MarkSending(ctx context.Context, id int, reportMessageId int) error {
	query := `UPDATE broadcasts SET status = $2, final_report_message_id = NULLIF($3, 0) WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, string(StatusSending), reportMessageId); err != nil {
		return fmt.Errorf("could not update broadcast %d: %w", id, err)
	}
	return nil
}

func (r *RepositoryImpl) Finish(ctx context.Context, id int, report Report) error {
	query := `UPDATE broadcasts SET status = $2, success_count = $3, fail_count = $4 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, string(report.Status()), report.Succeeded, report.Failed); err != nil {
		return fmt.Errorf("could not finish broadcast %d: %w", id, err)
	}
	return nil
}

func (r *RepositoryImpl) LogDelivery(ctx context.Context, d Delivery) error {
	query := `INSERT INTO broadcast_messages (broadcast_id, recipient_chat_id, sent_message_id, status, failure_reason)
			  VALUES ($1, $2, NULLIF($3, 0), $4, NULLIF($5, ''))`
	_, err := r.db.Exec(ctx, query, d.BroadcastId, d.RecipientChatId, d.SentMessageId, string(d.Status), d.FailureReason)
	if err != nil {
		return fmt.Errorf("could not log delivery to %d: %w", d.RecipientChatId, err)
	}
	return nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Broadcast, error) {
	query := `SELECT id, admin_message_id, admin_chat_id, method, target_description, status,
			  COALESCE(final_report_message_id, 0), success_count, fail_count, created_at
			  FROM broadcasts WHERE id = $1`
	var b Broadcast
	var method, status string
	err := r.db.QueryRow(ctx, query, id).Scan(&b.Id, &b.AdminMessageId, &b.AdminChatId, &method, &b.TargetDescription,
		&status, &b.FinalReportMessageId, &b.SuccessCount, &b.FailCount, &b.CreatedAt)
	if err != nil {
		return Broadcast{}, fmt.Errorf("could not get broadcast %d: %w", id, err)
	}
	b.Method = Method(method)
	b.Status = Status(status)
	return b, nil
}
