package chat

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/weekstatus/weekstatus/internal/event_bus"
)

type Repository interface {
	UpsertUser(ctx context.Context, user User) error
	UpsertGroup(ctx context.Context, group Group) error
	CountUsers(ctx context.Context) (int, error)
	CountGroups(ctx context.Context) (int, error)
	// TargetIds returns the chat ids of all known users or groups.
	TargetIds(ctx context.Context, kind Kind) ([]int64, error)
	LogUsage(ctx context.Context, usage event_bus.CommandUsed) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) UpsertUser(ctx context.Context, user User) error {
	query := `INSERT INTO users (user_id, chat_id, full_name, username, last_seen_at)
			  VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			  ON CONFLICT (user_id) DO UPDATE SET
			      chat_id = EXCLUDED.chat_id,
			      full_name = EXCLUDED.full_name,
			      username = EXCLUDED.username,
			      last_seen_at = EXCLUDED.last_seen_at`
	_, err := r.db.Exec(ctx, query, user.UserId, user.ChatId, user.FullName, user.Username, user.LastSeenAt)
	if err != nil {
		return fmt.Errorf("could not upsert user %d: %w", user.UserId, err)
	}
	return nil
}

func (r *RepositoryImpl) UpsertGroup(ctx context.Context, group Group) error {
	query := `INSERT INTO groups (group_id, group_name, last_seen_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (group_id) DO UPDATE SET
			      group_name = EXCLUDED.group_name,
			      last_seen_at = EXCLUDED.last_seen_at`
	_, err := r.db.Exec(ctx, query, group.GroupId, group.Name, group.LastSeenAt)
	if err != nil {
		return fmt.Errorf("could not upsert group %d: %w", group.GroupId, err)
	}
	return nil
}

func (r *RepositoryImpl) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT count(*) FROM users")
}

func (r *RepositoryImpl) CountGroups(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT count(*) FROM groups")
}

func (r *RepositoryImpl) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count: %w", err)
	}
	return n, nil
}

func (r *RepositoryImpl) TargetIds(ctx context.Context, kind Kind) ([]int64, error) {
	var query string
	switch kind {
	case Users:
		query = "SELECT chat_id FROM users WHERE chat_id <> 0 ORDER BY user_id"
	case Groups:
		query = "SELECT group_id FROM groups WHERE group_id <> 0 ORDER BY group_id"
	default:
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query %s: %w", kind, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RepositoryImpl) LogUsage(ctx context.Context, usage event_bus.CommandUsed) error {
	command := usage.Command
	if command == "" {
		command = "unknown_action"
	}
	query := `INSERT INTO bot_usage (user_id, first_name, last_name, username, command, chat_type, chat_id, chat_title)
			  VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		usage.UserId,
		truncate(usage.FirstName, maxFieldLength),
		truncate(usage.LastName, maxFieldLength),
		truncate(usage.Username, maxFieldLength),
		truncate(command, maxFieldLength),
		truncate(usage.ChatType, 50),
		usage.ChatId,
		truncate(usage.ChatTitle, maxFieldLength),
	)
	if err != nil {
		return fmt.Errorf("could not log usage for user %d: %w", usage.UserId, err)
	}
	return nil
}
