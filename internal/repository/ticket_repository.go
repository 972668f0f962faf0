package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CustomerID *string
	EngineerID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ListTracked returns non-closed tickets with a running SLA clock,
	// for the breach monitor.
	ListTracked(ctx context.Context) ([]domain.Ticket, error)
	CountOpenByEngineer(ctx context.Context, engineerID string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, customer_id, category_id, description, status, priority,
	assigned_manager_id, assigned_engineer_id, assigned_at, sla_due_time,
	resolution_summary, reopen_reason, ai_resolution, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, customer_id, category_id, description, status, priority, ai_resolution)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.CustomerID,
		ticket.CategoryID,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AiResolution,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category_id=$1, status=$2, priority=$3,
            assigned_manager_id=$4, assigned_engineer_id=$5, assigned_at=$6, sla_due_time=$7,
            resolution_summary=$8, reopen_reason=$9, ai_resolution=$10, closed_at=$11, updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.CategoryID,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedManagerID,
		ticket.AssignedEngineerID,
		ticket.AssignedAt,
		ticket.SlaDueTime,
		ticket.ResolutionSummary,
		ticket.ReopenReason,
		ticket.AiResolution,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.EngineerID != nil {
		args = append(args, *filter.EngineerID)
		clauses = append(clauses, fmt.Sprintf("assigned_engineer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListTracked(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status <> 'CLOSED' AND sla_due_time IS NOT NULL`, ticketColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountOpenByEngineer(ctx context.Context, engineerID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_engineer_id=$1 AND status NOT IN ('RESOLVED','CLOSED')`
	var count int
	if err := r.pool.QueryRow(ctx, query, engineerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.CustomerID,
		&ticket.CategoryID,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedManagerID,
		&ticket.AssignedEngineerID,
		&ticket.AssignedAt,
		&ticket.SlaDueTime,
		&ticket.ResolutionSummary,
		&ticket.ReopenReason,
		&ticket.AiResolution,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
