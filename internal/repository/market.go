package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wagerhub/platform/internal/domain"
)

type marketRepo struct{}

// NewMarketRepository returns a pgx-backed MarketRepository.
func NewMarketRepository() MarketRepository {
	return &marketRepo{}
}

const marketColumns = `id, tournament_id, host_id, title, market_type, status, resolution_status,
	token, total_pool, pool_pre_seed, bookmaking_fee, min_bet, max_bet, autonomous,
	match_ref, pause_reason, winning_outcome_id, ai_proposed_winner_id, created_at, settled_at`

func (r *marketRepo) Create(ctx context.Context, db DBTX, m *domain.Market) error {
	_, err := db.Exec(ctx, `
		INSERT INTO markets (id, tournament_id, host_id, title, market_type, status, resolution_status,
			token, total_pool, pool_pre_seed, bookmaking_fee, min_bet, max_bet, autonomous, match_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.ID, m.TournamentID, m.HostID, m.Title, string(m.Type), string(m.Status), string(m.ResolutionStatus),
		m.Token, m.TotalPool, m.PoolPreSeed, m.BookmakingFee, m.MinBet, m.MaxBet, m.Autonomous, m.MatchRef,
	)
	if err != nil {
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

func (r *marketRepo) CreateOutcome(ctx context.Context, db DBTX, o *domain.Outcome) error {
	_, err := db.Exec(ctx, `
		INSERT INTO outcomes (id, market_id, label, weight, sort_order)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.MarketID, o.Label, o.Weight, o.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (r *marketRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Market, error) {
	row := db.QueryRow(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
	return scanMarket(row)
}

func (r *marketRepo) List(ctx context.Context, db DBTX, limit int) ([]domain.Market, error) {
	rows, err := db.Query(ctx,
		`SELECT `+marketColumns+` FROM markets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

func (r *marketRepo) ListByTournament(ctx context.Context, db DBTX, tournamentID uuid.UUID) ([]domain.Market, error) {
	rows, err := db.Query(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE tournament_id = $1 ORDER BY created_at ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("query tournament markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

func (r *marketRepo) ListOutcomes(ctx context.Context, db DBTX, marketID uuid.UUID) ([]domain.Outcome, error) {
	rows, err := db.Query(ctx, `
		SELECT id, market_id, label, weight, total_bets, bet_count, sort_order, created_at
		FROM outcomes WHERE market_id = $1 ORDER BY sort_order ASC, created_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		if err := rows.Scan(&o.ID, &o.MarketID, &o.Label, &o.Weight, &o.TotalBets, &o.BetCount, &o.SortOrder, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (r *marketRepo) FindOutcome(ctx context.Context, db DBTX, marketID, outcomeID uuid.UUID) (*domain.Outcome, error) {
	var o domain.Outcome
	err := db.QueryRow(ctx, `
		SELECT id, market_id, label, weight, total_bets, bet_count, sort_order, created_at
		FROM outcomes WHERE id = $1 AND market_id = $2`, outcomeID, marketID).
		Scan(&o.ID, &o.MarketID, &o.Label, &o.Weight, &o.TotalBets, &o.BetCount, &o.SortOrder, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find outcome: %w", err)
	}
	return &o, nil
}

// ApplyBetIncrements uses server-side arithmetic so concurrent bets never
// lose an update; the two statements share the caller's transaction.
func (r *marketRepo) ApplyBetIncrements(ctx context.Context, tx pgx.Tx, marketID, outcomeID uuid.UUID, amountMinor int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE outcomes SET total_bets = total_bets + $1, bet_count = bet_count + 1
		WHERE id = $2 AND market_id = $3`, amountMinor, outcomeID, marketID)
	if err != nil {
		return fmt.Errorf("increment outcome totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outcome %s not found for increment", outcomeID)
	}

	_, err = tx.Exec(ctx,
		`UPDATE markets SET total_pool = total_pool + $1 WHERE id = $2`, amountMinor, marketID)
	if err != nil {
		return fmt.Errorf("increment market pool: %w", err)
	}
	return nil
}

func (r *marketRepo) SetPaused(ctx context.Context, db DBTX, marketID uuid.UUID, paused bool, reason *string) error {
	status := domain.MarketOpen
	if paused {
		status = domain.MarketPaused
	} else {
		reason = nil
	}
	_, err := db.Exec(ctx,
		`UPDATE markets SET status = $2, pause_reason = $3 WHERE id = $1`,
		marketID, string(status), reason)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

func (r *marketRepo) MarkProposed(ctx context.Context, db DBTX, marketID, winnerID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE markets
		SET resolution_status = 'proposed', ai_proposed_winner_id = $2
		WHERE id = $1
		  AND status NOT IN ('settled', 'cancelled')
		  AND resolution_status NOT IN ('proposed', 'approved')`,
		marketID, winnerID)
	if err != nil {
		return false, fmt.Errorf("mark proposed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *marketRepo) MarkRejected(ctx context.Context, db DBTX, marketID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE markets
		SET status = 'open', resolution_status = 'rejected', ai_proposed_winner_id = NULL
		WHERE id = $1 AND resolution_status = 'proposed'`, marketID)
	if err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}
	return nil
}

// SettleCAS is the one-shot guard: the WHERE clause makes the settled flip a
// conditional update, so exactly one of two racing settlements succeeds.
func (r *marketRepo) SettleCAS(ctx context.Context, tx pgx.Tx, marketID, winningOutcomeID uuid.UUID, resolution domain.ResolutionStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE markets
		SET status = 'settled', resolution_status = $3, winning_outcome_id = $2, settled_at = now()
		WHERE id = $1 AND status != 'settled'`,
		marketID, winningOutcomeID, string(resolution))
	if err != nil {
		return false, fmt.Errorf("settle market: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *marketRepo) CancelOpenByTournament(ctx context.Context, db DBTX, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `
		UPDATE markets SET status = 'cancelled'
		WHERE tournament_id = $1 AND status IN ('open', 'paused')
		RETURNING id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("cancel tournament markets: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cancelled market id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	var typ, status, resolution string
	err := row.Scan(&m.ID, &m.TournamentID, &m.HostID, &m.Title, &typ, &status, &resolution,
		&m.Token, &m.TotalPool, &m.PoolPreSeed, &m.BookmakingFee, &m.MinBet, &m.MaxBet, &m.Autonomous,
		&m.MatchRef, &m.PauseReason, &m.WinningOutcomeID, &m.AIProposedWinnerID, &m.CreatedAt, &m.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan market: %w", err)
	}
	m.Type = domain.MarketType(typ)
	m.Status = domain.MarketStatus(status)
	m.ResolutionStatus = domain.ResolutionStatus(resolution)
	return &m, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}
	return markets, rows.Err()
}
