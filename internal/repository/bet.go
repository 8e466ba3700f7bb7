package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wagerhub/platform/internal/domain"
)

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

const betColumns = `id, market_id, outcome_id, player_id, amount_minor, token, status,
	odds_at_placement, payout_amount_minor, booking_code, placed_at, settled_at`

func (r *betRepo) Insert(ctx context.Context, db DBTX, b *domain.Bet) error {
	_, err := db.Exec(ctx, `
		INSERT INTO bets (id, market_id, outcome_id, player_id, amount_minor, token, status,
			odds_at_placement, booking_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.MarketID, b.OutcomeID, b.PlayerID, b.AmountMinor, b.Token, string(b.Status),
		b.OddsAtPlacement, b.BookingCode,
	)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

func (r *betRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	return scanBet(row)
}

func (r *betRepo) FindByBookingCode(ctx context.Context, db DBTX, code string) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE booking_code = $1`, code)
	return scanBet(row)
}

func (r *betRepo) ListSettleable(ctx context.Context, db DBTX, marketID uuid.UUID) ([]domain.Bet, error) {
	rows, err := db.Query(ctx,
		`SELECT `+betColumns+` FROM bets
		 WHERE market_id = $1 AND status IN ('pending', 'confirmed')
		 ORDER BY placed_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query settleable bets: %w", err)
	}
	defer rows.Close()
	return collectBets(rows)
}

func (r *betRepo) ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.Bet, error) {
	rows, err := db.Query(ctx,
		`SELECT `+betColumns+` FROM bets
		 WHERE player_id = $1 ORDER BY placed_at DESC LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query player bets: %w", err)
	}
	defer rows.Close()
	return collectBets(rows)
}

// SettleWon guards on non-terminal prior status so a settled bet can never
// be re-settled with a different payout.
func (r *betRepo) SettleWon(ctx context.Context, tx pgx.Tx, betID uuid.UUID, payoutMinor int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bets SET status = 'won', payout_amount_minor = $2, settled_at = now()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`, betID, payoutMinor)
	if err != nil {
		return fmt.Errorf("settle won bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not settleable", betID)
	}
	return nil
}

func (r *betRepo) SettleLostExcept(ctx context.Context, tx pgx.Tx, marketID uuid.UUID, exceptIDs []uuid.UUID) (int64, error) {
	if exceptIDs == nil {
		exceptIDs = []uuid.UUID{}
	}
	tag, err := tx.Exec(ctx, `
		UPDATE bets SET status = 'lost', payout_amount_minor = 0, settled_at = now()
		WHERE market_id = $1 AND status IN ('pending', 'confirmed') AND id != ALL($2)`,
		marketID, exceptIDs)
	if err != nil {
		return 0, fmt.Errorf("settle lost bets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *betRepo) MarkOutcomeResult(ctx context.Context, tx pgx.Tx, marketID, winningOutcomeID uuid.UUID, fromStatuses []domain.BetStatus) (int64, int64, error) {
	statuses := make([]string, len(fromStatuses))
	for i, s := range fromStatuses {
		statuses[i] = string(s)
	}

	wonTag, err := tx.Exec(ctx, `
		UPDATE bets SET status = 'won', settled_at = now()
		WHERE market_id = $1 AND outcome_id = $2 AND status = ANY($3)`,
		marketID, winningOutcomeID, statuses)
	if err != nil {
		return 0, 0, fmt.Errorf("mark won bets: %w", err)
	}

	lostTag, err := tx.Exec(ctx, `
		UPDATE bets SET status = 'lost', payout_amount_minor = 0, settled_at = now()
		WHERE market_id = $1 AND outcome_id != $2 AND status = ANY($3)`,
		marketID, winningOutcomeID, statuses)
	if err != nil {
		return 0, 0, fmt.Errorf("mark lost bets: %w", err)
	}

	return wonTag.RowsAffected(), lostTag.RowsAffected(), nil
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	var status string
	err := row.Scan(&b.ID, &b.MarketID, &b.OutcomeID, &b.PlayerID, &b.AmountMinor, &b.Token, &status,
		&b.OddsAtPlacement, &b.PayoutAmountMinor, &b.BookingCode, &b.PlacedAt, &b.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bet: %w", err)
	}
	b.Status = domain.BetStatus(status)
	return &b, nil
}

func collectBets(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
	}
	return bets, rows.Err()
}
