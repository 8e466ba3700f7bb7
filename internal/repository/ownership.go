package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OwnershipAuthority answers "is this identity the host?" for host-gated
// transitions. Market rows record the tournament host at creation time, so
// the default implementation answers from local state; a deployment with a
// separate tournament service can swap in a remote implementation.
type OwnershipAuthority interface {
	IsMarketHost(ctx context.Context, marketID, userID uuid.UUID) (bool, error)
	IsTournamentHost(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error)
}

type pgOwnershipAuthority struct {
	db DBTX
}

// NewOwnershipAuthority returns an OwnershipAuthority backed by the markets table.
func NewOwnershipAuthority(db DBTX) OwnershipAuthority {
	return &pgOwnershipAuthority{db: db}
}

func (a *pgOwnershipAuthority) IsMarketHost(ctx context.Context, marketID, userID uuid.UUID) (bool, error) {
	var isHost bool
	err := a.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM markets WHERE id = $1 AND host_id = $2)`,
		marketID, userID).Scan(&isHost)
	if err != nil {
		return false, fmt.Errorf("check market host: %w", err)
	}
	return isHost, nil
}

func (a *pgOwnershipAuthority) IsTournamentHost(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error) {
	var isHost bool
	err := a.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM markets WHERE tournament_id = $1 AND host_id = $2)`,
		tournamentID, userID).Scan(&isHost)
	if err != nil {
		return false, fmt.Errorf("check tournament host: %w", err)
	}
	return isHost, nil
}
