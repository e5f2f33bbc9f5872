package game

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

type TickTrigger string

const (
	TickScheduled TickTrigger = "scheduled"
	TickManual    TickTrigger = "manual"
)

// tickLockKey is the advisory lock key serializing settlements. The lock is
// transaction-scoped, so it releases on commit or rollback and also covers
// a second process running the worker binary against the same database.
const tickLockKey = int64(0x46425453) // "FBTS"

// TickSummary is what one settlement run produced, for broadcast and
// operator logs.
type TickSummary struct {
	TickID           int64         `json:"tick_id"`
	Trigger          TickTrigger   `json:"trigger"`
	StartedAt        time.Time     `json:"started_at"`
	ShipsProcessed   int           `json:"ships_processed"`
	ShipsSkipped     int           `json:"ships_skipped"`
	TotalProfitCents int64         `json:"total_profit_cents"`
	Areas            []AreaOutcome `json:"areas"`
}

// RunTick settles every area with at least one assigned ship. The whole run
// is one transaction: ledger rows, balance credits and stock writes land
// together or not at all, and a crash mid-tick leaves the store untouched.
func (s *Service) RunTick(ctx context.Context, trigger TickTrigger) (TickSummary, error) {
	var summary TickSummary
	summary.Trigger = trigger

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return summary, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tickLockKey); err != nil {
		return summary, err
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO game.ticks (trigger, started_at)
		VALUES ($1, now())
		RETURNING id, started_at
	`, string(trigger)).Scan(&summary.TickID, &summary.StartedAt); err != nil {
		return summary, err
	}

	groups, skipped, err := snapshotAssignments(ctx, tx)
	if err != nil {
		return summary, err
	}
	summary.ShipsSkipped = skipped

	for _, g := range groups {
		outcome := Settle(g.area, g.ships)
		if err := applyOutcome(ctx, tx, summary.TickID, outcome); err != nil {
			return summary, err
		}
		summary.ShipsProcessed += len(outcome.Ships)
		for _, r := range outcome.Ships {
			summary.TotalProfitCents += r.ProfitCents
		}
		summary.Areas = append(summary.Areas, outcome)
	}
	sort.Slice(summary.Areas, func(i, j int) bool {
		return summary.Areas[i].AreaName < summary.Areas[j].AreaName
	})

	if _, err := tx.Exec(ctx, `
		UPDATE game.ticks
		SET ships_processed = $1, ships_skipped = $2
		WHERE id = $3
	`, summary.ShipsProcessed, summary.ShipsSkipped, summary.TickID); err != nil {
		return summary, err
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, err
	}
	s.log.Info("tick settled",
		"tick_id", summary.TickID,
		"trigger", trigger,
		"areas", len(summary.Areas),
		"ships", summary.ShipsProcessed,
		"skipped", summary.ShipsSkipped,
		"total_profit_cents", summary.TotalProfitCents)
	return summary, nil
}

type areaGroup struct {
	area  AreaSnapshot
	ships []AssignedShip
}

// snapshotAssignments locks and reads every area that has ships working it,
// together with those ships. Areas with no assigned ships are left alone.
// A fleet row whose catalog entry has gone missing is counted and skipped
// rather than failing the tick.
func snapshotAssignments(ctx context.Context, tx pgx.Tx) ([]areaGroup, int, error) {
	rows, err := tx.Query(ctx, `
		SELECT f.id, f.user_id, f.ship_type_id, f.area_id,
		       st.harvest_amount, st.operating_cost_cents,
		       fa.name, fa.fish_type, fa.current_stock, fa.max_stock, fa.price_cents, fa.regen_rate
		FROM game.fleet f
		JOIN game.fishing_areas fa ON fa.id = f.area_id
		LEFT JOIN game.ship_types st ON st.id = f.ship_type_id
		WHERE f.area_id IS NOT NULL
		ORDER BY fa.name, f.id
		FOR UPDATE OF f, fa
	`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	byArea := make(map[int64]*areaGroup)
	var order []int64
	skipped := 0
	for rows.Next() {
		var (
			ship    AssignedShip
			areaID  int64
			harvest *float64
			opCost  *int64
			area    AreaSnapshot
		)
		if err := rows.Scan(&ship.FleetID, &ship.UserID, &ship.ShipTypeID, &areaID,
			&harvest, &opCost,
			&area.Name, &area.FishType, &area.Stock, &area.MaxStock, &area.PriceCents, &area.RegenRate); err != nil {
			return nil, 0, err
		}
		if harvest == nil || opCost == nil {
			skipped++
			continue
		}
		ship.HarvestAmount = *harvest
		ship.OperatingCostCents = *opCost
		area.ID = areaID

		g, ok := byArea[areaID]
		if !ok {
			g = &areaGroup{area: area}
			byArea[areaID] = g
			order = append(order, areaID)
		}
		g.ships = append(g.ships, ship)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	out := make([]areaGroup, 0, len(order))
	for _, id := range order {
		out = append(out, *byArea[id])
	}
	return out, skipped, nil
}

func applyOutcome(ctx context.Context, tx pgx.Tx, tickID int64, outcome AreaOutcome) error {
	for _, r := range outcome.Ships {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game.settlements
			    (tick_id, user_id, area_id, fleet_id, ship_type_id,
			     nominal_harvest, actual_harvest, revenue_cents, profit_cents,
			     stock_before, stock_after)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, tickID, r.UserID, outcome.AreaID, r.FleetID, r.ShipTypeID,
			r.NominalHarvest, r.ActualHarvest, r.RevenueCents, r.ProfitCents,
			outcome.StockBefore, outcome.StockAfter); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE game.balances
			SET balance_cents = balance_cents + $1, updated_at = now()
			WHERE user_id = $2
		`, r.ProfitCents, r.UserID); err != nil {
			return err
		}
	}
	_, err := tx.Exec(ctx, `
		UPDATE game.fishing_areas
		SET current_stock = $1, updated_at = now()
		WHERE id = $2
	`, outcome.StockAfter, outcome.AreaID)
	return err
}
