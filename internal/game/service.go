package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewService(db *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, log: logger}
}

// SetupPlayer gives a freshly registered account its starting balance and
// starter ship. Safe to call on every login: the balance insert is the
// first-time marker, repeat calls are no-ops.
func (s *Service) SetupPlayer(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		INSERT INTO game.balances (user_id, balance_cents)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, StarterBalanceCents)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return nil
	}

	var starterID int64
	var starterCost int64
	err = tx.QueryRow(ctx, `
		SELECT id, cost_cents
		FROM game.ship_types
		ORDER BY display_order
		LIMIT 1
	`).Scan(&starterID, &starterCost)
	if err == pgx.ErrNoRows {
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO game.fleet (user_id, ship_type_id)
		VALUES ($1, $2)
	`, userID, starterID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE game.balances
		SET balance_cents = balance_cents - $1, updated_at = now()
		WHERE user_id = $2
	`, starterCost, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// BuyShip deducts the catalog cost and adds a ship to the player's fleet in
// one serializable transaction, so a concurrent settlement can never observe
// money gone with no ship granted.
func (s *Service) BuyShip(ctx context.Context, in BuyShipInput) (BuyShipResult, error) {
	var out BuyShipResult
	err := s.withSerializableRetry(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "buy_ship"); err != nil {
			return err
		}

		var cost int64
		if err := tx.QueryRow(ctx, `
			SELECT cost_cents
			FROM game.ship_types
			WHERE id = $1
		`, in.ShipTypeID).Scan(&cost); err != nil {
			if err == pgx.ErrNoRows {
				return ErrShipTypeNotFound
			}
			return err
		}

		var balance int64
		if err := tx.QueryRow(ctx, `
			SELECT balance_cents
			FROM game.balances
			WHERE user_id = $1
			FOR UPDATE
		`, in.UserID).Scan(&balance); err != nil {
			return err
		}
		if balance < cost {
			return fmt.Errorf("%w: ship costs $%.2f, balance $%.2f",
				ErrInsufficientFunds, CentsToDollars(cost), CentsToDollars(balance))
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO game.fleet (user_id, ship_type_id)
			VALUES ($1, $2)
			RETURNING id
		`, in.UserID, in.ShipTypeID).Scan(&out.FleetID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE game.balances
			SET balance_cents = balance_cents - $1, updated_at = now()
			WHERE user_id = $2
		`, cost, in.UserID); err != nil {
			return err
		}
		out.CostCents = cost
		out.BalanceCents = balance - cost
		return nil
	})
	return out, err
}

// AssignShip moves a ship to an area, or docks it when AreaID is nil.
// Serialized against ticks so a settlement reads either the old or the new
// assignment, never a torn one.
func (s *Service) AssignShip(ctx context.Context, in AssignShipInput) error {
	return s.withSerializableRetry(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "assign_ship"); err != nil {
			return err
		}

		var ownerID int64
		if err := tx.QueryRow(ctx, `
			SELECT user_id
			FROM game.fleet
			WHERE id = $1
			FOR UPDATE
		`, in.FleetID).Scan(&ownerID); err != nil {
			if err == pgx.ErrNoRows {
				return ErrShipNotFound
			}
			return err
		}
		if ownerID != in.UserID {
			return ErrShipNotFound
		}

		if in.AreaID != nil {
			var exists bool
			if err := tx.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM game.fishing_areas WHERE id = $1)
			`, *in.AreaID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrAreaNotFound
			}
		}

		_, err := tx.Exec(ctx, `
			UPDATE game.fleet
			SET area_id = $1
			WHERE id = $2 AND user_id = $3
		`, in.AreaID, in.FleetID, in.UserID)
		return err
	})
}

func (s *Service) ShipCatalog(ctx context.Context) ([]ShipTypeView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, cost_cents, harvest_amount, operating_cost_cents, display_order
		FROM game.ship_types
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShipTypeView
	for rows.Next() {
		var v ShipTypeView
		if err := rows.Scan(&v.ID, &v.Name, &v.CostCents, &v.HarvestAmount, &v.OperatingCostCents, &v.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListAreas returns the area catalog. Stock numbers are only included for
// the logged-in view; the public view keeps them hidden.
func (s *Service) ListAreas(ctx context.Context, includeStock bool) ([]AreaView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, area_type, fish_type, price_cents, current_stock, max_stock, regen_rate
		FROM game.fishing_areas
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AreaView
	for rows.Next() {
		var v AreaView
		if err := rows.Scan(&v.ID, &v.Name, &v.AreaType, &v.FishType, &v.PriceCents, &v.CurrentStock, &v.MaxStock, &v.RegenRate); err != nil {
			return nil, err
		}
		if !includeStock {
			v.CurrentStock = 0
			v.MaxStock = 0
			v.RegenRate = 0
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) userShips(ctx context.Context, userID int64) ([]OwnedShipView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.ship_type_id, st.name, st.harvest_amount, st.operating_cost_cents,
		       f.area_id, COALESCE(fa.name, ''), COALESCE(fa.fish_type, '')
		FROM game.fleet f
		JOIN game.ship_types st ON st.id = f.ship_type_id
		LEFT JOIN game.fishing_areas fa ON fa.id = f.area_id
		WHERE f.user_id = $1
		ORDER BY st.display_order, f.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OwnedShipView
	for rows.Next() {
		var v OwnedShipView
		if err := rows.Scan(&v.FleetID, &v.ShipTypeID, &v.ShipName, &v.HarvestAmount, &v.OperatingCostCents, &v.AreaID, &v.AreaName, &v.FishType); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) PlayerStats(ctx context.Context, userID int64) (PlayerStats, error) {
	var out PlayerStats
	out.UserID = userID

	err := s.db.QueryRow(ctx, `
		SELECT a.username, COALESCE(b.balance_cents, 0)
		FROM users.accounts a
		LEFT JOIN game.balances b ON b.user_id = a.id
		WHERE a.id = $1
	`, userID).Scan(&out.Username, &out.BalanceCents)
	if err != nil {
		return out, err
	}

	out.Ships, err = s.userShips(ctx, userID)
	if err != nil {
		return out, err
	}

	var clan ClanInfo
	err = s.db.QueryRow(ctx, `
		SELECT c.id, c.name, c.creator_id
		FROM game.clan_members cm
		JOIN game.clans c ON c.id = cm.clan_id
		WHERE cm.user_id = $1
	`, userID).Scan(&clan.ID, &clan.Name, &clan.CreatorID)
	if err == nil {
		clan.IsCreator = clan.CreatorID == userID
		out.Clan = &clan
	} else if err != pgx.ErrNoRows {
		return out, err
	}

	entries, err := s.userHistory(ctx, userID)
	if err != nil {
		return out, err
	}
	out.History = GroupByTick(entries)
	if len(out.History) > 0 {
		out.LastRoundCents = out.History[0].TotalProfitCents
	}
	return out, nil
}

func (s *Service) userHistory(ctx context.Context, userID int64) ([]SettlementEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT sr.id, sr.tick_id, fa.name, fa.fish_type, st.name,
		       sr.nominal_harvest, sr.actual_harvest, sr.revenue_cents, sr.profit_cents,
		       sr.stock_before, sr.stock_after, sr.processed_at
		FROM game.settlements sr
		JOIN game.fishing_areas fa ON fa.id = sr.area_id
		JOIN game.ship_types st ON st.id = sr.ship_type_id
		WHERE sr.user_id = $1
		ORDER BY sr.tick_id DESC, sr.id
		LIMIT $2
	`, userID, MaxHistoryRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SettlementEntry
	for rows.Next() {
		var e SettlementEntry
		if err := rows.Scan(&e.ID, &e.TickID, &e.AreaName, &e.FishType, &e.ShipName,
			&e.NominalHarvest, &e.ActualHarvest, &e.RevenueCents, &e.ProfitCents,
			&e.StockBefore, &e.StockAfter, &e.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GroupByTick bundles ledger rows (already ordered newest tick first) into
// per-tick groups with profit totals. Grouping keys on the explicit tick id
// stamped at settlement time, never on timestamp proximity.
func GroupByTick(entries []SettlementEntry) []TickGroup {
	var out []TickGroup
	for _, e := range entries {
		if len(out) == 0 || out[len(out)-1].TickID != e.TickID {
			out = append(out, TickGroup{TickID: e.TickID, ProcessedAt: e.ProcessedAt})
		}
		g := &out[len(out)-1]
		g.TotalProfitCents += e.ProfitCents
		g.Entries = append(g.Entries, e)
	}
	return out
}

func (s *Service) GameStats(ctx context.Context) (GameStats, error) {
	var out GameStats
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM users.accounts WHERE is_admin = false
	`).Scan(&out.TotalPlayers)
	if err != nil {
		return out, err
	}
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM game.fleet WHERE area_id IS NOT NULL
	`).Scan(&out.ActiveShips)
	if err != nil {
		return out, err
	}
	out.Areas, err = s.ListAreas(ctx, false)
	return out, err
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.db.Query(ctx, `
		WITH last_tick AS (
			SELECT COALESCE(MAX(id), 0) AS id FROM game.ticks
		)
		SELECT a.id, a.username, COALESCE(b.balance_cents, 0),
		       (SELECT COUNT(*) FROM game.fleet f WHERE f.user_id = a.id),
		       COALESCE((SELECT SUM(sr.profit_cents) FROM game.settlements sr WHERE sr.user_id = a.id), 0),
		       COALESCE((SELECT SUM(sr.profit_cents) FROM game.settlements sr, last_tick lt
		                 WHERE sr.user_id = a.id AND sr.tick_id = lt.id), 0)
		FROM users.accounts a
		LEFT JOIN game.balances b ON b.user_id = a.id
		WHERE a.is_admin = false
		ORDER BY COALESCE(b.balance_cents, 0) DESC, a.username
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	var rank int64 = 1
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.BalanceCents, &r.ShipCount, &r.TotalProfitCents, &r.LastRoundCents); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) PlayersWithShips(ctx context.Context) ([]PlayerFleet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username
		FROM users.accounts
		WHERE is_admin = false
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerFleet
	for rows.Next() {
		var p PlayerFleet
		if err := rows.Scan(&p.UserID, &p.Username); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ships, err := s.userShips(ctx, out[i].UserID)
		if err != nil {
			return nil, err
		}
		out[i].Ships = ships
	}
	return out, nil
}

// withSerializableRetry runs fn inside a serializable transaction, retrying
// on SQLSTATE 40001 with capped backoff. fn must not commit or roll back.
func (s *Service) withSerializableRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, userID int64, key, action string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("idempotency key is required")
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO game.idempotency_keys (user_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateIdempotency
	}
	return nil
}
