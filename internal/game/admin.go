package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Administrative operations. Authorization (is_admin) is enforced at the API
// boundary; these trust their caller.

func (s *Service) AdminCreateArea(ctx context.Context, in CreateAreaInput) (AreaView, error) {
	var out AreaView
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || strings.TrimSpace(in.AreaType) == "" || strings.TrimSpace(in.FishType) == "" {
		return out, fmt.Errorf("name, area type and fish type are required")
	}
	if in.MaxStock <= 0 {
		return out, fmt.Errorf("max stock must be > 0")
	}
	if in.PriceCents <= 0 {
		return out, fmt.Errorf("price must be > 0")
	}
	if in.RegenRate < 0 || in.RegenRate >= 1 {
		return out, fmt.Errorf("regeneration rate must be in [0, 1)")
	}
	if in.CurrentStock <= 0 || in.CurrentStock > in.MaxStock {
		in.CurrentStock = in.MaxStock
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO game.fishing_areas (name, area_type, fish_type, current_stock, max_stock, price_cents, regen_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, in.Name, in.AreaType, in.FishType, in.CurrentStock, in.MaxStock, in.PriceCents, in.RegenRate).Scan(&out.ID)
	if err == pgx.ErrNoRows {
		return out, ErrAreaExists
	}
	if err != nil {
		return out, err
	}
	out.Name = in.Name
	out.AreaType = in.AreaType
	out.FishType = in.FishType
	out.CurrentStock = in.CurrentStock
	out.MaxStock = in.MaxStock
	out.PriceCents = in.PriceCents
	out.RegenRate = in.RegenRate
	return out, nil
}

func (s *Service) AdminResetAreaStock(ctx context.Context, areaID int64, amount float64) (float64, error) {
	var maxStock float64
	if err := s.db.QueryRow(ctx, `
		SELECT max_stock FROM game.fishing_areas WHERE id = $1
	`, areaID).Scan(&maxStock); err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrAreaNotFound
		}
		return 0, err
	}
	if amount < 0 {
		amount = 0
	}
	if amount > maxStock {
		amount = maxStock
	}
	_, err := s.db.Exec(ctx, `
		UPDATE game.fishing_areas
		SET current_stock = $1, updated_at = now()
		WHERE id = $2
	`, amount, areaID)
	return amount, err
}

func (s *Service) AdminAddStock(ctx context.Context, areaID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}
	var newStock float64
	err := s.db.QueryRow(ctx, `
		UPDATE game.fishing_areas
		SET current_stock = LEAST(current_stock + $1, max_stock), updated_at = now()
		WHERE id = $2
		RETURNING current_stock
	`, amount, areaID).Scan(&newStock)
	if err == pgx.ErrNoRows {
		return 0, ErrAreaNotFound
	}
	return newStock, err
}

func (s *Service) AdminSetRegenRate(ctx context.Context, areaID int64, rate float64) error {
	if rate < 0 || rate >= 1 {
		return fmt.Errorf("regeneration rate must be in [0, 1)")
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE game.fishing_areas
		SET regen_rate = $1, updated_at = now()
		WHERE id = $2
	`, rate, areaID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAreaNotFound
	}
	return nil
}

func (s *Service) AdminSetPrice(ctx context.Context, areaID int64, priceCents int64) error {
	if priceCents <= 0 {
		return fmt.Errorf("price must be > 0")
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE game.fishing_areas
		SET price_cents = $1, updated_at = now()
		WHERE id = $2
	`, priceCents, areaID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAreaNotFound
	}
	return nil
}

func (s *Service) AdminSetOperatingCost(ctx context.Context, shipTypeID, costCents int64) error {
	if costCents < 0 {
		return fmt.Errorf("operating cost must be >= 0")
	}
	cmd, err := s.db.Exec(ctx, `
		UPDATE game.ship_types
		SET operating_cost_cents = $1
		WHERE id = $2
	`, costCents, shipTypeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrShipTypeNotFound
	}
	return nil
}

// AdminAdjustBalance adds (or with a negative delta removes) money on a
// player's account, creating the balance row if needed.
func (s *Service) AdminAdjustBalance(ctx context.Context, userID, deltaCents int64) (int64, error) {
	var newBalance int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO game.balances (user_id, balance_cents)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance_cents = game.balances.balance_cents + $2, updated_at = now()
		RETURNING balance_cents
	`, userID, deltaCents).Scan(&newBalance)
	return newBalance, err
}

func (s *Service) AdminGrantShip(ctx context.Context, userID, shipTypeID int64) (int64, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM game.ship_types WHERE id = $1)
	`, shipTypeID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrShipTypeNotFound
	}
	var fleetID int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO game.fleet (user_id, ship_type_id)
		VALUES ($1, $2)
		RETURNING id
	`, userID, shipTypeID).Scan(&fleetID)
	return fleetID, err
}

func (s *Service) AdminRemoveShip(ctx context.Context, userID, fleetID int64) error {
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM game.fleet
		WHERE id = $1 AND user_id = $2
	`, fleetID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrShipNotFound
	}
	return nil
}

func (s *Service) AdminDeleteClan(ctx context.Context, clanID int64) error {
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM game.clans
		WHERE id = $1
	`, clanID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClanNotFound
	}
	return nil
}

// AdminAreaStocks returns every area with stock numbers included.
func (s *Service) AdminAreaStocks(ctx context.Context) ([]AreaView, error) {
	return s.ListAreas(ctx, true)
}

type AdminUserRow struct {
	UserID       int64           `json:"user_id"`
	Username     string          `json:"username"`
	BalanceCents int64           `json:"balance_cents"`
	ShipCount    int64           `json:"ship_count"`
	Ships        []OwnedShipView `json:"ships"`
}

func (s *Service) AdminListUsers(ctx context.Context) ([]AdminUserRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.username, COALESCE(b.balance_cents, 0),
		       (SELECT COUNT(*) FROM game.fleet f WHERE f.user_id = a.id)
		FROM users.accounts a
		LEFT JOIN game.balances b ON b.user_id = a.id
		WHERE a.is_admin = false
		ORDER BY a.username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdminUserRow
	for rows.Next() {
		var r AdminUserRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.BalanceCents, &r.ShipCount); err != nil {
			return nil, err
		}
		out = append(out, r)
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
