package game

import "context"

// SeedDefaults loads the ship and area catalogs on first boot. Idempotent:
// non-empty tables are left alone so admin edits survive restarts.
func (s *Service) SeedDefaults(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var shipCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM game.ship_types`).Scan(&shipCount); err != nil {
		return err
	}
	if shipCount == 0 {
		ships := []struct {
			Name      string
			Cost      int64
			Harvest   float64
			Operating int64
			Order     int32
		}{
			{"Small Fishing Boat", 7_500, 50, 25, 1},
			{"Medium Trawler", 15_000, 120, 60, 2},
			{"Large Trawler", 30_000, 250, 125, 3},
			{"Commercial Fishing Vessel", 60_000, 500, 250, 4},
			{"Factory Ship", 120_000, 1000, 500, 5},
			{"Super Trawler", 250_000, 2100, 1050, 6},
			{"Ocean Factory", 500_000, 4500, 2250, 7},
			{"Fleet Command Ship", 1_000_000, 9500, 4750, 8},
			{"Mega Trawler", 2_000_000, 20000, 10000, 9},
			{"Titan Class Vessel", 5_000_000, 50000, 25000, 10},
		}
		for _, sh := range ships {
			if _, err := tx.Exec(ctx, `
				INSERT INTO game.ship_types (name, cost_cents, harvest_amount, operating_cost_cents, display_order)
				VALUES ($1, $2, $3, $4, $5)
			`, sh.Name, sh.Cost*CentsPerDollar, sh.Harvest, sh.Operating*CentsPerDollar, sh.Order); err != nil {
				return err
			}
		}
	}

	var areaCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM game.fishing_areas`).Scan(&areaCount); err != nil {
		return err
	}
	if areaCount == 0 {
		areas := []struct {
			Name  string
			Type  string
			Fish  string
			Stock float64
			Max   float64
			Price int64 // dollars per unit
			Regen float64
		}{
			{"Crystal Lake", "Lake", "Bass", 8_000, 30_000, 8, 0.12},
			{"Emerald Bay", "Bay", "Salmon", 12_000, 40_000, 12, 0.10},
			{"Deep Ocean", "Ocean", "Tuna", 20_000, 60_000, 15, 0.08},
			{"Coastal Waters", "Ocean", "Cod", 15_000, 45_000, 10, 0.11},
			{"Tropical Reef", "Ocean", "Mahi-Mahi", 10_000, 35_000, 18, 0.09},
			{"Arctic Waters", "Ocean", "Halibut", 18_000, 50_000, 14, 0.10},
			{"Freshwater River", "River", "Trout", 7_000, 25_000, 9, 0.13},
			{"Pacific Deep", "Ocean", "Swordfish", 25_000, 70_000, 22, 0.07},
			{"Harbor Bay", "Bay", "Mackerel", 11_000, 38_000, 11, 0.11},
			{"Mangrove Lagoon", "Lagoon", "Snapper", 9_000, 32_000, 16, 0.10},
			{"Coral Atoll", "Ocean", "Grouper", 13_000, 42_000, 20, 0.09},
			{"Estuary Channel", "Estuary", "Flounder", 9_500, 33_000, 13, 0.11},
		}
		for _, a := range areas {
			if _, err := tx.Exec(ctx, `
				INSERT INTO game.fishing_areas (name, area_type, fish_type, current_stock, max_stock, price_cents, regen_rate)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, a.Name, a.Type, a.Fish, a.Stock, a.Max, a.Price*CentsPerDollar, a.Regen); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
