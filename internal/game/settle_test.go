package game

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSettleNoShipsIsNoOp(t *testing.T) {
	area := AreaSnapshot{ID: 1, Stock: 4200, MaxStock: 10000, PriceCents: 1000, RegenRate: 0.1}
	out := Settle(area, nil)
	if len(out.Ships) != 0 {
		t.Fatalf("expected no ship results, got %d", len(out.Ships))
	}
	if out.StockAfter != area.Stock {
		t.Fatalf("stock changed on empty area: %f -> %f", area.Stock, out.StockAfter)
	}
}

func TestSettleDemandExceedsStock(t *testing.T) {
	// stock=1000, max=5000, price=$10, regen=0.10; ships {800, 400}.
	area := AreaSnapshot{ID: 1, Stock: 1000, MaxStock: 5000, PriceCents: 10 * CentsPerDollar, RegenRate: 0.10}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 10, HarvestAmount: 800, OperatingCostCents: 0},
		{FleetID: 2, UserID: 20, HarvestAmount: 400, OperatingCostCents: 0},
	}
	out := Settle(area, ships)

	wantScale := 1000.0 / 1200.0
	if !almostEqual(out.ScaleFactor, wantScale) {
		t.Fatalf("scale factor = %f, want %f", out.ScaleFactor, wantScale)
	}
	if !almostEqual(out.Ships[0].ActualHarvest, 800*wantScale) {
		t.Fatalf("ship 0 actual = %f, want %f", out.Ships[0].ActualHarvest, 800*wantScale)
	}
	if !almostEqual(out.Ships[1].ActualHarvest, 400*wantScale) {
		t.Fatalf("ship 1 actual = %f, want %f", out.Ships[1].ActualHarvest, 400*wantScale)
	}
	// Entire stock consumed, then regenerated from zero.
	if !almostEqual(out.StockAfter, 0) {
		t.Fatalf("stock after = %f, want 0", out.StockAfter)
	}
}

func TestSettleDemandBelowStockWithRegenCap(t *testing.T) {
	// stock=5000, max=5000, price=$5, regen=0.10, one ship 100 @ $25 opcost.
	area := AreaSnapshot{ID: 1, Stock: 5000, MaxStock: 5000, PriceCents: 5 * CentsPerDollar, RegenRate: 0.10}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 10, HarvestAmount: 100, OperatingCostCents: 25 * CentsPerDollar},
	}
	out := Settle(area, ships)

	if out.ScaleFactor != 1 {
		t.Fatalf("scale factor = %f, want 1", out.ScaleFactor)
	}
	r := out.Ships[0]
	if !almostEqual(r.ActualHarvest, 100) {
		t.Fatalf("actual harvest = %f, want 100", r.ActualHarvest)
	}
	if r.RevenueCents != 500*CentsPerDollar {
		t.Fatalf("revenue = %d cents, want %d", r.RevenueCents, 500*CentsPerDollar)
	}
	if r.ProfitCents != 475*CentsPerDollar {
		t.Fatalf("profit = %d cents, want %d", r.ProfitCents, 475*CentsPerDollar)
	}
	// 4900 * 1.10 = 5390, clamped at capacity.
	if !almostEqual(out.StockAfter, 5000) {
		t.Fatalf("stock after = %f, want 5000 (clamped)", out.StockAfter)
	}
}

func TestSettleZeroStock(t *testing.T) {
	area := AreaSnapshot{ID: 1, Stock: 0, MaxStock: 1000, PriceCents: 10 * CentsPerDollar, RegenRate: 0.10}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 10, HarvestAmount: 50, OperatingCostCents: 10 * CentsPerDollar},
	}
	out := Settle(area, ships)

	if out.ScaleFactor != 0 {
		t.Fatalf("scale factor = %f, want 0", out.ScaleFactor)
	}
	r := out.Ships[0]
	if r.ActualHarvest != 0 {
		t.Fatalf("actual harvest = %f, want 0", r.ActualHarvest)
	}
	if r.ProfitCents != -10*CentsPerDollar {
		t.Fatalf("profit = %d cents, want %d", r.ProfitCents, -10*CentsPerDollar)
	}
	if out.StockAfter != 0 {
		t.Fatalf("stock after = %f, want 0", out.StockAfter)
	}
}

func TestSettleFairScalingUniform(t *testing.T) {
	area := AreaSnapshot{ID: 1, Stock: 777.5, MaxStock: 9000, PriceCents: 1234, RegenRate: 0.05}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 1, HarvestAmount: 50},
		{FleetID: 2, UserID: 2, HarvestAmount: 421.25},
		{FleetID: 3, UserID: 3, HarvestAmount: 1000},
		{FleetID: 4, UserID: 4, HarvestAmount: 3},
	}
	out := Settle(area, ships)
	for _, r := range out.Ships {
		ratio := r.ActualHarvest / r.NominalHarvest
		if !almostEqual(ratio, out.ScaleFactor) {
			t.Fatalf("ship %d ratio %f != scale factor %f", r.FleetID, ratio, out.ScaleFactor)
		}
	}
}

func TestSettleOrderIndependent(t *testing.T) {
	area := AreaSnapshot{ID: 1, Stock: 900, MaxStock: 5000, PriceCents: 750, RegenRate: 0.1}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 1, HarvestAmount: 500, OperatingCostCents: 100},
		{FleetID: 2, UserID: 2, HarvestAmount: 300, OperatingCostCents: 200},
		{FleetID: 3, UserID: 3, HarvestAmount: 700, OperatingCostCents: 50},
	}
	base := Settle(area, ships)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]AssignedShip, len(ships))
		copy(shuffled, ships)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Settle(area, shuffled)

		if !almostEqual(got.StockAfter, base.StockAfter) || !almostEqual(got.ScaleFactor, base.ScaleFactor) {
			t.Fatalf("order changed outcome: stock %f vs %f", got.StockAfter, base.StockAfter)
		}
		byFleet := make(map[int64]ShipResult)
		for _, r := range got.Ships {
			byFleet[r.FleetID] = r
		}
		for _, want := range base.Ships {
			r := byFleet[want.FleetID]
			if !almostEqual(r.ActualHarvest, want.ActualHarvest) || r.ProfitCents != want.ProfitCents {
				t.Fatalf("ship %d outcome depends on order", want.FleetID)
			}
		}
	}
}

func TestSettleConservationAndCap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 500; trial++ {
		area := AreaSnapshot{
			ID:         1,
			Stock:      rng.Float64() * 50_000,
			MaxStock:   10_000 + rng.Float64()*90_000,
			PriceCents: 1 + rng.Int63n(5000),
			RegenRate:  rng.Float64() * 0.99,
		}
		if area.Stock > area.MaxStock {
			area.Stock = area.MaxStock
		}
		n := 1 + rng.Intn(8)
		ships := make([]AssignedShip, 0, n)
		for i := 0; i < n; i++ {
			ships = append(ships, AssignedShip{
				FleetID:            int64(i + 1),
				UserID:             int64(i + 1),
				HarvestAmount:      rng.Float64() * 20_000,
				OperatingCostCents: rng.Int63n(100_000),
			})
		}
		out := Settle(area, ships)

		var taken float64
		for _, r := range out.Ships {
			taken += r.ActualHarvest
		}
		if area.Stock-taken < -1e-6 {
			t.Fatalf("harvest %f exceeds stock %f", taken, area.Stock)
		}
		if out.StockAfter > area.MaxStock+1e-6 {
			t.Fatalf("stock after %f exceeds capacity %f", out.StockAfter, area.MaxStock)
		}
		if out.StockAfter < 0 {
			t.Fatalf("stock after went negative: %f", out.StockAfter)
		}
	}
}

func TestSettleAccountingIdentity(t *testing.T) {
	area := AreaSnapshot{ID: 1, Stock: 3_333.33, MaxStock: 40_000, PriceCents: 1375, RegenRate: 0.1}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 1, HarvestAmount: 1111.11, OperatingCostCents: 12_345},
		{FleetID: 2, UserID: 2, HarvestAmount: 5000, OperatingCostCents: 999},
	}
	out := Settle(area, ships)
	for _, r := range out.Ships {
		wantRevenue := RoundCents(r.ActualHarvest * float64(area.PriceCents))
		if r.RevenueCents != wantRevenue {
			t.Fatalf("ship %d revenue %d, want %d", r.FleetID, r.RevenueCents, wantRevenue)
		}
		if r.ProfitCents != r.RevenueCents-findShip(ships, r.FleetID).OperatingCostCents {
			t.Fatalf("ship %d profit does not equal revenue minus operating cost", r.FleetID)
		}
	}
}

func findShip(ships []AssignedShip, fleetID int64) AssignedShip {
	for _, s := range ships {
		if s.FleetID == fleetID {
			return s
		}
	}
	return AssignedShip{}
}

func TestSettleSurplusStaysInWater(t *testing.T) {
	// Demand below supply: no redistribution of the unused stock.
	area := AreaSnapshot{ID: 1, Stock: 10_000, MaxStock: 10_000, PriceCents: 100, RegenRate: 0}
	ships := []AssignedShip{
		{FleetID: 1, UserID: 1, HarvestAmount: 100},
	}
	out := Settle(area, ships)
	if !almostEqual(out.Ships[0].ActualHarvest, 100) {
		t.Fatalf("harvest %f, want exactly the nominal 100", out.Ships[0].ActualHarvest)
	}
	if !almostEqual(out.StockAfter, 9_900) {
		t.Fatalf("stock after %f, want 9900", out.StockAfter)
	}
}
