package game

import "math"

// AreaSnapshot is one fishing area as read at the start of a tick.
type AreaSnapshot struct {
	ID         int64
	Name       string
	FishType   string
	Stock      float64
	MaxStock   float64
	PriceCents int64
	RegenRate  float64
}

// AssignedShip is one owned ship working the area, flattened with its
// catalog numbers.
type AssignedShip struct {
	FleetID            int64
	UserID             int64
	ShipTypeID         int64
	HarvestAmount      float64
	OperatingCostCents int64
}

// ShipResult is the settled outcome for one ship in one tick. ProfitCents
// may be negative: operating costs are charged regardless of catch.
type ShipResult struct {
	FleetID        int64
	UserID         int64
	ShipTypeID     int64
	NominalHarvest float64
	ActualHarvest  float64
	RevenueCents   int64
	ProfitCents    int64
}

// AreaOutcome is the settled outcome for one area in one tick.
type AreaOutcome struct {
	AreaID       int64
	AreaName     string
	FishType     string
	StockBefore  float64
	StockAfter   float64
	TotalNominal float64
	TotalHarvest float64
	ScaleFactor  float64
	Ships        []ShipResult
}

// Settle computes one tick's settlement for a single area. It is pure with
// respect to its inputs: callers wrap it in a storage transaction.
//
// When aggregate demand exceeds the available stock every ship's catch is
// scaled down by the same factor, so the outcome does not depend on the
// order ships are processed in. When stock covers demand the factor is 1 and
// any surplus stays in the water; there is no redistribution of unused
// stock. A zero stock yields zero catch for everyone while operating costs
// still apply. Regeneration runs strictly after depletion and is clamped at
// the area's capacity.
func Settle(area AreaSnapshot, ships []AssignedShip) AreaOutcome {
	out := AreaOutcome{
		AreaID:      area.ID,
		AreaName:    area.Name,
		FishType:    area.FishType,
		StockBefore: area.Stock,
		StockAfter:  area.Stock,
		ScaleFactor: 1,
	}
	if len(ships) == 0 {
		return out
	}

	for _, s := range ships {
		out.TotalNominal += s.HarvestAmount
	}

	switch {
	case area.Stock <= 0:
		out.ScaleFactor = 0
	case out.TotalNominal > area.Stock:
		out.ScaleFactor = area.Stock / out.TotalNominal
	}

	out.Ships = make([]ShipResult, 0, len(ships))
	for _, s := range ships {
		actual := s.HarvestAmount * out.ScaleFactor
		revenue := RoundCents(actual * float64(area.PriceCents))
		out.Ships = append(out.Ships, ShipResult{
			FleetID:        s.FleetID,
			UserID:         s.UserID,
			ShipTypeID:     s.ShipTypeID,
			NominalHarvest: s.HarvestAmount,
			ActualHarvest:  actual,
			RevenueCents:   revenue,
			ProfitCents:    revenue - s.OperatingCostCents,
		})
		out.TotalHarvest += actual
	}

	// Clamp at zero so float rounding can never drive the stock negative.
	reduced := math.Max(0, area.Stock-out.TotalHarvest)
	out.StockAfter = math.Min(reduced*(1+area.RegenRate), area.MaxStock)
	return out
}
