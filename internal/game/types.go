package game

import "time"

type ShipTypeView struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CostCents          int64   `json:"cost_cents"`
	HarvestAmount      float64 `json:"harvest_amount"`
	OperatingCostCents int64   `json:"operating_cost_cents"`
	DisplayOrder       int32   `json:"display_order"`
}

type AreaView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	AreaType   string `json:"area_type"`
	FishType   string `json:"fish_type"`
	PriceCents int64  `json:"price_cents"`
	// Stock fields are zero in the public view.
	CurrentStock float64 `json:"current_stock,omitempty"`
	MaxStock     float64 `json:"max_stock,omitempty"`
	RegenRate    float64 `json:"regen_rate,omitempty"`
}

type OwnedShipView struct {
	FleetID            int64   `json:"fleet_id"`
	ShipTypeID         int64   `json:"ship_type_id"`
	ShipName           string  `json:"ship_name"`
	HarvestAmount      float64 `json:"harvest_amount"`
	OperatingCostCents int64   `json:"operating_cost_cents"`
	AreaID             *int64  `json:"area_id,omitempty"`
	AreaName           string  `json:"area_name,omitempty"`
	FishType           string  `json:"fish_type,omitempty"`
}

type ClanInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creator_id"`
	IsCreator bool   `json:"is_creator"`
}

type ClanView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CreatorID   int64     `json:"creator_id"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type ClanMemberView struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
}

// SettlementEntry is one ledger row as shown in history views.
type SettlementEntry struct {
	ID             int64     `json:"id"`
	TickID         int64     `json:"tick_id"`
	AreaName       string    `json:"area_name"`
	FishType       string    `json:"fish_type"`
	ShipName       string    `json:"ship_name"`
	NominalHarvest float64   `json:"nominal_harvest"`
	ActualHarvest  float64   `json:"actual_harvest"`
	RevenueCents   int64     `json:"revenue_cents"`
	ProfitCents    int64     `json:"profit_cents"`
	StockBefore    float64   `json:"stock_before"`
	StockAfter     float64   `json:"stock_after"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// TickGroup bundles a player's ledger rows for one tick.
type TickGroup struct {
	TickID           int64             `json:"tick_id"`
	ProcessedAt      time.Time         `json:"processed_at"`
	TotalProfitCents int64             `json:"total_profit_cents"`
	Entries          []SettlementEntry `json:"entries"`
}

type PlayerStats struct {
	UserID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	BalanceCents   int64           `json:"balance_cents"`
	Ships          []OwnedShipView `json:"ships"`
	Clan           *ClanInfo       `json:"clan,omitempty"`
	LastRoundCents int64           `json:"last_round_cents"`
	History        []TickGroup     `json:"history"`
}

type GameStats struct {
	TotalPlayers int64      `json:"total_players"`
	ActiveShips  int64      `json:"active_ships"`
	Areas        []AreaView `json:"areas"`
}

type LeaderboardRow struct {
	Rank             int64  `json:"rank"`
	UserID           int64  `json:"user_id"`
	Username         string `json:"username"`
	BalanceCents     int64  `json:"balance_cents"`
	ShipCount        int64  `json:"ship_count"`
	TotalProfitCents int64  `json:"total_profit_cents"`
	LastRoundCents   int64  `json:"last_round_cents"`
}

type PlayerFleet struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Ships    []OwnedShipView `json:"ships"`
}

type BuyShipInput struct {
	UserID         int64
	ShipTypeID     int64
	IdempotencyKey string
}

type BuyShipResult struct {
	FleetID      int64 `json:"fleet_id"`
	CostCents    int64 `json:"cost_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

type AssignShipInput struct {
	UserID         int64
	FleetID        int64
	AreaID         *int64 // nil docks the ship
	IdempotencyKey string
}

type CreateAreaInput struct {
	Name         string
	AreaType     string
	FishType     string
	CurrentStock float64
	MaxStock     float64
	PriceCents   int64
	RegenRate    float64
}
