package game

import (
	"strings"
	"testing"
)

func TestDollarsToCents(t *testing.T) {
	cases := []struct {
		dollars float64
		want    int64
	}{
		{0, 0},
		{1, 100},
		{7500, 750000},
		{0.005, 1},
		{-2.5, -250},
	}
	for _, c := range cases {
		if got := DollarsToCents(c.dollars); got != c.want {
			t.Errorf("DollarsToCents(%f) = %d, want %d", c.dollars, got, c.want)
		}
	}
}

func TestRoundCents(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{99.4, 99},
		{99.5, 100},
		{-10.5, -11},
		{47500.0001, 47500},
	}
	for _, c := range cases {
		if got := RoundCents(c.in); got != c.want {
			t.Errorf("RoundCents(%f) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestValidateEntityName(t *testing.T) {
	valid := []string{"Crystal Lake", "Deep-Sea Crew", "fisher_42"}
	for _, name := range valid {
		if err := validateEntityName(name); err != nil {
			t.Errorf("validateEntityName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", "  ", strings.Repeat("x", 80), "AdminSquad", "total shitshow"}
	for _, name := range invalid {
		if err := validateEntityName(name); err == nil {
			t.Errorf("validateEntityName(%q) = nil, want error", name)
		}
	}
}

func TestGroupByTick(t *testing.T) {
	entries := []SettlementEntry{
		{TickID: 9, AreaName: "Crystal Lake", FishType: "Trout", ActualHarvest: 50, ProfitCents: 1000},
		{TickID: 9, AreaName: "Open Ocean", FishType: "Tuna", ActualHarvest: 120, ProfitCents: -300},
		{TickID: 8, AreaName: "Crystal Lake", FishType: "Trout", ActualHarvest: 40, ProfitCents: 800},
	}
	groups := GroupByTick(entries)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].TickID != 9 || len(groups[0].Entries) != 2 {
		t.Fatalf("first group = tick %d with %d entries, want tick 9 with 2", groups[0].TickID, len(groups[0].Entries))
	}
	if groups[0].TotalProfitCents != 700 {
		t.Fatalf("tick 9 profit = %d, want 700", groups[0].TotalProfitCents)
	}
	if groups[1].TickID != 8 || groups[1].TotalProfitCents != 800 {
		t.Fatalf("second group = tick %d profit %d, want tick 8 profit 800", groups[1].TickID, groups[1].TotalProfitCents)
	}
}

func TestGroupByTickEmpty(t *testing.T) {
	if groups := GroupByTick(nil); len(groups) != 0 {
		t.Fatalf("got %d groups for empty input", len(groups))
	}
}
