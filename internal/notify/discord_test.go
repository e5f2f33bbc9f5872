package notify

import (
	"strings"
	"testing"

	"fishbanks/internal/game"
)

func TestFormatTickMessage(t *testing.T) {
	summary := game.TickSummary{
		TickID:           7,
		ShipsProcessed:   3,
		TotalProfitCents: 123456,
		Areas: []game.AreaOutcome{
			{AreaName: "Crystal Lake", TotalHarvest: 150, StockBefore: 1000, StockAfter: 935},
		},
	}
	msg := formatTickMessage(summary)
	if !strings.Contains(msg, "Tick #7") {
		t.Errorf("missing tick id in %q", msg)
	}
	if !strings.Contains(msg, "$1234.56") {
		t.Errorf("missing profit in %q", msg)
	}
	if !strings.Contains(msg, "Crystal Lake") {
		t.Errorf("missing area name in %q", msg)
	}
}

func TestFormatTickMessageNoAreas(t *testing.T) {
	msg := formatTickMessage(game.TickSummary{TickID: 1})
	if strings.Contains(msg, "\n") {
		t.Errorf("unexpected area lines in %q", msg)
	}
}
