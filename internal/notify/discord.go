package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"fishbanks/internal/game"

	"github.com/bwmarrin/discordgo"
)

// Discord posts a short settlement report to a channel after every tick.
// Optional: with no token configured the notifier is simply not registered.
type Discord struct {
	session   *discordgo.Session
	channelID string
	log       *slog.Logger
}

func NewDiscord(token, channelID string, logger *slog.Logger) (*Discord, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID, log: logger}, nil
}

// TickSettled implements api.TickListener. Failures are logged and swallowed:
// a Discord outage must never affect settlement.
func (d *Discord) TickSettled(summary game.TickSummary) {
	if _, err := d.session.ChannelMessageSend(d.channelID, formatTickMessage(summary)); err != nil {
		d.log.Warn("discord notify failed", "tick_id", summary.TickID, "err", err)
	}
}

func formatTickMessage(summary game.TickSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎣 Tick #%d settled: %d ships, total profit $%.2f\n",
		summary.TickID, summary.ShipsProcessed, game.CentsToDollars(summary.TotalProfitCents))
	for _, area := range summary.Areas {
		fmt.Fprintf(&b, "• %s: %.0f caught, stock %.0f → %.0f\n",
			area.AreaName, area.TotalHarvest, area.StockBefore, area.StockAfter)
	}
	return strings.TrimRight(b.String(), "\n")
}
