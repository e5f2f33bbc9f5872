package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"fishbanks/internal/game"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgWhite)
)

func printSuccess(msg string) {
	success.Fprintln(os.Stdout, "✔ "+msg)
}

func printWarn(msg string) {
	warn.Fprintln(os.Stdout, "! "+msg)
}

func printError(msg string) {
	danger.Fprintln(os.Stderr, "✖ "+msg)
}

func printInfo(msg string) {
	neutral.Fprintln(os.Stdout, msg)
}

var stdin = bufio.NewReader(os.Stdin)

func promptRequired(label string) (string, error) {
	for {
		accent.Fprintf(os.Stdout, "%s: ", label)
		line, err := stdin.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		printWarn(label + " is required.")
	}
}

// promptPassword reads without echo when stdin is a terminal, and falls back
// to a plain line read when it is not (tests, pipes).
func promptPassword(label string) (string, error) {
	accent.Fprintf(os.Stdout, "%s: ", label)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stdout)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw := strings.TrimSpace(string(raw))
		if pw == "" {
			return "", fmt.Errorf("password is required")
		}
		return pw, nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimSpace(line)
	if pw == "" {
		return "", fmt.Errorf("password is required")
	}
	return pw, nil
}

func promptInt64(label string, min int64) (int64, error) {
	for {
		raw, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < min {
			printWarn(fmt.Sprintf("Enter a whole number >= %d.", min))
			continue
		}
		return v, nil
	}
}

// decodeInto re-marshals a generic API payload into a typed struct.
func decodeInto[T any](payload any) (T, error) {
	var out T
	raw, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// formatCents renders an int64 cent amount as $1,234.56.
func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, comma(v/100), v%100)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func colorizeCents(v int64) string {
	if v > 0 {
		return success.Sprint(formatCents(v))
	}
	if v < 0 {
		return danger.Sprint(formatCents(v))
	}
	return neutral.Sprint(formatCents(v))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func renderDashboard(payload map[string]any) error {
	stats, err := decodeInto[game.PlayerStats](payload)
	if err != nil {
		return err
	}

	accent.Printf("Captain %s\n", stats.Username)
	fmt.Printf("  Balance:    %s\n", colorizeCents(stats.BalanceCents))
	fmt.Printf("  Last round: %s\n", colorizeCents(stats.LastRoundCents))
	if stats.Clan != nil {
		role := "member"
		if stats.Clan.IsCreator {
			role = "creator"
		}
		fmt.Printf("  Clan:       %s (#%d, %s)\n", stats.Clan.Name, stats.Clan.ID, role)
	}

	fmt.Println()
	accent.Println("Fleet")
	if len(stats.Ships) == 0 {
		printInfo("  No ships. Run `fbk ships buy` to get started.")
	}
	for _, ship := range stats.Ships {
		location := warn.Sprint("docked")
		if ship.AreaID != nil {
			location = fmt.Sprintf("%s (%s)", ship.AreaName, ship.FishType)
		}
		fmt.Printf("  #%-5d %-24s harvest %.0f  upkeep %s  -> %s\n",
			ship.FleetID, truncate(ship.ShipName, 24), ship.HarvestAmount,
			formatCents(ship.OperatingCostCents), location)
	}

	if len(stats.History) > 0 {
		fmt.Println()
		accent.Println("Recent rounds")
		for _, group := range stats.History {
			fmt.Printf("  Tick #%-6d %s  %s\n",
				group.TickID, group.ProcessedAt.Local().Format("Jan 02 15:04"),
				colorizeCents(group.TotalProfitCents))
			for _, e := range group.Entries {
				fmt.Printf("    %-20s %-16s caught %.1f  %s\n",
					truncate(e.ShipName, 20), truncate(e.AreaName, 16),
					e.ActualHarvest, colorizeCents(e.ProfitCents))
			}
		}
	}
	return nil
}

func renderShipCatalog(payload map[string]any) error {
	wrapper, err := decodeInto[struct {
		Ships []game.ShipTypeView `json:"ships"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Println("Ship catalog")
	fmt.Printf("  %-4s %-24s %12s %10s %12s\n", "ID", "NAME", "COST", "HARVEST", "UPKEEP/TICK")
	for _, s := range wrapper.Ships {
		fmt.Printf("  %-4d %-24s %12s %10.0f %12s\n",
			s.ID, truncate(s.Name, 24), formatCents(s.CostCents),
			s.HarvestAmount, formatCents(s.OperatingCostCents))
	}
	return nil
}

func renderBuyResult(payload map[string]any) error {
	result, err := decodeInto[game.BuyShipResult](payload)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Ship purchased for %s (fleet #%d). Balance: %s",
		formatCents(result.CostCents), result.FleetID, formatCents(result.BalanceCents)))
	printInfo("Assign it with `fbk ships assign " + strconv.FormatInt(result.FleetID, 10) + " <area_id>`.")
	return nil
}

func renderAreas(payload map[string]any, withStock bool) error {
	wrapper, err := decodeInto[struct {
		Areas []game.AreaView `json:"areas"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Println("Fishing areas")
	if withStock {
		fmt.Printf("  %-4s %-20s %-12s %-14s %10s %16s\n", "ID", "NAME", "TYPE", "FISH", "PRICE", "STOCK")
		for _, a := range wrapper.Areas {
			fmt.Printf("  %-4d %-20s %-12s %-14s %10s %8.0f/%.0f\n",
				a.ID, truncate(a.Name, 20), a.AreaType, a.FishType,
				formatCents(a.PriceCents), a.CurrentStock, a.MaxStock)
		}
	} else {
		fmt.Printf("  %-4s %-20s %-12s %-14s %10s\n", "ID", "NAME", "TYPE", "FISH", "PRICE")
		for _, a := range wrapper.Areas {
			fmt.Printf("  %-4d %-20s %-12s %-14s %10s\n",
				a.ID, truncate(a.Name, 20), a.AreaType, a.FishType, formatCents(a.PriceCents))
		}
		printInfo("Log in to see stock levels.")
	}
	return nil
}

func renderGameStats(payload map[string]any) error {
	stats, err := decodeInto[game.GameStats](payload)
	if err != nil {
		return err
	}
	accent.Println("FishBanks world")
	fmt.Printf("  Players:      %d\n", stats.TotalPlayers)
	fmt.Printf("  Active ships: %d\n", stats.ActiveShips)
	fmt.Printf("  Areas:        %d\n", len(stats.Areas))
	return nil
}

func renderClans(payload map[string]any) error {
	wrapper, err := decodeInto[struct {
		Clans []game.ClanView `json:"clans"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Println("Clans")
	if len(wrapper.Clans) == 0 {
		printInfo("  No clans yet. Create one with `fbk clan create`.")
		return nil
	}
	fmt.Printf("  %-4s %-28s %8s\n", "ID", "NAME", "MEMBERS")
	for _, c := range wrapper.Clans {
		fmt.Printf("  %-4d %-28s %8d\n", c.ID, truncate(c.Name, 28), c.MemberCount)
	}
	return nil
}

func renderClanCreated(payload map[string]any) error {
	clan, err := decodeInto[game.ClanView](payload)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Clan %s created (#%d).", clan.Name, clan.ID))
	return nil
}

func renderClanMembers(payload map[string]any, clanID int64) error {
	wrapper, err := decodeInto[struct {
		Members []game.ClanMemberView `json:"members"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Printf("Clan #%d members\n", clanID)
	for _, m := range wrapper.Members {
		marker := " "
		if m.IsCreator {
			marker = "*"
		}
		fmt.Printf("  %s %-24s (#%d)\n", marker, m.Username, m.UserID)
	}
	return nil
}

func renderLeaderboard(payload map[string]any) error {
	wrapper, err := decodeInto[struct {
		Rows []game.LeaderboardRow `json:"rows"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Println("Leaderboard")
	fmt.Printf("  %-5s %-20s %14s %6s %14s %14s\n", "RANK", "CAPTAIN", "BALANCE", "SHIPS", "ALL-TIME", "LAST ROUND")
	for _, row := range wrapper.Rows {
		fmt.Printf("  %-5d %-20s %14s %6d %14s %14s\n",
			row.Rank, truncate(row.Username, 20), formatCents(row.BalanceCents),
			row.ShipCount, colorizeCents(row.TotalProfitCents), colorizeCents(row.LastRoundCents))
	}
	return nil
}

func renderPlayers(payload map[string]any) error {
	wrapper, err := decodeInto[struct {
		Players []game.PlayerFleet `json:"players"`
	}](payload)
	if err != nil {
		return err
	}
	accent.Println("Fleets at sea")
	for _, p := range wrapper.Players {
		fmt.Printf("  %s (%d ships)\n", p.Username, len(p.Ships))
		for _, ship := range p.Ships {
			location := "docked"
			if ship.AreaID != nil {
				location = ship.AreaName
			}
			fmt.Printf("    #%-5d %-24s -> %s\n", ship.FleetID, truncate(ship.ShipName, 24), location)
		}
	}
	return nil
}

func renderTickSummary(payload map[string]any) error {
	summary, err := decodeInto[game.TickSummary](payload)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Tick #%d settled: ships=%d skipped=%d payout=%s",
		summary.TickID, summary.ShipsProcessed, summary.ShipsSkipped,
		formatCents(summary.TotalProfitCents)))
	for _, area := range summary.Areas {
		fmt.Printf("  %-20s caught %.1f of %.1f (x%.2f)  stock %.0f -> %.0f\n",
			truncate(area.AreaName, 20), area.TotalHarvest, area.TotalNominal,
			area.ScaleFactor, area.StockBefore, area.StockAfter)
	}
	return nil
}
