package main

import (
	"context"
	"fmt"
	"time"

	cl "fishbanks/internal/cli"
	"fishbanks/internal/game"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const watchRefreshEvery = 10 * time.Second

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	watchHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	watchGainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	watchLossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	watchDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	watchBoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func newWatchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard that refreshes every few seconds",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			m := newWatchModel(newClient(apiBase), sess.AccessToken, sess.Username)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

type watchSnapshot struct {
	Player game.PlayerStats
	World  game.GameStats
	Areas  []game.AreaView
	Top    []game.LeaderboardRow
}

type watchDataMsg struct {
	snap watchSnapshot
	err  error
}

type watchTickMsg time.Time

type watchModel struct {
	client   *cl.Client
	token    string
	username string

	spin    spinner.Model
	loading bool
	snap    watchSnapshot
	err     error
	updated time.Time
}

func newWatchModel(client *cl.Client, token, username string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	return watchModel{
		client:   client,
		token:    token,
		username: username,
		spin:     sp,
		loading:  true,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetch(), scheduleWatchTick())
}

func (m watchModel) fetch() tea.Cmd {
	client, token := m.client, m.token
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var snap watchSnapshot

		raw, err := client.MyStats(ctx, token)
		if err != nil {
			return watchDataMsg{err: err}
		}
		if snap.Player, err = decodeInto[game.PlayerStats](raw); err != nil {
			return watchDataMsg{err: err}
		}

		raw, err = client.GameStats(ctx)
		if err != nil {
			return watchDataMsg{err: err}
		}
		if snap.World, err = decodeInto[game.GameStats](raw); err != nil {
			return watchDataMsg{err: err}
		}

		raw, err = client.ListAreas(ctx, token)
		if err != nil {
			return watchDataMsg{err: err}
		}
		wrapper, err := decodeInto[struct {
			Areas []game.AreaView `json:"areas"`
		}](raw)
		if err != nil {
			return watchDataMsg{err: err}
		}
		snap.Areas = wrapper.Areas

		raw, err = client.Leaderboard(ctx, 5)
		if err != nil {
			return watchDataMsg{err: err}
		}
		board, err := decodeInto[struct {
			Rows []game.LeaderboardRow `json:"rows"`
		}](raw)
		if err != nil {
			return watchDataMsg{err: err}
		}
		snap.Top = board.Rows

		return watchDataMsg{snap: snap}
	}
}

func scheduleWatchTick() tea.Cmd {
	return tea.Tick(watchRefreshEvery, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetch()
		}
	case watchTickMsg:
		m.loading = true
		return m, tea.Batch(m.fetch(), scheduleWatchTick())
	case watchDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.updated = time.Now()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	header := watchTitleStyle.Render("FishBanks") + "  " +
		watchDimStyle.Render("captain "+m.username)
	if m.loading {
		header += "  " + m.spin.View()
	} else if !m.updated.IsZero() {
		header += "  " + watchDimStyle.Render("updated "+m.updated.Format("15:04:05"))
	}

	if m.err != nil {
		return header + "\n\n" + watchLossStyle.Render("fetch failed: "+m.err.Error()) +
			"\n\n" + watchDimStyle.Render("r refresh · q quit") + "\n"
	}
	if m.updated.IsZero() {
		return header + "\n\n" + watchDimStyle.Render("loading...") + "\n"
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPlayerBox(), " ", m.renderAreasBox(), " ", m.renderTopBox())

	footer := watchDimStyle.Render(fmt.Sprintf(
		"players %d · ships at sea %d · r refresh · q quit",
		m.snap.World.TotalPlayers, m.snap.World.ActiveShips))

	return header + "\n\n" + body + "\n" + footer + "\n"
}

func (m watchModel) renderPlayerBox() string {
	p := m.snap.Player
	lines := []string{
		watchHeaderStyle.Render("Balance   ") + watchMoney(p.BalanceCents),
		watchHeaderStyle.Render("Last round") + " " + watchMoney(p.LastRoundCents),
		"",
		watchHeaderStyle.Render(fmt.Sprintf("Fleet (%d)", len(p.Ships))),
	}
	for _, ship := range p.Ships {
		location := watchDimStyle.Render("docked")
		if ship.AreaID != nil {
			location = ship.AreaName
		}
		lines = append(lines, fmt.Sprintf("#%-4d %-20s %s",
			ship.FleetID, truncate(ship.ShipName, 20), location))
	}
	return watchBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m watchModel) renderAreasBox() string {
	lines := []string{
		watchHeaderStyle.Render(fmt.Sprintf("%-18s %-12s %9s %13s", "AREA", "FISH", "PRICE", "STOCK")),
	}
	for _, a := range m.snap.Areas {
		stock := watchDimStyle.Render("hidden")
		if a.MaxStock > 0 {
			stock = fmt.Sprintf("%6.0f/%.0f", a.CurrentStock, a.MaxStock)
			if a.CurrentStock < a.MaxStock*0.25 {
				stock = watchLossStyle.Render(stock)
			}
		}
		lines = append(lines, fmt.Sprintf("%-18s %-12s %9s %13s",
			truncate(a.Name, 18), truncate(a.FishType, 12), formatCents(a.PriceCents), stock))
	}
	return watchBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m watchModel) renderTopBox() string {
	lines := []string{watchHeaderStyle.Render("TOP CAPTAINS")}
	for _, row := range m.snap.Top {
		name := truncate(row.Username, 14)
		if row.UserID == m.snap.Player.UserID {
			name = watchTitleStyle.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%d. %-14s %12s", row.Rank, name, formatCents(row.BalanceCents)))
	}
	return watchBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func watchMoney(v int64) string {
	s := formatCents(v)
	if v > 0 {
		return watchGainStyle.Render(s)
	}
	if v < 0 {
		return watchLossStyle.Render(s)
	}
	return s
}
