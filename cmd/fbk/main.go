package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "fishbanks/internal/cli"
	"fishbanks/internal/config"
	"fishbanks/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "fbk",
		Short:        "FishBanks CLI game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(&apiBase),
		newDashCmd(&apiBase),
		newShipsCmd(&apiBase),
		newAreasCmd(&apiBase),
		newClanCmd(&apiBase),
		newTopCmd(&apiBase),
		newStatsCmd(&apiBase),
		newPlayersCmd(&apiBase),
		newTickCmd(&apiBase),
		newSyncCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newSignupCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a FishBanks account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			session, err := client.Register(ctx, username, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken: session.Token,
				Username:    session.User.Username,
				UserID:      session.User.ID,
				IsAdmin:     session.User.IsAdmin,
				ExpiresAt:   session.ExpiresAt,
			}); err != nil {
				return err
			}
			printSuccess("Welcome aboard! You start with $10,000 and a Small Fishing Boat.")
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to FishBanks",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Username")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			session, err := client.Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken: session.Token,
				Username:    session.User.Username,
				UserID:      session.User.ID,
				IsAdmin:     session.User.IsAdmin,
				ExpiresAt:   session.ExpiresAt,
			}); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
}

func newLogoutCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the local token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sess, err := cl.LoadSession(); err == nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				// Best effort: the local token is cleared regardless.
				_ = newClient(apiBase).Logout(ctx, sess.AccessToken)
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newDashCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show your balance, fleet and recent rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).MyStats(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			return renderDashboard(out)
		},
	}
}

func newShipsCmd(apiBase *string) *cobra.Command {
	ships := &cobra.Command{
		Use:     "ships",
		Short:   "Ship catalog and fleet commands",
		Aliases: []string{"ship"},
	}

	ships.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the ship catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).ListShips(ctx)
			if err != nil {
				return err
			}
			return renderShipCatalog(out)
		},
	})

	ships.AddCommand(&cobra.Command{
		Use:   "buy [ship_type_id]",
		Short: "Buy a ship from the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			shipTypeID, err := int64FromArgOrPrompt(args, 0, "Ship type ID")
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).BuyShip(ctx, sess.AccessToken, shipTypeID, idem)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/ships/buy",
					Body:           map[string]any{"ship_type_id": shipTypeID},
					IdempotencyKey: idem,
				})
			}
			return renderBuyResult(out)
		},
	})

	ships.AddCommand(&cobra.Command{
		Use:   "assign [fleet_id] [area_id|dock]",
		Short: "Send a ship to a fishing area, or dock it",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			fleetID, err := int64FromArgOrPrompt(args, 0, "Fleet ID")
			if err != nil {
				return err
			}
			var areaID *int64
			var target string
			if len(args) >= 2 {
				target = strings.ToLower(strings.TrimSpace(args[1]))
			} else {
				target, err = promptRequired("Area ID (or 'dock')")
				if err != nil {
					return err
				}
				target = strings.ToLower(strings.TrimSpace(target))
			}
			if target != "dock" {
				id, err := strconv.ParseInt(target, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid area id %q", target)
				}
				areaID = &id
			}

			idem := uuid.NewString()
			body := map[string]any{"fleet_id": fleetID, "area_id": areaID}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := newClient(apiBase).AssignShip(ctx, sess.AccessToken, fleetID, areaID, idem); err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/ships/assign",
					Body:           body,
					IdempotencyKey: idem,
				})
			}
			if areaID == nil {
				printSuccess(fmt.Sprintf("Ship %d docked.", fleetID))
			} else {
				printSuccess(fmt.Sprintf("Ship %d assigned to area %d.", fleetID, *areaID))
			}
			return nil
		},
	})

	return ships
}

func newAreasCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "List fishing areas and prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if sess, err := cl.LoadSession(); err == nil {
				token = sess.AccessToken
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).ListAreas(ctx, token)
			if err != nil {
				return err
			}
			return renderAreas(out, token != "")
		},
	}
}

func newClanCmd(apiBase *string) *cobra.Command {
	clan := &cobra.Command{
		Use:   "clan",
		Short: "Clan commands",
	}

	clan.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all clans",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).ListClans(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			return renderClans(out)
		},
	})

	clan.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a clan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			name, err := stringFromArgOrPrompt(args, 0, "Clan name")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).CreateClan(ctx, sess.AccessToken, name)
			if err != nil {
				return err
			}
			return renderClanCreated(out)
		},
	})

	clan.AddCommand(&cobra.Command{
		Use:   "join [clan_id]",
		Short: "Join an existing clan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			clanID, err := int64FromArgOrPrompt(args, 0, "Clan ID")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := newClient(apiBase).JoinClan(ctx, sess.AccessToken, clanID); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Joined clan %d.", clanID))
			return nil
		},
	})

	clan.AddCommand(&cobra.Command{
		Use:   "leave",
		Short: "Leave your clan",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := newClient(apiBase).LeaveClan(ctx, sess.AccessToken); err != nil {
				return err
			}
			printSuccess("Left the clan.")
			return nil
		},
	})

	clan.AddCommand(&cobra.Command{
		Use:   "rename [name]",
		Short: "Rename the clan you created",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			name, err := stringFromArgOrPrompt(args, 0, "New clan name")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := newClient(apiBase).RenameClan(ctx, sess.AccessToken, name); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Clan renamed to %s.", name))
			return nil
		},
	})

	clan.AddCommand(&cobra.Command{
		Use:   "members [clan_id]",
		Short: "List clan members",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			clanID, err := int64FromArgOrPrompt(args, 0, "Clan ID")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).ClanMembers(ctx, sess.AccessToken, clanID)
			if err != nil {
				return err
			}
			return renderClanMembers(out, clanID)
		},
	})

	return clan
}

func newTopCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			return renderLeaderboard(out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows")
	return cmd
}

func newStatsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show world statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).GameStats(ctx)
			if err != nil {
				return err
			}
			return renderGameStats(out)
		},
	}
}

func newPlayersCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "Show every player's fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).PlayersWithShips(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			return renderPlayers(out)
		},
	}
}

func newTickCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Trigger a settlement now (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			out, err := newClient(apiBase).AdminTick(ctx, sess.AccessToken)
			if err != nil {
				return err
			}
			return renderTickSummary(out)
		},
	}
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			remaining := make([]syncq.Command, 0, len(queue))
			success := 0
			for _, q := range queue {
				_, err := client.Do(ctx, q.Method, q.Path, sess.AccessToken, q.Body, q.IdempotencyKey)
				if err != nil {
					remaining = append(remaining, q)
					printError(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
					continue
				}
				success++
			}
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", success, len(remaining)))
			return nil
		},
	}
}

// queueOnNetworkError stashes writes that failed because the API was
// unreachable. Errors the server actually returned are not queued; replaying
// a rejected command will just reject again.
func queueOnNetworkError(err error, cmd syncq.Command) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "api status") {
		return err
	}
	if qErr := syncq.Push(cmd); qErr != nil {
		return fmt.Errorf("request failed (%v) and queueing failed: %w", err, qErr)
	}
	printWarn(fmt.Sprintf("API unreachable, queued for sync: %s %s", cmd.Method, cmd.Path))
	return nil
}

func stringFromArgOrPrompt(args []string, idx int, label string) (string, error) {
	if len(args) > idx {
		v := strings.TrimSpace(args[idx])
		if v == "" {
			return "", fmt.Errorf("%s is required", strings.ToLower(label))
		}
		return v, nil
	}
	return promptRequired(label)
}

func int64FromArgOrPrompt(args []string, idx int, label string) (int64, error) {
	if len(args) > idx {
		v, err := strconv.ParseInt(strings.TrimSpace(args[idx]), 10, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptInt64(label, 1)
}
