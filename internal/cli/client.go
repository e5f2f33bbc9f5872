package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fishbanks/internal/auth"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Register(ctx context.Context, username, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": username,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, username, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/auth/logout", accessToken, map[string]any{}, nil, "")
}

func (c *Client) MyStats(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/me/stats", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) GameStats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/game/stats", "", nil, &out, "")
	return out, err
}

func (c *Client) ListShips(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/ships", "", nil, &out, "")
	return out, err
}

func (c *Client) ListAreas(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/areas", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) BuyShip(ctx context.Context, accessToken string, shipTypeID int64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/ships/buy", accessToken, map[string]any{
		"ship_type_id": shipTypeID,
	}, &out, idem)
	return out, err
}

func (c *Client) AssignShip(ctx context.Context, accessToken string, fleetID int64, areaID *int64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/ships/assign", accessToken, map[string]any{
		"fleet_id": fleetID,
		"area_id":  areaID,
	}, &out, idem)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) (map[string]any, error) {
	path := "/v1/leaderboard"
	if limit > 0 {
		path = fmt.Sprintf("/v1/leaderboard?limit=%d", limit)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, "", nil, &out, "")
	return out, err
}

func (c *Client) PlayersWithShips(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/players/ships", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) ListClans(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/clans", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) CreateClan(ctx context.Context, accessToken, name string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clans", accessToken, map[string]any{
		"name": name,
	}, &out, "")
	return out, err
}

func (c *Client) JoinClan(ctx context.Context, accessToken string, clanID int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clans/join", accessToken, map[string]any{
		"clan_id": clanID,
	}, &out, "")
	return out, err
}

func (c *Client) LeaveClan(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clans/leave", accessToken, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) RenameClan(ctx context.Context, accessToken, name string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clans/rename", accessToken, map[string]any{
		"name": name,
	}, &out, "")
	return out, err
}

func (c *Client) ClanMembers(ctx context.Context, accessToken string, clanID int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/clans/%d/members", clanID), accessToken, nil, &out, "")
	return out, err
}

func (c *Client) AdminTick(ctx context.Context, accessToken string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/tick", accessToken, map[string]any{}, &out, "")
	return out, err
}

// Do replays an arbitrary queued command. Used by sync.
func (c *Client) Do(ctx context.Context, method, path, accessToken string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, accessToken, body, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
