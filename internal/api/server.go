package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fishbanks/internal/auth"
	"fishbanks/internal/config"
	"fishbanks/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

type UserContext struct {
	User  auth.User
	Token string
}

// TickListener gets the summary of every settled tick, after commit. Used
// for the Discord notifier; the websocket hub is wired in directly.
type TickListener interface {
	TickSettled(summary game.TickSummary)
}

type Server struct {
	cfg       config.APIConfig
	log       *slog.Logger
	auth      *auth.Manager
	game      *game.Service
	hub       *Hub
	listeners []TickListener
	mux       *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, authMgr *auth.Manager, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		auth: authMgr,
		game: gameSvc,
		hub:  NewHub(logger),
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) AddTickListener(l TickListener) {
	s.listeners = append(s.listeners, l)
}

// SettleTick runs one settlement and fans the result out to websocket
// clients and registered listeners. Both the scheduler and the admin
// endpoint come through here.
func (s *Server) SettleTick(ctx context.Context, trigger game.TickTrigger) (game.TickSummary, error) {
	summary, err := s.game.RunTick(ctx, trigger)
	if err != nil {
		return summary, err
	}
	s.hub.BroadcastTick(summary)
	for _, l := range s.listeners {
		l.TickSettled(summary)
	}
	return summary, nil
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ws_clients": s.hub.ClientCount()})
	})

	r.Get("/ws", s.hub.HandleWS)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/game/stats", s.handleGameStats)
		r.Get("/areas", s.handleAreas)
		r.Get("/ships", s.handleShipCatalog)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Get("/me/stats", s.handleMyStats)
			r.Post("/ships/buy", s.handleBuyShip)
			r.Post("/ships/assign", s.handleAssignShip)
			r.Get("/players/ships", s.handlePlayersWithShips)

			r.Get("/clans", s.handleListClans)
			r.Post("/clans", s.handleCreateClan)
			r.Post("/clans/join", s.handleJoinClan)
			r.Post("/clans/leave", s.handleLeaveClan)
			r.Post("/clans/rename", s.handleRenameClan)
			r.Get("/clans/{id}/members", s.handleClanMembers)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.adminMiddleware)
			r.Post("/admin/tick", s.handleAdminTick)
			r.Get("/admin/areas", s.handleAdminAreas)
			r.Post("/admin/areas", s.handleAdminCreateArea)
			r.Post("/admin/areas/{id}/stock/reset", s.handleAdminResetStock)
			r.Post("/admin/areas/{id}/stock/add", s.handleAdminAddStock)
			r.Post("/admin/areas/{id}/regen", s.handleAdminSetRegen)
			r.Post("/admin/areas/{id}/price", s.handleAdminSetPrice)
			r.Post("/admin/ship-types/{id}/operating-cost", s.handleAdminSetOperatingCost)
			r.Get("/admin/users", s.handleAdminListUsers)
			r.Post("/admin/users/{id}/balance", s.handleAdminAdjustBalance)
			r.Post("/admin/users/{id}/ships", s.handleAdminGrantShip)
			r.Delete("/admin/users/{id}/ships/{fleet_id}", s.handleAdminRemoveShip)
			r.Delete("/admin/clans/{id}", s.handleAdminDeleteClan)
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.auth.Verify(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, UserContext{User: user, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil || !user.User.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) (UserContext, error) {
	v := ctx.Value(userContextKey)
	user, ok := v.(UserContext)
	if !ok || user.User.ID == 0 {
		return UserContext{}, errors.New("missing auth context")
	}
	return user, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.auth.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.SetupPlayer(r.Context(), session.User.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := s.game.SetupPlayer(r.Context(), session.User.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := s.auth.Logout(r.Context(), user.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user.User)
}

func (s *Server) handleGameStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.GameStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAreas is public, but stock numbers only show up for a valid session.
func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	includeStock := false
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		if _, err := s.auth.Verify(r.Context(), token); err == nil {
			includeStock = true
		}
	}
	out, err := s.game.ListAreas(r.Context(), includeStock)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"areas": out})
}

func (s *Server) handleShipCatalog(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.ShipCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ships": out})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.game.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.game.PlayerStats(r.Context(), user.User.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyShip(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		ShipTypeID int64 `json:"ship_type_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.game.BuyShip(r.Context(), game.BuyShipInput{
		UserID:         user.User.ID,
		ShipTypeID:     in.ShipTypeID,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAssignShip(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		FleetID int64  `json:"fleet_id"`
		AreaID  *int64 `json:"area_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.AssignShip(r.Context(), game.AssignShipInput{
		UserID:         user.User.ID,
		FleetID:        in.FleetID,
		AreaID:         in.AreaID,
		IdempotencyKey: idempotencyKey(r),
	}); err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePlayersWithShips(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.PlayersWithShips(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) handleListClans(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.ListClans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clans": out})
}

func (s *Server) handleCreateClan(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.CreateClan(r.Context(), user.User.ID, in.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleJoinClan(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		ClanID int64 `json:"clan_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.JoinClan(r.Context(), user.User.ID, in.ClanID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLeaveClan(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := s.game.LeaveClan(r.Context(), user.User.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRenameClan(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.RenameClan(r.Context(), user.User.ID, in.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleClanMembers(w http.ResponseWriter, r *http.Request) {
	clanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid clan id")
		return
	}
	out, err := s.game.ClanMembers(r.Context(), clanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleAdminTick(w http.ResponseWriter, r *http.Request) {
	summary, err := s.SettleTick(r.Context(), game.TickManual)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAdminAreas(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.AdminAreaStocks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"areas": out})
}

func (s *Server) handleAdminCreateArea(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name         string  `json:"name"`
		AreaType     string  `json:"area_type"`
		FishType     string  `json:"fish_type"`
		CurrentStock float64 `json:"current_stock"`
		MaxStock     float64 `json:"max_stock"`
		PriceCents   int64   `json:"price_cents"`
		RegenRate    float64 `json:"regen_rate"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.AdminCreateArea(r.Context(), game.CreateAreaInput{
		Name:         in.Name,
		AreaType:     in.AreaType,
		FishType:     in.FishType,
		CurrentStock: in.CurrentStock,
		MaxStock:     in.MaxStock,
		PriceCents:   in.PriceCents,
		RegenRate:    in.RegenRate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleAdminResetStock(w http.ResponseWriter, r *http.Request) {
	s.handleAdminStockChange(w, r, s.game.AdminResetAreaStock)
}

func (s *Server) handleAdminAddStock(w http.ResponseWriter, r *http.Request) {
	s.handleAdminStockChange(w, r, s.game.AdminAddStock)
}

func (s *Server) handleAdminStockChange(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, float64) (float64, error)) {
	areaID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}
	var in struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock, err := fn(r.Context(), areaID, in.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusOK, map[string]any{"current_stock": stock})
}

func (s *Server) handleAdminSetRegen(w http.ResponseWriter, r *http.Request) {
	areaID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}
	var in struct {
		RegenRate float64 `json:"regen_rate"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.AdminSetRegenRate(r.Context(), areaID, in.RegenRate); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminSetPrice(w http.ResponseWriter, r *http.Request) {
	areaID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}
	var in struct {
		PriceCents int64 `json:"price_cents"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.AdminSetPrice(r.Context(), areaID, in.PriceCents); err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminSetOperatingCost(w http.ResponseWriter, r *http.Request) {
	shipTypeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ship type id")
		return
	}
	var in struct {
		OperatingCostCents int64 `json:"operating_cost_cents"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.AdminSetOperatingCost(r.Context(), shipTypeID, in.OperatingCostCents); err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.BroadcastUpdate()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.AdminListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleAdminAdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var in struct {
		DeltaCents int64 `json:"delta_cents"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := s.game.AdminAdjustBalance(r.Context(), userID, in.DeltaCents)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance_cents": balance})
}

func (s *Server) handleAdminGrantShip(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var in struct {
		ShipTypeID int64 `json:"ship_type_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fleetID, err := s.game.AdminGrantShip(r.Context(), userID, in.ShipTypeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"fleet_id": fleetID})
}

func (s *Server) handleAdminRemoveShip(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	fleetID, err := pathID(r, "fleet_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fleet id")
		return
	}
	if err := s.game.AdminRemoveShip(r.Context(), userID, fleetID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminDeleteClan(w http.ResponseWriter, r *http.Request) {
	clanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid clan id")
		return
	}
	if err := s.game.AdminDeleteClan(r.Context(), clanID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency), errors.Is(err, game.ErrTxConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrAlreadyInClan):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnauthorized), errors.Is(err, game.ErrNotClanCreator):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrShipTypeNotFound), errors.Is(err, game.ErrShipNotFound),
		errors.Is(err, game.ErrAreaNotFound), errors.Is(err, game.ErrClanNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAreaExists), errors.Is(err, game.ErrClanNameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
