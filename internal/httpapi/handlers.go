package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/lifecycle"
	"raysentinel/internal/db"
)

// defaultBotName matches the "My First Bot" default config every new
// account is seeded with.
const defaultBotName = "My First Bot"

// Server holds the collaborators the control-plane handlers need:
// persistence, the auth service, and the lifecycle manager that owns
// activation/deactivation of a user's position slot.
type Server struct {
	Store     *db.Store
	Auth      *AuthService
	Lifecycle *lifecycle.Manager
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userView    `json:"user"`
	Bot   botConfigView `json:"bot"`
}

type userView struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

type botConfigView struct {
	ID                       uint    `json:"id"`
	Name                     string  `json:"name"`
	PoolID                   string  `json:"pool_id"`
	BuySolAmount             uint64  `json:"buy_sol_amount"`
	EntryPercent             float64 `json:"entry_percent"`
	EntrySlippage            float64 `json:"entry_slippage"`
	ExitSlippage             float64 `json:"exit_slippage"`
	StopLoss                 float64 `json:"stop_loss"`
	TakeProfit               float64 `json:"take_profit"`
	AutoExitSeconds          int64   `json:"auto_exit_seconds"`
	ConfirmService           string  `json:"confirm_service"`
	ComputeUnits             uint32  `json:"compute_units"`
	PriorityFeeMicroLamports uint64  `json:"priority_fee_micro_lamports"`
	RelayTipLamports         uint64  `json:"relay_tip_lamports"`
}

func toBotConfigView(row db.BotConfigRecord) botConfigView {
	return botConfigView{
		ID:                       row.ID,
		Name:                     row.Name,
		PoolID:                   row.PoolID,
		BuySolAmount:             row.BuySolAmount,
		EntryPercent:             row.EntryPercent,
		EntrySlippage:            row.EntrySlippage,
		ExitSlippage:             row.ExitSlippage,
		StopLoss:                 row.StopLoss,
		TakeProfit:               row.TakeProfit,
		AutoExitSeconds:          row.AutoExitSeconds,
		ConfirmService:           row.ConfirmService,
		ComputeUnits:             row.ComputeUnits,
		PriorityFeeMicroLamports: row.PriorityFeeMicroLamports,
		RelayTipLamports:         row.RelayTipLamports,
	}
}

// handleAppError writes an AppError's status/message, or falls back to
// a generic 500 for anything unclassified.
func handleAppError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// Signup creates an account, generates a fresh keypair for it, seeds a
// default bot config, and returns a bearer token — mirroring the
// original signup flow's "create user + default bot + token" sequence.
func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleAppError(c, errBadRequest(err.Error()))
		return
	}

	if _, err := s.Store.FindUserByEmail(req.Email); err == nil {
		handleAppError(c, errConflict("email already in use"))
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		handleAppError(c, errInternal("failed to hash password"))
		return
	}

	keypair, err := solana.NewRandomPrivateKey()
	if err != nil {
		handleAppError(c, errInternal("failed to generate keypair"))
		return
	}

	user := &db.UserRecord{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		PublicKey:    keypair.PublicKey().String(),
		EncryptedKey: []byte(keypair.String()),
	}
	if err := s.Store.CreateUser(user); err != nil {
		handleAppError(c, errInternal(fmt.Sprintf("failed to create user: %v", err)))
		return
	}

	bot := &db.BotConfigRecord{
		UserID:          user.ID,
		Name:            defaultBotName,
		BuySolAmount:    1_000_000, // 0.001 SOL in lamports
		EntryPercent:    0.01,
		EntrySlippage:   5.0,
		ExitSlippage:    100.0,
		StopLoss:        0.01,
		TakeProfit:      0.01,
		AutoExitSeconds: 3600,
		ConfirmService:  string(domain.ConfirmServiceJito),
		ComputeUnits:    300000,
	}
	if err := s.Store.UpsertBotConfig(bot); err != nil {
		handleAppError(c, errInternal(fmt.Sprintf("failed to seed bot config: %v", err)))
		return
	}

	token, err := s.Auth.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		handleAppError(c, errInternal("failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		Token: token,
		User:  userView{ID: user.ID, Email: user.Email, Username: user.Username, PublicKey: user.PublicKey},
		Bot:   toBotConfigView(*bot),
	})
}

// Signin verifies credentials and returns a fresh bearer token plus
// the caller's first bot config.
func (s *Server) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleAppError(c, errBadRequest(err.Error()))
		return
	}

	user, err := s.Store.FindUserByEmail(req.Email)
	if err != nil {
		handleAppError(c, errUnauthorized("invalid email or password"))
		return
	}
	if !ComparePassword(user.PasswordHash, req.Password) {
		handleAppError(c, errUnauthorized("invalid email or password"))
		return
	}

	bots, err := s.Store.ListBotConfigs(user.ID)
	if err != nil {
		handleAppError(c, errInternal("failed to load bot configs"))
		return
	}

	token, err := s.Auth.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		handleAppError(c, errInternal("failed to issue token"))
		return
	}

	resp := authResponse{
		Token: token,
		User:  userView{ID: user.ID, Email: user.Email, Username: user.Username, PublicKey: user.PublicKey},
	}
	if len(bots) > 0 {
		resp.Bot = toBotConfigView(bots[0])
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated caller's profile.
func (s *Server) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}
	user, err := s.Store.FindUserByID(userID)
	if err != nil {
		handleAppError(c, errNotFound("user not found"))
		return
	}
	c.JSON(http.StatusOK, userView{ID: user.ID, Email: user.Email, Username: user.Username, PublicKey: user.PublicKey})
}

// ListBots returns every bot config owned by the authenticated caller.
func (s *Server) ListBots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}
	rows, err := s.Store.ListBotConfigs(userID)
	if err != nil {
		handleAppError(c, errInternal("failed to list bot configs"))
		return
	}
	views := make([]botConfigView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toBotConfigView(row))
	}
	c.JSON(http.StatusOK, views)
}

type updateTradingParamsRequest struct {
	Name            string   `json:"name" binding:"required"`
	PoolID          *string  `json:"pool_id"`
	BuySolAmount    *uint64  `json:"buy_sol_amount"`
	EntryPercent    *float64 `json:"entry_percent"`
	EntrySlippage   *float64 `json:"entry_slippage"`
	ExitSlippage    *float64 `json:"exit_slippage"`
	StopLoss        *float64 `json:"stop_loss"`
	TakeProfit      *float64 `json:"take_profit"`
	AutoExitSeconds *int64   `json:"auto_exit_seconds"`
}

// UpdateTradingParams patches the entry/exit economics of one named bot
// config, split out from the MEV knobs the way the original
// update_trading_params/update_mev_config pair does.
func (s *Server) UpdateTradingParams(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}

	var req updateTradingParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleAppError(c, errBadRequest(err.Error()))
		return
	}

	row, err := s.findBotConfig(userID, req.Name)
	if err != nil {
		handleAppError(c, err)
		return
	}

	if req.PoolID != nil {
		row.PoolID = *req.PoolID
	}
	if req.BuySolAmount != nil {
		row.BuySolAmount = *req.BuySolAmount
	}
	if req.EntryPercent != nil {
		row.EntryPercent = *req.EntryPercent
	}
	if req.EntrySlippage != nil {
		row.EntrySlippage = *req.EntrySlippage
	}
	if req.ExitSlippage != nil {
		row.ExitSlippage = *req.ExitSlippage
	}
	if req.StopLoss != nil {
		row.StopLoss = *req.StopLoss
	}
	if req.TakeProfit != nil {
		row.TakeProfit = *req.TakeProfit
	}
	if req.AutoExitSeconds != nil {
		row.AutoExitSeconds = *req.AutoExitSeconds
	}

	if err := s.Store.UpsertBotConfig(&row); err != nil {
		handleAppError(c, errInternal("failed to update bot config"))
		return
	}
	c.JSON(http.StatusOK, toBotConfigView(row))
}

type updateMevConfigRequest struct {
	Name                     string  `json:"name" binding:"required"`
	ConfirmService           *string `json:"confirm_service"`
	ComputeUnits             *uint32 `json:"compute_units"`
	PriorityFeeMicroLamports *uint64 `json:"priority_fee_micro_lamports"`
	RelayTipLamports         *uint64 `json:"relay_tip_lamports"`
}

// UpdateMevConfig patches the relay/compute knobs of one named bot config.
func (s *Server) UpdateMevConfig(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}

	var req updateMevConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleAppError(c, errBadRequest(err.Error()))
		return
	}

	row, err := s.findBotConfig(userID, req.Name)
	if err != nil {
		handleAppError(c, err)
		return
	}

	if req.ConfirmService != nil {
		row.ConfirmService = *req.ConfirmService
	}
	if req.ComputeUnits != nil {
		row.ComputeUnits = *req.ComputeUnits
	}
	if req.PriorityFeeMicroLamports != nil {
		row.PriorityFeeMicroLamports = *req.PriorityFeeMicroLamports
	}
	if req.RelayTipLamports != nil {
		row.RelayTipLamports = *req.RelayTipLamports
	}

	if err := s.Store.UpsertBotConfig(&row); err != nil {
		handleAppError(c, errInternal("failed to update bot config"))
		return
	}
	c.JSON(http.StatusOK, toBotConfigView(row))
}

func (s *Server) findBotConfig(userID uint, name string) (db.BotConfigRecord, error) {
	rows, err := s.Store.ListBotConfigs(userID)
	if err != nil {
		return db.BotConfigRecord{}, errInternal("failed to load bot config")
	}
	for _, row := range rows {
		if row.Name == name {
			return row, nil
		}
	}
	return db.BotConfigRecord{}, errNotFound(fmt.Sprintf("bot config %q not found", name))
}

// StartBot activates the engine for the authenticated caller's email
// identity — the user id lifecycle.Manager keys positions on.
func (s *Server) StartBot(c *gin.Context) {
	email := currentEmail(c)
	if email == "" {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}
	if err := s.Lifecycle.Activate(email, 0); err != nil {
		handleAppError(c, errInternal(fmt.Sprintf("failed to start bot: %v", err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// StopBot requests deactivation; when the user is long it only flags
// the next SELL as forced and leaves the slot in place for the
// lifecycle manager to finish by itself.
func (s *Server) StopBot(c *gin.Context) {
	poolID := c.Query("pool_id")
	if poolID == "" {
		handleAppError(c, errBadRequest("pool_id query parameter is required"))
		return
	}
	email := currentEmail(c)
	if email == "" {
		handleAppError(c, errUnauthorized("missing user context"))
		return
	}
	if err := s.Lifecycle.Stop(poolID, email); err != nil {
		handleAppError(c, errInternal(fmt.Sprintf("failed to stop bot: %v", err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

// TradesData returns the most recent trade records across all users,
// bounded by an optional ?limit= query parameter.
func (s *Server) TradesData(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))
	rows, err := s.Store.RecentTrades(limit)
	if err != nil {
		handleAppError(c, errInternal("failed to load trades"))
		return
	}
	c.JSON(http.StatusOK, rows)
}

// TradesForUser returns the realized trade history for one user id.
func (s *Server) TradesForUser(c *gin.Context) {
	userID := c.Param("id")
	limit := parseLimit(c.Query("limit"))
	rows, err := s.Store.TradesForUser(userID, limit)
	if err != nil {
		handleAppError(c, errInternal("failed to load trades"))
		return
	}
	c.JSON(http.StatusOK, rows)
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
