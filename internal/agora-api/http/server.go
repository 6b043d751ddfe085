package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/agora-market-poc/internal/agora-api/dto"
	"github.com/radieske/agora-market-poc/internal/betting"
	"github.com/radieske/agora-market-poc/internal/counter"
	"github.com/radieske/agora-market-poc/internal/game"
	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/internal/state"
	"github.com/radieske/agora-market-poc/internal/wallet"
	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/money"
)

const maxBody = 1 << 20

var errBadJSON = errors.New("bad json")

// Server expõe o estado da aplicação e os demos via HTTP
type Server struct {
	log     *zap.Logger
	store   *state.Store
	bets    *betting.Service
	wallet  *wallet.Service
	counter *counter.Service
	game    *game.Engine
	ws      http.HandlerFunc
	now     func() time.Time
}

type Deps struct {
	Store   *state.Store
	Bets    *betting.Service
	Wallet  *wallet.Service
	Counter *counter.Service
	Game    *game.Engine
	WS      http.HandlerFunc // nil desliga /ws
}

func NewServer(log *zap.Logger, d Deps) *Server {
	return &Server{
		log:     log,
		store:   d.Store,
		bets:    d.Bets,
		wallet:  d.Wallet,
		counter: d.Counter,
		game:    d.Game,
		ws:      d.WS,
		now:     time.Now,
	}
}

// Router retorna o mux HTTP com todas as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /state", s.getState)
	mux.HandleFunc("GET /state/export", s.exportState)
	mux.HandleFunc("POST /state/import", s.importState)

	mux.HandleFunc("POST /chain/connect", s.connectChain)
	mux.HandleFunc("POST /chain/disconnect", s.disconnectChain)

	mux.HandleFunc("GET /markets", s.listMarkets)
	mux.HandleFunc("GET /markets/{id}", s.getMarket)
	mux.HandleFunc("GET /positions", s.listPositions)

	mux.HandleFunc("POST /bets", s.placeBet)
	mux.HandleFunc("GET /bets/fees", s.quoteBet) // ?amount=&odds= ou ?amount=&marketId=&side=

	mux.HandleFunc("POST /wallet/transfer", s.transfer)
	mux.HandleFunc("GET /wallet/balances", s.balances)

	mux.HandleFunc("POST /counter/{action}", s.counterAction)

	mux.HandleFunc("GET /game", s.getGame)
	mux.HandleFunc("POST /game/start", s.startGame)
	mux.HandleFunc("POST /game/rounds", s.submitRound)
	mux.HandleFunc("POST /game/finish", s.finishGame)
	mux.HandleFunc("POST /game/abandon", s.abandonGame)
	mux.HandleFunc("GET /game/history", s.gameHistory)

	mux.HandleFunc("GET /notifications", s.listNotifications)
	mux.HandleFunc("POST /notifications/read", s.markRead)
	mux.HandleFunc("POST /notifications/read-all", s.markAllRead)
	mux.HandleFunc("POST /notifications/clear", s.clearNotifications)

	mux.HandleFunc("POST /dev/transport", s.setTransport)
	mux.HandleFunc("POST /dev/latency", s.updateLatency)
	mux.HandleFunc("POST /dev/latency/jitter", s.jitterLatency)
	mux.HandleFunc("POST /dev/toggles", s.toggle)

	if s.ws != nil {
		mux.HandleFunc("GET /ws", s.ws)
	}
	return withCORS(withLogging(s.log, mux))
}

// ---- estado ----

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, dto.StateResponse{State: st, UnreadCount: st.UnreadCount()})
}

func (s *Server) exportState(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="agora-state-%d.json"`, now.UnixMilli()))
	writeJSON(w, http.StatusOK, s.store.Export(now))
}

func (s *Server) importState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadJSON, err))
		return
	}
	st, err := s.store.Import(r.Context(), body)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.Is(err, state.ErrInvalidJSON):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid JSON file: file must be valid JSON"})
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed: " + verr.Message, Field: verr.Field})
		default:
			writeError(w, err)
		}
		return
	}
	s.log.Info("state imported")
	writeJSON(w, http.StatusOK, dto.StateResponse{State: st, UnreadCount: st.UnreadCount()})
}

// ---- chain (mock) ----

func (s *Server) connectChain(w http.ResponseWriter, r *http.Request) {
	var req dto.ConnectChainRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.ConnectChain(r.Context(), req.ChainID, req.Address); err != nil {
		writeError(w, err)
		return
	}
	s.getState(w, r)
}

func (s *Server) disconnectChain(w http.ResponseWriter, r *http.Request) {
	s.store.DisconnectChain(r.Context())
	s.getState(w, r)
}

// ---- mercados / posições ----

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Markets())
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, ok := s.store.Market(id)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", state.ErrMarketNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, dto.MarketDetailResponse{Market: m, Positions: s.store.PositionsByMarket(id)})
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("marketId"); id != "" {
		writeJSON(w, http.StatusOK, s.store.PositionsByMarket(id))
		return
	}
	writeJSON(w, http.StatusOK, s.store.Positions())
}

// ---- apostas ----

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req betting.BetRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.bets.PlaceBet(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) quoteBet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := money.ToInt(q.Get("amount"))
	if err != nil {
		writeError(w, &validation.Error{Field: "amount", Message: "amount must be a decimal number"})
		return
	}

	var odds int
	if id := q.Get("marketId"); id != "" {
		m, ok := s.store.Market(id)
		if !ok {
			writeError(w, fmt.Errorf("%w: %s", state.ErrMarketNotFound, id))
			return
		}
		side := brier.Side(q.Get("side"))
		if side != brier.SideYes && side != brier.SideNo {
			writeError(w, &validation.Error{Field: "side", Message: "Pick YES or NO"})
			return
		}
		odds = m.OddsFor(side)
	} else if odds, err = strconv.Atoi(q.Get("odds")); err != nil {
		writeError(w, &validation.Error{Field: "odds", Message: "odds must be an integer between 1 and 100"})
		return
	}

	quote, err := betting.QuoteBet(amount, odds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ---- carteira ----

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req wallet.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.wallet.Transfer(r.Context(), req)
	if errors.Is(err, wallet.ErrChainFailure) {
		// a falha simulada devolve o resultado com a etapa alcançada
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) balances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.BalancesResponse{Balances: s.wallet.Balances()})
}

// ---- contador ----

func (s *Server) counterAction(w http.ResponseWriter, r *http.Request) {
	v, err := s.counter.Apply(r.Context(), counter.Action(r.PathValue("action")))
	if err != nil {
		if errors.Is(err, state.ErrInvalidInput) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CounterResponse{Value: v})
}

// ---- jogo ----

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	cg, ok := s.game.Current()
	if !ok {
		writeJSON(w, http.StatusOK, dto.GameResponse{})
		return
	}
	sc, _ := s.game.RunningScore()
	writeJSON(w, http.StatusOK, dto.GameResponse{Active: true, CurrentGame: &cg, Score: &sc})
}

func (s *Server) startGame(w http.ResponseWriter, r *http.Request) {
	cg := s.game.Start(r.Context())
	writeJSON(w, http.StatusCreated, dto.GameResponse{Active: true, CurrentGame: &cg})
}

func (s *Server) submitRound(w http.ResponseWriter, r *http.Request) {
	var req game.SubmitRequest
	if !decode(w, r, &req) {
		return
	}
	round, err := s.game.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	sc, _ := s.game.RunningScore()
	writeJSON(w, http.StatusOK, dto.RoundResponse{Round: round, Score: sc})
}

func (s *Server) finishGame(w http.ResponseWriter, r *http.Request) {
	res, err := s.game.Finish(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FinishResponse{
		Result:    res,
		BadgeInfo: brier.BadgeInfo(res.Badge),
		Advice:    brier.GetCalibrationAdvice(res.Rounds),
	})
}

func (s *Server) abandonGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Abandon(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "abandoned"})
}

func (s *Server) gameHistory(w http.ResponseWriter, r *http.Request) {
	resp := dto.HistoryResponse{Stats: s.game.History()}
	if adv, err := s.game.Advice(); err == nil {
		resp.Advice = &adv
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- notificações ----

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NotificationsResponse{
		Notifications: s.store.Notifications(),
		UnreadCount:   s.store.UnreadCount(),
	})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkReadRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	s.listNotifications(w, r)
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	s.store.MarkAllNotificationsRead(r.Context())
	s.listNotifications(w, r)
}

func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	s.store.ClearNotifications(r.Context())
	s.listNotifications(w, r)
}

// ---- developer drawer ----

func (s *Server) setTransport(w http.ResponseWriter, r *http.Request) {
	var req state.TransportPatch
	if !decode(w, r, &req) {
		return
	}
	t, err := s.store.SetTransport(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateLatency(w http.ResponseWriter, r *http.Request) {
	var req state.LatencyPatch
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.UpdateLatency(r.Context(), req))
}

func (s *Server) jitterLatency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.JitterLatency(r.Context(), nil))
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleRequest
	if !decode(w, r, &req) {
		return
	}
	switch req.Toggle {
	case dto.ToggleNotificationFeed:
		s.store.ToggleNotificationFeed(r.Context())
	case dto.TogglePerformanceMetrics:
		s.store.TogglePerformanceMetrics(r.Context())
	default:
		writeError(w, &validation.Error{Field: "toggle", Message: "toggle must be one of: notificationFeed, performanceMetrics"})
		return
	}
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, dto.ToggleResponse{
		ShowNotificationFeed:   st.ShowNotificationFeed,
		ShowPerformanceMetrics: st.ShowPerformanceMetrics,
	})
}

// ---- helpers ----

// decode lê o corpo JSON; em erro já responde 400
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadJSON, err))
		return false
	}
	return true
}

// statusFor traduz erros de domínio para códigos HTTP
func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errBadJSON),
		errors.Is(err, state.ErrInvalidInput),
		errors.Is(err, state.ErrInvalidJSON),
		errors.Is(err, money.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrMarketNotFound),
		errors.Is(err, state.ErrPositionNotFound),
		errors.Is(err, state.ErrNotificationNotFound),
		errors.Is(err, state.ErrUnknownToken),
		errors.Is(err, game.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, betting.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, state.ErrInsufficientBalance),
		errors.Is(err, state.ErrNoActiveGame),
		errors.Is(err, state.ErrGameComplete),
		errors.Is(err, state.ErrGameIncomplete):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrChainFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	resp := dto.ErrorResponse{Error: err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if errors.Is(err, betting.ErrInsufficientBalance) || errors.Is(err, wallet.ErrInsufficientBalance) ||
		errors.Is(err, state.ErrInsufficientBalance) {
		resp.Error = "Insufficient balance"
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
