package state

import (
	"maps"
	"slices"
	"time"

	"github.com/radieske/agora-market-poc/pkg/brier"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// Limites dos buffers
const (
	MaxNotifications          = 50
	MaxPersistedNotifications = 20
	MaxGameHistory            = 50
	MaxPersistedGameHistory   = 20

	// GameRounds é o número de rodadas de uma partida
	GameRounds = 10
)

type NotificationType string

const (
	NotificationBetPlaced       NotificationType = "bet_placed"
	NotificationMarketResolved  NotificationType = "market_resolved"
	NotificationPositionUpdated NotificationType = "position_updated"
	NotificationChainMessage    NotificationType = "chain_message"
	NotificationSystem          NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationBetPlaced, NotificationMarketResolved, NotificationPositionUpdated,
		NotificationChainMessage, NotificationSystem:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp int64            `json:"timestamp"`
	Read      bool             `json:"read"`
	Data      map[string]any   `json:"data,omitempty"`
}

// NotificationInput é o que o chamador fornece; id, timestamp e read são do store
type NotificationInput struct {
	Type    NotificationType
	Title   string
	Message string
	Data    map[string]any
}

// Latency guarda os tempos simulados em milissegundos
type Latency struct {
	Mutation     int `json:"mutation"`
	Notification int `json:"notification"`
	EndToEnd     int `json:"endToEnd"`
}

func (l Latency) MutationDelay() time.Duration {
	return time.Duration(l.Mutation) * time.Millisecond
}

func (l Latency) NotificationDelay() time.Duration {
	return time.Duration(l.Notification) * time.Millisecond
}

type LatencyPatch struct {
	Mutation     *int `json:"mutation,omitempty"`
	Notification *int `json:"notification,omitempty"`
	EndToEnd     *int `json:"endToEnd,omitempty"`
}

type Market struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Category     string `json:"category"`
	YesOdds      int    `json:"yesOdds"`
	NoOdds       int    `json:"noOdds"`
	Volume       string `json:"volume"`
	Participants int    `json:"participants"`
	EndsIn       string `json:"endsIn"`
	Trending     bool   `json:"trending"`
}

// OddsFor retorna a odd (percentual) do lado escolhido
func (m Market) OddsFor(side brier.Side) int {
	if side == brier.SideNo {
		return m.NoOdds
	}
	return m.YesOdds
}

type MarketPatch struct {
	Question     *string `json:"question,omitempty"`
	Category     *string `json:"category,omitempty"`
	YesOdds      *int    `json:"yesOdds,omitempty"`
	NoOdds       *int    `json:"noOdds,omitempty"`
	Volume       *string `json:"volume,omitempty"`
	Participants *int    `json:"participants,omitempty"`
	EndsIn       *string `json:"endsIn,omitempty"`
	Trending     *bool   `json:"trending,omitempty"`
}

type PositionStatus string

const (
	PositionOpen    PositionStatus = "open"
	PositionClosed  PositionStatus = "closed"
	PositionSettled PositionStatus = "settled"
)

func (s PositionStatus) Valid() bool {
	return s == PositionOpen || s == PositionClosed || s == PositionSettled
}

type Position struct {
	ID        string         `json:"id"`
	MarketID  string         `json:"marketId"`
	Side      brier.Side     `json:"side"`
	Amount    money.Amount   `json:"amount"`
	Odds      int            `json:"odds"`
	Fees      money.Fees     `json:"fees"`
	PayoutEst money.Amount   `json:"payoutEst"`
	Timestamp int64          `json:"timestamp"`
	Status    PositionStatus `json:"status"`
}

// PositionInput é uma posição sem id/timestamp
type PositionInput struct {
	MarketID  string
	Side      brier.Side
	Amount    money.Amount
	Odds      int
	Fees      money.Fees
	PayoutEst money.Amount
	Status    PositionStatus
}

type PositionPatch struct {
	Status    *PositionStatus `json:"status,omitempty"`
	PayoutEst *money.Amount   `json:"payoutEst,omitempty"`
	Odds      *int            `json:"odds,omitempty"`
}

type GameResult struct {
	ID              string        `json:"id"`
	FinalScore      float64       `json:"finalScore"`
	PercentileScore float64       `json:"percentileScore"`
	Badge           brier.Badge   `json:"badge"`
	TotalRounds     int           `json:"totalRounds"`
	Rounds          []brier.Round `json:"rounds"`
	Timestamp       int64         `json:"timestamp"`
	Overconfident   bool          `json:"overconfident"`
	Underconfident  bool          `json:"underconfident"`
}

type CurrentGame struct {
	RoundNumber int           `json:"roundNumber"`
	Rounds      []brier.Round `json:"rounds"`
	StartedAt   int64         `json:"startedAt"`
}

type TransportMode string

const (
	TransportMock         TransportMode = "mock"
	TransportLocalReplica TransportMode = "local-replica"
	TransportCustom       TransportMode = "custom"
)

func (m TransportMode) Valid() bool {
	return m == TransportMock || m == TransportLocalReplica || m == TransportCustom
}

// Transport é só configuração de UI; nenhuma chamada de rede usa esses campos
type Transport struct {
	Mode         TransportMode `json:"mode"`
	FaucetURL    string        `json:"faucetUrl"`
	ValidatorURL string        `json:"validatorUrl"`
}

type TransportPatch struct {
	Mode         *TransportMode `json:"mode,omitempty"`
	FaucetURL    *string        `json:"faucetUrl,omitempty"`
	ValidatorURL *string        `json:"validatorUrl,omitempty"`
}

// State é o estado completo da aplicação. Reducers recebem e devolvem
// valores; slices e mapas são sempre substituídos, nunca alterados no lugar.
type State struct {
	// Chain (mock)
	ChainID     string `json:"chainId,omitempty"`
	IsConnected bool   `json:"isConnected"`
	Address     string `json:"address,omitempty"`

	Latency Latency `json:"latency"`

	Notifications []Notification `json:"notifications"`

	Markets       []Market   `json:"markets"`
	UserPositions []Position `json:"userPositions"`

	CounterValue int `json:"counterValue"`

	Balances map[string]money.Amount `json:"balances"`

	// Jogo de calibração
	BestScore   float64      `json:"bestScore"`
	TotalGames  int          `json:"totalGames"`
	GameHistory []GameResult `json:"gameHistory"`
	CurrentGame *CurrentGame `json:"currentGame"`

	// Developer drawer
	Transport              Transport `json:"transport"`
	ShowNotificationFeed   bool      `json:"showNotificationFeed"`
	ShowPerformanceMetrics bool      `json:"showPerformanceMetrics"`
}

// UnreadCount é derivado das notificações
func (s State) UnreadCount() int {
	n := 0
	for _, x := range s.Notifications {
		if !x.Read {
			n++
		}
	}
	return n
}

// Clone copia slices e mapas para que o chamador possa alterar a cópia
func (s State) Clone() State {
	c := s
	c.Notifications = slices.Clone(s.Notifications)
	for i := range c.Notifications {
		c.Notifications[i].Data = maps.Clone(c.Notifications[i].Data)
	}
	c.Markets = slices.Clone(s.Markets)
	c.UserPositions = slices.Clone(s.UserPositions)
	c.Balances = maps.Clone(s.Balances)
	c.GameHistory = slices.Clone(s.GameHistory)
	for i := range c.GameHistory {
		c.GameHistory[i].Rounds = slices.Clone(c.GameHistory[i].Rounds)
	}
	if s.CurrentGame != nil {
		cg := *s.CurrentGame
		cg.Rounds = slices.Clone(cg.Rounds)
		c.CurrentGame = &cg
	}
	return c
}

// DefaultBalances são os saldos iniciais da carteira de demo
func DefaultBalances() map[string]money.Amount {
	return map[string]money.Amount{
		string(money.AGORA):  money.Units(1000),
		string(money.USDC):   money.Units(500),
		string(money.LINERA): money.Units(250),
	}
}

// SeedMarkets são os mercados exibidos no marketplace de demo
func SeedMarkets() []Market {
	return []Market{
		{ID: "market_1", Question: "Will Bitcoin reach $150k by end of 2025?", Category: "Crypto",
			YesOdds: 67, NoOdds: 33, Volume: "$142.5K", Participants: 1247, EndsIn: "2 months", Trending: true},
		{ID: "market_2", Question: "Will AI solve protein folding this year?", Category: "Politics",
			YesOdds: 42, NoOdds: 58, Volume: "$89.2K", Participants: 834, EndsIn: "5 days"},
		{ID: "market_3", Question: "Next major tech IPO valuation over $50B?", Category: "Crypto",
			YesOdds: 55, NoOdds: 45, Volume: "$201.8K", Participants: 2103, EndsIn: "1 week", Trending: true},
		{ID: "market_4", Question: "Climate summit reaches binding agreement?", Category: "Politics",
			YesOdds: 38, NoOdds: 62, Volume: "$67.3K", Participants: 592, EndsIn: "3 weeks"},
	}
}

// Initial devolve o estado inicial da aplicação
func Initial() State {
	return State{
		Latency:       Latency{Mutation: 247, Notification: 89, EndToEnd: 336},
		Notifications: []Notification{},
		Markets:       SeedMarkets(),
		UserPositions: []Position{},
		Balances:      DefaultBalances(),
		GameHistory:   []GameResult{},
		Transport: Transport{
			Mode:         TransportMock,
			FaucetURL:    "https://faucet.devnet.linera.net",
			ValidatorURL: "https://validator.devnet.linera.net",
		},
		ShowPerformanceMetrics: true,
	}
}
