package dto

type ConnectChainRequest struct {
	ChainID string `json:"chainId"`
	Address string `json:"address"`
}

type MarkReadRequest struct {
	ID string `json:"id"`
}

// ToggleRequest alterna uma flag do developer drawer
type ToggleRequest struct {
	Toggle string `json:"toggle"` // notificationFeed | performanceMetrics
}

const (
	ToggleNotificationFeed   = "notificationFeed"
	TogglePerformanceMetrics = "performanceMetrics"
)
