package events

// TransferCompleted é emitido quando a transferência de demo assenta
type TransferCompleted struct {
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	ToAddress string `json:"to_address"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// TransferFailed é emitido quando a falha simulada interrompe a transferência
type TransferFailed struct {
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	ToAddress string `json:"to_address"`
	Step      string `json:"step"` // building | submitting
	Reason    string `json:"reason"`
}
