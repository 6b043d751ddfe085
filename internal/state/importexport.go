package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/radieske/agora-market-poc/internal/shared/validation"
	"github.com/radieske/agora-market-poc/pkg/money"
)

// ErrInvalidJSON indica um arquivo de import que não é JSON válido
var ErrInvalidJSON = errors.New("file must be valid JSON")

// ExportFile é o arquivo baixado pelo developer drawer
type ExportFile struct {
	CounterValue  int                     `json:"counterValue"`
	Balances      map[string]money.Amount `json:"balances"`
	UserPositions []Position              `json:"userPositions"`
	Transport     Transport               `json:"transport"`
	ExportedAt    string                  `json:"exportedAt"`
}

// ImportFile é o schema aceito no import; todos os campos são opcionais
type ImportFile struct {
	CounterValue  *int             `json:"counterValue"`
	Balances      ImportBalances   `json:"balances"`
	UserPositions []Position       `json:"userPositions"`
	Transport     *ImportTransport `json:"transport"`
}

// ImportBalances só aceita números JSON como saldo
type ImportBalances map[string]money.Amount

func (b *ImportBalances) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*b = nil
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(ImportBalances, len(raw))
	for _, k := range keys {
		field := "balances." + k
		if kind := jsonKind(raw[k]); kind != "number" {
			return &validation.Error{Field: field, Message: fmt.Sprintf("%s: expected number, received %s", field, kind)}
		}
		var a money.Amount
		if err := a.UnmarshalJSON(raw[k]); err != nil {
			return &validation.Error{Field: field, Message: fmt.Sprintf("%s: %v", field, err)}
		}
		out[k] = a
	}
	*b = out
	return nil
}

// jsonKind nomeia o tipo de um valor JSON bruto pelo primeiro byte
func jsonKind(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "undefined"
	}
	switch v[0] {
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	case '{':
		return "object"
	case '[':
		return "array"
	}
	return "number"
}

type ImportTransport struct {
	Mode         TransportMode `json:"mode" validate:"required,oneof=mock local-replica custom" msg:"required=transport.mode is required;oneof=transport.mode must be one of mock, local-replica, custom"`
	FaucetURL    *string       `json:"faucetUrl" validate:"required" msg:"required=transport.faucetUrl is required"`
	ValidatorURL *string       `json:"validatorUrl" validate:"required" msg:"required=transport.validatorUrl is required"`
}

// isoMillis é RFC3339 com milissegundos fixos (2025-01-02T15:04:05.000Z)
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Export monta o arquivo de export a partir do estado atual
func (s *Store) Export(now time.Time) ExportFile {
	st := s.Snapshot()
	positions := st.UserPositions
	if positions == nil {
		positions = []Position{}
	}
	return ExportFile{
		CounterValue:  st.CounterValue,
		Balances:      st.Balances,
		UserPositions: positions,
		Transport:     st.Transport,
		ExportedAt:    now.UTC().Format(isoMillis),
	}
}

// ParseImport decodifica e valida um arquivo de import sem aplicá-lo
func ParseImport(data []byte) (ImportFile, error) {
	var in ImportFile
	if err := json.Unmarshal(data, &in); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) || errors.Is(err, io.ErrUnexpectedEOF) || !json.Valid(data) {
			return ImportFile{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return ImportFile{}, typeError(err)
	}
	if err := validation.Struct(in); err != nil {
		return ImportFile{}, err
	}
	return in, nil
}

// typeError converte erro de tipo do decoder em erro de validação
func typeError(err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return &validation.Error{
			Field:   ute.Field,
			Message: fmt.Sprintf("%s: expected %s, received %s", ute.Field, ute.Type, ute.Value),
		}
	}
	return &validation.Error{Field: "", Message: err.Error()}
}

// Import valida data e mescla os campos presentes no estado atual.
// Transport é mesclado sobre o atual; os demais campos substituem.
func (s *Store) Import(ctx context.Context, data []byte) (State, error) {
	in, err := ParseImport(data)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.dispatch(ctx, "import", applyImport(in))
}

func applyImport(in ImportFile) Reducer {
	return func(s State) (State, error) {
		if in.CounterValue != nil {
			s.CounterValue = *in.CounterValue
		}
		if in.Balances != nil {
			s.Balances = cloneBalances(in.Balances)
		}
		if in.UserPositions != nil {
			s.UserPositions = append([]Position(nil), in.UserPositions...)
		}
		if t := in.Transport; t != nil {
			s.Transport.Mode = t.Mode
			s.Transport.FaucetURL = *t.FaucetURL
			s.Transport.ValidatorURL = *t.ValidatorURL
		}
		return s, nil
	}
}
