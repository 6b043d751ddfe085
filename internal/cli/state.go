package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/radieske/agora-market-poc/internal/state"
)

const defaultURL = "http://localhost:8080"

var httpClient = &http.Client{Timeout: 15 * time.Second}

type validateOutput struct {
	File      string `json:"file"`
	Valid     bool   `json:"valid"`
	Counter   *int   `json:"counterValue,omitempty"`
	Balances  int    `json:"balances"`
	Positions int    `json:"positions"`
	Transport string `json:"transport,omitempty"`
}

func StateCommand() *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Validate, export and import state files",
	}

	stateCmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a state file offline with the same rules as the API import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			in, err := state.ParseImport(b)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := validateOutput{
				File:      args[0],
				Valid:     true,
				Counter:   in.CounterValue,
				Balances:  len(in.Balances),
				Positions: len(in.UserPositions),
			}
			if in.Transport != nil {
				out.Transport = string(in.Transport.Mode)
			}
			return render(cmd.OutOrStdout(), out)
		},
	})

	var url, out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the state export from a running agora-api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(cmd.Context(), http.MethodGet, endpoint(url, "/state/export"), nil)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(body))
			return nil
		},
	}
	export.Flags().StringVar(&url, "url", defaultURL, "agora-api base URL")
	export.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	var importURL string
	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a state file to a running agora-api",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// valida local antes de enviar
			if _, err := state.ParseImport(b); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if _, err := call(cmd.Context(), http.MethodPost, endpoint(importURL, "/state/import"), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}
	imp.Flags().StringVar(&importURL, "url", defaultURL, "agora-api base URL")

	stateCmd.AddCommand(export, imp)
	return stateCmd
}

func endpoint(base, path string) string { return strings.TrimRight(base, "/") + path }

// call faz a requisição e devolve o corpo; status >= 400 vira erro com a
// mensagem do ErrorResponse quando houver
func call(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s %s: %s", method, url, e.Error)
		}
		return nil, fmt.Errorf("%s %s: %s", method, url, resp.Status)
	}
	return b, nil
}
