package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/engine"
)

// callClient posts engine requests to a running gateway.
type callClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newCallClient(server string) (*callClient, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if server == "" {
		server = fmt.Sprintf("http://127.0.0.1:%d", cfg.Gateway.Port)
	}
	return &callClient{
		baseURL: server,
		token:   cfg.Gateway.Auth.Token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (c *callClient) post(path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errBody.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return json.Unmarshal(data, result)
}

// readTurns loads a JSON list of {speaker, transcript} from a file, or from
// stdin when path is "-".
func readTurns(path string) ([]domain.Turn, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var turns []domain.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parsing turns: %w", err)
	}
	return turns, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newWindowCmd() *cobra.Command {
	var (
		server      string
		callID      string
		windowNum   int
		clientEmail string
		turnsFile   string
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Submit one window of a live call for analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			turns, err := readTurns(turnsFile)
			if err != nil {
				return err
			}

			client, err := newCallClient(server)
			if err != nil {
				return err
			}

			var result engine.WindowResult
			err = client.post("/v1/windows", engine.WindowRequest{
				CallID:      callID,
				WindowNum:   windowNum,
				Turns:       turns,
				ClientEmail: clientEmail,
			}, &result)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "gateway base URL (default http://127.0.0.1:<port>)")
	cmd.Flags().StringVar(&callID, "call", "", "call identifier")
	cmd.Flags().IntVar(&windowNum, "num", 0, "window number within the call")
	cmd.Flags().StringVar(&clientEmail, "client", "", "client email for cross-call memory")
	cmd.Flags().StringVar(&turnsFile, "turns", "-", "JSON file of {speaker, transcript} turns, or - for stdin")
	cmd.MarkFlagRequired("call")

	return cmd
}

func newFinalizeCmd() *cobra.Command {
	var (
		server      string
		callID      string
		clientEmail string
	)

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize a completed call into its analytics record",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCallClient(server)
			if err != nil {
				return err
			}

			var record domain.AnalyticsRecord
			err = client.post("/v1/calls/finalize", map[string]string{
				"callId":      callID,
				"clientEmail": clientEmail,
			}, &record)
			if err != nil {
				return err
			}
			return printJSON(record)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "gateway base URL (default http://127.0.0.1:<port>)")
	cmd.Flags().StringVar(&callID, "call", "", "call identifier")
	cmd.Flags().StringVar(&clientEmail, "client", "", "client email the record is keyed by")
	cmd.MarkFlagRequired("call")
	cmd.MarkFlagRequired("client")

	return cmd
}
