package coding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultPistonURL is the public Piston execute endpoint.
const DefaultPistonURL = "https://emkc.org/api/v2/piston/execute"

// Runner executes a program with stdin and returns its combined output.
type Runner interface {
	Run(ctx context.Context, language, code, stdin string) (string, error)
}

// PistonRunner runs code on a Piston code-execution service.
type PistonRunner struct {
	url    string
	client *http.Client
}

// NewPistonRunner returns a runner for the execute endpoint at url. An empty
// url selects DefaultPistonURL.
func NewPistonRunner(url string, timeout time.Duration) *PistonRunner {
	if url == "" {
		url = DefaultPistonURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PistonRunner{url: url, client: &http.Client{Timeout: timeout}}
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

// Run posts the program and returns run.output, trimmed.
func (p *PistonRunner) Run(ctx context.Context, language, code, stdin string) (string, error) {
	body, err := json.Marshal(pistonRequest{
		Language: language,
		Version:  "*",
		Files:    []pistonFile{{Name: "main", Content: code}},
		Stdin:    stdin,
	})
	if err != nil {
		return "", fmt.Errorf("encode piston request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create piston request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("piston request: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read piston response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(payload, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(payload))
		}
		return "", fmt.Errorf("piston returned %d: %s", res.StatusCode, msg)
	}

	return strings.TrimSpace(gjson.GetBytes(payload, "run.output").String()), nil
}
