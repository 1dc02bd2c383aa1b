package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/urfave/cli"
)

// envelope mirrors escrowd's command transport: a command name plus its
// JSON-encoded payload.
type envelope struct {
	Command string      `json:"command"`
	Payload interface{} `json:"payload"`
}

// response mirrors escrowd's response body.
type response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// call POSTs cmd/payload to the rpcserver named by the global --rpcserver
// flag and returns the decoded result, or the server's reported error.
func call(ctx *cli.Context, cmd string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(envelope{Command: cmd, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("http://%s/command", ctx.GlobalString("rpcserver"))
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("call escrowd: %w", err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("escrowd: %s", out.Error)
	}
	return out.Result, nil
}
