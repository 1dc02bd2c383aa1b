package main

import (
	"encoding/json"
	"net/http"

	"github.com/escrowd/coordinator/command"
	"github.com/escrowd/coordinator/escrow"
	"github.com/escrowd/coordinator/escrowerr"
)

// server is the thin net/http + encoding/json command transport described
// in the specification: one JSON envelope per command name, decoded into
// the matching command.Command and routed through command.Dispatch.
// Intentionally minimal — the wire transport itself is explicitly out of
// scope, so this exists only to give cmd/escrowd something to listen on.
type server struct {
	machine *escrow.Machine
	mux     *http.ServeMux
}

// envelope is the request body POSTed to /command: a command name plus
// its JSON-encoded payload.
type envelope struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// response is the body returned for every /command call.
type response struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func newServer(m *escrow.Machine) *server {
	s := &server{machine: m, mux: http.NewServeMux()}
	s.mux.HandleFunc("/command", s.handleCommand)
	return s
}

func (s *server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeResponse(w, http.StatusBadRequest, response{Error: "malformed envelope: " + err.Error()})
		return
	}

	cmd, err := decodeCommand(env)
	if err != nil {
		writeResponse(w, http.StatusBadRequest, response{Error: err.Error()})
		return
	}

	result, err := command.Dispatch(r.Context(), s.machine, cmd)
	if err != nil {
		writeResponse(w, statusFor(err), response{Error: err.Error()})
		return
	}

	writeResponse(w, http.StatusOK, response{Result: result})
}

// decodeCommand maps an envelope's command name to the concrete
// command.Command it carries, unmarshaling Payload into it.
func decodeCommand(env envelope) (command.Command, error) {
	switch env.Command {
	case command.TypeCreateDst.String():
		var c command.CreateDst
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeFund.String():
		var c command.Fund
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeWithdraw.String():
		var c command.Withdraw
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeCancel.String():
		var c command.Cancel
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeRescue.String():
		var c command.Rescue
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeGetEscrow.String():
		var c command.GetEscrow
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, err
		}
		return c, nil
	case command.TypeHealth.String():
		return command.Health{}, nil
	default:
		return nil, escrowerr.New(escrowerr.InvalidParameters, "unknown command %q", env.Command)
	}
}

// statusFor maps an escrowerr.Kind to the HTTP status code reported back
// to the caller.
func statusFor(err error) int {
	e, ok := err.(*escrowerr.Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case escrowerr.NotFound:
		return http.StatusNotFound
	case escrowerr.InvalidState, escrowerr.InvalidSecret, escrowerr.InvalidParameters, escrowerr.InvalidTransaction:
		return http.StatusBadRequest
	case escrowerr.Unauthorized:
		return http.StatusForbidden
	case escrowerr.NotYetOpen, escrowerr.WindowClosed:
		return http.StatusConflict
	case escrowerr.InsufficientFunding:
		return http.StatusPaymentRequired
	case escrowerr.LedgerUnavailable, escrowerr.LedgerTimeout, escrowerr.SettlementFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
