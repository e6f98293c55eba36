package dispatch

import (
	"errors"

	"equion/internal/service"
)

var ErrUnknownCommand = errors.New("Invalid API command")

// Handler runs one command. addr is the live-connection address, empty when
// the envelope arrived over plain HTTP.
type Handler func(s *service.State, args Args, addr string) (map[string]any, error)

type command struct {
	handler Handler
	// streaming commands touch per-connection state and only exist on the
	// live channel; over HTTP they are indistinguishable from unknown ones.
	streaming bool
}

// Dispatch runs the named command and renders the response envelope:
// {"success": true, ...fields} or {"success": false, "error": "..."}.
func Dispatch(s *service.State, name string, body map[string]any, addr string) map[string]any {
	cmd, ok := commands[name]
	if !ok || (cmd.streaming && addr == "") {
		return failure(ErrUnknownCommand)
	}

	fields, err := cmd.handler(s, NewArgs(body), addr)
	if err != nil {
		return failure(err)
	}

	response := map[string]any{"success": true}
	for k, v := range fields {
		response[k] = v
	}
	return response
}

func failure(err error) map[string]any {
	return map[string]any{"success": false, "error": err.Error()}
}
