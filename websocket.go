package main

import (
	"net/http"

	"shiftops/internal/websocket"
)

// Global hub instance.
var wsHub = websocket.NewHub()

// handleWebSocket upgrades the HTTP connection to a WebSocket.
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Serve(wsHub, w, r)
}

// broadcast is a convenience helper used by handlers after mutations.
func broadcast(resource, action string, id any) {
	wsHub.BroadcastChange(resource, action, id)
}
