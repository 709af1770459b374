package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/ws", app.handleWebSocket)
	mux.HandleFunc("/api/games", app.authenticate(app.handleListGames))
	mux.HandleFunc("/api/games/", app.authenticate(app.handleGetGame))

	return mux
}
