package http

import (
	"net/http"

	"checkpoint-quiz/internal/app"
)

// NewRouter wires the websocket endpoint, the question set API and the health check.
func NewRouter(service *app.QuizService) *http.ServeMux {
	wsHandler := NewWSHandler(service)
	sets := NewQuestionSetsHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("GET /api/question-sets", sets.List)
	mux.HandleFunc("POST /api/question-sets", sets.Upload)
	return mux
}
