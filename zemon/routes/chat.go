package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
	"zemon/zemon/services/assistant"
	"zemon/zemon/utils/jsonutils"
	"zemon/zemon/utils/logging"
	utypes "zemon/zemon/utils/types"
)

// ChatRoutes serves chat turns. Both routes stream, so they must not sit
// behind a request timeout.
func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))
		// POST /chat : one turn as a plain-text stream
		gr.Post("/", streamTurn(ctrl, cfg))
	})
	// the token travels in the first frame
	r.HandleFunc("/ws", serveWS(ctrl, cfg))
	return r
}

func streamTurn(ctrl *controllers.ChatController, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userID(r)
		if err != nil {
			writeError(w, r, cfg, 0, err)
			return
		}
		var req utypes.ChatRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, cfg, 0, err)
			return
		}
		turn, err := ctrl.StartTurn(r.Context(), uid, req)
		if err != nil {
			writeError(w, r, cfg, 0, err)
			return
		}

		w.Header().Set("X-Chat-ID", turn.ChatID())
		flusher, _ := w.(http.Flusher)
		started := false
		start := func() {
			if started {
				return
			}
			started = true
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
		}

		sink := func(e assistant.Event) error {
			switch e.Type {
			case assistant.EventResponseChunk:
				start()
				if _, err := io.WriteString(w, e.Content); err != nil {
					return err
				}
			case assistant.EventError:
				if !started {
					// nothing sent yet: a real status is still possible
					status := http.StatusBadGateway
					if assistant.IsThrottled(e.Err) {
						status = http.StatusTooManyRequests
					}
					started = true
					writeJSON(w, status, map[string]string{"error": e.Content})
					return nil
				}
				if _, err := w.Write(jsonutils.ErrorChunk(e.Content)); err != nil {
					return err
				}
			default:
				return nil
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}

		if _, err := turn.Run(r.Context(), sink); err != nil {
			logging.AppLogger.Info("chat turn ended early", zap.String("chat_id", turn.ChatID()), zap.Error(err))
		}
		start()
	}
}

func serveWS(ctrl *controllers.ChatController, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		send := func(e utypes.WSEvent) error {
			return wsjson.Write(ctx, conn, e)
		}
		sendError := func(msg string, status int) error {
			return send(utypes.WSEvent{Type: string(assistant.EventError), Payload: map[string]any{"message": msg, "status": status}})
		}

		var uid string
		for {
			var input utypes.WSChatRequest
			if err := wsjson.Read(ctx, conn, &input); err != nil {
				if websocket.CloseStatus(err) != -1 || errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				sendError("invalid json", http.StatusBadRequest)
				conn.Close(websocket.StatusUnsupportedData, "invalid json")
				return
			}

			if input.Token != "" || uid == "" {
				id, err := middlewares.ParseToken(cfg.JWTSecret, input.Token)
				if err != nil {
					sendError("invalid token", http.StatusUnauthorized)
					conn.Close(websocket.StatusPolicyViolation, "invalid token")
					return
				}
				uid = id
			}

			turn, err := ctrl.StartTurn(ctx, uid, input.ChatRequest)
			if err != nil {
				if sendErr := sendError(err.Error(), statusFor(err)); sendErr != nil {
					return
				}
				continue
			}
			_, err = turn.Run(ctx, func(e assistant.Event) error {
				return send(utypes.WSEvent{Type: string(e.Type), Payload: e.Payload()})
			})
			if err != nil && ctx.Err() != nil {
				return
			}
		}
	}
}
