package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-subgraphs/internal/logger"
	"quiz-subgraphs/internal/pubsub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// inboundHandler answers one client message on a subscription socket.
type inboundHandler func(msg inboundMessage) outboundMessage[any]

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// serveStream upgrades the request and pumps sub into the socket. The
// subscription is taken before the upgrade so no payload published after the
// handshake is missed.
func serveStream[T any](w http.ResponseWriter, r *http.Request, log logger.Logger, typ string, sub *pubsub.Subscription[T], handle inboundHandler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		log.Warn(r.Context(), "ws upgrade failed", logger.String("stream", typ), logger.Error(err))
		return
	}
	pump(r.Context(), conn, log, typ, sub, handle)
}

// pump forwards sub to conn as typ messages until the client goes away or the
// subscription ends. A single goroutine owns every write to conn.
func pump[T any](ctx context.Context, conn *websocket.Conn, log logger.Logger, typ string, sub *pubsub.Subscription[T], handle inboundHandler) {
	replies := make(chan outboundMessage[any], 16)
	quit := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		defer conn.Close()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			var msg any
			select {
			case payload, ok := <-sub.C():
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
				msg = outboundMessage[T]{Type: typ, Payload: payload}
			case reply := <-replies:
				msg = reply
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
				continue
			case <-quit:
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug(ctx, "ws write failed", logger.String("stream", typ), logger.Error(err))
				return
			}
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var reply outboundMessage[any]
		var in inboundMessage
		switch {
		case json.Unmarshal(data, &in) != nil:
			reply = errorMessage("invalid message")
		case handle == nil:
			reply = errorMessage("unsupported message type")
		default:
			reply = handle(in)
		}
		select {
		case replies <- reply:
		case <-writerDone:
		}
	}

	sub.Close()
	close(quit)
	<-writerDone
}
