package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const wsWriteTimeout = 5 * time.Second

// streamHandler pushes every published message to the client as a text
// frame. Client frames are ignored.
func streamHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			http.Error(w, "stream unavailable", http.StatusNotFound)
			return
		}
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Printf("web: websocket accept failed remote=%s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "")

		id, msgs := hub.Subscribe(256)
		defer hub.Unsubscribe(id)

		ctx := c.CloseRead(r.Context())
		err = pump(ctx, c, msgs)
		if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
			websocket.CloseStatus(err) == websocket.StatusGoingAway {
			return
		}
		if err != nil {
			log.Printf("web: websocket closed remote=%s: %v", r.RemoteAddr, err)
		}
	})
}

func pump(ctx context.Context, c *websocket.Conn, msgs <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return c.Close(websocket.StatusGoingAway, "server shutting down")
			}
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
