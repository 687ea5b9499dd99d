package main

import (
	"context"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// makeWSHandler upgrades an HTTP request to a websocket and hands the
// connection to the given handler.
func makeWSHandler(handler func(context.Context, *websocket.Conn)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			slog.Warn("websocket accept", "error", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "")
		handler(r.Context(), c)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// serveEvents streams manager events to one subscriber until it goes
// away.
func (as *APIServer) serveEvents(ctx context.Context, c *websocket.Conn) {
	ch := as.subscribe()
	defer as.unsubscribe(ch)
	as.log.Debug("event subscriber connected")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if err := wsjson.Write(ctx, c, ev); err != nil {
				return
			}
		}
	}
}
