package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// CurrentFunc returns the latest encoded summary of a session, if any.
type CurrentFunc func(sessionID string) ([]byte, bool)

// RegisterRoutes mounts the live summary feed. When current is non-nil a new
// subscriber first receives the latest summary, then every update.
func RegisterRoutes(r fiber.Router, hub *Hub, current CurrentFunc) {
	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		// register before reading the current summary so no update falls in
		// between; updates queue on Send until the writer starts
		client := hub.Register(sessionID)
		if current != nil {
			if payload, ok := current(sessionID); ok {
				if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
					hub.Unregister(client)
					return
				}
			}
		}

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		// closing Send stops the writer goroutine
		hub.Unregister(client)
		<-done
	}))
}
