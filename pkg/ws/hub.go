package ws

import (
	"errors"

	"github.com/puzpuzpuz/xsync"
)

const sendBufferSize = 1 << 8

// Hub fans out auction events to every registered websocket client.
type Hub struct {
	clients *xsync.MapOf[string, chan []byte]
}

func NewHub() *Hub {
	return &Hub{clients: xsync.NewMapOf[chan []byte]()}
}

// Register subscribes a client. All broadcast messages are delivered to the
// returned channel from this point on.
func (h *Hub) Register(clientID string) (<-chan []byte, error) {
	// A buffered channel avoids blocking the broadcast on a slow client.
	c := make(chan []byte, sendBufferSize)

	_, existed := h.clients.LoadOrStore(clientID, c)
	if existed {
		close(c)
		return nil, errors.New("the client has already registered")
	}

	return c, nil
}

func (h *Hub) Unregister(clientID string) error {
	c, existed := h.clients.LoadAndDelete(clientID)
	if !existed {
		return errors.New("the client has not registered yet")
	}

	close(c)
	return nil
}

// Broadcast delivers a message to every client. Clients whose buffers are
// full are dropped, they are expected to reconnect and re-sync from a
// snapshot.
func (h *Hub) Broadcast(msg []byte) {
	h.clients.Range(func(clientID string, c chan []byte) bool {
		select {
		case c <- msg:
		default:
			h.Unregister(clientID)
		}

		return true
	})
}
