package graphql

import (
	"context"
	"fmt"

	"gqlwire/internal/shared/constants"

	"github.com/gorilla/websocket"
)

// wsConn is the minimal surface of the underlying socket. Tests swap in a
// fake; production uses a gorilla connection.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type dialFunc func(ctx context.Context, url string, subprotocols []string) (wsConn, error)

func gorillaDial(ctx context.Context, url string, subprotocols []string) (wsConn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: constants.HandshakeTimeout,
		Subprotocols:     subprotocols,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("dial %s: %w (status %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}
