package notebase

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/notebase/notebase/pkg/collab"
	"github.com/notebase/notebase/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    collab.Subprotocols(),
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleCollabSocket upgrades the request and joins the user to the
// page's room. Outbound events are the room broadcasts; the only inbound
// event a client may send is cursor movement, which is relayed to the
// rest of the room. The wire format is negotiated via subprotocol, CBOR
// preferred, JSON the fallback.
//
// Browsers cannot set headers on websocket requests, so the acting user
// may also arrive as a user_id query parameter.
func (a *App) handleCollabSocket(w http.ResponseWriter, r *http.Request) {
	pageID, err := models.ParsePageID(mux.Vars(r)["pageId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	actor, err := actorFrom(r)
	if err != nil {
		if q := r.URL.Query().Get("user_id"); q != "" {
			actor, err = models.ParseUserID(q)
		}
		if err != nil {
			respondError(w, http.StatusUnauthorized, "missing or invalid user identity")
			return
		}
	}

	ok, err := a.auth.CanRead(r.Context(), actor, pageID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		a.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	codec := collab.NegotiateCodec(conn.Subprotocol())
	session := a.hub.Subscribe(pageID, actor, codec)

	go a.writePump(conn, session)
	go a.readPump(conn, session)
}

func (a *App) readPump(conn *websocket.Conn, session *collab.Session) {
	defer func() {
		a.hub.Unsubscribe(session)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		var ev collab.Event
		if err := session.Codec.Decode(data, &ev); err != nil {
			a.log.Debug().Err(err).Msg("discarding undecodable event")
			continue
		}
		if ev.Kind != collab.KindCursorMoved {
			continue
		}

		// The envelope identity always comes from the session, never
		// from the client payload.
		ev.PageID = session.PageID
		ev.ActorID = session.UserID
		ev.At = time.Now().UTC()
		a.hub.Publish(&ev)
	}
}

func (a *App) writePump(conn *websocket.Conn, session *collab.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	messageType := websocket.TextMessage
	if session.Codec.Binary() {
		messageType = websocket.BinaryMessage
	}

	for {
		select {
		case ev, ok := <-session.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := session.Codec.Encode(ev)
			if err != nil {
				a.log.Error().Err(err).Msg("encode outbound event")
				continue
			}
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
