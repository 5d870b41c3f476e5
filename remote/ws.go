package remote

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phanxgames/lumen"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4096
)

// wsMessage is one control message from a websocket client. Exactly one of
// the forms is expected per message:
//
//	{"path":"generator.param1","value":0.5}
//	{"midi":[176,7,100]}
//	{"audio":{"low":0.8,"mid":0.1,"high":0}}
type wsMessage struct {
	Path  string      `json:"path,omitempty"`
	Value float64     `json:"value"`
	MIDI  []int       `json:"midi,omitempty"`
	Audio *audioBands `json:"audio,omitempty"`
}

type audioBands struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// wsReply acknowledges each message in order.
type wsReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var errEmptyMessage = errors.New("message has no path, midi or audio")

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		lumen.Logger().Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	lumen.Logger().Info("remote client connected", "addr", r.RemoteAddr)

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				lumen.Logger().Warn("websocket read", "error", err)
			}
			lumen.Logger().Info("remote client disconnected", "addr", r.RemoteAddr)
			return
		}
		reply := wsReply{OK: true}
		if err := s.handleMessage(msg); err != nil {
			reply = wsReply{Error: err.Error()}
		}
		if err := s.writeReply(conn, reply); err != nil {
			return
		}
	}
}

// writeReply is the only data writer on conn. Pings go through
// WriteControl, which may run concurrently with it.
func (s *Server) writeReply(conn *websocket.Conn, reply wsReply) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(reply)
}

func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(wsPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(msg wsMessage) error {
	switch {
	case msg.Path != "":
		return s.postField(lumen.FieldUpdate{Path: msg.Path, Value: msg.Value})
	case msg.MIDI != nil:
		raw := make([]byte, len(msg.MIDI))
		for i, b := range msg.MIDI {
			if b < 0 || b > 0xff {
				return fmt.Errorf("midi byte %d out of range", b)
			}
			raw[i] = byte(b)
		}
		_, err := s.midi.HandleRaw(raw)
		return err
	case msg.Audio != nil:
		s.engine.SetAudioBands(msg.Audio.Low, msg.Audio.Mid, msg.Audio.High)
		return nil
	}
	return errEmptyMessage
}
