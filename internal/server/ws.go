package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/emitter"
	"github.com/ayusman/signbridge/internal/gesture"
	"github.com/ayusman/signbridge/internal/store"
)

const (
	maxMessageSize = 64 << 10
	writeWait      = 5 * time.Second
)

// Client message types.
const (
	MsgFrame      = "frame"
	MsgRecord     = "record"
	MsgStopRecord = "stop_record"
	MsgReset      = "reset"
	MsgClear      = "clear"
	MsgCommit     = "commit"
)

// Server message types.
const (
	MsgTick      = "tick"
	MsgCommitted = "committed"
	MsgError     = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ClientMessage is one request on the stream. Points is null when the
// client saw no hand.
type ClientMessage struct {
	Type   string             `json:"type"`
	Points []detector.Point3D `json:"points,omitempty"`
	Letter string             `json:"letter,omitempty"`
}

// ServerMessage is the reply to exactly one ClientMessage.
type ServerMessage struct {
	Type         string        `json:"type"`
	Tick         *gesture.Tick `json:"tick,omitempty"`
	Text         string        `json:"text,omitempty"`
	TranscriptID string        `json:"transcript_id,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// TranscriptWriter stores committed text.
type TranscriptWriter interface {
	Create(t *store.Transcript) error
}

// StreamConfig configures a StreamHandler.
type StreamConfig struct {
	Samples     *gesture.SampleStore
	Classifier  gesture.Classifier
	Params      gesture.Params
	Transcripts TranscriptWriter
	Emitter     emitter.Emitter
	Logger      *zap.Logger
}

// StreamHandler runs one recognition session per WebSocket connection.
// Frames arrive from the client as landmark lists; every message gets one
// reply.
type StreamHandler struct {
	config StreamConfig
	logger *zap.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(config StreamConfig) *StreamHandler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Emitter == nil {
		config.Emitter = emitter.Nop{}
	}
	return &StreamHandler{
		config: config,
		logger: config.Logger.Named("stream"),
		conns:  make(map[string]*websocket.Conn),
	}
}

// Sessions returns the number of open connections.
func (h *StreamHandler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll closes every open connection. Each session commits its text
// as it ends.
func (h *StreamHandler) CloseAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.Close()
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	id := uuid.NewString()
	session := gesture.NewSession(id, h.config.Classifier, h.config.Samples, h.config.Params, h.config.Logger)
	session.OnEmit = h.publish

	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	h.logger.Info("stream connected", zap.String("session", id), zap.String("remote", r.RemoteAddr))

	defer h.finish(session)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("stream read", zap.String("session", id), zap.Error(err))
			}
			return
		}

		reply := h.handle(session, data)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("stream write", zap.String("session", id), zap.Error(err))
			return
		}
	}
}

// handle applies one client message to session.
func (h *StreamHandler) handle(session *gesture.Session, data []byte) ServerMessage {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage(errors.New("invalid JSON"))
	}

	switch msg.Type {
	case MsgFrame:
		return tickMessage(session.ProcessTick(h.frame(session, msg.Points)))

	case MsgRecord:
		status, err := session.StartRecording(msg.Letter)
		if err != nil {
			return errorMessage(err)
		}
		return tickMessage(gesture.Tick{Text: session.Text(), Recording: &status})

	case MsgStopRecord:
		status := session.StopRecording()
		return tickMessage(gesture.Tick{Text: session.Text(), Recording: &status})

	case MsgReset:
		session.Reset()
		return tickMessage(gesture.Tick{})

	case MsgClear:
		session.Clear()
		return tickMessage(gesture.Tick{})

	case MsgCommit:
		text, t := h.commit(session)
		reply := ServerMessage{Type: MsgCommitted, Text: text}
		if t != nil {
			reply.TranscriptID = t.ID
		}
		return reply

	default:
		return errorMessage(errors.New("unknown message type " + msg.Type))
	}
}

// frame converts a landmark list into a hand. Unusable lists count as a
// frame without a hand.
func (h *StreamHandler) frame(session *gesture.Session, points []detector.Point3D) *detector.HandLandmarks {
	if points == nil {
		return nil
	}
	hand, err := detector.FromPoints(points)
	if err != nil {
		h.logger.Debug("dropping frame", zap.String("session", session.ID()), zap.Error(err))
		return nil
	}
	return hand
}

// commit takes the session text and stores it as a transcript. A failed
// write is logged and the text is still returned.
func (h *StreamHandler) commit(session *gesture.Session) (string, *store.Transcript) {
	text := session.Commit()
	if text == "" || h.config.Transcripts == nil {
		return text, nil
	}

	t := &store.Transcript{
		SessionID: session.ID(),
		Text:      text,
		Source:    store.SourceStream,
	}
	if err := h.config.Transcripts.Create(t); err != nil {
		h.logger.Error("saving transcript", zap.String("session", session.ID()), zap.Error(err))
		return text, nil
	}
	return text, t
}

// finish commits what is left of the session and forgets the connection.
func (h *StreamHandler) finish(session *gesture.Session) {
	h.commit(session)
	session.Reset()

	h.mu.Lock()
	delete(h.conns, session.ID())
	h.mu.Unlock()
	h.logger.Info("stream disconnected", zap.String("session", session.ID()))
}

func (h *StreamHandler) publish(event gesture.LetterEvent) {
	if err := h.config.Emitter.Publish(event); err != nil {
		h.logger.Warn("publishing letter", zap.String("letter", event.Letter), zap.Error(err))
	}
}

func tickMessage(t gesture.Tick) ServerMessage {
	return ServerMessage{Type: MsgTick, Tick: &t}
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: MsgError, Error: err.Error()}
}
