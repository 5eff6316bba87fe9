package handlers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/calendar"
	"github.com/ukydev/fleet-manager/internal/live"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
)

const (
	DefaultAuthWait = 5 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Subscriber is the part of the observer hub the live feed needs.
type Subscriber interface {
	SnapshotSource
	Subscribe(ctx context.Context, collection string, cb live.Callback) (*live.Subscription, error)
}

// LiveHandler pushes the calendar view over a websocket whenever a source
// collection changes.
type LiveHandler struct {
	authService *auth.Service
	hub         Subscriber
	gate        *policy.Gate
	loc         *time.Location
	authWait    time.Duration
	now         func() time.Time
	upgrader    websocket.Upgrader
}

func NewLiveHandler(authService *auth.Service, hub Subscriber, gate *policy.Gate, loc *time.Location, authWait time.Duration, origins []string) *LiveHandler {
	if loc == nil {
		loc = time.UTC
	}
	if authWait <= 0 {
		authWait = DefaultAuthWait
	}
	return &LiveHandler{
		authService: authService,
		hub:         hub,
		gate:        gate,
		loc:         loc,
		authWait:    authWait,
		now:         time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origins, origin)
			},
		},
	}
}

// liveMessage is sent by clients: {"type":"auth","token":"..."} to
// authenticate, {"type":"view","view":"week","date":"2026-01-05","filter":"mission"}
// to change the page.
type liveMessage struct {
	Type   string `json:"type"`
	Token  string `json:"token,omitempty"`
	View   string `json:"view,omitempty"`
	Date   string `json:"date,omitempty"`
	Filter string `json:"filter,omitempty"`
}

type liveFrame struct {
	Type  string         `json:"type"`
	View  *calendar.View `json:"view,omitempty"`
	Error string         `json:"error,omitempty"`
}

type liveSession struct {
	mu    sync.Mutex
	query ViewQuery

	changed chan struct{}
	frames  chan liveFrame
}

// notify schedules a recompute. Pending notifications coalesce.
func (s *liveSession) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *liveSession) setQuery(q ViewQuery) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.notify()
}

func (s *liveSession) current() ViewQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *liveSession) send(ctx context.Context, f liveFrame) {
	select {
	case s.frames <- f:
	case <-ctx.Done():
	}
}

// Calendar upgrades the connection, authenticates it from ?token= or the first
// message, then streams calendar views until the client leaves.
func (h *LiveHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	claims, err := h.authenticate(conn, r.URL.Query().Get("token"))
	if err != nil {
		log.WithError(err).WithField("remote", r.RemoteAddr).Info("Live feed authentication failed")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return
	}

	q, err := ParseViewQuery(r.URL.Query(), h.loc, h.now())
	if err != nil {
		q, _ = ParseViewQuery(nil, h.loc, h.now())
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := &liveSession{
		query:   q,
		changed: make(chan struct{}, 1),
		frames:  make(chan liveFrame, 4),
	}

	var group live.Group
	defer group.Close()
	for _, collection := range models.CalendarCollections {
		sub, err := h.hub.Subscribe(ctx, collection, func(live.Snapshot) { session.notify() })
		if err != nil {
			log.WithError(err).WithField("collection", collection).Warn("Live feed subscription failed")
			continue
		}
		group.Add(sub)
	}
	session.notify()

	logger := log.WithFields(log.Fields{"user_id": claims.UserID, "remote": r.RemoteAddr})
	logger.Info("Live calendar feed opened")
	defer logger.Info("Live calendar feed closed")

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		h.writeLoop(ctx, conn, session)
	}()

	h.readLoop(ctx, conn, session)
	cancel()
	<-done
}

// authenticate validates token, or the token of the first message when it is empty.
func (h *LiveHandler) authenticate(conn *websocket.Conn, token string) (*models.Claims, error) {
	if token == "" {
		if err := conn.SetReadDeadline(time.Now().Add(h.authWait)); err != nil {
			return nil, err
		}
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, err
		}
		if msg.Type != "auth" {
			return nil, auth.ErrInvalidToken
		}
		token = msg.Token
	}
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if err := h.gate.Authorize(context.Background(), claims, policy.ActionList, policy.ResourceRecords, nil); err != nil {
		return nil, err
	}
	return claims, nil
}

func (h *LiveHandler) readLoop(ctx context.Context, conn *websocket.Conn, s *liveSession) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("Live feed read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if msg.Type != "view" {
			s.send(ctx, liveFrame{Type: "error", Error: "unknown message type"})
			continue
		}
		values := url.Values{}
		values.Set("view", msg.View)
		values.Set("date", msg.Date)
		values.Set("type", msg.Filter)
		q, err := ParseViewQuery(values, h.loc, h.now())
		if err != nil {
			s.send(ctx, liveFrame{Type: "error", Error: err.Error()})
			continue
		}
		s.setQuery(q)
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *LiveHandler) writeLoop(ctx context.Context, conn *websocket.Conn, s *liveSession) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	write := func(f liveFrame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(f); err != nil {
			log.WithError(err).Debug("Live feed write failed")
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case f := <-s.frames:
			if !write(f) {
				conn.Close()
				return
			}
		case <-s.changed:
			view, err := h.compute(s.current())
			if err != nil {
				log.WithError(err).Warn("Failed to compute live calendar view")
				continue
			}
			if !write(liveFrame{Type: "calendar", View: &view}) {
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// compute rebuilds the view from the latest snapshots. Collections that have
// not loaded yet count as empty.
func (h *LiveHandler) compute(q ViewQuery) (calendar.View, error) {
	src, err := SourcesFromSnapshots(h.hub)
	if err != nil {
		return calendar.View{}, err
	}
	events := calendar.AggregateIn(src, h.loc, calendar.WindowFor(q.Mode, q.Anchor))
	return calendar.BuildView(events, q.Mode, q.Anchor, q.Type, h.now()), nil
}
