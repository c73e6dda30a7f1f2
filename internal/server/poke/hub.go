// Package poke реализует best-effort канал "проснись и сделай pull":
// клиентские реплики держат WebSocket соединение и получают короткое
// сообщение, когда push изменил состояние сервера. Доставка не
// гарантируется и не требуется для корректности — pull всегда корректен
// против durable store независимо от poke.
package poke

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// pokeMessage — содержимое не несет информации, важен сам факт сигнала
const pokeMessage = "poke"

// Hub рассылает poke всем подключенным подписчикам.
// Подписчик с заполненной очередью отправки отбрасывается: медленный
// или мертвый клиент не должен блокировать push.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	subs     map[*subscriber]struct{}
	mu       sync.Mutex
	closed   bool
}

// subscriber — одно WebSocket соединение с очередью исходящих poke
type subscriber struct {
	conn *websocket.Conn
	send chan string
}

// NewHub creates a poke hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Poke не несет данных, проверка origin — забота
			// внешнего слоя (reverse proxy)
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// HandleWS обрабатывает GET /api/replicache/poke:
// апгрейдит соединение и держит его до закрытия клиентом
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade poke connection", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan string, 8),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("poke subscriber connected", "remote_addr", r.RemoteAddr)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// readLoop вычитывает и игнорирует входящие сообщения.
// Возврат ReadMessage с ошибкой — единственный способ узнать,
// что клиент отключился.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.drop(sub)

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop пишет poke из очереди подписчика в соединение
func (h *Hub) writeLoop(sub *subscriber) {
	for msg := range sub.send {
		if err := sub.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.drop(sub)
			return
		}
	}
}

// drop отписывает и закрывает соединение. Безопасен при повторном вызове.
func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}

// Poke шлет сигнал всем подписчикам. Никогда не блокирует: подписчик
// с переполненной очередью отбрасывается.
func (h *Hub) Poke() {
	h.mu.Lock()
	var overflow []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- pokeMessage:
		default:
			overflow = append(overflow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range overflow {
		h.logger.Warn("dropping slow poke subscriber")
		h.drop(sub)
	}
}

// SubscriberCount returns the number of connected subscribers.
// Used by tests and the status endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close отключает всех подписчиков и запрещает новые подключения
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.drop(sub)
	}
}
