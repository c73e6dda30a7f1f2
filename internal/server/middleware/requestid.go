package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey тип для ключей контекста
type contextKey string

// requestIDKey ключ для хранения request id в контексте
const requestIDKey contextKey = "request_id"

// requestIDHeader заголовок, в котором клиент/прокси может прислать свой id
const requestIDHeader = "X-Request-Id"

// GetRequestID извлекает request id из контекста запроса.
// Возвращает пустую строку, если RequestIDMiddleware не был подключен.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware создает middleware, присваивающее каждому запросу
// уникальный id. Если клиент прислал X-Request-Id — используем его,
// иначе генерируем новый UUID. Id кладется в контекст и в заголовок ответа.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set(requestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
