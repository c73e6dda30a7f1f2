package api

import "encoding/json"

// Mutation представляет одну мутацию от клиента.
// ID — это последовательный номер мутации конкретного клиента,
// монотонно растущий начиная с 1.
type Mutation struct {
	Args     json.RawMessage `json:"args"`
	ClientID string          `json:"clientID"`
	Name     string          `json:"name"`
	ID       uint64          `json:"id"`
}

// PushRequest представляет push запрос от клиентской группы.
// Мутации идут в том порядке, в котором клиент применил их локально.
type PushRequest struct {
	ClientGroupID string     `json:"clientGroupID"`
	Mutations     []Mutation `json:"mutations"`
}

// PushResponse представляет ответ сервера на push.
// Успешный push возвращает пустой объект: ошибки отдельных мутаций
// поглощаются сервером и не возвращаются клиенту per-mutation.
type PushResponse struct{}

// PullRequest представляет pull запрос от клиентской группы.
// Cookie — версия, которую клиент видел в последнем pull.
// nil означает "с самого начала" (версия 0).
type PullRequest struct {
	Cookie        *uint64 `json:"cookie"`
	ClientGroupID string  `json:"clientGroupID"`
}

// Patch operation kinds.
const (
	OpPut = "put"
	OpDel = "del"
)

// PatchOperation представляет одну операцию патча.
// Op "put" — upsert значения по ключу, "del" — удаление ключа.
// Value присутствует только для "put".
type PatchOperation struct {
	Op    string          `json:"op"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// PullResponse представляет ответ сервера на pull.
// Cookie становится checkpoint'ом клиента для следующего pull.
type PullResponse struct {
	LastMutationIDChanges map[string]uint64 `json:"lastMutationIDChanges"`
	Patch                 []PatchOperation  `json:"patch"`
	Cookie                uint64            `json:"cookie"`
}
