package api

// TodoValue — значение "put" операции патча для одной задачи.
// ID не входит в значение: он закодирован в ключе ("todo/<id>").
type TodoValue struct {
	Content   string `json:"content"`
	Order     int64  `json:"order"`
	Completed bool   `json:"completed"`
}
