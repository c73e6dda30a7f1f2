package models

// Todo представляет одну задачу — доменную сущность, которую
// синхронизируют клиентские реплики.
type Todo struct {
	ID        string `json:"id"`        // ID уникальный идентификатор задачи (задается клиентом)
	Content   string `json:"content"`   // Content текст задачи
	Order     int64  `json:"order"`     // Order позиция в списке (sort key, задается приложением)
	Completed bool   `json:"completed"` // Completed флаг выполнения
	Deleted   bool   `json:"deleted"`   // Deleted soft delete флаг
	Version   uint64 `json:"-"`         // Version глобальная версия на момент последней записи
}
