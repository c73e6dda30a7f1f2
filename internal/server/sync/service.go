package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ddepu11/DimensionServer/internal/server/storage"
	"github.com/ddepu11/DimensionServer/pkg/api"
)

// Poker шлет best-effort сигнал остальным репликам, что появилось новое
// состояние и пора сделать pull. Вызов не должен блокировать; ошибки
// доставки не возвращаются и не влияют на результат push'а.
type Poker interface {
	Poke()
}

// Service реализует pull/push протокол синхронизации: push принимает
// батч мутаций от клиентской группы, pull отдает diff изменений
// с checkpoint-версии клиента.
type Service struct {
	logger   *slog.Logger
	storage  storage.SyncStorage
	registry *Registry
	poker    Poker
}

// New creates a new sync service.
// poker may be nil, in which case no pokes are sent.
func New(logger *slog.Logger, st storage.SyncStorage, registry *Registry, poker Poker) *Service {
	return &Service{
		logger:   logger,
		storage:  st,
		registry: registry,
		poker:    poker,
	}
}

// Push применяет батч мутаций строго в порядке, в котором клиент их
// прислал. Каждая мутация обрабатывается в собственной транзакции,
// поэтому ошибка поздней мутации не откатывает ранние. После всего
// батча один раз шлется poke — независимо от per-mutation ошибок.
func (s *Service) Push(ctx context.Context, req *api.PushRequest) error {
	for _, m := range req.Mutations {
		err := s.processMutation(ctx, req.ClientGroupID, m, true)
		if err != nil && isMutationError(err) {
			// Мутация семантически отвергнута. Прогоняем явный error path:
			// та же машина состояний, но без доменного эффекта — bookkeeping
			// все равно продвигается, чтобы клиент не застрял.
			s.logger.Warn("mutation rejected, consuming without domain effect",
				"client_id", m.ClientID,
				"mutation_id", m.ID,
				"name", m.Name,
				"error", err,
			)
			err = s.processMutation(ctx, req.ClientGroupID, m, false)
		}
		if err != nil {
			return fmt.Errorf("failed to process mutation %d for client %s: %w", m.ID, m.ClientID, err)
		}
	}

	// Остальные реплики узнают о новом состоянии и сделают pull раньше.
	// Fire-and-forget: push никогда не ждет и не видит результат.
	if s.poker != nil {
		go s.poker.Poke()
	}

	return nil
}

// processMutation прогоняет одну мутацию через машину состояний внутри
// одной транзакции. applyDomain выбирает путь: успешное применение
// доменного эффекта или error path, где продвигается только bookkeeping.
func (s *Service) processMutation(ctx context.Context, clientGroupID string, m api.Mutation, applyDomain bool) error {
	return s.storage.WriteTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		// Exclusive lock на глобальной версии — единственная точка
		// сериализации применения мутаций во всей системе.
		prevVersion, err := tx.LockServerVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock server version: %w", err)
		}
		nextVersion := prevVersion + 1

		lastMutationID, err := tx.LastMutationID(ctx, m.ClientID)
		if err != nil {
			return fmt.Errorf("failed to get last mutation id: %w", err)
		}
		expectedID := lastMutationID + 1

		// Stale: клиент ретранслировал уже принятую мутацию (типично
		// после потери связи). Идемпотентный no-op, ничего не двигаем.
		if m.ID < expectedID {
			s.logger.Info("skipping already processed mutation",
				"client_id", m.ClientID,
				"mutation_id", m.ID,
				"last_mutation_id", lastMutationID,
			)
			return nil
		}

		// Future: с корректным клиентом невозможно — состояние разошлось.
		// Фатально для всего push запроса.
		if m.ID > expectedID {
			return fmt.Errorf("%w: mutation %d for client %s, expected %d",
				ErrFutureMutation, m.ID, m.ClientID, expectedID)
		}

		if applyDomain {
			if err := s.registry.Apply(ctx, tx, m.Name, m.Args, nextVersion); err != nil {
				return err
			}
		}

		// Оба пути — успех и error path — продвигают bookkeeping одинаково
		if err := tx.SetLastMutationID(ctx, m.ClientID, clientGroupID, m.ID, nextVersion); err != nil {
			return fmt.Errorf("failed to set last mutation id: %w", err)
		}

		if err := tx.SetServerVersion(ctx, nextVersion); err != nil {
			return fmt.Errorf("failed to advance server version: %w", err)
		}

		return nil
	})
}

// isMutationError reports whether err is a semantic rejection of a single
// mutation, as opposed to an infrastructure failure. Semantic rejections
// consume the mutation via the error path; infrastructure failures abort
// the whole push batch.
func isMutationError(err error) bool {
	return errors.Is(err, ErrUnknownMutation) ||
		errors.Is(err, ErrBadMutationArgs) ||
		errors.Is(err, storage.ErrTodoNotFound) ||
		errors.Is(err, storage.ErrTodoAlreadyExists)
}

// Pull вычисляет diff изменений для клиентской группы с её
// checkpoint-версии: изменившиеся записи клиентов группы и изменившиеся
// доменные строки. Все три чтения идут в одной транзакции, чтобы ответ
// был консистентным снимком и никогда не видел частично закоммиченный push.
func (s *Service) Pull(ctx context.Context, req *api.PullRequest) (*api.PullResponse, error) {
	var fromVersion uint64
	if req.Cookie != nil {
		fromVersion = *req.Cookie
	}

	resp := &api.PullResponse{
		LastMutationIDChanges: map[string]uint64{},
		Patch:                 []api.PatchOperation{},
	}

	err := s.storage.ReadTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		currentVersion, err := tx.ServerVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read server version: %w", err)
		}

		// Cookie, который сервер никогда не выдавал — признак потери
		// данных на сервере. Клиент должен сбросить локальное состояние.
		if fromVersion > currentVersion {
			return fmt.Errorf("%w: cookie %d, server version %d",
				ErrFutureCookie, fromVersion, currentVersion)
		}

		changes, err := tx.ClientsChangedSince(ctx, req.ClientGroupID, fromVersion)
		if err != nil {
			return fmt.Errorf("failed to get client changes: %w", err)
		}

		todos, err := tx.TodosChangedSince(ctx, fromVersion)
		if err != nil {
			return fmt.Errorf("failed to get changed todos: %w", err)
		}

		for _, todo := range todos {
			key := todoKeyPrefix + todo.ID

			if todo.Deleted {
				resp.Patch = append(resp.Patch, api.PatchOperation{
					Op:  api.OpDel,
					Key: key,
				})
				continue
			}

			value, err := json.Marshal(api.TodoValue{
				Content:   todo.Content,
				Order:     todo.Order,
				Completed: todo.Completed,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal todo %q: %w", todo.ID, err)
			}

			resp.Patch = append(resp.Patch, api.PatchOperation{
				Op:    api.OpPut,
				Key:   key,
				Value: value,
			})
		}

		resp.LastMutationIDChanges = changes
		resp.Cookie = currentVersion

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
