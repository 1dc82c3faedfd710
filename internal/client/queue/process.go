package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/ledgersync/internal/breaker"
	httpClient "github.com/iudanet/ledgersync/internal/client/api"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

// Status - итог вызова ProcessQueue.
type Status string

const (
	StatusDrained     Status = "drained"
	StatusBusy        Status = "busy"    // другой проход уже выполняется
	StatusOffline     Status = "offline" // нет сети, записи не трогались
	StatusCircuitOpen Status = "circuitOpen"
)

// ProcessResult - итоги одного прохода очереди.
type ProcessResult struct {
	Status    Status
	Completed int
	Retried   int
	Failed    int
	Deferred  int // записи, ожидающие backoff или предыдущую мутацию той же сущности
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeRetry
	outcomeFailed
	outcomeCircuitOpen
)

func (o outcome) String() string {
	switch o {
	case outcomeCompleted:
		return "completed"
	case outcomeRetry:
		return "retried"
	case outcomeFailed:
		return "failed"
	case outcomeCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// ProcessQueue отправляет готовые записи на сервер в порядке очереди.
//
// Одновременно идет только один проход: параллельный вызов сразу получает StatusBusy.
// Ожидающая, повторяемая или failed запись блокирует следующие записи той же
// сущности до конца прохода. Временные ошибки остаются в записях; возвращаемая
// ошибка означает сбой хранилища или отмену контекста.
func (q *Queue) ProcessQueue(ctx context.Context) (*ProcessResult, error) {
	if !q.drainMu.TryLock() {
		return &ProcessResult{Status: StatusBusy}, nil
	}
	defer q.drainMu.Unlock()

	if !q.conn.IsOnline() {
		return &ProcessResult{Status: StatusOffline}, nil
	}

	start := q.now()
	defer func() { q.metrics.DrainFinished(q.now().Sub(start)) }()

	records, err := q.store.ListMutations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}

	res := &ProcessResult{Status: StatusDrained}
	blocked := make(map[string]bool)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		key := string(rec.EntityType) + ":" + rec.EntityID
		switch rec.Status {
		case models.MutationCompleted:
			continue
		case models.MutationFailed:
			blocked[key] = true
			continue
		}

		if blocked[key] || q.now().Before(rec.NextAttemptAt) {
			blocked[key] = true
			res.Deferred++
			continue
		}

		out, err := q.process(ctx, rec)
		if err != nil {
			return res, err
		}
		q.metrics.MutationProcessed(out.String())

		switch out {
		case outcomeCompleted:
			res.Completed++
		case outcomeRetry:
			res.Retried++
			blocked[key] = true
		case outcomeFailed:
			res.Failed++
			blocked[key] = true
		case outcomeCircuitOpen:
			// остальные записи не трогаем: сервер считается недоступным
			res.Status = StatusCircuitOpen
			res.Deferred++
			return res, nil
		}
	}

	if res.Completed+res.Retried+res.Failed > 0 {
		q.logger.Info("Mutation queue drained",
			"completed", res.Completed,
			"retried", res.Retried,
			"failed", res.Failed,
			"deferred", res.Deferred)
	}
	return res, nil
}

func (q *Queue) process(ctx context.Context, rec *models.MutationRecord) (outcome, error) {
	payload, err := models.DecodeMutationPayload(rec.Payload)
	if err != nil {
		return q.fail(ctx, rec, err)
	}

	serverID := ""
	if rec.Operation != models.OperationCreate {
		serverID, err = q.ids.GetServerID(ctx, rec.EntityType, rec.EntityID)
		if err != nil && !errors.Is(err, storage.ErrMappingNotFound) {
			return 0, fmt.Errorf("failed to resolve server id: %w", err)
		}
	}

	// удаление сущности, которая не доходила до сервера
	if rec.Operation == models.OperationDelete && serverID == "" {
		return q.complete(ctx, rec, nil)
	}

	rec.Status = models.MutationProcessing
	rec.UpdatedAt = q.now().UTC()
	if err := q.store.UpdateMutation(ctx, rec); err != nil {
		return 0, fmt.Errorf("failed to mark mutation processing: %w", err)
	}

	var (
		resp    *api.EntityResponse
		sendErr error
	)
	call := func() error {
		resp, sendErr = q.send(ctx, rec, serverID, payload)
		if sendErr != nil && httpClient.IsRetryable(sendErr) {
			return sendErr
		}
		// постоянные отказы (4xx) не говорят о недоступности сервера
		return nil
	}

	if q.breaker != nil {
		if err := q.breaker.Execute(call); errors.Is(err, breaker.ErrOpen) {
			return q.release(ctx, rec, err)
		}
	} else {
		_ = call()
	}

	switch {
	case sendErr == nil:
		return q.complete(ctx, rec, resp)
	case ctx.Err() != nil:
		if _, err := q.release(context.WithoutCancel(ctx), rec, ctx.Err()); err != nil {
			return 0, err
		}
		return 0, ctx.Err()
	case httpClient.IsNotFound(sendErr) && rec.Operation != models.OperationCreate:
		q.logger.Info("Entity already removed on server, treating as synced",
			"entity_type", rec.EntityType,
			"entity_id", rec.EntityID,
			"operation", rec.Operation)
		return q.complete(ctx, rec, nil)
	case httpClient.IsConflict(sendErr):
		return q.supersede(ctx, rec)
	case httpClient.IsPermanent(sendErr):
		return q.fail(ctx, rec, sendErr)
	default:
		return q.retry(ctx, rec, sendErr)
	}
}

func (q *Queue) send(ctx context.Context, rec *models.MutationRecord, serverID string, p *models.MutationPayload) (*api.EntityResponse, error) {
	req := api.EntityRequest{
		ClientID: rec.EntityID,
		Clock:    p.Clock,
		Data:     p.Data,
	}

	switch rec.Operation {
	case models.OperationCreate:
		return q.remote.CreateEntity(ctx, rec.EntityType, req)
	case models.OperationUpdate:
		if serverID == "" {
			// сущность с сервера еще не привязана: POST является upsert по client id
			return q.remote.CreateEntity(ctx, rec.EntityType, req)
		}
		return q.remote.UpdateEntity(ctx, rec.EntityType, serverID, req)
	case models.OperationDelete:
		return nil, q.remote.DeleteEntity(ctx, rec.EntityType, serverID, req)
	default:
		return nil, fmt.Errorf("unknown operation %q", rec.Operation)
	}
}

// complete сохраняет связь ID до удаления записи, чтобы повтор после сбоя
// закончился идемпотентным upsert на сервере.
func (q *Queue) complete(ctx context.Context, rec *models.MutationRecord, resp *api.EntityResponse) (outcome, error) {
	switch {
	case rec.Operation == models.OperationDelete || (resp == nil && rec.Operation == models.OperationUpdate):
		if err := q.ids.DeleteMapping(ctx, rec.EntityType, rec.EntityID); err != nil && !errors.Is(err, storage.ErrMappingNotFound) {
			return 0, fmt.Errorf("failed to delete id mapping: %w", err)
		}
	case resp != nil && resp.ID != "":
		if err := q.ids.SaveServerID(ctx, rec.EntityType, rec.EntityID, resp.ID); err != nil {
			return 0, fmt.Errorf("failed to save id mapping: %w", err)
		}
	}

	rec.Status = models.MutationCompleted
	rec.LastError = ""
	rec.UpdatedAt = q.now().UTC()
	if err := q.store.DeleteMutation(ctx, rec.ID); err != nil {
		return 0, fmt.Errorf("failed to remove completed mutation: %w", err)
	}

	q.logger.Debug("Mutation synced",
		"id", rec.ID,
		"entity_type", rec.EntityType,
		"entity_id", rec.EntityID,
		"operation", rec.Operation)

	if q.onSynced != nil {
		q.onSynced(ctx, rec, resp)
	}
	return outcomeCompleted, nil
}

// supersede снимает запись, которую сервер отверг как устаревшую: его версия
// причинно новее и придет при следующем pull. Связь ID не трогаем.
func (q *Queue) supersede(ctx context.Context, rec *models.MutationRecord) (outcome, error) {
	if err := q.store.DeleteMutation(ctx, rec.ID); err != nil {
		return 0, fmt.Errorf("failed to remove superseded mutation: %w", err)
	}

	q.logger.Info("Server holds a newer version, mutation dropped",
		"id", rec.ID,
		"entity_type", rec.EntityType,
		"entity_id", rec.EntityID,
		"operation", rec.Operation)
	return outcomeCompleted, nil
}

func (q *Queue) retry(ctx context.Context, rec *models.MutationRecord, cause error) (outcome, error) {
	rec.RetryCount++
	rec.LastError = cause.Error()
	if rec.RetryCount >= q.cfg.MaxRetries {
		return q.fail(ctx, rec, cause)
	}

	now := q.now().UTC()
	rec.Status = models.MutationPending
	rec.NextAttemptAt = now.Add(q.backoff(rec.RetryCount))
	rec.UpdatedAt = now
	if err := q.store.UpdateMutation(ctx, rec); err != nil {
		return 0, fmt.Errorf("failed to reschedule mutation: %w", err)
	}

	q.logger.Warn("Mutation failed, retry scheduled",
		"id", rec.ID,
		"entity_id", rec.EntityID,
		"retry_count", rec.RetryCount,
		"next_attempt_at", rec.NextAttemptAt,
		"error", cause)
	return outcomeRetry, nil
}

func (q *Queue) fail(ctx context.Context, rec *models.MutationRecord, cause error) (outcome, error) {
	rec.Status = models.MutationFailed
	rec.LastError = cause.Error()
	rec.UpdatedAt = q.now().UTC()
	if err := q.store.UpdateMutation(ctx, rec); err != nil {
		return 0, fmt.Errorf("failed to mark mutation failed: %w", err)
	}

	q.logger.Error("Mutation failed permanently",
		"id", rec.ID,
		"entity_type", rec.EntityType,
		"entity_id", rec.EntityID,
		"operation", rec.Operation,
		"retry_count", rec.RetryCount,
		"error", cause)
	return outcomeFailed, nil
}

// release возвращает запись в pending, не расходуя попытку.
func (q *Queue) release(ctx context.Context, rec *models.MutationRecord, cause error) (outcome, error) {
	rec.Status = models.MutationPending
	rec.LastError = cause.Error()
	rec.UpdatedAt = q.now().UTC()
	if err := q.store.UpdateMutation(ctx, rec); err != nil {
		return 0, fmt.Errorf("failed to release mutation: %w", err)
	}
	return outcomeCircuitOpen, nil
}

// backoff возвращает base * 2^(attempt-1), ограниченное RetryMaxDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if q.cfg.RetryMaxDelay > 0 && d >= q.cfg.RetryMaxDelay {
			return q.cfg.RetryMaxDelay
		}
	}
	if q.cfg.RetryMaxDelay > 0 && d > q.cfg.RetryMaxDelay {
		return q.cfg.RetryMaxDelay
	}
	return d
}
