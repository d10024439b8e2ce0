package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

// Record keys shared with the browser edition of the app.
const (
	ReportsKey = "vozdelcaserio.reports.v1"
	SessionKey = "vozdelcaserio.session.v1"
)

// KVStore is the durable key-value collaborator behind the report and session records.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ReportRepository reads and writes the whole report collection as one record.
type ReportRepository struct {
	store KVStore
}

// NewReportRepository constructs the repository.
func NewReportRepository(store KVStore) *ReportRepository {
	return &ReportRepository{store: store}
}

// Load returns the persisted collection. A missing record surfaces as
// ErrRecordNotFound from the store.
func (r *ReportRepository) Load(ctx context.Context) ([]models.Report, error) {
	raw, err := r.store.Get(ctx, ReportsKey)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}

// Save replaces the persisted collection.
func (r *ReportRepository) Save(ctx context.Context, reports []models.Report) error {
	if reports == nil {
		reports = []models.Report{}
	}
	payload, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	return r.store.Set(ctx, ReportsKey, payload)
}

// SessionRepository persists the most recently started session actor.
type SessionRepository struct {
	store KVStore
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(store KVStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Load returns the stored actor.
func (r *SessionRepository) Load(ctx context.Context) (*models.Actor, error) {
	raw, err := r.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, err
	}
	var actor models.Actor
	if err := json.Unmarshal(raw, &actor); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &actor, nil
}

// Save stores the actor.
func (r *SessionRepository) Save(ctx context.Context, actor models.Actor) error {
	payload, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.store.Set(ctx, SessionKey, payload)
}
