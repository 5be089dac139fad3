package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"retracker/server/internal/models"
	"retracker/server/internal/store"
)

// Store is the slice of the property store the service depends on.
// *store.PropertyStore satisfies it.
type Store interface {
	Create(ctx context.Context, payload map[string]interface{}) (*models.Property, error)
	GetByID(ctx context.Context, id int64) (*models.Property, error)
	List(ctx context.Context, filters store.ListFilters) ([]models.Property, error)
	Update(ctx context.Context, id int64, payload map[string]interface{}) (*models.Property, error)
	SoftDelete(ctx context.Context, id int64) (*models.Property, error)
	Stats(ctx context.Context) (*models.PropertyStats, error)
	FindByAddress(ctx context.Context, address, city, state, zip string) (*models.Property, error)
}

// PropertyService shapes requests and responses at the API boundary. On
// write it decides between create, reactivate and duplicate; on read it
// flattens stored rows into the field names clients use. It is the only
// layer allowed to turn a storage outage into a degraded success, and it
// never does so for validation failures.
type PropertyService struct {
	store  Store
	logger *logrus.Logger
}

func NewPropertyService(st Store, logger *logrus.Logger) *PropertyService {
	if logger == nil {
		logger = logrus.New()
	}
	return &PropertyService{store: st, logger: logger}
}

// CreateResult reports how a create request was satisfied.
type CreateResult struct {
	Property    PropertyView
	Reactivated bool
	Degraded    bool
}

// Create persists a new property, reactivates a soft-deleted row at the
// same address, or reports the active duplicate. The pre-check here is a
// UX nicety; the unique constraint remains the arbiter when two creates
// race.
func (s *PropertyService) Create(ctx context.Context, payload map[string]interface{}) (*CreateResult, error) {
	if err := store.ValidateIdentity(payload); err != nil {
		return nil, err
	}

	address, _ := payload["address"].(string)
	city, _ := payload["city"].(string)
	state, _ := payload["state"].(string)

	// The lookup matches the scope of the unique key, (address, city,
	// state); zip stays out of it so a row stored under another zip is
	// still found.
	existing, err := s.store.FindByAddress(ctx, address, city, state, "")
	switch {
	case err == nil:
		if existing.Status == models.StatusDeleted || existing.Status == "" {
			return s.reactivate(ctx, existing.ID, payload)
		}
		return nil, &store.DuplicateError{PropertyID: existing.ID}
	case errors.Is(err, store.ErrNotFound):
		// address is free
	case errors.Is(err, store.ErrStorageUnavailable):
		s.logger.WithError(err).Warn("Storage unavailable during duplicate check, returning non-persistent property")
		return s.degraded(payload), nil
	default:
		return nil, err
	}

	created, err := s.store.Create(ctx, payload)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			// Lost the create race; recover the winner's id for the caller.
			if dup.PropertyID == 0 {
				if winner, lookupErr := s.store.FindByAddress(ctx, address, city, state, ""); lookupErr == nil {
					dup.PropertyID = winner.ID
				}
			}
			return nil, dup
		}
		if errors.Is(err, store.ErrStorageUnavailable) {
			s.logger.WithError(err).Warn("Storage unavailable during create, returning non-persistent property")
			return s.degraded(payload), nil
		}
		return nil, err
	}
	return &CreateResult{Property: MapProperty(created)}, nil
}

func (s *PropertyService) reactivate(ctx context.Context, id int64, payload map[string]interface{}) (*CreateResult, error) {
	merged := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged["status"] = models.StatusActive

	updated, err := s.store.Update(ctx, id, merged)
	if err != nil {
		if errors.Is(err, store.ErrStorageUnavailable) {
			s.logger.WithError(err).Warn("Storage unavailable during reactivation, returning non-persistent property")
			return s.degraded(payload), nil
		}
		return nil, err
	}
	s.logger.WithField("id", id).Info("Reactivated previously deleted property")
	return &CreateResult{Property: MapProperty(updated), Reactivated: true}, nil
}

// degraded builds a process-local stand-in so the client keeps functioning
// through a storage outage. The record is never persisted and the
// timestamp-derived id is only unique enough for the current session.
func (s *PropertyService) degraded(payload map[string]interface{}) *CreateResult {
	now := time.Now().UTC()
	view := make(PropertyView, len(payload)+4)
	for k, v := range payload {
		view[k] = v
	}
	view["id"] = now.UnixMilli()
	view["status"] = models.StatusActive
	view["createdAt"] = now.Format(time.RFC3339)
	view["updatedAt"] = now.Format(time.RFC3339)
	return &CreateResult{Property: view, Degraded: true}
}

// Get returns the flattened view of one property.
func (s *PropertyService) Get(ctx context.Context, id int64) (PropertyView, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return MapProperty(p), nil
}

// List returns the flattened rows. On a storage outage the read degrades to
// an empty result with degraded=true instead of failing the request.
func (s *PropertyService) List(ctx context.Context, filters store.ListFilters) ([]PropertyView, bool, error) {
	properties, err := s.store.List(ctx, filters)
	if err != nil {
		if errors.Is(err, store.ErrStorageUnavailable) {
			s.logger.WithError(err).Warn("Storage unavailable during list, returning empty result")
			return []PropertyView{}, true, nil
		}
		return nil, false, err
	}

	views := make([]PropertyView, len(properties))
	for i := range properties {
		views[i] = MapProperty(&properties[i])
	}
	return views, false, nil
}

// Update applies a partial payload and returns the reshaped row.
func (s *PropertyService) Update(ctx context.Context, id int64, payload map[string]interface{}) (PropertyView, error) {
	updated, err := s.store.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return MapProperty(updated), nil
}

// Delete soft-deletes the property and returns its final view.
func (s *PropertyService) Delete(ctx context.Context, id int64) (PropertyView, error) {
	deleted, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	return MapProperty(deleted), nil
}

func (s *PropertyService) Stats(ctx context.Context) (*models.PropertyStats, error) {
	return s.store.Stats(ctx)
}

// Search looks a property up by address key regardless of status, backing
// the pre-create existence check in the UI.
func (s *PropertyService) Search(ctx context.Context, address, city, state, zip string) (PropertyView, error) {
	p, err := s.store.FindByAddress(ctx, address, city, state, zip)
	if err != nil {
		return nil, err
	}
	return MapProperty(p), nil
}
