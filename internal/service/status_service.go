package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/repository"
)

const probeTimeout = 5 * time.Second

type statusService struct {
	catalog repository.CatalogRepository

	mu     sync.RWMutex
	status Status
}

// NewStatusService creates the readiness state machine. It starts in the
// unauthenticated entry state; session changes and manual refreshes move it.
func NewStatusService(catalog repository.CatalogRepository) StatusService {
	return &statusService{
		catalog: catalog,
		status:  Status{State: StateUnauthenticated},
	}
}

func (s *statusService) Current() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Refresh runs the existence probe against the catalog and classifies the
// outcome: a missing relation means the schema has not been provisioned,
// anything else failing means the store is unreachable.
func (s *statusService) Refresh(ctx context.Context) Status {
	s.setStatus(Status{State: StateChecking})

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var status Status
	err := s.catalog.Probe(ctx)
	switch {
	case err == nil:
		status = Status{State: StateReady}
	case errors.Is(err, repository.ErrSchemaMissing):
		status = Status{
			State:  StateSchemaMissing,
			Detail: "catalog tables are missing; run the setup script against the database",
		}
	default:
		status = Status{
			State:  StateUnreachable,
			Detail: "unable to reach the store database: " + err.Error(),
		}
	}

	s.setStatus(status)

	l := log.Ctx(ctx)
	l.Info().Str("state", string(status.State)).Msg("readiness probe completed")
	return status
}

// OnSessionChange re-drives the probe on sign-in and returns the machine to
// the unauthenticated entry state on sign-out.
func (s *statusService) OnSessionChange(ev SessionEvent) {
	if !ev.SignedIn {
		s.setStatus(Status{State: StateUnauthenticated})
		return
	}
	s.Refresh(context.Background())
}

func (s *statusService) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}
