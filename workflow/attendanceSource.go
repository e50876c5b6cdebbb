package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/wagelink/workpay_backend/models"
)

// AttendanceSource is the read-only boundary the settlement engine sees.
// A source answers "was there a record for this employee-day", never more:
// it cannot mutate anything and a benign miss is (nil, false, nil), not an
// error.
type AttendanceSource interface {
	GetAttendance(ctx context.Context, employee string, day uint64) (*models.AttendanceRecord, bool, error)
}

// DefaultSourceId names the local register in escrow records.
const DefaultSourceId = "register"

// SourceRegistry resolves the opaque source id stored on an escrow record to
// a concrete AttendanceSource at claim time.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]AttendanceSource
}

func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]AttendanceSource)}
}

func (r *SourceRegistry) Register(id string, source AttendanceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[id] = source
}

func (r *SourceRegistry) Resolve(id string) (AttendanceSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("unknown attendance source %q", id)
	}
	return source, nil
}

// RegisterSource adapts the local attendance register to AttendanceSource.
type RegisterSource struct{}

func (RegisterSource) GetAttendance(ctx context.Context, employee string, day uint64) (*models.AttendanceRecord, bool, error) {
	return models.GetAttendance(ctx, employee, day)
}
