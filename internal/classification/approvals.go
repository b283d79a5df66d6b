package classification

import (
	"context"
	"sync"
	"time"
)

// ApprovalStore keeps granted tool approvals. Records are never deleted;
// expired records simply stop matching, which keeps the history intact
// for evidence purposes.
type ApprovalStore struct {
	mu        sync.RWMutex
	approvals map[string]ApprovalRecord
}

func NewApprovalStore() *ApprovalStore {
	return &ApprovalStore{approvals: make(map[string]ApprovalRecord)}
}

// Grant records an approval for a tool valid for ttlDays from now.
// Re-granting replaces the previous record.
func (s *ApprovalStore) Grant(_ context.Context, toolID, approver string, ttlDays int, now time.Time) ApprovalRecord {
	record := ApprovalRecord{
		ToolID:    toolID,
		Approver:  approver,
		GrantedAt: now,
		ExpiresAt: now.AddDate(0, 0, ttlDays),
	}
	s.mu.Lock()
	s.approvals[toolID] = record
	s.mu.Unlock()
	return record
}

// Find returns the approval for a tool if one exists, active or not.
// Callers decide what expiry means via IsActive.
func (s *ApprovalStore) Find(_ context.Context, toolID string) (ApprovalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.approvals[toolID]
	return record, ok
}

// FindActive returns the approval only when it covers now.
func (s *ApprovalStore) FindActive(ctx context.Context, toolID string, now time.Time) (ApprovalRecord, bool) {
	record, ok := s.Find(ctx, toolID)
	if !ok || !record.IsActive(now) {
		return ApprovalRecord{}, false
	}
	return record, true
}
