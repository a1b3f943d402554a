package pharmacy

import "context"

// ScanRepository is the scan document store. Implementations return
// ErrScanNotFound for missing documents; Latest on an empty collection is
// also ErrScanNotFound.
type ScanRepository interface {
	Insert(ctx context.Context, s *Scan) error
	GetByID(ctx context.Context, id string) (*Scan, error)
	Latest(ctx context.Context) (*Scan, error)
	// SetApproved updates the identified scan's status and approved list.
	SetApproved(ctx context.Context, id, status string, approved []ApprovedMedicine) error
	List(ctx context.Context, limit, offset int) ([]*Scan, int, error)
}
