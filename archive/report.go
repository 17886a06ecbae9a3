package archive

import (
	"context"
	"strings"
	"time"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/provider"
)

// Report is one completed analysis.
type Report struct {
	Barcode     string    `json:"barcode"`
	Content     string    `json:"content"`
	Chunks      int       `json:"chunks"`
	SessionID   string    `json:"session_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Archive records and looks up reports.
type Archive struct {
	store provider.ContextStore[Report]
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

// New creates an archive over store. A ttl of 0 keeps reports forever.
func New(store provider.ContextStore[Report], ttl time.Duration, log *logger.Logger) *Archive {
	if log == nil {
		log = logger.Nop()
	}
	return &Archive{store: store, ttl: ttl, log: log.WithComponent("archive"), now: time.Now}
}

// Record stores r under its barcode, replacing any earlier report.
func (a *Archive) Record(ctx context.Context, r Report) error {
	r.Barcode = strings.TrimSpace(r.Barcode)
	if r.Barcode == "" {
		return errors.MissingField("barcode")
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = a.now().UTC()
	}
	if err := a.store.Save(ctx, r.Barcode, &r, a.ttl); err != nil {
		return errors.Storage("save report", err)
	}
	a.log.Debug("report archived", logger.Fields(logger.FieldSubjectID, r.Barcode, "length", len(r.Content)))
	return nil
}

// Lookup returns NOT_FOUND when no report is archived for barcode.
func (a *Archive) Lookup(ctx context.Context, barcode string) (*Report, error) {
	barcode = strings.TrimSpace(barcode)
	r, err := a.store.Load(ctx, barcode)
	if err != nil {
		return nil, errors.Storage("load report", err)
	}
	if r == nil {
		return nil, errors.NotFound("report", barcode)
	}
	return r, nil
}

func (a *Archive) Forget(ctx context.Context, barcode string) error {
	if err := a.store.Delete(ctx, strings.TrimSpace(barcode)); err != nil {
		return errors.Storage("delete report", err)
	}
	return nil
}

// Barcodes lists archived barcodes when the store supports it.
func (a *Archive) Barcodes(ctx context.Context) ([]string, error) {
	l, ok := a.store.(Lister)
	if !ok {
		return nil, errors.Validation("The archive backend cannot list reports.")
	}
	keys, err := l.Keys(ctx)
	if err != nil {
		return nil, errors.Storage("list reports", err)
	}
	return keys, nil
}
