package distance

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// Fallback asks Primary first and Secondary when Primary fails. A nil
// Primary goes straight to Secondary.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

// Distance implements Provider.
func (f Fallback) Distance(ctx context.Context, from, to models.Location) (Result, error) {
	if f.Primary != nil {
		res, err := f.Primary.Distance(ctx, from, to)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.WithError(err).WithFields(log.Fields{
			"from": from.Name,
			"to":   to.Name,
		}).Warn("primary distance provider failed, using fallback")
	}
	return f.Secondary.Distance(ctx, from, to)
}
