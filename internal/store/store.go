// Package store persists finished exploration runs to PostgreSQL.
//
// The database is an output sink: runs are written once and never read back
// by wdtree itself.
package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}
