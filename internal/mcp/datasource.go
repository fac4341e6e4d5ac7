package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/storage"
)

// DataSource abstracts the data layer for MCP tools so handlers can be
// tested against an in-memory fake.
type DataSource interface {
	QuerySessions(ctx context.Context, start, end time.Time, limit int) ([]models.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error)
	QueryReps(ctx context.Context, sessionID uuid.UUID) ([]models.RepRow, error)
	QueryAngleSeries(ctx context.Context, sessionID uuid.UUID) ([]models.SampleRow, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
