package models

import (
	"time"

	"github.com/lib/pq"
)

// Organization: организатор, от имени которого публикуются события.
type Organization struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Type        string         `db:"type" json:"type"`
	Logo        string         `db:"logo" json:"logo"`
	Categories  pq.StringArray `db:"categories" json:"categories"`
	CreatedBy   int64          `db:"created_by" json:"created_by"`
	UpdatedBy   int64          `db:"updated_by" json:"updated_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
