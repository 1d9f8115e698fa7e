package postgres

import (
	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// window returns a scope that orders and pages a query. Sort keys outside
// columns fall back to fallback, so user input never reaches ORDER BY.
func window(w repositories.Window, columns map[string]string, fallback string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := columns[w.SortBy]
		if !ok {
			column = columns[fallback]
		}
		direction := " ASC"
		if w.Desc {
			direction = " DESC"
		}

		limit := w.Limit
		switch {
		case limit <= 0:
			limit = defaultPageSize
		case limit > maxPageSize:
			limit = maxPageSize
		}

		db = db.Order(column + direction).Limit(limit)
		if w.Offset > 0 {
			db = db.Offset(w.Offset)
		}
		return db
	}
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; id == 0 || dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
