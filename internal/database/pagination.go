package database

import "gorm.io/gorm"

// MaxPage bounds page numbers so (Number-1)*Size cannot overflow.
const MaxPage = 1_000_000

// Page is a one-based page request. Callers normalize it at the boundary.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		return 0
	}
	if n > MaxPage {
		n = MaxPage
	}
	return (n - 1) * p.Size
}

// Scope applies LIMIT/OFFSET. A zero size means no limit.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Offset(p.Offset()).Limit(p.Size)
}
