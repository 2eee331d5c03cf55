package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// Ensure Transactor implements store.Transactor
var _ store.Transactor = (*Transactor)(nil)

// Transactor implements store.Transactor with gorm.DB.Transaction.
type Transactor struct {
	db     *gorm.DB
	cipher secrets.Cipher
}

// NewTransactor creates a new Transactor
func NewTransactor(db *gorm.DB, cipher secrets.Cipher) *Transactor {
	return &Transactor{db: db, cipher: cipher}
}

func (t *Transactor) InTx(ctx context.Context, fn func(tx store.Stores) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx, t.cipher))
	})
	return translate(err)
}
