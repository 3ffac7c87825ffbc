// Package snapshots exports the working state to a sink and restores it at
// boot.
package snapshots

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

const batchSize = 200

type store interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service moves the whole working state between the store and a sink.
type Service struct {
	store store
	sink  Sink
	logg  *logger.Logger
}

// NewService builds the snapshot service. A nil sink disables Flush and
// Restore but keeps Export available.
func NewService(st store, sink Sink, logg *logger.Logger) (*Service, error) {
	if st == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{store: st, sink: sink, logg: logg}, nil
}

// Enabled reports whether a sink is configured.
func (s *Service) Enabled() bool {
	return s.sink != nil
}

// Export reads every collection inside one transaction.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	doc := &Document{}
	err := s.store.WithTx(ctx, func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		steps := []struct {
			name string
			run  func() error
		}{
			{"users", func() error { return tx.Order("created_at ASC, id ASC").Find(&doc.Users).Error }},
			{"orders", func() error {
				return tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
					Order("created_at ASC, id ASC").Find(&doc.Orders).Error
			}},
			{"invoices", func() error { return tx.Order("created_at ASC, id ASC").Find(&doc.Invoices).Error }},
			{"rides", func() error { return tx.Order("created_at ASC, id ASC").Find(&doc.Rides).Error }},
			{"notifications", func() error { return tx.Order("created_at ASC, id ASC").Find(&doc.Notifications).Error }},
			{"tickets", func() error { return tx.Order("created_at ASC, id ASC").Find(&doc.Tickets).Error }},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export "+step.name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Flush exports the state and writes it to the sink.
func (s *Service) Flush(ctx context.Context) error {
	if s.sink == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "snapshot sink disabled")
	}
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode snapshot")
	}
	if err := s.sink.Save(ctx, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save snapshot")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"sink": s.sink.Name(), "bytes": len(data)}), "snapshot flushed")
	return nil
}

// Restore imports the sink's snapshot into an empty store. It reports false
// when the sink holds nothing.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	if s.sink == nil {
		return false, nil
	}
	data, err := s.sink.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load snapshot")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode snapshot")
	}
	if err := s.Import(ctx, &doc); err != nil {
		return false, err
	}
	counts := make(map[string]any, 6)
	for k, v := range doc.Counts() {
		counts[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, counts), "snapshot restored")
	return true, nil
}

// Import writes doc into the store in dependency order. The store must
// hold no users.
func (s *Service) Import(ctx context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid snapshot")
	}
	for i := range doc.Orders {
		for j := range doc.Orders[i].Items {
			doc.Orders[i].Items[j].OrderID = doc.Orders[i].ID
			doc.Orders[i].Items[j].Position = j
		}
	}

	return s.store.WithTx(ctx, func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
		}
		if existing > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "store already holds data")
		}

		if err := insert(tx, "users", doc.Users); err != nil {
			return err
		}
		if err := insert(tx, "orders", doc.Orders); err != nil {
			return err
		}
		if err := insert(tx, "rides", doc.Rides); err != nil {
			return err
		}
		if err := insert(tx, "invoices", doc.Invoices); err != nil {
			return err
		}
		if err := insert(tx, "notifications", doc.Notifications); err != nil {
			return err
		}
		return insert(tx, "tickets", doc.Tickets)
	})
}

func insert[T any](tx *gorm.DB, name string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(&rows, batchSize).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import "+name)
	}
	return nil
}
