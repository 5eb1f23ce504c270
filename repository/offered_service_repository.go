package repository

import (
	"context"
	"fmt"

	"github.com/servicosdigitais/plataforma/models"
	"gorm.io/gorm"
)

// OfferedServiceRepositoryImpl implements OfferedServiceRepository interface
type OfferedServiceRepositoryImpl struct {
	*BaseRepository[models.OfferedService, models.OfferedServiceFilter]
}

// NewOfferedServiceRepository creates a new offered service repository
func NewOfferedServiceRepository(db *gorm.DB) OfferedServiceRepository {
	return &OfferedServiceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OfferedService, models.OfferedServiceFilter](db),
	}
}

// ListByProvider retrieves all services advertised by one provider
func (r *OfferedServiceRepositoryImpl) ListByProvider(ctx context.Context, providerID uint) ([]*models.OfferedService, error) {
	return r.ByFilter(ctx, models.OfferedServiceFilter{ProviderID: &providerID}, "created_at DESC", 0, 0)
}

// Update persists changes to an existing service listing
func (r *OfferedServiceRepositoryImpl) Update(ctx context.Context, service *models.OfferedService) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if err = db.Save(service).Error; err != nil {
		return fmt.Errorf("failed to update offered service: %w", err)
	}

	return nil
}

// Delete removes a single service listing
func (r *OfferedServiceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if err = db.Delete(&models.OfferedService{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete offered service: %w", err)
	}

	return nil
}

// DeleteByProvider removes all service listings owned by a provider
func (r *OfferedServiceRepositoryImpl) DeleteByProvider(ctx context.Context, providerID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if err = db.Where("provider_id = ?", providerID).Delete(&models.OfferedService{}).Error; err != nil {
		return fmt.Errorf("failed to delete provider services: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *OfferedServiceRepositoryImpl) applyFilter(query *gorm.DB, filter models.OfferedServiceFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.Name != nil {
		query = query.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	return query
}

// ByFilter retrieves offered services based on filter criteria
func (r *OfferedServiceRepositoryImpl) ByFilter(ctx context.Context, filter models.OfferedServiceFilter, orderBy string, limit, offset int) ([]*models.OfferedService, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.OfferedService{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.OfferedService
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find offered services by filter: %w", err)
	}
	return rows, nil
}

// Count returns the number of offered services matching the filter
func (r *OfferedServiceRepositoryImpl) Count(ctx context.Context, filter models.OfferedServiceFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.OfferedService{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count offered services: %w", err)
	}
	return count, nil
}

// Exists checks if any offered service matches the filter
func (r *OfferedServiceRepositoryImpl) Exists(ctx context.Context, filter models.OfferedServiceFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
