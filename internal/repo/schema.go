package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cms_admin/internal/models"
)

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("identifier ASC")
}

func (r *GormRepo) GetModelByIdentifier(ctx context.Context, identifier string) (*models.Model, error) {
	var m models.Model
	if err := r.DB.WithContext(ctx).
		Preload("Fields", orderedFields).
		Where("identifier = ?", identifier).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) GetModelByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	var m models.Model
	if err := r.DB.WithContext(ctx).
		Preload("Fields", orderedFields).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) ListModels(ctx context.Context) ([]models.Model, error) {
	items := make([]models.Model, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Fields", orderedFields).
		Order("identifier ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateModel(ctx context.Context, m *models.Model) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Model{}).Where("identifier = ?", m.Identifier).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return createErr(tx.Omit("Fields").Create(m).Error)
	})
}

// DeleteModel removes the model together with its fields.
func (r *GormRepo) DeleteModel(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	var m models.Model
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("model_id = ?", id).Delete(&models.Field{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Model{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateField inserts f after checking that its model exists and that the
// identifier is free within that model.
func (r *GormRepo) CreateField(ctx context.Context, f *models.Field) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Model
		if err := tx.Select("id").Where("id = ?", f.ModelID).First(&parent).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Field{}).
			Where("model_id = ? AND identifier = ?", f.ModelID, f.Identifier).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return createErr(tx.Create(f).Error)
	})
}

func (r *GormRepo) ListFields(ctx context.Context, modelID uuid.UUID) ([]models.Field, error) {
	items := make([]models.Field, 0)
	if err := orderedFields(r.DB.WithContext(ctx)).
		Where("model_id = ?", modelID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) DeleteField(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	var f models.Field
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&f).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Field{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}
