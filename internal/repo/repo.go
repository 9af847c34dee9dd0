package repo

import (
	"errors"

	"gorm.io/gorm"
)

var ErrAlreadyExists = errors.New("already exists")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// createErr reports a unique index violation as ErrAlreadyExists. A row can
// still appear between the existence check and the insert.
func createErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}
