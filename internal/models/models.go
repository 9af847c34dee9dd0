package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PrivilegeGod    = "god"
	PrivilegeAdmin  = "admin"
	PrivilegeEditor = "editor"
	PrivilegeUser   = "user"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Username  string    `gorm:"uniqueIndex;not null"        json:"username"`
	Email     string    `gorm:"uniqueIndex;not null"        json:"email"`
	Password  string    `gorm:"not null"                    json:"-"`
	Privilege string    `gorm:"not null;default:user"       json:"privilege"`
	Active    bool      `gorm:"not null;default:false"      json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) CanManageSchema() bool {
	return u.Privilege == PrivilegeGod || u.Privilege == PrivilegeAdmin
}

type Model struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Identifier  string    `gorm:"uniqueIndex;not null"  json:"identifier"`
	ModelName   string    `gorm:"not null"              json:"modelName"`
	Description string    `json:"description"`
	Fields      []Field   `gorm:"constraint:OnDelete:CASCADE" json:"fields"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Field struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                           json:"id"`
	ModelID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_model_field" json:"modelId"`
	Identifier   string    `gorm:"not null;uniqueIndex:idx_model_field"           json:"identifier"`
	FieldName    string    `gorm:"not null"                                       json:"fieldName"`
	Type         string    `gorm:"not null"                                       json:"type"`
	DefaultValue string    `json:"defaultValue"`
	Description  string    `json:"description"`
	IsHide       bool      `json:"isHide"`
	IsMedia      bool      `json:"isMedia"`
	IsUnique     bool      `json:"isUnique"`
	IsRequired   bool      `json:"isRequired"`
	IsSystem     bool      `json:"isSystem"`
	IsPrimaryKey bool      `json:"isPrimaryKey"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (f *Field) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &Model{}, &Field{}}
}
