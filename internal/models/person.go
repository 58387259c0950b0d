package models

import (
	"gorm.io/gorm"
)

// Person is someone with a folder in the dataset.
type Person struct {
	gorm.Model
	Name          string         `gorm:"uniqueIndex;not null"`
	EnrolledFaces []EnrolledFace `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
