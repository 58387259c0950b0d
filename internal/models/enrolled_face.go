package models

import (
	"gorm.io/gorm"
)

// EnrolledFace is one dataset image that went through encoding.
// Faces counts the descriptors it produced; zero means no face was found.
type EnrolledFace struct {
	gorm.Model
	PersonID uint
	Path     string
	Faces    int
}
