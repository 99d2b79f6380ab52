package store

import "time"

// GORM models used by the relational store. Books link to authors and
// genres through explicit junction tables; the junction rows are the
// existence-only edges of the catalog graph.
type BookModel struct {
	ID        uint   `gorm:"primaryKey"`
	BookID    string `gorm:"uniqueIndex;not null"`
	Title     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AuthorModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

type GenreModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

type BookAuthorModel struct {
	BookID   uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false"`
}

type BookGenreModel struct {
	BookID  uint `gorm:"primaryKey;autoIncrement:false"`
	GenreID uint `gorm:"primaryKey;autoIncrement:false"`
}
