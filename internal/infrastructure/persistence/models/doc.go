// Package models contains GORM-specific persistence models that map to
// database tables. They are kept separate from domain entities so the
// domain layer stays free of ORM tags; mappers on each model convert in
// both directions.
package models
