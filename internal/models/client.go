// Package models defines the rows imgseal reads from or projects onto the
// relational store.
package models

// ImageRef ties a client row, matched by its business key (phone number),
// to the generated identifier of its encrypted image.
type ImageRef struct {
	// BusinessKey is the value of the business key column (e.g. phone_number).
	BusinessKey string
	// GeneratedID is written to the reference column (e.g. image_url).
	GeneratedID string
}

// Target names the table and columns the mapping is projected onto.
type Target struct {
	Table     string
	KeyColumn string
	RefColumn string
	// RefType is the SQL type the generated id is cast to. Empty means no cast.
	RefType string
}
