package domain

import (
	"fmt"
	"time"
)

type PublicationType string

const (
	PublicationTypeArticle     PublicationType = "article"
	PublicationTypeProceedings PublicationType = "proceedings"
	PublicationTypeBook        PublicationType = "book"
)

func (t PublicationType) Valid() bool {
	switch t {
	case PublicationTypeArticle, PublicationTypeProceedings, PublicationTypeBook:
		return true
	}
	return false
}

// Publication is a bibliographic record. Its authors live in Authorship rows
// and are loaded through the ledger, never through a gorm association.
type Publication struct {
	ID              uint64          `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"size:500;not null"`
	Year            uint            `json:"year" gorm:"not null"`
	DOI             *string         `json:"doi" gorm:"column:doi;size:255"`
	PublicationType PublicationType `json:"publication_type" gorm:"size:20;not null;default:article"`
	JournalID       *uint64         `json:"journal_id"`
	Journal         *Journal        `json:"journal,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Volume          string          `json:"volume" gorm:"size:50"`
	Pages           string          `json:"pages" gorm:"size:50"`
	Abstract        *string         `json:"abstract"`
	File            string          `json:"file" gorm:"size:500"`
	CitationKey     string          `json:"citation_key" gorm:"size:255;not null;uniqueIndex"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Authors  []Author  `json:"authors" gorm:"-"`
	Tags     []Tag     `json:"tags" gorm:"many2many:publication_tags;constraint:OnDelete:CASCADE"`
	Projects []Project `json:"projects,omitempty" gorm:"many2many:project_publications;constraint:OnDelete:CASCADE"`
}

func (p Publication) String() string {
	return fmt.Sprintf("%s (%d)", p.Title, p.Year)
}

// DOIValue returns the DOI or "" when unset.
func (p Publication) DOIValue() string {
	if p.DOI == nil {
		return ""
	}
	return *p.DOI
}

// Annotation is a rectangle on a PDF page, in page-relative fractions.
type Annotation struct {
	ID            uint64       `json:"id" gorm:"primaryKey"`
	PublicationID uint64       `json:"-" gorm:"not null;index"`
	Publication   *Publication `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	PageNumber    uint         `json:"page_number" gorm:"not null"`
	X             float64      `json:"x"`
	Y             float64      `json:"y"`
	Width         float64      `json:"width"`
	Height        float64      `json:"height"`
	Color         string       `json:"color" gorm:"size:20;not null;default:'#ffeb3b'"`
	Comment       string       `json:"comment"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

const DefaultAnnotationColor = "#ffeb3b"
