package domain

import "fmt"

// Author is a person credited on one or more publications.
// Names are not unique; see the dedupe package.
type Author struct {
	ID         uint64  `json:"id" gorm:"primaryKey"`
	FirstName  string  `json:"first_name" gorm:"size:100;not null"`
	LastName   string  `json:"last_name" gorm:"size:100;not null;index"`
	ORCID      *string `json:"orcid" gorm:"column:orcid;size:19"`
	University *string `json:"university" gorm:"size:255"`
	Department *string `json:"department" gorm:"size:255"`
}

func (a Author) String() string {
	return fmt.Sprintf("%s, %s", a.LastName, a.FirstName)
}

// Authorship links a publication to an author at a rank.
// (publication, author) and (publication, position) are both unique.
type Authorship struct {
	ID            uint64       `json:"id" gorm:"primaryKey"`
	PublicationID uint64       `json:"publication_id" gorm:"not null;uniqueIndex:idx_authorship_publication_author;uniqueIndex:idx_authorship_publication_position"`
	AuthorID      uint64       `json:"author_id" gorm:"not null;index;uniqueIndex:idx_authorship_publication_author"`
	Position      uint         `json:"position" gorm:"not null;uniqueIndex:idx_authorship_publication_position"`
	Publication   *Publication `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Author        *Author      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
