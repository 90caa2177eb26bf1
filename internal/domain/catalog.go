package domain

// Journal is the venue a publication appeared in.
type Journal struct {
	ID        uint64  `json:"id" gorm:"primaryKey"`
	Name      string  `json:"name" gorm:"size:255;not null;index"`
	ShortName *string `json:"short_name" gorm:"size:255"`
	ISSN      *string `json:"issn" gorm:"column:issn;size:20"`
	Publisher *string `json:"publisher" gorm:"size:255"`
}

// Tag is a free label; names are unique.
type Tag struct {
	ID   uint64 `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;not null;uniqueIndex"`
}

// Project groups publications, e.g. everything cited by one paper.
type Project struct {
	ID           uint64        `json:"id" gorm:"primaryKey"`
	Title        string        `json:"title" gorm:"size:255;not null"`
	Description  string        `json:"description"`
	Publications []Publication `json:"-" gorm:"many2many:project_publications;constraint:OnDelete:CASCADE"`
}
