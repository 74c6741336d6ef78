package models

import "time"

// Folder is a flat grouping of files. Folders do not nest: a file references at
// most one folder and folders carry no parent reference.
type Folder struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID     string     `gorm:"type:varchar(128);not null;index" json:"ownerId"`
	Deleted     bool       `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	ShareWith   []string   `gorm:"serializer:json" json:"shareWith,omitempty"`
	Highlighted bool       `gorm:"not null;default:false" json:"highlighted"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
}

func (Folder) TableName() string {
	return "folders"
}

func (f Folder) SharedWith(recipient string) bool {
	for _, r := range f.ShareWith {
		if r == recipient {
			return true
		}
	}
	return false
}
