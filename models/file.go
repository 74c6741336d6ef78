package models

import "time"

// File is a metadata record for stored bytes. The bytes themselves live on the
// storage nodes behind the transport adapter; ReplicaLocations is informational
// and never consulted for correctness.
type File struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileName         string     `gorm:"type:varchar(255);not null" json:"fileName"`
	Size             int64      `gorm:"not null" json:"size"`
	OwnerID          string     `gorm:"type:varchar(128);not null;index" json:"ownerId"`
	FolderID         *string    `gorm:"type:varchar(36);index" json:"folderId"`
	ReplicaLocations []string   `gorm:"serializer:json" json:"replicaLocations,omitempty"`
	Deleted          bool       `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	ShareWith        []string   `gorm:"serializer:json" json:"shareWith,omitempty"`
	Highlighted      bool       `gorm:"not null;default:false" json:"highlighted"`
	CreatedAt        time.Time  `gorm:"index" json:"createdAt"`
}

func (File) TableName() string {
	return "files"
}

// InFolder reports whether the file sits in the given folder, with the root
// addressed by the empty string.
func (f File) InFolder(folderID string) bool {
	if folderID == "" {
		return f.FolderID == nil || *f.FolderID == ""
	}
	return f.FolderID != nil && *f.FolderID == folderID
}

// SharedWith reports whether the file's share list contains the recipient.
func (f File) SharedWith(recipient string) bool {
	for _, r := range f.ShareWith {
		if r == recipient {
			return true
		}
	}
	return false
}
