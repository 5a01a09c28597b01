package models

import (
	"path/filepath"

	"gorm.io/gorm"
)

const (
	MediaItemGraph = "graph"
	MediaItemText  = "text"
)

// MediaItemTypeNames maps media item types to human readable names.
var MediaItemTypeNames = map[string]string{
	MediaItemGraph: "Graph",
	MediaItemText:  "Text",
}

type Dataset struct {
	gorm.Model
	Name       string      `gorm:"not null" json:"name"`
	Info       string      `json:"info"`
	MediaItems []MediaItem `json:"media_items,omitempty"`
	Activities []Activity  `gorm:"many2many:activity_datasets;" json:"-"`
}

// MediaItem is stimulus content shown next to a question: a graph image
// (Path) or a text passage (Text).
type MediaItem struct {
	gorm.Model
	Type      string `gorm:"not null" json:"type"`
	DatasetID uint   `gorm:"not null;index" json:"dataset_id"`
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Text      string `json:"text,omitempty"`
}

func (m *MediaItem) Filename() string {
	if m.Path == "" {
		return ""
	}
	return filepath.Base(m.Path)
}

func (m *MediaItem) Directory() string {
	if m.Path == "" {
		return ""
	}
	return filepath.Dir(m.Path)
}
