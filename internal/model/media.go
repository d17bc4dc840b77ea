package model

import "time"

// MediaRecord describes one downloaded attachment persisted to disk.
// Never mutated after creation; removed by the retention sweep.
type MediaRecord struct {
	ID          string    `json:"id"`
	Path        string    `json:"-"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Caption     string    `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
