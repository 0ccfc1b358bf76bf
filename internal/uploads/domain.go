package uploads

import "time"

// Record is the bookkeeping entry for one data upload. Only the metadata is
// kept; the file itself is processed and discarded at ingest time.
type Record struct {
	ID         int64
	Filename   string
	Kind       string
	Size       int64
	RowCount   int
	UploadedBy string
	Note       string
	CreatedAt  time.Time
}

// Input carries the fields accepted when recording an upload.
type Input struct {
	Filename   string
	Kind       string
	Size       int64
	RowCount   int
	UploadedBy string
	Note       string
}
