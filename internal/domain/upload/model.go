package upload

import "time"

// Upload maps to the uploads table: one row of metadata per stored file.
type Upload struct {
	ID           int64     `db:"id" json:"id"`
	Category     string    `db:"category" json:"category"`
	OriginalName string    `db:"original_name" json:"original_name"`
	StoredName   string    `db:"stored_name" json:"stored_name"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// allowedExtensions lists permitted file extensions per upload category.
// Image uploads include DICOM and NIfTI medical imaging formats.
var allowedExtensions = map[string][]string{
	"images":    {".jpg", ".jpeg", ".png", ".dcm", ".nii", ".nii.gz"},
	"documents": {".pdf", ".txt", ".doc", ".docx"},
	"lab-data":  {".csv", ".xlsx", ".json", ".xml"},
	"general":   {".jpg", ".jpeg", ".png", ".pdf", ".txt", ".csv", ".json"},
}
