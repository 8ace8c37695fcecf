package domain

// Attachment describes one file stored against a task.
type Attachment struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  Timestamp `json:"uploaded_at"`
}
