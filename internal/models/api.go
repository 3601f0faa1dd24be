package models

// Response is the envelope every JSON endpoint answers with
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse answers /api/list
type ListResponse struct {
	Success    bool             `json:"success"`
	Files      []DirectoryEntry `json:"files"`
	CurrentDir string           `json:"current_dir"`
}

// ViewResponse answers /api/view
type ViewResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	ViewType string `json:"view_type"`
	IsText   bool   `json:"is_text"`
	IsImage  bool   `json:"is_image"`
	Content  string `json:"content"`
}

// DeleteResponse answers /api/delete
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

// PasteResponse answers /api/paste
type PasteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Pasted  int    `json:"pasted"`
	Failed  int    `json:"failed"`
}

// UsageResponse answers /api/usage
type UsageResponse struct {
	Success bool `json:"success"`
	Usage
}

// SessionResponse answers /api/session
type SessionResponse struct {
	Success     bool   `json:"success"`
	AuthEnabled bool   `json:"auth_enabled"`
	Subject     string `json:"subject,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// LoginResponse answers /api/login
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// CreateFolderRequest is the body of /api/create-folder
type CreateFolderRequest struct {
	FolderName string `json:"folder_name"`
	Dir        string `json:"dir"`
}

// DeleteRequest is the body of /api/delete
type DeleteRequest struct {
	Paths []string `json:"paths"`
}

// PasteRequest is the body of /api/paste
type PasteRequest struct {
	SourcePaths []string `json:"sourcePaths"`
	DestDir     string   `json:"destDir"`
	Operation   string   `json:"operation"`
}

// LoginRequest is the body of /api/login
type LoginRequest struct {
	Password string `json:"password"`
}
