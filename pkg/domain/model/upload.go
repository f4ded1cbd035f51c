package model

// UploadRequest describes a folder pushed to a hub model repository
type UploadRequest struct {
	FolderPath string // Local folder whose files are uploaded
	RepoID     string // Target repository, e.g. "org/model-x"
	PathInRepo string // Destination path segment inside the repository
	Revision   string // Target branch, "main" when empty
	Summary    string // Commit title
}

// UploadFile is a single file scheduled for a commit
type UploadFile struct {
	LocalPath  string
	PathInRepo string
	Size       int64
	SHA256     string // hex encoded
	Sample     []byte // first 512 bytes, used by the hub to pick the upload mode
	Mode       UploadMode
}

// UploadMode is how the hub wants a file to be transferred
type UploadMode string

const (
	UploadModeRegular UploadMode = "regular"
	UploadModeLFS     UploadMode = "lfs"
)

// CommitInfo represents the commit created by an upload
type CommitInfo struct {
	CommitURL string `json:"commitUrl"`
	CommitOID string `json:"commitOid"`
	Files     int    `json:"-"`
}
