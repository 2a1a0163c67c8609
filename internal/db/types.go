package db

// Slot keys used by the tracker.
const (
	// KeyApplications holds the cached application list payload.
	KeyApplications = "job-tracker.applications.v2"
	// KeyDriveToken holds the bearer credential record (session scope).
	KeyDriveToken = "google.drive.token.v1"
	// KeyDriveFileID holds the remote document id.
	KeyDriveFileID = "google.drive.fileId.v1"
)
