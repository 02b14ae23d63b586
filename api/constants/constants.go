package constants

// Common error messages
const (
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidRequestBody = "Invalid request body"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrInvalidTableData   = "Invalid or missing tableData"
	ErrReportNotFound     = "Report not found"
	ErrInvalidReportID    = "Invalid report id"
	ErrWorkspaceNotFound  = "Workspace not found or expired"
	ErrNoFileUploaded     = "No file uploaded"
	ErrUploadTooLarge     = "Uploaded file is too large"
	ErrUnsupportedFile    = "Please upload a .xlsx, .xls or .csv file"
	ErrUnreadableFile     = "Could not read the uploaded file"
	ErrChecksumMismatch   = "Uploaded file does not match its checksum"
	ErrStore              = "Could not reach the report store, try again"
	ErrTooManyRequests    = "Too many requests"
	ErrRouteNotFound      = "404 - Route not found"
)

// Success messages, as returned by the reports API.
const (
	MsgReportSaved   = "Report saved successfully"
	MsgReportDeleted = "Report deleted"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
)
