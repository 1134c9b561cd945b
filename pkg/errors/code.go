package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Configuration errors (fatal)
// 12000-12999: Canvas & transport errors
// 13000-13999: Submission evaluation errors
// 14000-14999: Upload errors
// 15000-15999: Dataset persistence errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalError ErrorCode = 10001
	InvalidParams ErrorCode = 10002
	Canceled      ErrorCode = 10003

	// ========== Configuration Errors (11000-11999) ==========

	ConfigInvalid      ErrorCode = 11000
	MissingCredentials ErrorCode = 11001
	InvalidAssignment  ErrorCode = 11002
	InvalidUserID      ErrorCode = 11003
	InvalidCommand     ErrorCode = 11004

	// ========== Canvas & Transport Errors (12000-12999) ==========

	CanvasRequestFailed  ErrorCode = 12000
	CanvasQueryRejected  ErrorCode = 12001
	AssignmentNotFound   ErrorCode = 12002
	AssociationMissing   ErrorCode = 12100
	AssociationAmbiguous ErrorCode = 12101

	// ========== Submission Evaluation Errors (13000-13999) ==========

	// Workspace (13000-13099)
	WorkspaceFailed          ErrorCode = 13000
	UnsafeAttachmentName     ErrorCode = 13001
	AttachmentDownloadFailed ErrorCode = 13002

	// Harness (13100-13199)
	HarnessStartFailed  ErrorCode = 13100
	HarnessWaitFailed   ErrorCode = 13101
	InputDeliveryFailed ErrorCode = 13102
	OutputDrainFailed   ErrorCode = 13103

	// ========== Upload Errors (14000-14999) ==========

	UploadRejected ErrorCode = 14000
	UploadSkipped  ErrorCode = 14001

	// ========== Dataset Errors (15000-15999) ==========

	DatasetLoadFailed  ErrorCode = 15000
	DatasetSaveFailed  ErrorCode = 15001
	DatasetInvalid     ErrorCode = 15002
	StorageUnavailable ErrorCode = 15003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:       "Success",
	InternalError: "Internal error",
	InvalidParams: "Invalid parameters",
	Canceled:      "Operation canceled",

	// Configuration
	ConfigInvalid:      "Invalid configuration",
	MissingCredentials: "Canvas credentials are missing",
	InvalidAssignment:  "Assignment id must be numeric",
	InvalidUserID:      "User id must be numeric",
	InvalidCommand:     "Invalid test command",

	// Canvas
	CanvasRequestFailed:  "Canvas request failed",
	CanvasQueryRejected:  "Canvas rejected the query",
	AssignmentNotFound:   "Assignment not found",
	AssociationMissing:   "No rubric association found",
	AssociationAmbiguous: "Rubric association is ambiguous",

	// Workspace
	WorkspaceFailed:          "Workspace operation failed",
	UnsafeAttachmentName:     "Attachment name is not a plain file name",
	AttachmentDownloadFailed: "Attachment download failed",

	// Harness
	HarnessStartFailed:  "Failed to start test command",
	HarnessWaitFailed:   "Failed to wait for test command",
	InputDeliveryFailed: "Failed to deliver criterion text to test command",
	OutputDrainFailed:   "Failed to read test command output",

	// Upload
	UploadRejected: "Canvas rejected the assessment",
	UploadSkipped:  "Upload skipped",

	// Dataset
	DatasetLoadFailed:  "Failed to load dataset",
	DatasetSaveFailed:  "Failed to save dataset",
	DatasetInvalid:     "Dataset is malformed",
	StorageUnavailable: "Object storage is not configured",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// Fatal reports whether the error code stops the whole program.
// Only configuration faults do; everything else degrades to skip-and-report.
func (c ErrorCode) Fatal() bool {
	return c >= 11000 && c < 12000
}

// ExitCode returns the process exit code for a command failing with this code.
func (c ErrorCode) ExitCode() int {
	switch {
	case c == Success:
		return 0
	case c.Fatal():
		return 2
	default:
		return 1
	}
}
