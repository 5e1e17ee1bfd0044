package common

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Stable machine-readable error codes. Callers branch on these via
// errors.As + AppError.Code rather than parsing messages.
const (
	CodePipelineExecution      = "PIPELINE_EXECUTION_ERROR"
	CodeJobNotFound            = "JOB_NOT_FOUND"
	CodeDocumentTypeNotFound   = "DOCUMENT_TYPE_NOT_FOUND"
	CodeDocumentTypeDuplicate  = "DOCUMENT_TYPE_DUPLICATE"
	CodeFieldNotFound          = "FIELD_NOT_FOUND"
	CodeFieldDuplicate         = "FIELD_DUPLICATE"
	CodeValidatorNotFound      = "VALIDATOR_NOT_FOUND"
	CodeValidatorDuplicate     = "VALIDATOR_DUPLICATE"
	CodeValidatorConfig        = "VALIDATOR_CONFIG_INVALID"
	CodeTargetSchemaResolution = "TARGET_SCHEMA_RESOLUTION_ERROR"
	CodeFileSource             = "FILE_SOURCE_ERROR"
	CodeUnsupportedFileType    = "UNSUPPORTED_FILE_TYPE"
	CodeFileTooLarge           = "FILE_TOO_LARGE"
	CodePageExtraction         = "PAGE_EXTRACTION_ERROR"
	CodeQualityTooLow          = "QUALITY_TOO_LOW"
	CodeUnknownStrategy        = "SPLITTING_UNKNOWN_STRATEGY"
	CodeClassification         = "CLASSIFICATION_ERROR"
	CodeExtraction             = "EXTRACTION_ERROR"
	CodeStorage                = "STORAGE_ERROR"
	CodeConfig                 = "CONFIG_ERROR"
)

// AppError carries a stable code, a human message and structured context.
type AppError struct {
	Code    string
	Message string
	Context map[string]any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError with optional structured context.
func NewAppError(code, message string, ctx map[string]any) *AppError {
	return &AppError{Code: code, Message: message, Context: ctx}
}

// WrapAppError builds an AppError around a cause.
func WrapAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// ErrorCode extracts the stable code from an error chain, empty if none.
func ErrorCode(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ""
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Domain error constructors keep codes and context shapes in one place.

func NewJobNotFound(jobID string) *AppError {
	return NewAppError(CodeJobNotFound,
		fmt.Sprintf("processing job not found: %s", jobID),
		map[string]any{"job_id": jobID})
}

func NewDocumentTypeNotFound(identifier string) *AppError {
	return NewAppError(CodeDocumentTypeNotFound,
		fmt.Sprintf("document type not found: %s", identifier),
		map[string]any{"identifier": identifier})
}

func NewDocumentTypeDuplicate(code string) *AppError {
	return NewAppError(CodeDocumentTypeDuplicate,
		fmt.Sprintf("document type already exists with code: %s", code),
		map[string]any{"document_type_code": code})
}

func NewFieldNotFound(identifier string) *AppError {
	return NewAppError(CodeFieldNotFound,
		fmt.Sprintf("field not found: %s", identifier),
		map[string]any{"identifier": identifier})
}

func NewFieldDuplicate(code string) *AppError {
	return NewAppError(CodeFieldDuplicate,
		fmt.Sprintf("field already exists with code: %s", code),
		map[string]any{"field_code": code})
}

func NewValidatorNotFound(identifier string) *AppError {
	return NewAppError(CodeValidatorNotFound,
		fmt.Sprintf("validator not found: %s", identifier),
		map[string]any{"identifier": identifier})
}

func NewValidatorDuplicate(code string) *AppError {
	return NewAppError(CodeValidatorDuplicate,
		fmt.Sprintf("validator already exists with code: %s", code),
		map[string]any{"validator_code": code})
}

func NewTargetSchemaResolution(missingCodes []string) *AppError {
	return NewAppError(CodeTargetSchemaResolution,
		fmt.Sprintf("could not resolve field codes: %s", strings.Join(missingCodes, ", ")),
		map[string]any{"missing_codes": missingCodes})
}

func NewFileSource(sourceType, reference, reason string) *AppError {
	msg := fmt.Sprintf("failed to read file from %s: %s", sourceType, reference)
	if reason != "" {
		msg += ". " + reason
	}
	return NewAppError(CodeFileSource, msg,
		map[string]any{"source_type": sourceType, "reference": reference})
}

func NewUnsupportedFileType(mimeType string) *AppError {
	return NewAppError(CodeUnsupportedFileType,
		fmt.Sprintf("unsupported file type: %s", mimeType),
		map[string]any{"mime_type": mimeType})
}

func NewFileTooLarge(sizeMB, maxMB float64) *AppError {
	return NewAppError(CodeFileTooLarge,
		fmt.Sprintf("file size %.1fMB exceeds maximum %.1fMB", sizeMB, maxMB),
		map[string]any{"file_size_mb": sizeMB, "max_size_mb": maxMB})
}

func NewQualityTooLow(quality, threshold float64) *AppError {
	return NewAppError(CodeQualityTooLow,
		fmt.Sprintf("document quality %.2f is below threshold %.2f", quality, threshold),
		map[string]any{"quality_score": quality, "threshold": threshold})
}

func NewUnknownStrategy(name string, available []string) *AppError {
	avail := strings.Join(available, ", ")
	if avail == "" {
		avail = "none"
	}
	return NewAppError(CodeUnknownStrategy,
		fmt.Sprintf("unknown splitting strategy %q, available: %s", name, avail),
		map[string]any{"strategy": name, "available": available})
}

// GRPCStatus maps an error chain onto a gRPC status for the transport
// boundary.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if !errors.As(err, &app) {
		return status.Error(codes.Internal, err.Error())
	}
	switch app.Code {
	case CodeJobNotFound, CodeDocumentTypeNotFound, CodeFieldNotFound, CodeValidatorNotFound:
		return status.Error(codes.NotFound, app.Message)
	case CodeDocumentTypeDuplicate, CodeFieldDuplicate, CodeValidatorDuplicate:
		return status.Error(codes.AlreadyExists, app.Message)
	case CodeTargetSchemaResolution, CodeUnsupportedFileType, CodeFileTooLarge,
		CodeUnknownStrategy, CodeValidatorConfig, CodeConfig:
		return status.Error(codes.InvalidArgument, app.Message)
	default:
		return status.Error(codes.Internal, app.Message)
	}
}

// ExitCode maps an error onto a CLI exit code through its gRPC status:
// 2 for bad input, 3 for missing resources, 1 for everything else.
func ExitCode(err error) int {
	st := GRPCStatus(err)
	if st == nil {
		return 0
	}
	switch status.Code(st) {
	case codes.InvalidArgument, codes.AlreadyExists:
		return 2
	case codes.NotFound:
		return 3
	default:
		return 1
	}
}
