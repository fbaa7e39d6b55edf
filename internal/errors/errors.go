package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/huanfeng/mia-cli/pkg/apk"
	"github.com/huanfeng/mia-cli/pkg/archive"
	"github.com/huanfeng/mia-cli/pkg/client"
	"github.com/huanfeng/mia-cli/pkg/definition"
	"github.com/huanfeng/mia-cli/pkg/lock"
	"github.com/huanfeng/mia-cli/pkg/repo"
	"github.com/huanfeng/mia-cli/pkg/settings"
	"github.com/huanfeng/mia-cli/pkg/system"
)

// ErrorType represents the type of error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeNetwork
	ErrorTypeFileSystem
	ErrorTypeParsing
	ErrorTypeConfiguration
	ErrorTypeNotFound
	ErrorTypeResolution
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeParsing:
		return "PARSING"
	case ErrorTypeConfiguration:
		return "CONFIGURATION"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeResolution:
		return "RESOLUTION"
	default:
		return "UNKNOWN"
	}
}

// MiaError represents an error with a category, context and suggestions
type MiaError struct {
	Type        ErrorType         `json:"type"`
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Cause       error             `json:"cause,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (e *MiaError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *MiaError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *MiaError) Is(target error) bool {
	if t, ok := target.(*MiaError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error
func (e *MiaError) WithContext(key, value string) *MiaError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *MiaError) WithSuggestion(suggestion string) *MiaError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *MiaError) WithSuggestions(suggestions []string) *MiaError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// FormatDetailed returns a detailed error message with context and suggestions
func (e *MiaError) FormatDetailed() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%s error [%s]: %s\n", e.Type.String(), e.Code, e.Message))

	if len(e.Context) > 0 {
		builder.WriteString("\nContext:\n")
		keys := make([]string, 0, len(e.Context))
		for key := range e.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			builder.WriteString(fmt.Sprintf("   %s: %s\n", key, e.Context[key]))
		}
	}

	if e.Cause != nil && e.Cause.Error() != e.Message {
		builder.WriteString(fmt.Sprintf("\nUnderlying cause: %v\n", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		builder.WriteString("\nSuggestions:\n")
		for _, suggestion := range e.Suggestions {
			builder.WriteString(fmt.Sprintf("   - %s\n", suggestion))
		}
	}

	return builder.String()
}

// NewError creates a new MiaError
func NewError(errorType ErrorType, code, message string) *MiaError {
	return &MiaError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Context: make(map[string]string),
	}
}

// WrapError wraps an existing error with MiaError
func WrapError(err error, errorType ErrorType, code, message string) *MiaError {
	return &MiaError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]string),
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *MiaError {
	return NewError(ErrorTypeValidation, code, message).
		WithSuggestion("Check the input parameters and try again")
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *MiaError {
	return NewError(ErrorTypeConfiguration, code, message).
		WithSuggestions([]string{
			"Check the definition settings.yaml syntax",
			"Verify all required settings are present",
		})
}

// NewNotFoundError creates a not found error
func NewNotFoundError(code, message string) *MiaError {
	return NewError(ErrorTypeNotFound, code, message).
		WithSuggestion("Verify the resource exists")
}

// classification maps a package sentinel to the category shown to the operator
type classification struct {
	target      error
	errorType   ErrorType
	code        string
	suggestions []string
}

var classifications = []classification{
	{lock.ErrMissingDefaultRepository, ErrorTypeConfiguration, "MISSING_DEFAULT_REPOSITORY",
		[]string{"Set defaults.repository_id in the definition settings.yaml"}},
	{lock.ErrUnknownRepository, ErrorTypeConfiguration, "UNKNOWN_REPOSITORY",
		[]string{"Declare the repository under repositories in settings.yaml"}},
	{lock.ErrAborted, ErrorTypeResolution, "LOCK_ABORTED",
		[]string{"Fix the reported applications in settings.yaml and run lock again"}},
	{lock.ErrLockFileMissing, ErrorTypeConfiguration, "LOCK_FILE_MISSING",
		[]string{"Run 'mia definition lock <definition>' first"}},
	{lock.ErrInvalidLockFile, ErrorTypeParsing, "INVALID_LOCK_FILE",
		[]string{"Re-create the lock file with 'mia definition lock <definition>'"}},
	{settings.ErrSettingsNotFound, ErrorTypeConfiguration, "SETTINGS_NOT_FOUND",
		[]string{"Create the definition with 'mia definition create <definition>'"}},
	{settings.ErrInvalidSettings, ErrorTypeParsing, "INVALID_SETTINGS",
		[]string{"Check the definition settings.yaml syntax"}},
	{repo.ErrInvalidIndex, ErrorTypeParsing, "INVALID_INDEX",
		[]string{"Delete the cached index in the resources folder to fetch it again"}},
	{client.ErrUnexpectedStatus, ErrorTypeNetwork, "HTTP_STATUS",
		[]string{"Verify the repository url", "Check your internet connection"}},
	{client.ErrChecksumMismatch, ErrorTypeNetwork, "CHECKSUM_MISMATCH",
		[]string{"Download the applications again"}},
	{archive.ErrNotZip, ErrorTypeFileSystem, "NOT_A_ZIP",
		[]string{"Download the OS image with 'mia definition dl-os <definition>'"}},
	{archive.ErrMemberNotFound, ErrorTypeNotFound, "ZIP_MEMBER_NOT_FOUND", nil},
	{apk.ErrVersionMismatch, ErrorTypeValidation, "APK_VERSION_MISMATCH",
		[]string{"Run 'mia definition lock --refresh <definition>' to update the lock file"}},
	{definition.ErrInvalidName, ErrorTypeValidation, "INVALID_DEFINITION_NAME",
		[]string{"Use lowercase letters, digits and hyphens, starting with a letter"}},
	{definition.ErrDefinitionExists, ErrorTypeValidation, "DEFINITION_EXISTS",
		[]string{"Use --force to replace the existing definition"}},
	{definition.ErrDefinitionNotFound, ErrorTypeNotFound, "DEFINITION_NOT_FOUND",
		[]string{"Create the definition with 'mia definition create <definition>'"}},
	{definition.ErrTemplateNotFound, ErrorTypeNotFound, "TEMPLATE_NOT_FOUND", nil},
	{definition.ErrMissingDeviceInfo, ErrorTypeConfiguration, "MISSING_DEVICE_INFO",
		[]string{"Run 'mia definition configure <definition>' first"}},
	{system.ErrLowDiskSpace, ErrorTypeFileSystem, "LOW_DISK_SPACE",
		[]string{"Free some disk space or move the workspace with --workspace"}},
	{system.ErrNotWritable, ErrorTypeFileSystem, "NOT_WRITABLE",
		[]string{"Check file and directory permissions"}},
}

// Classify converts any error into a MiaError
func Classify(err error) *MiaError {
	if err == nil {
		return nil
	}

	var miaErr *MiaError
	if errors.As(err, &miaErr) {
		return miaErr
	}

	for _, c := range classifications {
		if errors.Is(err, c.target) {
			return WrapError(err, c.errorType, c.code, err.Error()).WithSuggestions(c.suggestions)
		}
	}

	if errors.Is(err, os.ErrPermission) {
		return WrapError(err, ErrorTypeFileSystem, "PERMISSION", "permission denied").
			WithSuggestion("Check file and directory permissions")
	}
	if errors.Is(err, os.ErrNotExist) {
		return WrapError(err, ErrorTypeFileSystem, "NOT_EXIST", "file does not exist")
	}

	// os errors unwrap to syscall.Errno, which also satisfies net.Error,
	// so only concrete transport errors count as network failures
	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return WrapError(err, ErrorTypeNetwork, "TRANSPORT", "network request failed").
			WithSuggestions([]string{
				"Check your internet connection",
				"Verify the server is accessible",
			})
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return WrapError(err, ErrorTypeFileSystem, "IO", "file operation failed")
	}

	return WrapError(err, ErrorTypeUnknown, "UNKNOWN", err.Error())
}
