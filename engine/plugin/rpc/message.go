package rpc

import "strings"

// Severity ranks how a client should present a response.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Request is one client message. Exactly one field is expected to be set; messages with no
// recognised field are ignored.
type Request struct {
	SetProject *SetProject `json:"SetProject,omitempty"`
}

// SetProject asks the engine to switch to a scene.
type SetProject struct {
	ProjectName     string `json:"project_name,omitempty"`
	ProjectPath     string `json:"project_path,omitempty"`
	EnableHotReload bool   `json:"enable_hot_reload,omitempty"`
}

// SceneName returns the requested scene, preferring project_name over project_path.
func (s SetProject) SceneName() string {
	if name := strings.TrimSpace(s.ProjectName); name != "" {
		return name
	}
	return strings.TrimSpace(s.ProjectPath)
}

// Response is the reply sent for every handled request.
type Response struct {
	IsError  bool     `json:"is_error"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Success builds a non-error response.
func Success(message string, severity Severity) Response {
	return Response{Severity: severity, Message: message}
}

// Failure builds an error response.
func Failure(message string, severity Severity) Response {
	return Response{IsError: true, Severity: severity, Message: message}
}
