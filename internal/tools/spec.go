package tools

import "time"

// Tool names as declared to the model.
const (
	ListDirToolName   = "get_files_info"
	ReadFileToolName  = "get_file_content"
	WriteFileToolName = "write_file"
	RunScriptToolName = "run_python_file"
)

// Defaults shared by the handlers and the configuration layer.
const (
	DefaultMaxFileChars    = 10_000
	DefaultScriptTimeout   = 30 * time.Second
	DefaultScriptExtension = ".py"
)

// ToolSpec declares a tool to the model: name, description and parameters.
// Specs are built once at startup and sent unchanged on every model call.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// ToolParameter defines a parameter for a tool.
type ToolParameter struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Required    bool                   `json:"required"`
	Items       map[string]interface{} `json:"items,omitempty"` // element schema for array parameters
}

// JSONSchema renders the parameters as a JSON Schema object, the shape every
// provider expects for function parameters.
func (s ToolSpec) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Parameters))
	required := make([]string, 0, len(s.Parameters))

	for _, p := range s.Parameters {
		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Items != nil {
			prop["items"] = p.Items
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// NewListDirToolSpec creates the specification for the directory listing tool.
func NewListDirToolSpec() ToolSpec {
	return ToolSpec{
		Name:        ListDirToolName,
		Description: "Lists files in the specified directory along with their sizes, constrained to the working directory.",
		Parameters: []ToolParameter{
			{
				Name:        "directory",
				Type:        "string",
				Description: "The directory to list files from, relative to the working directory. If not provided, lists files in the working directory itself.",
				Required:    false,
			},
		},
	}
}

// NewReadFileToolSpec creates the specification for the file reading tool.
func NewReadFileToolSpec() ToolSpec {
	return ToolSpec{
		Name:        ReadFileToolName,
		Description: "Read the contents of a file within the working directory. Long files are truncated.",
		Parameters: []ToolParameter{
			{
				Name:        "file_path",
				Type:        "string",
				Description: "The path to the file to read, relative to the working directory.",
				Required:    true,
			},
		},
	}
}

// NewWriteFileToolSpec creates the specification for the file writing tool.
func NewWriteFileToolSpec() ToolSpec {
	return ToolSpec{
		Name:        WriteFileToolName,
		Description: "Write content to a file within the working directory. Creates directories as needed and overwrites existing files.",
		Parameters: []ToolParameter{
			{
				Name:        "file_path",
				Type:        "string",
				Description: "The path to the file to write to, relative to the working directory.",
				Required:    true,
			},
			{
				Name:        "content",
				Type:        "string",
				Description: "The content to write to the file.",
				Required:    true,
			},
		},
	}
}

// NewRunScriptToolSpec creates the specification for the script runner.
func NewRunScriptToolSpec() ToolSpec {
	return ToolSpec{
		Name:        RunScriptToolName,
		Description: "Execute a Python file with optional arguments within the working directory.",
		Parameters: []ToolParameter{
			{
				Name:        "file_path",
				Type:        "string",
				Description: "The path to the Python file to execute, relative to the working directory.",
				Required:    true,
			},
			{
				Name:        "args",
				Type:        "array",
				Description: "Optional list of command-line arguments to pass to the Python file.",
				Required:    false,
				Items:       map[string]interface{}{"type": "string"},
			},
		},
	}
}
