package interfaces

// OutputHandler manages the destinations a configuration value can be sent to
type OutputHandler interface {
	// WriteToClipboard copies content to the system clipboard
	WriteToClipboard(content string) error

	// WriteToStdout writes content to standard output
	WriteToStdout(content string) error

	// WriteToFile writes content to the specified file path
	WriteToFile(content string, path string) error

	// OpenInEditor opens an existing file in the specified editor
	OpenInEditor(path string, editor string) error
}
