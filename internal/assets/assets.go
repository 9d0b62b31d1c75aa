package assets

// Built-in asset names.
const (
	// DefaultWorkerScript is the Node.js script speaking the NUL-delimited
	// HTML to delta protocol.
	DefaultWorkerScript = "html2delta"

	// DefaultPageTemplate is the page the browser backend loads Quill into.
	DefaultPageTemplate = "converter"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadScript loads a script by name using the default embedded loader.
// The name should not include the .js extension or path components.
// Returns ErrScriptNotFound if the script does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadScript(name string) (string, error) {
	return defaultLoader.LoadScript(name)
}

// LoadTemplate loads a page template by name using the default embedded loader.
// Returns ErrTemplateNotFound if the template does not exist.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
