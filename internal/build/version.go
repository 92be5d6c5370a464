package build

// ConfigFolderName is the folder inside the user's home directory
// where kubemerge keeps its settings file.
const ConfigFolderName = ".kubemerge"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

func IsDev() bool {
	return Version == "dev"
}
