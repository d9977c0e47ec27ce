package version

import "runtime"

// Переопределяются через -ldflags "-X github.com/sir_venger/filedrop/internal/version.Version=...".
var (
	Version  = "dev"
	CommitID = "unknown"
)

// String — строка для /version и `filedrop --version`.
func String() string {
	return Version + " (" + CommitID + ", " + runtime.Version() + ")"
}
