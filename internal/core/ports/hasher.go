package ports

// Hasher fingerprints the shader inputs of a project.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Fingerprint hashes the content of every file under the given paths.
	Fingerprint(paths []string) (string, error)
}
