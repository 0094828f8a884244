package ports

// InputResolver expands build-context patterns against the source tree.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs returns the sorted, de-duplicated source-relative paths matched by patterns.
	// A pattern that matches nothing is an error.
	ResolveInputs(patterns []string, root string) ([]string, error)
}
