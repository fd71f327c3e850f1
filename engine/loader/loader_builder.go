package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithScene pre-populates the scene cache.
//
// Parameters:
//   - key: the cache key for the scene
//   - imported: the scene to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(key string, imported *ImportedScene) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneCache[key] = imported
	}
}
