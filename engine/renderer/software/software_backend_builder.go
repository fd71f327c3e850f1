package software

// BackendBuilderOption is a functional option applied to a software backend during construction via NewBackend.
type BackendBuilderOption func(*backend)

// WithWorkers sets the number of pool workers that shade rows concurrently. Defaults to runtime.NumCPU.
//
// Parameters:
//   - n: the worker count, values below one are raised to one
//
// Returns:
//   - BackendBuilderOption: a function that applies the worker count to a backend
func WithWorkers(n int) BackendBuilderOption {
	return func(b *backend) {
		b.workers = n
	}
}

// WithKernel registers a kernel for a program key at construction time.
//
// Parameters:
//   - key: the program key
//   - k: the kernel to run for that key
//
// Returns:
//   - BackendBuilderOption: a function that registers the kernel on a backend
func WithKernel(key string, k Kernel) BackendBuilderOption {
	return func(b *backend) {
		b.kernels[key] = k
	}
}
