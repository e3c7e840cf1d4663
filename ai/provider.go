package ai

import "runtime"

// resolveProvider maps the "auto" ONNX provider to the best choice for the
// current platform. Explicit values pass through unchanged.
func resolveProvider(requested string) string {
	if requested != "" && requested != "auto" {
		return requested
	}
	// CoreML on Apple Silicon, CPU everywhere else. CUDA must be opted
	// into explicitly.
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "coreml"
	}
	return "cpu"
}
