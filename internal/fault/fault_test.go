package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := Validation("bad_fps", "fps out of range", nil)
	if got := err.Error(); got != "fps out of range" {
		t.Errorf("Error() = %q, want %q", got, "fps out of range")
	}

	inner := errors.New("exit status 1")
	wrapped := Engine("engine_exit", "engine failed", inner)
	if got := wrapped.Error(); got != "engine failed: exit status 1" {
		t.Errorf("Error() = %q, want wrapped message", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := Transport("redis_publish", "publish failed", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if got := err.Unwrap(); got != inner {
		t.Errorf("Unwrap() = %v, want %v", got, inner)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want bool
	}{
		{"validation", Validation("bad_fps", "m", nil), false},
		{"assembly", Assembly("overlap", "m", nil), false},
		{"engine", Engine("engine_exit", "m", nil), true},
		{"deterministic engine", DeterministicEngine("corrupt_input", "m", nil), false},
		{"timeout", Timeout("render_timeout", "m", nil), true},
		{"transport", Transport("download_failed", "m", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	classified := Assembly("overlap", "clips overlap", nil)

	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode string
	}{
		{"direct", classified, KindAssembly, "overlap"},
		{"wrapped", fmt.Errorf("assemble: %w", classified), KindAssembly, "overlap"},
		{"plain error", errors.New("boom"), KindTransport, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", Timeout("render_timeout", "render exceeded limit", nil))

	if !IsKind(err, KindTimeout) {
		t.Error("IsKind(KindTimeout) = false, want true")
	}
	if IsKind(err, KindValidation) {
		t.Error("IsKind(KindValidation) = true, want false")
	}
	if IsKind(errors.New("plain"), KindTransport) {
		t.Error("IsKind on unclassified error = true, want false")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindValidation, "validation"},
		{KindAssembly, "assembly"},
		{KindEngine, "engine"},
		{KindTimeout, "timeout"},
		{KindTransport, "transport"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", Validation("bad_fps", "m", nil), http.StatusBadRequest},
		{"assembly", Assembly("overlap", "m", nil), http.StatusUnprocessableEntity},
		{"timeout", Timeout("render_timeout", "m", nil), http.StatusGatewayTimeout},
		{"transport", Transport("download_failed", "m", nil), http.StatusBadGateway},
		{"engine", Engine("engine_exit", "m", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
