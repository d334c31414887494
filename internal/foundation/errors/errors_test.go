package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitebuilder.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "sitebuilder.yaml" {
			t.Errorf("expected context file=sitebuilder.yaml, got %v", file)
		}
	})

	t.Run("Chain detection", func(t *testing.T) {
		inner := ScanError("no extension").Build()
		wrapped := fmt.Errorf("cycle failed: %w", inner)

		if !IsClassified(wrapped) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryScan) {
			t.Error("expected scan category through the chain")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to default to internal")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Error("expected scan errors to be fatal")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := ConversionError("decode").Build()
		derived := base.WithContext("resource", "bar")

		if _, ok := base.Context().Get("resource"); ok {
			t.Error("base context was mutated")
		}
		if v, _ := derived.Context().GetString("resource"); v != "bar" {
			t.Errorf("expected derived context, got %q", v)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Wrap keeps the cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := WrapError(cause, CategoryPersistence, "write manifest").Build()

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap the cause")
		}
		if err.Cause() != cause {
			t.Error("expected Cause() to return the wrapped error")
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("t"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("t"), CategoryValidation, SeverityFatal, RetryNever},
			{"ScanError", ScanError("t"), CategoryScan, SeverityFatal, RetryNextEvent},
			{"ConversionError", ConversionError("t"), CategoryConversion, SeverityError, RetryNextEvent},
			{"PersistenceError", PersistenceError("t"), CategoryPersistence, SeverityError, RetryNever},
			{"FileSystemError", FileSystemError("t"), CategoryFileSystem, SeverityError, RetryNever},
			{"WatcherError", WatcherError("t"), CategoryWatcher, SeverityFatal, RetryNever},
			{"StorageError", StorageError("t"), CategoryStorage, SeverityError, RetryNever},
			{"MessagingError", MessagingError("t"), CategoryMessaging, SeverityWarning, RetryNever},
			{"RuntimeError", RuntimeError("t"), CategoryRuntime, SeverityFatal, RetryNever},
			{"InternalError", InternalError("t"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx := make(ErrorContext)
	ctx = ctx.Set("key1", "value1")
	ctx = ctx.Set("key2", 42)

	if v, ok := ctx.GetString("key1"); !ok || v != "value1" {
		t.Errorf("expected key1=value1, got %v", v)
	}
	if v, ok := ctx.Get("key2"); !ok || v != 42 {
		t.Errorf("expected key2=42, got %v", v)
	}
	if _, ok := ctx.GetString("key2"); ok {
		t.Error("expected GetString to reject non-string values")
	}

	merged := ctx.Merge(ErrorContext{"key1": "override"})
	if v, _ := merged.GetString("key1"); v != "override" {
		t.Errorf("expected merge to prefer other, got %v", v)
	}
}
