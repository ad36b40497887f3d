package log

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", ColumnKey, "engine_size")
	testLogger.Error("error message", fmt.Errorf("boom"), ModelNameKey, "KNeighborsRegressor")

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	// a bare error is keyed "error" and the following pairs stay aligned
	if !testLogger.ContainsField("error", "boom") {
		t.Error("Expected bare error under key \"error\"")
	}
	if !testLogger.ContainsField(ModelNameKey, "KNeighborsRegressor") {
		t.Error("Pair following a bare error was misaligned")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "RandomForestRegressor",
		EstimatorIDKey, "run-001",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFit)
	testLogger.Info("plain message")

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0][ModelNameKey] != "RandomForestRegressor" || entries[0][EstimatorIDKey] != "run-001" {
		t.Errorf("context fields missing: %v", entries[0])
	}
	if _, ok := entries[1][ModelNameKey]; ok {
		t.Error("With must not mutate the parent logger")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	tests := []struct {
		level Level
		want  bool
	}{
		{LevelDebug, false},
		{LevelInfo, true},
		{LevelWarn, true},
		{LevelError, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := testLogger.Enabled(ctx, tt.level); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}

	testLogger.Debug("this should not appear")
	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("pipeline").Info("named logger message")

	logger := provider.GetLogger().(*TestLogger)
	if !logger.ContainsMessage("provider test message") || !logger.ContainsMessage("named logger message") {
		t.Fatalf("missing messages in %q", buffer.String())
	}
	if !logger.ContainsField(ComponentKey, "pipeline") {
		t.Error("Component name not found in named logger output")
	}
}

func TestTestLoggerConcurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const goroutines, perGoroutine = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				testLogger.Info("tree fitted", "tree", id, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != goroutines*perGoroutine {
		t.Errorf("Expected %d entries, got %d", goroutines*perGoroutine, len(entries))
	}
}

func BenchmarkTestLogger(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)
	contextLogger := testLogger.With(ModelNameKey, "BenchmarkModel")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		contextLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationPredict,
			SamplesKey, 1000,
		)
	}
}
