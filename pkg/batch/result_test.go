package batch

import (
	"errors"
	"testing"
)

func TestResult_SuccessRate(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		want      float64
	}{
		{
			name: "empty run",
			want: 0,
		},
		{
			name:      "all succeed",
			successes: 4,
			want:      1.0,
		},
		{
			name:     "all fail",
			failures: 3,
			want:     0,
		},
		{
			name:      "three quarters",
			successes: 3,
			failures:  1,
			want:      0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result[string, string]{}
			for i := 0; i < tt.successes; i++ {
				result.Successful = append(result.Successful, ExtractionResult[string, string]{Item: "s"})
			}
			for i := 0; i < tt.failures; i++ {
				result.Failed = append(result.Failed, ExtractionResult[string, string]{Item: "f", Err: errors.New("x")})
			}

			if got := result.SuccessRate(); got != tt.want {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.want)
			}
			if got := result.Total(); got != tt.successes+tt.failures {
				t.Errorf("Total() = %d, want %d", got, tt.successes+tt.failures)
			}
			if got := result.SuccessCount(); got != tt.successes {
				t.Errorf("SuccessCount() = %d, want %d", got, tt.successes)
			}
			if got := result.FailureCount(); got != tt.failures {
				t.Errorf("FailureCount() = %d, want %d", got, tt.failures)
			}
		})
	}
}

func TestExtractionResult_Success(t *testing.T) {
	ok := ExtractionResult[string, string]{Item: "a", Payload: "data"}
	if !ok.Success() {
		t.Error("Success() = false for record without error")
	}

	bad := ExtractionResult[string, string]{Item: "b", Err: errors.New("boom")}
	if bad.Success() {
		t.Error("Success() = true for record with error")
	}
}

func TestExtractionResult_Label(t *testing.T) {
	record := ExtractionResult[ticker, string]{Item: ticker{Symbol: "IBM"}}
	if got := record.Label(); got != "IBM" {
		t.Errorf("Label() = %q, want IBM", got)
	}
}
