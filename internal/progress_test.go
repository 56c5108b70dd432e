package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fn      func() error
		wantErr bool
	}{
		{"successful function", func() error { return nil }, false},
		{"function with error", func() error { return errors.New("test error") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, "Persisting conversation", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgressWithSteps(t *testing.T) {
	ctx := context.Background()
	var ran []string
	record := func(name string, err error) ProgressStep {
		return ProgressStep{Message: name, Fn: func() error {
			ran = append(ran, name)
			return err
		}}
	}

	tests := []struct {
		name    string
		steps   []ProgressStep
		wantRan []string
		wantErr bool
	}{
		{
			name:    "successful steps",
			steps:   []ProgressStep{record("hydrate", nil), record("export", nil)},
			wantRan: []string{"hydrate", "export"},
		},
		{
			name:    "stops at first failure",
			steps:   []ProgressStep{record("hydrate", errors.New("corrupt")), record("export", nil)},
			wantRan: []string{"hydrate"},
			wantErr: true,
		},
		{
			name:  "empty steps",
			steps: []ProgressStep{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran = nil
			err := ShowProgressWithSteps(ctx, tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgressWithSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(ran, ",") != strings.Join(tt.wantRan, ",") {
				t.Errorf("ran %v, want %v", ran, tt.wantRan)
			}
			if err != nil && !strings.Contains(err.Error(), "hydrate") {
				t.Errorf("error should name the failed step, got %q", err)
			}
		})
	}
}

func TestSpin(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var buf bytes.Buffer
	err := spin(context.Background(), &buf, "Saving", func() error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("spin() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Saving") {
		t.Errorf("spinner output should contain the message, got %q", buf.String())
	}
}

func TestSpin_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	err := spin(ctx, &buf, "Waiting", func() error {
		time.Sleep(time.Second)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("spin() error = %v, want deadline exceeded", err)
	}
}
