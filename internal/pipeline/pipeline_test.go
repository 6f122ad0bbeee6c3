package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/incapscan/internal/model"
)

// stubStep counts calls and runs fn when set.
type stubStep struct {
	name  string
	fn    func(ctx context.Context, report *model.ForensicReport) error
	calls int
}

func (s *stubStep) Do(ctx context.Context, report *model.ForensicReport) error {
	s.calls++
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, report)
}

func (s *stubStep) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReport() *model.ForensicReport {
	return model.NewForensicReport("req-1", model.DocumentFromPath("/tmp/x/incapacidad.pdf"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p := New(nil)
		if p.Len() != 0 {
			t.Errorf("Len() = %d, want 0", p.Len())
		}
		if !p.haltOnError {
			t.Error("new pipelines should halt on error")
		}
		if p.logger == nil {
			t.Error("logger should default to slog.Default()")
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		logger := discardLogger()
		p := New(nil, WithLogger(logger), WithHaltOnError(false))
		if p.haltOnError {
			t.Error("WithHaltOnError(false) not applied")
		}
		if p.logger != logger {
			t.Error("WithLogger not applied")
		}
	})

	t.Run("step list is copied", func(t *testing.T) {
		t.Parallel()

		steps := []Step{&stubStep{name: "first"}, &stubStep{name: "second"}}
		p := New(steps)
		steps[0] = &stubStep{name: "replaced"}

		got := p.StepNames()
		if len(got) != 2 || got[0] != "first" || got[1] != "second" {
			t.Errorf("StepNames() = %v, want [first second]", got)
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fail := func(context.Context, *model.ForensicReport) error { return boom }

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		step := func(name string) Step {
			return &stubStep{name: name, fn: func(context.Context, *model.ForensicReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New([]Step{step("extract"), step("locate"), step("verify")}, WithLogger(discardLogger()))
		report := newTestReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"extract", "locate", "verify"}
		if len(order) != len(want) || len(report.CompletedSteps) != len(want) {
			t.Fatalf("order = %v, completed = %v, want %v", order, report.CompletedSteps, want)
		}
		for i := range want {
			if order[i] != want[i] || report.CompletedSteps[i] != want[i] {
				t.Fatalf("order = %v, completed = %v, want %v", order, report.CompletedSteps, want)
			}
		}
	})

	t.Run("halts on error", func(t *testing.T) {
		t.Parallel()

		after := &stubStep{name: "after"}
		p := New([]Step{&stubStep{name: "failing", fn: fail}, after}, WithLogger(discardLogger()))

		report := newTestReport()
		if err := p.Execute(context.Background(), report); !errors.Is(err, boom) {
			t.Fatalf("Execute() error = %v, want boom", err)
		}
		if after.calls != 0 {
			t.Error("step after the failure ran")
		}
		if len(report.Errors) != 1 || report.Errors[0] != "failing: boom" {
			t.Errorf("report.Errors = %v", report.Errors)
		}
	})

	t.Run("keeps going when not halting", func(t *testing.T) {
		t.Parallel()

		after := &stubStep{name: "after"}
		p := New([]Step{&stubStep{name: "failing", fn: fail}, after},
			WithLogger(discardLogger()), WithHaltOnError(false))

		report := newTestReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if after.calls != 1 {
			t.Errorf("after.calls = %d, want 1", after.calls)
		}
		if len(report.CompletedSteps) != 1 || report.CompletedSteps[0] != "after" {
			t.Errorf("CompletedSteps = %v, want [after]", report.CompletedSteps)
		}
		if len(report.Errors) != 1 {
			t.Errorf("report.Errors = %v, want one entry", report.Errors)
		}
	})

	t.Run("stops between steps on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &stubStep{name: "first", fn: func(context.Context, *model.ForensicReport) error {
			cancel()
			return nil
		}}
		second := &stubStep{name: "second"}

		p := New([]Step{first, second}, WithLogger(discardLogger()), WithHaltOnError(false))
		report := newTestReport()
		if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if second.calls != 0 {
			t.Error("second step ran after cancellation")
		}
		if len(report.Errors) != 1 || report.Errors[0] != "pipeline: "+context.Canceled.Error() {
			t.Errorf("report.Errors = %v", report.Errors)
		}
	})
}
