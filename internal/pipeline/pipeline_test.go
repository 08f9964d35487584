package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/transformer"
	"github.com/felixgeelhaar/migratory/internal/validate"
)

// fakeTransformer returns a canned result and records the request it saw.
type fakeTransformer struct {
	result  *transformer.Result
	err     error
	calls   int
	lastReq transformer.Request
}

func (f *fakeTransformer) Transform(_ context.Context, req transformer.Request) (*transformer.Result, error) {
	f.calls++
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeTransformer) Meta() transformer.Meta {
	return transformer.Meta{Name: "fake", Category: plan.CategorySourceCode}
}

func jsInput(code string) Input {
	return Input{FilePath: "src/index.js", Code: code, Language: "javascript"}
}

func TestRunSuccess(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success: true,
		Code:    "const a = 1\nconst b = 2\n",
		Metadata: transformer.Metadata{
			Risk:                   30,
			AppliedTransformations: []string{"add-constant"},
			EstimatedTimeSaved:     "15m",
		},
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

	require.True(t, outcome.Success)
	assert.Empty(t, outcome.FailedStage)
	assert.False(t, outcome.RolledBack)
	assert.Equal(t, "const a = 1\nconst b = 2\n", outcome.Code)
	assert.Equal(t, 100, outcome.Confidence)
	assert.Equal(t, 30, outcome.Risk)
	assert.False(t, outcome.RequiresManualReview)
	assert.Equal(t, []string{"add-constant"}, outcome.AppliedTransformations)
	assert.Equal(t, "15m", outcome.EstimatedTimeSaved)
	assert.Empty(t, outcome.Errors)
	assert.Empty(t, outcome.Suggestions)

	require.NotNil(t, outcome.Diff)
	assert.Contains(t, outcome.Diff.Unified, "+const b = 2")
	assert.Equal(t, 1, outcome.LinesAdded)
	assert.Equal(t, 0, outcome.LinesRemoved)
	assert.Equal(t, 1, fake.calls)
}

func TestRunParseFailureRollsBack(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{Success: true, Code: "ok\n"}}
	p := New(Config{Transformer: fake})

	input := jsInput("const broken = (\n")
	outcome := p.Run(context.Background(), input)

	require.False(t, outcome.Success)
	assert.Equal(t, StageParse, outcome.FailedStage)
	assert.Equal(t, input.Code, outcome.Code)
	assert.True(t, outcome.RolledBack)
	assert.Equal(t, 0, outcome.Confidence)
	assert.Equal(t, 100, outcome.Risk)
	assert.True(t, outcome.RequiresManualReview)
	assert.Equal(t, []string{
		"retry the task",
		"run with a lower-risk transformer",
		"review the file and apply the change manually",
	}, outcome.Suggestions)

	require.NotEmpty(t, outcome.Errors)
	assert.Contains(t, outcome.Errors[0], "unclosed")
	assert.Contains(t, outcome.Errors[0], "(line 1)")
	assert.Equal(t, 0, fake.calls, "transformer must not run on unparseable input")
}

func TestRunValidateFailureAbortsBeforeTransform(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{Success: true, Code: "ok\n"}}
	p := New(Config{
		Transformer: fake,
		Validator: func(code, language string) validate.Result {
			return validate.Result{
				SyntaxValid: true,
				Errors: []validate.Issue{
					{Message: "duplicate top-level declaration of a", Line: 2},
				},
			}
		},
	})

	input := jsInput("const a = 1\n")
	outcome := p.Run(context.Background(), input)

	require.False(t, outcome.Success)
	assert.Equal(t, StageValidate, outcome.FailedStage)
	assert.Equal(t, input.Code, outcome.Code)
	require.NotEmpty(t, outcome.Errors)
	assert.Contains(t, outcome.Errors[0], "duplicate top-level declaration")
	assert.Contains(t, outcome.Errors[0], "(line 2)")
	assert.Equal(t, 0, fake.calls)
}

func TestRunTransformReportedFailure(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success: false,
		Errors:  []string{"unsupported pattern"},
	}}
	p := New(Config{Transformer: fake})

	input := jsInput("const a = 1\n")
	outcome := p.Run(context.Background(), input)

	require.False(t, outcome.Success)
	assert.Equal(t, StageTransform, outcome.FailedStage)
	assert.Equal(t, 0, outcome.Confidence)
	assert.Equal(t, 100, outcome.Risk)
	assert.True(t, outcome.RequiresManualReview)
	assert.Equal(t, input.Code, outcome.Code)
	assert.True(t, outcome.RolledBack)
	assert.Contains(t, outcome.Errors, "unsupported pattern")
}

func TestRunTransformError(t *testing.T) {
	fake := &fakeTransformer{err: errors.New("transformer exploded")}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

	require.False(t, outcome.Success)
	assert.Equal(t, StageTransform, outcome.FailedStage)
	assert.Contains(t, outcome.Errors, "transformer exploded")
}

func TestRunTransformMissingOutput(t *testing.T) {
	tests := []struct {
		name      string
		result    *transformer.Result
		wantError string
	}{
		{
			name:      "nil result without error",
			result:    nil,
			wantError: "transformer returned no output",
		},
		{
			name:      "success with empty code",
			result:    &transformer.Result{Success: true, Code: ""},
			wantError: "transformer returned empty output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTransformer{result: tt.result}
			p := New(Config{Transformer: fake})

			input := jsInput("const a = 1\n")
			outcome := p.Run(context.Background(), input)

			require.False(t, outcome.Success)
			assert.Equal(t, StageTransform, outcome.FailedStage)
			assert.Equal(t, input.Code, outcome.Code)
			assert.Contains(t, outcome.Errors, tt.wantError)
		})
	}
}

func TestRunEmptyInputCreatesFile(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success: true,
		Code:    "{\n  \"scripts\": {}\n}\n",
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), Input{
		FilePath: "package.json",
		Code:     "",
		Language: "json",
	})

	require.True(t, outcome.Success, "empty input must skip the input checks")
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 100, outcome.Confidence)
	assert.Positive(t, outcome.LinesAdded)
	assert.Zero(t, outcome.LinesRemoved)
}

func TestRunVerifyFailureRollsBack(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success: true,
		Code:    "function f( {\n",
	}}
	p := New(Config{Transformer: fake})

	input := jsInput("const a = 1\n")
	outcome := p.Run(context.Background(), input)

	require.False(t, outcome.Success)
	assert.Equal(t, StageVerify, outcome.FailedStage)
	assert.Equal(t, input.Code, outcome.Code, "broken output must not replace the snapshot")
	assert.True(t, outcome.RolledBack)
	assert.Equal(t, 1, fake.calls)
}

func TestRunHighRiskRequiresManualReview(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success:  true,
		Code:     "const a = 2\n",
		Metadata: transformer.Metadata{Risk: 85},
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

	require.True(t, outcome.Success)
	assert.Equal(t, 85, outcome.Risk)
	assert.True(t, outcome.RequiresManualReview)
}

func TestRunClampsRiskScore(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success:  true,
		Code:     "const a = 2\n",
		Metadata: transformer.Metadata{Risk: 250},
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

	require.True(t, outcome.Success)
	assert.Equal(t, 100, outcome.Risk)
	assert.True(t, outcome.RequiresManualReview)
}

func TestRunWarningsLowerConfidence(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success:  true,
		Code:     "const a = 2\n",
		Warnings: []string{"uses legacy API", "manual check advised"},
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

	require.True(t, outcome.Success)
	// 40 + 30 + 20 (validations clean) + (10 - 2*2).
	assert.Equal(t, 96, outcome.Confidence)
	assert.Len(t, outcome.Warnings, 2)
}

func TestRunUnsupportedLanguagePassesWithReducedConfidence(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{
		Success: true,
		Code:    "# Title\n\nNew paragraph.\n",
	}}
	p := New(Config{Transformer: fake})

	outcome := p.Run(context.Background(), Input{
		FilePath: "README.md",
		Code:     "# Title\n",
		Language: "markdown",
	})

	require.True(t, outcome.Success)
	// The unsupported-language warning repeats across stages but is
	// reported once; with validation not clean: 40 + 30 + 0 + (10 - 2).
	assert.Equal(t, 78, outcome.Confidence)
	assert.Equal(t, []string{"syntax validation not supported for markdown"}, outcome.Warnings)
}

func TestRunForwardsRequestToTransformer(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{Success: true, Code: "const a = 2\n"}}
	p := New(Config{Transformer: fake})

	task := &plan.Task{ID: "update-react", Category: plan.CategorySourceCode, Description: "swap render call"}
	opts := transformer.Options{PreserveFormatting: true, TargetFramework: "react"}

	outcome := p.Run(context.Background(), Input{
		FilePath: "src/App.jsx",
		Code:     "const a = 1\n",
		Language: "jsx",
		Options:  opts,
		Task:     task,
	})

	require.True(t, outcome.Success)
	assert.Equal(t, "src/App.jsx", fake.lastReq.FilePath)
	assert.Equal(t, "const a = 1\n", fake.lastReq.Code)
	assert.True(t, fake.lastReq.Options.PreserveFormatting)
	assert.Equal(t, "react", fake.lastReq.Options.TargetFramework)
	assert.Same(t, task, fake.lastReq.Task)
}

func TestRunSnapshotHash(t *testing.T) {
	fake := &fakeTransformer{result: &transformer.Result{Success: true, Code: "const a = 2\n"}}
	p := New(Config{Transformer: fake})

	first := p.Run(context.Background(), jsInput("const a = 1\n"))
	second := p.Run(context.Background(), jsInput("const a = 1\n"))
	other := p.Run(context.Background(), jsInput("const b = 1\n"))

	assert.Len(t, first.SnapshotHash, 64)
	assert.Equal(t, first.SnapshotHash, second.SnapshotHash)
	assert.NotEqual(t, first.SnapshotHash, other.SnapshotHash)
}

func TestRunAdditionalFilesPassThrough(t *testing.T) {
	t.Run("absent stays nil", func(t *testing.T) {
		fake := &fakeTransformer{result: &transformer.Result{Success: true, Code: "const a = 2\n"}}
		p := New(Config{Transformer: fake})

		outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

		require.True(t, outcome.Success)
		assert.Nil(t, outcome.AdditionalFiles)
	})

	t.Run("empty map survives", func(t *testing.T) {
		fake := &fakeTransformer{result: &transformer.Result{
			Success:  true,
			Code:     "const a = 2\n",
			Metadata: transformer.Metadata{AdditionalFiles: map[string]string{}},
		}}
		p := New(Config{Transformer: fake})

		outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

		require.True(t, outcome.Success)
		assert.NotNil(t, outcome.AdditionalFiles)
		assert.Empty(t, outcome.AdditionalFiles)
	})

	t.Run("files forwarded", func(t *testing.T) {
		fake := &fakeTransformer{result: &transformer.Result{
			Success: true,
			Code:    "const a = 2\n",
			Metadata: transformer.Metadata{
				AdditionalFiles: map[string]string{"src/polyfill.js": "export {}\n"},
				Renames:         []transformer.Rename{{OldPath: "src/index.js", NewPath: "src/index.jsx"}},
			},
		}}
		p := New(Config{Transformer: fake})

		outcome := p.Run(context.Background(), jsInput("const a = 1\n"))

		require.True(t, outcome.Success)
		assert.Equal(t, "export {}\n", outcome.AdditionalFiles["src/polyfill.js"])
		require.Len(t, outcome.Renames, 1)
		assert.Equal(t, "src/index.jsx", outcome.Renames[0].NewPath)
	})
}
