package lock

import (
	"testing"

	"pgregory.net/rapid"
)

// TestServiceMatchesModel drives random acquire/release sequences against a
// plain map model. With no clock movement locks never expire, so the service
// must agree with the model exactly.
func TestServiceMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := New()
		model := make(map[string]bool)
		repos := []string{"org/a", "org/b", "org/c", "org/d"}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			repo := rapid.SampledFrom(repos).Draw(t, "repo")

			if rapid.Bool().Draw(t, "acquire") {
				got := svc.Acquire(repo)
				want := !model[repo]
				if got != want {
					t.Fatalf("Acquire(%q) = %v, want %v", repo, got, want)
				}
				model[repo] = true
			} else {
				svc.Release(repo)
				delete(model, repo)
			}

			if got, want := svc.IsLocked(repo), model[repo]; got != want {
				t.Fatalf("IsLocked(%q) = %v, want %v", repo, got, want)
			}
		}

		if got, want := svc.ActiveCount(), len(model); got != want {
			t.Fatalf("ActiveCount = %d, want %d", got, want)
		}
		for _, held := range svc.Active() {
			if !model[held.Repository] {
				t.Fatalf("Active contains %q, which the model released", held.Repository)
			}
		}
	})
}
