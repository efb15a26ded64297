package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// runPageStoreSuite exercises the PageStore contract against any backend.
func runPageStoreSuite(t *testing.T, newStore func(t *testing.T) PageStore) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetPage(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateThenGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		out, err := s.CreatePage(ctx, "100", "<p>Hello</p>")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if out != OutcomeCreated {
			t.Errorf("expected created, got %s", out)
		}

		p, err := s.GetPage(ctx, "100")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if p.Content != "<p>Hello</p>" {
			t.Errorf("unexpected content %q", p.Content)
		}
		if p.FragmentCount != 1 {
			t.Errorf("expected fragment count 1, got %d", p.FragmentCount)
		}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("CreateConflictAppends", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreatePage(ctx, "200", "A"); err != nil {
			t.Fatalf("first create: %v", err)
		}
		out, err := s.CreatePage(ctx, "200", "B")
		if err != nil {
			t.Fatalf("second create: %v", err)
		}
		if out != OutcomeAlreadyExisted {
			t.Errorf("expected already_existed, got %s", out)
		}

		p, _ := s.GetPage(ctx, "200")
		if p.Content != "AB" {
			t.Errorf("expected AB, got %q", p.Content)
		}
		if p.FragmentCount != 2 {
			t.Errorf("expected fragment count 2, got %d", p.FragmentCount)
		}
	})

	t.Run("AppendMissing", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.AppendFragment(context.Background(), "nope", "X")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if ok {
			t.Error("expected no page to append to")
		}
		if _, err := s.GetPage(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("append must not create a page, got %v", err)
		}
	})

	t.Run("AppendExisting", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreatePage(ctx, "300", "C"); err != nil {
			t.Fatalf("seed page: %v", err)
		}
		ok, err := s.AppendFragment(ctx, "300", "+F")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if !ok {
			t.Fatal("expected append to find page")
		}
		p, _ := s.GetPage(ctx, "300")
		if p.Content != "C+F" {
			t.Errorf("expected C+F, got %q", p.Content)
		}
	})

	t.Run("ConcurrentAppendsKeepEveryFragment", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.CreatePage(ctx, "400", "[root]"); err != nil {
			t.Fatalf("seed page: %v", err)
		}

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := s.AppendFragment(ctx, "400", fmt.Sprintf("[%02d]", i)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent append: %v", err)
		}

		p, _ := s.GetPage(ctx, "400")
		if !strings.HasPrefix(p.Content, "[root]") {
			t.Errorf("root fragment lost: %q", p.Content)
		}
		for i := 0; i < n; i++ {
			if frag := fmt.Sprintf("[%02d]", i); strings.Count(p.Content, frag) != 1 {
				t.Errorf("fragment %s appears %d times", frag, strings.Count(p.Content, frag))
			}
		}
		if p.FragmentCount != n+1 {
			t.Errorf("expected fragment count %d, got %d", n+1, p.FragmentCount)
		}
	})

	t.Run("ConcurrentCreatesYieldOneRow", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for _, frag := range []string{"X", "Y"} {
			wg.Add(1)
			go func(frag string) {
				defer wg.Done()
				out, err := s.CreatePage(ctx, "500", frag)
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				if out == OutcomeCreated {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}(frag)
		}
		wg.Wait()

		if created != 1 {
			t.Errorf("expected exactly one created outcome, got %d", created)
		}
		p, _ := s.GetPage(ctx, "500")
		if p.Content != "XY" && p.Content != "YX" {
			t.Errorf("expected both fragments in some order, got %q", p.Content)
		}
	})
}
