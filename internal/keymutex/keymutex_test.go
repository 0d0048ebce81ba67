// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package keymutex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// waitForQueue polls until n acquirers are queued on id.
func waitForQueue(t *testing.T, m *KeyedMutex, id string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.waiting(id) == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d queued acquirers on %q, got %d", n, id, m.waiting(id))
}

func assertBlocked(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
		t.Fatalf("%s returned early", what)
	case <-time.After(30 * time.Millisecond):
	}
}

func assertDone(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func TestLock_UnlockedKeyAcquiresImmediately(t *testing.T) {
	m := New()

	if err := m.Lock(context.Background(), "a"); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !m.IsLocked("a") {
		t.Error("IsLocked(a) = false after Lock")
	}
	if m.IsLocked("b") {
		t.Error("IsLocked(b) = true for untouched key")
	}

	m.Unlock("a")
	if m.IsLocked("a") {
		t.Error("IsLocked(a) = true after Unlock")
	}
}

func TestLock_SecondCallerSuspendsUntilUnlock(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.Lock(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := m.Lock(ctx, "a"); err == nil {
			close(acquired)
		}
	}()

	waitForQueue(t, m, "a", 1)
	assertBlocked(t, acquired, "second Lock")

	m.Unlock("a")
	assertDone(t, acquired, "second Lock")

	if !m.IsLocked("a") {
		t.Error("lock should be held by the second caller after hand-off")
	}
}

func TestLock_FIFOOrder(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.Lock(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := m.Lock(ctx, "k"); err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			m.Unlock("k")
		}(i)
		// Queue strictly one at a time so arrival order is known.
		waitForQueue(t, m, "k", i+1)
	}

	m.Unlock("k")
	wg.Wait()

	for i, n := range order {
		if n != i {
			t.Fatalf("acquisition order = %v, want ascending", order)
		}
	}
	if m.IsLocked("k") {
		t.Error("key should be free after all waiters released it")
	}
}

func TestLock_KeysAreIndependent(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Lock(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Lock(ctx, "b"); err != nil {
		t.Fatalf("Lock(b) blocked by a: %v", err)
	}
}

func TestLock_ContextCancelLeavesQueue(t *testing.T) {
	m := New()
	if err := m.Lock(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Lock(ctx, "a") }()

	waitForQueue(t, m, "a", 1)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Lock() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled Lock did not return")
	}

	if got := m.waiting("a"); got != 0 {
		t.Errorf("queue length = %d after cancel, want 0", got)
	}

	m.Unlock("a")
	if m.IsLocked("a") {
		t.Error("key should be free: the canceled waiter must not inherit it")
	}
}

func TestTryLock(t *testing.T) {
	m := New()
	if !m.TryLock("a") {
		t.Fatal("TryLock on free key = false")
	}
	if m.TryLock("a") {
		t.Fatal("TryLock on held key = true")
	}
	m.Unlock("a")
	if !m.TryLock("a") {
		t.Fatal("TryLock after Unlock = false")
	}
}

func TestUnlock_FreeKeyIsNoop(t *testing.T) {
	m := New()
	m.Unlock("never-locked")
	if m.IsLocked("never-locked") {
		t.Error("Unlock on free key must not lock it")
	}
}

func TestWaitForUnlock_FreeKeyReturnsImmediately(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := m.WaitForUnlock(ctx, "a"); err != nil {
		t.Fatalf("WaitForUnlock() error = %v", err)
	}
	if m.IsLocked("a") {
		t.Error("WaitForUnlock must not acquire the key")
	}
}

func TestWaitForUnlock_IgnoresHandOff(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.Lock(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	secondHolds := make(chan struct{})
	release := make(chan struct{})
	go func() {
		if err := m.Lock(ctx, "a"); err != nil {
			return
		}
		close(secondHolds)
		<-release
		m.Unlock("a")
	}()
	waitForQueue(t, m, "a", 1)

	freed := make(chan struct{})
	go func() {
		if err := m.WaitForUnlock(ctx, "a"); err == nil {
			close(freed)
		}
	}()

	assertBlocked(t, freed, "WaitForUnlock while locked")

	// Hand the lock to the queued caller; the key never becomes free.
	m.Unlock("a")
	assertDone(t, secondHolds, "queued Lock")
	assertBlocked(t, freed, "WaitForUnlock after hand-off")

	close(release)
	assertDone(t, freed, "WaitForUnlock after final Unlock")
	if m.IsLocked("a") {
		t.Error("key should be free")
	}
}

func TestWaitForUnlock_ContextCancel(t *testing.T) {
	m := New()
	if err := m.Lock(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.WaitForUnlock(ctx, "a")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForUnlock() error = %v, want DeadlineExceeded", err)
	}
	if !m.IsLocked("a") {
		t.Error("timed-out waiter must not change lock state")
	}
}

func TestWithLock(t *testing.T) {
	m := New()
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := m.WithLock(ctx, "a", func() error {
		if !m.IsLocked("a") {
			t.Error("key should be held inside WithLock")
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithLock() error = %v, want sentinel", err)
	}
	if m.IsLocked("a") {
		t.Error("WithLock must release the key")
	}
}

func TestConcurrentCounter(t *testing.T) {
	m := New()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "counter", func() error {
				v := counter
				time.Sleep(100 * time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}
