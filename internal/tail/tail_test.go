package tail

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBlockingReader_WaitsThenReadsAppendedBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growing.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wake := make(chan struct{}, 1)
	br := &blockingReader{ctx: ctx, file: f, wake: wake}

	buf := make([]byte, 3)
	n, err := io.ReadFull(br, buf)
	if err != nil || n != 3 || string(buf) != "abc" {
		t.Fatalf("first read: n=%d err=%v buf=%q", n, err, buf)
	}

	done := make(chan struct{})
	go func() {
		n, err := io.ReadFull(br, buf[:3])
		if err != nil || string(buf[:n]) != "def" {
			t.Errorf("second read: n=%d err=%v buf=%q", n, err, buf[:n])
		}
		close(done)
	}()

	// Give the reader goroutine a chance to block on EOF before we
	// append, proving it actually waited rather than returning early.
	time.Sleep(20 * time.Millisecond)
	if err := appendTo(path, "def"); err != nil {
		t.Fatal(err)
	}
	nonBlockingSend(wake)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blockingReader never observed the appended bytes")
	}
}

func TestBlockingReader_CancelUnblocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	br := &blockingReader{ctx: ctx, file: f, wake: wake}

	errCh := make(chan error, 1)
	go func() {
		_, err := br.Read(make([]byte, 1))
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected non-nil error after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blockingReader never unblocked on context cancellation")
	}
}

func appendTo(path, s string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(s)
	return err
}
