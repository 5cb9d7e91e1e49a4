package survivor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"imagededup/types"
)

type pixelTable map[string]int64

func (p pixelTable) PixelCount(path string) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	px, ok := p[path]
	if !ok {
		return 0, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return px, nil
}

func touch(t *testing.T, dir, name string, size int) types.CandidateFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.CandidateFile{Name: name, Path: path}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPick(t *testing.T) {
	a := types.CandidateFile{Name: "a.png", Path: "/p/a.png"}
	b := types.CandidateFile{Name: "b.png", Path: "/p/b.png"}

	if victim, survivor := Pick(a, 10, b, 20); victim != a || survivor != b {
		t.Fatal("expected the smaller image to be deleted")
	}
	if victim, _ := Pick(a, 30, b, 20); victim != b {
		t.Fatal("expected the smaller image to be deleted")
	}
	victim, survivor := Pick(a, 20, b, 20)
	if victim != b || survivor != a {
		t.Fatal("expected the lexicographically greater path to be deleted on a tie")
	}
	if v, _ := Pick(b, 20, a, 20); v != b {
		t.Fatal("tie rule must not depend on argument order")
	}
}

func TestResolveRemovesSmaller(t *testing.T) {
	dir := t.TempDir()
	big := touch(t, dir, "big.png", 10)
	small := touch(t, dir, "small.png", 123)

	s := NewSelector(pixelTable{big.Path: 400, small.Path: 100}, true)
	removal := s.Resolve(types.MatchPair{A: big, B: small})

	if removal.Action != types.ActionRemoved {
		t.Fatalf("expected removal, got %v (%v)", removal.Action, removal.Err)
	}
	if removal.Victim != small || removal.Survivor != big {
		t.Fatalf("unexpected victim %+v", removal.Victim)
	}
	if removal.Bytes != 123 {
		t.Fatalf("expected 123 bytes freed, got %d", removal.Bytes)
	}
	if exists(small.Path) || !exists(big.Path) {
		t.Fatal("expected only the smaller file to be deleted")
	}
	if !s.Removed(small.Path) {
		t.Fatal("expected selector to remember the removal")
	}
}

func TestResolveDisabledKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png", 1)
	b := touch(t, dir, "b.png", 1)

	s := NewSelector(pixelTable{a.Path: 1, b.Path: 2}, false)
	removal := s.Resolve(types.MatchPair{A: a, B: b})
	if removal.Action != types.ActionKept {
		t.Fatalf("expected kept, got %v", removal.Action)
	}
	if !exists(a.Path) || !exists(b.Path) {
		t.Fatal("files must stay when deletion is disabled")
	}
}

func TestResolveSkipsPairsWithRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png", 1)
	b := touch(t, dir, "b.png", 1)
	c := touch(t, dir, "c.png", 1)

	s := NewSelector(pixelTable{a.Path: 100, b.Path: 50, c.Path: 10}, true)

	first := s.Resolve(types.MatchPair{A: a, B: b})
	second := s.Resolve(types.MatchPair{A: a, B: c})
	third := s.Resolve(types.MatchPair{A: b, B: c})

	if first.Action != types.ActionRemoved || first.Victim != b {
		t.Fatalf("first pair: %+v", first)
	}
	if second.Action != types.ActionRemoved || second.Victim != c {
		t.Fatalf("second pair: %+v", second)
	}
	if third.Action != types.ActionSkippedGone {
		t.Fatalf("third pair: expected skip, got %v", third.Action)
	}
	if !exists(a.Path) {
		t.Fatal("largest file must survive")
	}
}

func TestResolveFileVanished(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png", 1)
	b := types.CandidateFile{Name: "b.png", Path: filepath.Join(dir, "b.png")}

	s := NewSelector(pixelTable{a.Path: 5, b.Path: 5}, true)
	removal := s.Resolve(types.MatchPair{A: a, B: b})
	if removal.Action != types.ActionSkippedGone {
		t.Fatalf("expected skip for vanished file, got %v", removal.Action)
	}
	if !exists(a.Path) {
		t.Fatal("remaining file must not be deleted")
	}
}

func TestResolveRemoveFailure(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png", 1)
	b := touch(t, dir, "b.png", 1)

	s := NewSelector(pixelTable{a.Path: 5, b.Path: 1}, true)
	s.remove = func(string) error { return fs.ErrPermission }

	removal := s.Resolve(types.MatchPair{A: a, B: b})
	if removal.Action != types.ActionFailed || !errors.Is(removal.Err, fs.ErrPermission) {
		t.Fatalf("expected failure, got %v (%v)", removal.Action, removal.Err)
	}
	if removal.Bytes != 0 {
		t.Fatal("failed removal frees nothing")
	}
	if s.Removed(b.Path) {
		t.Fatal("failed removal must not be recorded")
	}
}

func TestResolveVictimVanishedBeforeRemoval(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png", 1)
	b := touch(t, dir, "b.png", 1)

	s := NewSelector(pixelTable{a.Path: 5, b.Path: 1}, true)
	s.remove = func(string) error { return &fs.PathError{Op: "remove", Path: b.Path, Err: fs.ErrNotExist} }

	removal := s.Resolve(types.MatchPair{A: a, B: b})
	if removal.Action != types.ActionSkippedGone {
		t.Fatalf("expected a victim deleted elsewhere to be skipped, got %v", removal.Action)
	}
	if removal.Bytes != 0 {
		t.Fatalf("nothing was freed by this run, got %d bytes", removal.Bytes)
	}
	if s.Removed(b.Path) {
		t.Fatal("a file this run did not delete must not be recorded as removed")
	}
}
