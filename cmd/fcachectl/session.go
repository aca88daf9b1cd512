package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dkroeger/fcached/internal/fsutil"
	"github.com/dkroeger/fcached/pkg/client"
)

// session runs one invocation's worth of operations over a single
// connection. The original CLI walks argv left to right, interleaving
// -D/-d with the write/read that precedes or follows them; this
// implementation instead runs every requested operation kind in a fixed
// pipeline (lock, write, read, unlock, close), which covers the same
// surface without argv-position bookkeeping. -D and -d apply to every
// write and every read in the pipeline, respectively.
type session struct {
	opts options
	cl   *client.Client
}

func (s *session) run() error {
	cl, err := client.Dial(s.opts.socket)
	if err != nil {
		return err
	}
	defer cl.Close()

	cl.Verbose = s.opts.verbose
	cl.Strict = true
	s.cl = cl

	steps := []func() error{
		s.runLocks,
		s.runWriteDir,
		s.runWriteFiles,
		s.runReads,
		s.runReadN,
		s.runUnlocks,
		s.runCloses,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return nil
}

func (s *session) pause() {
	if s.opts.intervalMS > 0 {
		time.Sleep(time.Duration(s.opts.intervalMS) * time.Millisecond)
	}
}

func (s *session) runLocks() error {
	for _, name := range s.opts.lockFiles {
		if err := s.cl.Lock(name); err != nil {
			return fmt.Errorf("lock %s: %w", name, err)
		}
		s.pause()
	}

	return nil
}

func (s *session) runUnlocks() error {
	for _, name := range s.opts.unlockFiles {
		if err := s.cl.Unlock(name); err != nil {
			return fmt.Errorf("unlock %s: %w", name, err)
		}
		s.pause()
	}

	return nil
}

func (s *session) runCloses() error {
	for _, name := range s.opts.closeFiles {
		if err := s.cl.CloseFile(name); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		s.pause()
	}

	return nil
}

// runWriteDir implements -w dir[,n]: find files recursively under dir and
// write up to n of them (all, if n is omitted), keyed by their path
// relative to dir.
func (s *session) runWriteDir() error {
	if s.opts.writeDir == "" {
		return nil
	}

	dir, n, err := parseWriteDir(s.opts.writeDir)
	if err != nil {
		return err
	}

	names, err := fsutil.ListFilesRecursive(dir)
	if err != nil {
		return err
	}

	if n > 0 && n < len(names) {
		names = names[:n]
	}

	for _, rel := range names {
		content, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}

		if err := s.writeOne(rel, content); err != nil {
			return err
		}
	}

	return nil
}

func parseWriteDir(spec string) (dir string, n int, err error) {
	parts := strings.SplitN(spec, ",", 2)
	dir = parts[0]

	if len(parts) == 1 {
		return dir, 0, nil
	}

	n, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("write dir %q: bad count: %w", spec, err)
	}

	return dir, n, nil
}

// runWriteFiles implements -W: each entry is a local path whose content
// is written under its basename.
func (s *session) runWriteFiles() error {
	for _, path := range s.opts.writeFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		if err := s.writeOne(filepath.Base(path), content); err != nil {
			return err
		}
	}

	return nil
}

func (s *session) writeOne(name string, content []byte) error {
	if err := s.cl.Open(name, client.FlagCreate|client.FlagLock); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}

	victims, err := s.cl.Write(name, content)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	if s.opts.victimsDir != "" {
		for _, v := range victims {
			if err := fsutil.SaveFile(s.opts.victimsDir, v.Name, v.Content); err != nil {
				return fmt.Errorf("persist victim %s: %w", v.Name, err)
			}
		}
	}

	s.pause()

	return nil
}

// runReads implements -r: read each named entry by server-assigned name.
func (s *session) runReads() error {
	for _, name := range s.opts.readFiles {
		content, err := s.cl.Read(name, s.opts.readDir != "")
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		if s.opts.readDir != "" {
			if err := fsutil.SaveFile(s.opts.readDir, name, content); err != nil {
				return fmt.Errorf("persist read %s: %w", name, err)
			}
		}

		s.pause()
	}

	return nil
}

// runReadN implements -R [n].
func (s *session) runReadN() error {
	if !s.opts.readNSet {
		return nil
	}

	results, err := s.cl.ReadN(s.opts.readN)
	if err != nil {
		return fmt.Errorf("read-n: %w", err)
	}

	if s.opts.readDir != "" {
		for _, r := range results {
			if err := fsutil.SaveFile(s.opts.readDir, r.Name, r.Content); err != nil {
				return fmt.Errorf("persist read-n %s: %w", r.Name, err)
			}
		}
	}

	s.pause()

	return nil
}
