package exporter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// OutputSink receives the files an exporter produces. A format usually
// writes one file but may add side files (geometry sequences, footage).
type OutputSink interface {
	Create(name string) (io.WriteCloser, error)
}

// DirSink writes outputs into a directory, creating it on first use.
type DirSink struct {
	Dir string
}

func (s *DirSink) Create(name string) (io.WriteCloser, error) {
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, errors.Wrapf(err, "Cannot prepare output dir for %q", name)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot create output %q", name)
	}
	return f, nil
}

// MemorySink collects outputs in memory, for the web service and tests.
type MemorySink struct {
	mu    sync.Mutex
	Files map[string]*bytes.Buffer
}

type memoryFile struct {
	*bytes.Buffer
}

func (memoryFile) Close() error { return nil }

func (s *MemorySink) Create(name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = make(map[string]*bytes.Buffer)
	}
	buf := &bytes.Buffer{}
	s.Files[name] = buf
	return memoryFile{buf}, nil
}

func (s *MemorySink) File(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.Files[name]; ok {
		return buf.Bytes()
	}
	return nil
}

func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	return names
}
