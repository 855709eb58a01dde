package index

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

// FileIndex keeps identifiers in a newline-delimited text file.
//
// The file is not locked. Two processes allocating against the same
// repository may both read the index before either appends, and so commit
// the same identifier. Use BoltIndex when allocations can run concurrently.
type FileIndex struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewFileIndex(path string, logger *zap.Logger) *FileIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileIndex{path: path, logger: logger.Named("index")}
}

func (f *FileIndex) Path() string {
	return f.path
}

func (f *FileIndex) Contains(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, err := f.readSet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[id]
	return ok, nil
}

func (f *FileIndex) Identifiers(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLines(ctx)
}

func (f *FileIndex) Replace(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.ensureFile(); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace index: %w", err)
	}
	f.logger.Debug("content index rewritten", zap.String("path", f.path), zap.Int("identifiers", len(ids)))
	return nil
}

// Reserve checks and appends under the in-process lock only.
func (f *FileIndex) Reserve(ctx context.Context, derive DeriveFunc) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, err := f.readSet(ctx)
	if err != nil {
		return "", err
	}
	id, err := derive(func(candidate string) bool {
		_, ok := set[candidate]
		return ok
	})
	if err != nil {
		return "", err
	}
	if err := f.appendLine(id); err != nil {
		return "", err
	}
	return id, nil
}

func (f *FileIndex) Close() error {
	return nil
}

func (f *FileIndex) readSet(ctx context.Context) (map[string]struct{}, error) {
	lines, err := f.readLines(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set, nil
}

func (f *FileIndex) readLines(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.ensureFile(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return lines, nil
}

func (f *FileIndex) appendLine(id string) error {
	if err := domainIdentifier(id); err != nil {
		return err
	}
	if err := f.ensureFile(); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	prefix := ""
	if info, err := file.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := file.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			prefix = "\n"
		}
	}
	if _, err := file.WriteString(prefix + id + "\n"); err != nil {
		return fmt.Errorf("append index: %w", err)
	}
	f.logger.Debug("identifier indexed", zap.String("identifier", id), zap.String("path", f.path))
	return nil
}

// ensureFile creates an empty index, and its directory, when missing.
func (f *FileIndex) ensureFile() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	f.logger.Info("created empty content index", zap.String("path", f.path))
	return file.Close()
}

func domainIdentifier(id string) error {
	if _, err := domain.KindOf(id); err != nil {
		return err
	}
	return nil
}
