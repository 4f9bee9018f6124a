package envfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	fsjson "github.com/mantle-armada/bootstrap/internal/infra/filesystem/json"
)

// Result reports what Patch did to the file.
type Result struct {
	Updated  []string
	Appended []string
	// Missing keys were not found in the file and were left absent.
	Missing []string
}

type options struct {
	appendMissing bool
}

type Option func(*options)

// WithAppendMissing appends keys absent from the file, sorted, at its end.
func WithAppendMissing() Option {
	return func(o *options) {
		o.appendMissing = true
	}
}

type fileWriter interface {
	WriteFile(path string, data []byte, perm os.FileMode) error
}

// Patched is an env file rewritten in memory and not yet written back.
type Patched struct {
	Path    string
	Content []byte
	Perm    os.FileMode
	Result  Result
}

// Patch rewrites path so that, for every key in updates, the first line
// starting with "KEY=" becomes "KEY=value". All other lines are kept as is.
func Patch(path string, updates map[string]string, opts ...Option) (Result, error) {
	patched, err := Prepare(path, updates, opts...)
	if err != nil {
		return Result{}, err
	}

	if err := patched.Commit(fsjson.NewWriter()); err != nil {
		return Result{}, err
	}

	return patched.Result, nil
}

// Prepare reads path and applies updates in memory. Nothing is written.
func Prepare(path string, updates map[string]string, opts ...Option) (Patched, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return Patched{}, fmt.Errorf("failed to stat env file '%s': %w", path, err)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return Patched{}, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	patched, result := patchContent(string(content), updates, o.appendMissing)

	return Patched{
		Path:    cleanPath,
		Content: []byte(patched),
		Perm:    info.Mode().Perm(),
		Result:  result,
	}, nil
}

// Commit replaces the env file with the patched content, keeping its permissions.
func (p Patched) Commit(writer fileWriter) error {
	if err := writer.WriteFile(p.Path, p.Content, p.Perm); err != nil {
		return fmt.Errorf("failed to write env file '%s': %w", p.Path, err)
	}
	return nil
}

func patchContent(content string, updates map[string]string, appendMissing bool) (string, Result) {
	var result Result

	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	lines := strings.Split(content, "\n")
	for _, key := range keys {
		prefix := key + "="
		found := false
		for i, line := range lines {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			replacement := prefix + updates[key]
			if strings.HasSuffix(line, "\r") {
				replacement += "\r"
			}
			lines[i] = replacement
			found = true
			break
		}

		if found {
			result.Updated = append(result.Updated, key)
		} else {
			result.Missing = append(result.Missing, key)
		}
	}

	patched := strings.Join(lines, "\n")
	if !appendMissing || len(result.Missing) == 0 {
		return patched, result
	}

	var b strings.Builder
	b.WriteString(patched)
	if patched != "" && !strings.HasSuffix(patched, "\n") {
		b.WriteString("\n")
	}
	for _, key := range result.Missing {
		fmt.Fprintf(&b, "%s=%s\n", key, updates[key])
	}
	result.Appended, result.Missing = result.Missing, nil

	return b.String(), result
}

// Parse reads KEY=value pairs from path. Blank lines and comments are skipped;
// the first occurrence of a key wins.
func Parse(path string) (map[string]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open env file '%s': %w", path, err)
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, seen := env[key]; !seen {
			env[key] = strings.TrimSpace(value)
		}
	}

	return env, scanner.Err()
}
