package loader

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/stepwise.toml", `
[history]
maxSteps = 50
dropFailedSteps = true

[logging]
level = "debug"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/stepwise.toml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	history, ok := config["history"].(map[string]any)
	if !ok {
		t.Fatalf("history section missing or wrong type: %T", config["history"])
	}
	if history["maxSteps"] != int64(50) {
		t.Errorf("maxSteps = %v (%T), want 50", history["maxSteps"], history["maxSteps"])
	}
	if history["dropFailedSteps"] != true {
		t.Errorf("dropFailedSteps = %v, want true", history["dropFailedSteps"])
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[history\nmaxSteps = 1\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error = %T, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q, want /bad.toml", perr.Path)
	}
	if perr.Line == 0 {
		t.Error("Line not reported")
	}
}

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/stepwise.yaml", `
history:
  maxSteps: 10
script:
  timeout: 2s
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/stepwise.yaml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	history := config["history"].(map[string]any)
	if history["maxSteps"] != 10 {
		t.Errorf("maxSteps = %v (%T), want 10", history["maxSteps"], history["maxSteps"])
	}
	script := config["script"].(map[string]any)
	if script["timeout"] != "2s" {
		t.Errorf("timeout = %v, want 2s", script["timeout"])
	}
}

func TestYAMLLoader_FromReader(t *testing.T) {
	config, err := NewYAMLLoader("").LoadFromReader(strings.NewReader("logging:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if got := config["logging"].(map[string]any)["level"]; got != "warn" {
		t.Errorf("level = %v, want warn", got)
	}

	_, err = NewYAMLLoader("").LoadFromReader(strings.NewReader("history: [unclosed"))
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("error = %T, want *ParseError", err)
	}
}

func TestMissingFile(t *testing.T) {
	memfs := NewMemFS()
	for _, path := range []string{"/none.toml", "/none.yaml"} {
		l, err := ForPath(memfs, path)
		if err != nil {
			t.Fatalf("ForPath(%s) error = %v", path, err)
		}
		config, err := l.Load()
		if err != nil || config != nil {
			t.Errorf("Load(%s) = %v, %v; want nil, nil", path, config, err)
		}
	}
}

func TestForPath(t *testing.T) {
	memfs := NewMemFS()

	tests := []struct {
		path string
		want string
	}{
		{"a.toml", "*loader.TOMLLoader"},
		{"a.yaml", "*loader.YAMLLoader"},
		{"a.YML", "*loader.YAMLLoader"},
	}
	for _, tt := range tests {
		l, err := ForPath(memfs, tt.path)
		if err != nil {
			t.Fatalf("ForPath(%s) error = %v", tt.path, err)
		}
		if got := fmt.Sprintf("%T", l); got != tt.want {
			t.Errorf("ForPath(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}

	if _, err := ForPath(memfs, "a.json"); err == nil {
		t.Error("ForPath(a.json) should fail")
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"history": map[string]any{"maxSteps": 10, "dropFailedSteps": true},
		"logging": map[string]any{"level": "info"},
	}
	src := map[string]any{
		"history": map[string]any{"maxSteps": 20},
		"script":  map[string]any{"timeout": "1s"},
	}

	got := DeepMerge(dst, src)

	history := got["history"].(map[string]any)
	if history["maxSteps"] != 20 {
		t.Errorf("maxSteps = %v, want 20", history["maxSteps"])
	}
	if history["dropFailedSteps"] != true {
		t.Error("dropFailedSteps lost in merge")
	}
	if got["logging"].(map[string]any)["level"] != "info" {
		t.Error("logging section lost in merge")
	}
	if got["script"] == nil {
		t.Error("script section not added")
	}

	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) should return an empty map")
	}
}
