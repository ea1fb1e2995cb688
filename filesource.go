package confopts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileOptions configures a file provider.
type FileOptions struct {
	// Format pins the file format ("toml", "json", "yaml"). Empty or "auto"
	// detects from the extension, then from the contents.
	Format string

	// Optional makes a missing file yield an empty snapshot instead of a
	// load error. Parse failures are always errors.
	Optional bool

	// Watch emits a mutation signal when the file changes on disk.
	Watch bool

	// Debounce coalesces rapid file events into one signal.
	Debounce time.Duration
}

// FileProvider reads configuration from a TOML, JSON, or YAML file. Nested
// tables flatten to delimited keys and arrays to indexed children, so
// servers[0].host becomes servers.0.host. With watching enabled, fsnotify
// events on the file signal subscribers after a debounce window.
type FileProvider struct {
	path     string
	format   string
	optional bool
	debounce time.Duration

	mu            sync.Mutex
	subs          []func()
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
}

// NewFileProvider creates a file provider. With FileOptions.Watch set, the
// watcher starts immediately; call Close to release it.
func NewFileProvider(path string, opts FileOptions) (*FileProvider, error) {
	switch opts.Format {
	case "", "auto", "toml", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported file format %q", opts.Format)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	p := &FileProvider{
		path:     filepath.Clean(path),
		format:   opts.Format,
		optional: opts.Optional,
		debounce: debounce,
	}

	if opts.Watch {
		if err := p.startWatch(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Snapshot reads and parses the file into flat key/value pairs.
func (p *FileProvider) Snapshot() (map[string]string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && p.optional {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %q: %w", p.path, err)
	}

	format := p.format
	if format == "" || format == "auto" {
		format = detectFileFormat(p.path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
		if format == "" {
			return nil, fmt.Errorf("unable to determine config format for %q", p.path)
		}
	}

	nested := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("parse TOML %q: %w", p.path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // preserve number precision
		if err := decoder.Decode(&nested); err != nil {
			return nil, fmt.Errorf("parse JSON %q: %w", p.path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("parse YAML %q: %w", p.path, err)
		}
	}

	out := make(map[string]string)
	flattenPairs(nested, "", out)
	return out, nil
}

// Subscribe registers a mutation callback, fired after the debounce window
// when the file changes. Without Watch enabled the callback never fires.
func (p *FileProvider) Subscribe(onMutation func()) {
	if onMutation == nil {
		return
	}
	p.mu.Lock()
	p.subs = append(p.subs, onMutation)
	p.mu.Unlock()
}

// Close stops the file watcher, if any.
func (p *FileProvider) Close() error {
	p.mu.Lock()
	w := p.watcher
	p.watcher = nil
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
		p.debounceTimer = nil
	}
	p.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}

func (p *FileProvider) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	// Watch the directory: editors replace files via rename, which drops a
	// watch placed on the file itself.
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %q: %w", filepath.Dir(p.path), err)
	}
	p.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != p.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				p.scheduleNotify()
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (p *FileProvider) scheduleNotify() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
	}
	p.debounceTimer = time.AfterFunc(p.debounce, p.notify)
}

func (p *FileProvider) notify() {
	p.mu.Lock()
	subs := make([]func(), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// flattenPairs converts a parsed document to flat delimited keys. Maps
// recurse into child segments and arrays into numeric index segments.
func flattenPairs(value any, prefix string, out map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenPairs(child, joinPrefix(prefix, key), out)
		}
	case []any:
		for i, child := range v {
			flattenPairs(child, indexedKey(prefix, i), out)
		}
	case []map[string]any: // BurntSushi decodes arrays of tables this way
		for i, child := range v {
			flattenPairs(child, indexedKey(prefix, i), out)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = scalarString(v)
	}
}

// scalarString renders a parsed scalar in the form the binder expects.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// detectFileFormat determines format from the file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing. JSON is
// strict, so it is tried first; YAML is a superset of JSON and goes second.
func detectFormatFromContent(data []byte) string {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}
	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}
	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}
	return ""
}
