package tips

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/taskflowhq/taskflow/pkg/cerr"
)

// Tip is one productivity hint from the catalog file.
type Tip struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

type catalogFile struct {
	Tips []Tip `yaml:"tips"`
}

// Catalog serves tips from a YAML file and reloads it when the file changes,
// so the list can be edited without a restart.
type Catalog struct {
	path string

	mu   sync.RWMutex
	tips []Tip
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Load reads the catalog file. A missing file is not an error; the catalog is
// just empty until someone creates it.
func (c *Catalog) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			c.tips = nil
			c.mu.Unlock()
			return nil
		}
		return err
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	c.mu.Lock()
	c.tips = file.Tips
	c.mu.Unlock()
	return nil
}

// Random picks one tip uniformly.
func (c *Catalog) Random() (*Tip, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tips) == 0 {
		return nil, cerr.NewError(cerr.NotFound, "no tips available", nil)
	}
	tip := c.tips[rand.Intn(len(c.tips))]
	return &tip, nil
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tips)
}

// debounceInterval is the delay after a file event before reloading, so a
// burst of events from one save triggers a single reload.
const debounceInterval = 100 * time.Millisecond

// Watch reloads the catalog on file changes until the context is canceled.
// The parent directory is watched rather than the file itself: editors and
// atomic writers replace the file, which changes the inode.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(c.path)
	name := filepath.Base(c.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceInterval, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := c.Load(); err != nil {
				slog.WarnContext(ctx, "failed to reload tips catalog",
					slog.String("path", c.path),
					slog.Any("error", err))
				continue
			}
			slog.InfoContext(ctx, "tips catalog reloaded",
				slog.String("path", c.path),
				slog.Int("count", c.Len()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "tips catalog watcher error", slog.Any("error", err))
		}
	}
}
