package watcher

// Watches a savefile directory and reports what changed in each character whenever the game
// (or anything else) writes a save.

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"d2sedit/readers"
	"d2sedit/tables"
	"d2sedit/types"
)

const EXTENSION = ".d2s"

// Delta is a change to one attribute.  A missing attribute counts as 0 in Old/New, with Had/Has saying which.
type Delta struct {
	Id   tables.ATTR_ID
	Name string
	Old  uint32
	New  uint32
	Had  bool
	Has  bool
}

type Change struct {
	Filename  string
	Character *types.Character
	Deltas    []Delta
	New       bool // first time we've seen this file
}

// Diff lists attribute changes from before to after, ascending by id.  before may be nil.
func Diff(before, after *types.Character) []Delta {
	if before == nil {
		before = types.New_character()
	}

	ids := before.Ids()
	for id := range after.Attributes {
		if _, ok := before.Attributes[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := []Delta{}
	for _, id := range ids {
		o, had := before.Attributes[id]
		n, has := after.Attributes[id]
		if had == has && o == n {
			continue
		}
		out = append(out, Delta{id, tables.Attrib_name(id), o, n, had, has})
	}
	return out
}

type Watcher interface {
	Start_watching(changes chan<- *Change) error
	Stop_watching()
}

// New_watcher makes a watcher for dir.
// settle is how long to wait after a write before reading the file, so the game can finish with it.
func New_watcher(dir string, settle time.Duration, log *zap.Logger) Watcher {
	return &dir_watcher{
		dir:      dir,
		settle:   settle,
		log:      log,
		known:    map[string]*types.Character{},
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

type dir_watcher struct {
	dir     string
	settle  time.Duration
	log     *zap.Logger
	watcher *fsnotify.Watcher

	// closed by Stop_watching, so nothing waits on a reader who has gone away
	done      chan struct{}
	stop_once sync.Once

	finished chan struct{} // closed when the watching goroutine exits

	// last character seen in each file.  Only touched by the watching goroutine (after setup).
	known map[string]*types.Character
}

func is_savefile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), EXTENSION)
}

// load_existing reads whatever saves are already there, so the first write to each one reports a proper diff
func (dw *dir_watcher) load_existing() {
	entries, err := os.ReadDir(dw.dir)
	if err != nil {
		dw.log.Warn("can't list save dir", zap.String("dir", dw.dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !is_savefile(e.Name()) {
			continue
		}
		filename := filepath.Join(dw.dir, e.Name())
		sd, err := readers.Read_file(filename)
		if err != nil {
			dw.log.Warn("skipping unreadable save", zap.String("file", filename), zap.Error(err))
			continue
		}
		dw.known[filename] = sd.Character
	}
	dw.log.Debug("existing saves loaded", zap.Int("count", len(dw.known)))
}

func (dw *dir_watcher) Start_watching(changes chan<- *Change) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.watcher = watcher
	dw.load_existing()

	err = dw.watcher.Add(dw.dir)
	if err != nil {
		dw.watcher.Close()
		return err
	}

	go func() {
		defer close(dw.finished)
		for {
			select {
			case <-dw.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && is_savefile(event.Name) {
					dw.handle_file(event.Name, changes)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				dw.log.Error("watch error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (dw *dir_watcher) Stop_watching() {
	dw.stop_once.Do(func() {
		close(dw.done)
		if dw.watcher != nil {
			dw.watcher.Close()
		}
	})
}

func (dw *dir_watcher) handle_file(filename string, out chan<- *Change) {
	// Wait for the game to finish with the file
	select {
	case <-time.After(dw.settle):
	case <-dw.done:
		return
	}

	sd, err := readers.Read_file(filename)
	if err != nil {
		// Half-written files look just like broken ones.  The next write event will sort it out.
		dw.log.Warn("failed to read save", zap.String("file", filename), zap.Error(err))
		return
	}

	old, seen := dw.known[filename]
	dw.known[filename] = sd.Character

	deltas := Diff(old, sd.Character)
	if seen && len(deltas) == 0 && old.Name == sd.Character.Name && old.Class == sd.Character.Class {
		dw.log.Debug("save rewritten with no attribute changes", zap.String("file", filename))
		return
	}

	select {
	case out <- &Change{filename, sd.Character, deltas, !seen}:
	case <-dw.done:
	}
}
