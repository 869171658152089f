// Package project discovers the scripts and stylesheets of a directory tree and serves
// them as a host, with unsaved editor content layered on top.
package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/gocssmods/pkg/adapter"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/projection"
	"github.com/walteh/gocssmods/pkg/tsindex"
	"gitlab.com/tozd/go/errors"
)

type cachedFile struct {
	snapshot host.Snapshot
	modTime  time.Time
	size     int64
}

// Project is a host over the files of Root matched by the config.
type Project struct {
	fs     afero.Fs
	root   string
	config *Config
	logger zerolog.Logger

	mu       sync.RWMutex
	files    []string
	cache    map[string]cachedFile
	overlays map[string]host.Snapshot
}

var _ host.Host = (*Project)(nil)

func New(fs afero.Fs, root string, cfg *Config) *Project {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Project{
		fs:       fs,
		root:     filepath.Clean(root),
		config:   cfg,
		logger:   zerolog.Nop(),
		cache:    map[string]cachedFile{},
		overlays: map[string]host.Snapshot{},
	}
}

// Open loads the config found in root and discovers the project files.
func Open(ctx context.Context, fs afero.Fs, root string) (*Project, error) {
	cfg, path, err := FindConfig(fs, root)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("root", root).Str("config", path).Msg("opening project")

	p := New(fs, root, cfg)
	p.logger = zerolog.Ctx(ctx).With().Str("root", p.root).Logger()
	if err := p.Discover(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (me *Project) Root() string {
	return me.root
}

func (me *Project) Config() *Config {
	return me.config
}

// Matches reports whether fileName is part of the project by the include and exclude globs.
func (me *Project) Matches(fileName string) bool {
	rel, err := filepath.Rel(me.root, fileName)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range me.config.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range me.config.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Discover walks Root and replaces the file list. Unreadable entries are skipped and
// reported together once the walk completes.
func (me *Project) Discover(ctx context.Context) error {
	var result *multierror.Error
	var files []string

	err := afero.Walk(me.fs, me.root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			result = multierror.Append(result, errors.Errorf("walking %s: %w", path, err))
			return nil
		}
		if info.IsDir() {
			if path != me.root && !me.WantsDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if me.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("discovering files in %s: %w", me.root, err)
	}

	sort.Strings(files)

	me.mu.Lock()
	me.files = files
	me.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Msg("discovered project files")

	if err := result.ErrorOrNil(); err != nil {
		return errors.Errorf("discovering files in %s: %w", me.root, err)
	}
	return nil
}

// WantsDir is false for directories whose whole subtree is excluded.
func (me *Project) WantsDir(dir string) bool {
	rel, err := filepath.Rel(me.root, dir)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range me.config.Exclude {
		child, _ := doublestar.Match(pattern, rel+"/x")
		grandchild, _ := doublestar.Match(pattern, rel+"/x/y")
		if child && grandchild {
			return false
		}
	}
	return true
}

// Add registers a file created after discovery. Files outside the globs are ignored.
func (me *Project) Add(fileName string) bool {
	if !me.Matches(fileName) {
		return false
	}
	me.mu.Lock()
	defer me.mu.Unlock()

	i := sort.SearchStrings(me.files, fileName)
	if i < len(me.files) && me.files[i] == fileName {
		return true
	}
	me.files = append(me.files, "")
	copy(me.files[i+1:], me.files[i:])
	me.files[i] = fileName
	return true
}

// Remove forgets a deleted file.
func (me *Project) Remove(fileName string) {
	me.mu.Lock()
	defer me.mu.Unlock()

	delete(me.cache, fileName)
	i := sort.SearchStrings(me.files, fileName)
	if i < len(me.files) && me.files[i] == fileName {
		me.files = append(me.files[:i], me.files[i+1:]...)
	}
}

// SetOverlay makes text the content of fileName until ClearOverlay, whatever is on disk.
func (me *Project) SetOverlay(fileName, text string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.overlays[fileName] = host.NewStringSnapshot(text)
}

func (me *Project) ClearOverlay(fileName string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	delete(me.overlays, fileName)
}

// ScriptFileNames lists discovered files plus overlays for files not on disk yet.
func (me *Project) ScriptFileNames() []string {
	me.mu.RLock()
	defer me.mu.RUnlock()

	out := make([]string, len(me.files), len(me.files)+len(me.overlays))
	copy(out, me.files)
	for name := range me.overlays {
		i := sort.SearchStrings(me.files, name)
		if i < len(me.files) && me.files[i] == name {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ScriptSnapshot reads fileName, reusing the previous snapshot while the file's size and
// modification time are unchanged.
func (me *Project) ScriptSnapshot(fileName string) (host.Snapshot, bool) {
	me.mu.RLock()
	overlay, ok := me.overlays[fileName]
	cached, hasCache := me.cache[fileName]
	me.mu.RUnlock()
	if ok {
		return overlay, true
	}

	info, err := me.fs.Stat(fileName)
	if err != nil {
		me.logUnreadable(fileName, err)
		return nil, false
	}
	if info.IsDir() {
		return nil, false
	}
	if hasCache && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.snapshot, true
	}

	data, err := afero.ReadFile(me.fs, fileName)
	if err != nil {
		me.logUnreadable(fileName, err)
		return nil, false
	}

	snap := host.NewStringSnapshot(string(data))
	me.mu.Lock()
	me.cache[fileName] = cachedFile{snapshot: snap, modTime: info.ModTime(), size: info.Size()}
	me.mu.Unlock()
	return snap, true
}

// logUnreadable reports read failures other than a missing file, which hosts only see as
// host.ErrFileNotFound.
func (me *Project) logUnreadable(fileName string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	me.logger.Warn().Err(err).Str("file", fileName).Msg("reading project file")
}

// Invalidate drops the cached snapshot of fileName so the next read goes to disk.
func (me *Project) Invalidate(fileName string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	delete(me.cache, fileName)
}

// Extractor builds the class name extractor selected by the config.
func (me *Project) Extractor() (extract.Extractor, error) {
	return extract.New(extract.Kind(me.config.Extractor))
}

// Session ties a project to its language and navigation service.
type Session struct {
	Project  *Project
	Language *adapter.Language
	Service  *adapter.Service
}

// NewSession wires the stylesheet plugin and the script index over the project.
func (me *Project) NewSession(ctx context.Context) (*Session, error) {
	ex, err := me.Extractor()
	if err != nil {
		return nil, errors.Errorf("creating extractor: %w", err)
	}

	plugin := adapter.NewCSSModulePlugin(projection.NewProjector(ex), me.config.ForeignSuffixes...)
	lang := adapter.NewLanguage(me, plugin)
	svc := adapter.NewService(lang, tsindex.New(lang.Host(ctx)))

	zerolog.Ctx(ctx).Debug().Str("language", lang.ID()).Str("extractor", me.config.Extractor).Msg("created session")

	return &Session{Project: me, Language: lang, Service: svc}, nil
}
