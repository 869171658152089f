package adapter

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/gocssmods/pkg/host"
	"gitlab.com/tozd/go/errors"
)

// Language owns the virtual codes of the foreign files of a host. A code is reused while
// its source snapshot version is unchanged and replaced as a whole otherwise.
type Language struct {
	id      string
	host    host.Host
	plugins []LanguagePlugin
	codes   *sync.Map // map[string]*VirtualCode
}

func NewLanguage(h host.Host, plugins ...LanguagePlugin) *Language {
	return &Language{
		id:      uuid.NewString(),
		host:    h,
		plugins: plugins,
		codes:   &sync.Map{},
	}
}

func (me *Language) ID() string {
	return me.id
}

func (me *Language) plugin(fileName string) (LanguagePlugin, string, bool) {
	for _, p := range me.plugins {
		if id, ok := p.LanguageID(fileName); ok {
			return p, id, true
		}
	}
	return nil, "", false
}

// IsForeign reports whether a plugin claims fileName.
func (me *Language) IsForeign(fileName string) bool {
	_, _, ok := me.plugin(fileName)
	return ok
}

// ExtraFileExtensions collects the extensions of every plugin.
func (me *Language) ExtraFileExtensions() []FileExtension {
	var out []FileExtension
	for _, p := range me.plugins {
		out = append(out, p.ExtraFileExtensions()...)
	}
	return out
}

// VirtualCode returns the code for fileName, projecting it when the cached code is missing
// or stale. The boolean is false for files no plugin claims.
func (me *Language) VirtualCode(ctx context.Context, fileName string) (*VirtualCode, bool, error) {
	p, languageID, ok := me.plugin(fileName)
	if !ok {
		return nil, false, nil
	}

	snap, ok := me.host.ScriptSnapshot(fileName)
	if !ok {
		return nil, true, errors.Errorf("%s: %w", fileName, host.ErrFileNotFound)
	}

	logger := zerolog.Ctx(ctx).With().Str("language", me.id).Str("file", fileName).Logger()

	if cached, ok := me.codes.Load(fileName); ok {
		code := cached.(*VirtualCode)
		if code.SourceVersion == snap.Version() {
			return code, true, nil
		}
		logger.Debug().Str("old_version", code.SourceVersion).Str("new_version", snap.Version()).Msg("virtual code is stale")
	}

	code, err := p.CreateVirtualCode(ctx, fileName, languageID, snap)
	if err != nil {
		return nil, true, err
	}
	if code == nil {
		return nil, false, nil
	}

	me.codes.Store(fileName, code)
	logger.Debug().Str("version", code.SourceVersion).Int("mappings", len(code.Mappings)).Msg("created virtual code")
	return code, true, nil
}

// ServiceScript returns how the host should load fileName, false for files no plugin claims.
func (me *Language) ServiceScript(ctx context.Context, fileName string) (ServiceScript, bool, error) {
	code, ok, err := me.VirtualCode(ctx, fileName)
	if err != nil || !ok {
		return ServiceScript{}, ok, err
	}
	p, _, _ := me.plugin(fileName)
	return p.ServiceScript(code), true, nil
}

// Forget drops the cached code of a deleted file.
func (me *Language) Forget(fileName string) {
	me.codes.Delete(fileName)
}

// Host returns a host whose snapshots of foreign files are their virtual text. Projection
// failures are logged through ctx and reported as missing files.
func (me *Language) Host(ctx context.Context) host.Host {
	return &virtualHost{ctx: ctx, language: me}
}

type virtualHost struct {
	ctx      context.Context
	language *Language
}

func (me *virtualHost) ScriptFileNames() []string {
	return me.language.host.ScriptFileNames()
}

func (me *virtualHost) ScriptSnapshot(fileName string) (host.Snapshot, bool) {
	code, foreign, err := me.language.VirtualCode(me.ctx, fileName)
	if errors.Is(err, host.ErrFileNotFound) {
		return nil, false
	}
	if err != nil {
		zerolog.Ctx(me.ctx).Warn().Err(err).Str("file", fileName).Msg("virtual code unavailable")
		return nil, false
	}
	if !foreign {
		return me.language.host.ScriptSnapshot(fileName)
	}
	return code.Snapshot, true
}
