// Package adapter registers stylesheet modules with a TypeScript language service. Each
// stylesheet is replaced by its projected declaration text, and every navigation query and
// result is translated through the projection's mapping table.
package adapter

import (
	"context"
	"strings"

	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/mapping"
	"github.com/walteh/gocssmods/pkg/projection"
	"gitlab.com/tozd/go/errors"
)

const (
	LanguageIDCSSModule  = "css-module"
	LanguageIDTypeScript = "typescript"
	DefaultSuffix        = ".module.css"
	// every stylesheet produces a single root virtual code
	VirtualCodeID = "main"
)

// ScriptKind mirrors the TypeScript enum of the same name.
type ScriptKind int

const (
	ScriptKindUnknown ScriptKind = iota
	ScriptKindJS
	ScriptKindJSX
	ScriptKindTS
	ScriptKindTSX
)

// FileExtension announces an extension the host should load as script.
type FileExtension struct {
	Extension      string     `json:"extension"`
	IsMixedContent bool       `json:"isMixedContent"`
	ScriptKind     ScriptKind `json:"scriptKind"`
}

// VirtualCode is the TypeScript stand-in for one snapshot of a foreign file. Values are
// never modified after creation.
type VirtualCode struct {
	ID         string
	LanguageID string
	// Snapshot holds the generated text
	Snapshot host.Snapshot
	Mappings mapping.Table
	// Source is the snapshot the code was projected from
	Source        host.Snapshot
	SourceVersion string
	Projection    *projection.Projection
}

// ServiceScript tells the host how to load a virtual code.
type ServiceScript struct {
	Code       *VirtualCode
	Extension  string
	ScriptKind ScriptKind
}

type LanguagePlugin interface {
	// LanguageID claims fileName for the plugin.
	LanguageID(fileName string) (string, bool)
	CreateVirtualCode(ctx context.Context, fileName, languageID string, snapshot host.Snapshot) (*VirtualCode, error)
	ExtraFileExtensions() []FileExtension
	ServiceScript(code *VirtualCode) ServiceScript
}

// CSSModulePlugin projects stylesheet modules into declaration modules.
type CSSModulePlugin struct {
	projector *projection.Projector
	suffixes  []string
}

var _ LanguagePlugin = (*CSSModulePlugin)(nil)

// NewCSSModulePlugin claims files ending in one of suffixes, DefaultSuffix when none are given.
func NewCSSModulePlugin(projector *projection.Projector, suffixes ...string) *CSSModulePlugin {
	if len(suffixes) == 0 {
		suffixes = []string{DefaultSuffix}
	}
	return &CSSModulePlugin{projector: projector, suffixes: suffixes}
}

func (me *CSSModulePlugin) LanguageID(fileName string) (string, bool) {
	for _, suffix := range me.suffixes {
		if strings.HasSuffix(fileName, suffix) {
			return LanguageIDCSSModule, true
		}
	}
	return "", false
}

func (me *CSSModulePlugin) CreateVirtualCode(ctx context.Context, fileName, languageID string, snapshot host.Snapshot) (*VirtualCode, error) {
	if languageID != LanguageIDCSSModule {
		return nil, nil
	}

	proj, err := me.projector.Project(ctx, snapshot.Text())
	if err != nil {
		return nil, errors.Errorf("projecting %s: %w", fileName, err)
	}

	return &VirtualCode{
		ID:            VirtualCodeID,
		LanguageID:    LanguageIDTypeScript,
		Snapshot:      host.NewStringSnapshot(proj.Virtual.Content),
		Mappings:      proj.Mappings,
		Source:        snapshot,
		SourceVersion: snapshot.Version(),
		Projection:    proj,
	}, nil
}

func (me *CSSModulePlugin) ExtraFileExtensions() []FileExtension {
	var out []FileExtension
	seen := map[string]bool{}
	for _, suffix := range me.suffixes {
		ext := suffix[strings.LastIndex(suffix, ".")+1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, FileExtension{Extension: ext, IsMixedContent: true, ScriptKind: ScriptKindTS})
	}
	return out
}

func (me *CSSModulePlugin) ServiceScript(code *VirtualCode) ServiceScript {
	return ServiceScript{Code: code, Extension: ".ts", ScriptKind: ScriptKindTS}
}
