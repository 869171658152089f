package print_projection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gocssmods/pkg/adapter"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/mapping"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/project"
	"github.com/walteh/gocssmods/pkg/projection"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	fs        afero.Fs
	root      string
	filePath  string
	json      bool
	encoding  string
	extractor string
}

func NewProjectCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "project [file]",
		Short: "print the typescript declarations and mappings generated for a stylesheet",
	}

	cmd.Args = cobra.ExactArgs(1)

	cmd.Flags().BoolVar(&me.json, "json", false, "print the virtual code as json")
	cmd.Flags().StringVar(&me.encoding, "encoding", "", "offset unit of the mappings (utf-8 or utf-16), overrides the config")
	cmd.Flags().StringVar(&me.extractor, "extractor", "", "class name extractor (regex, lexer or tree-sitter), overrides the config")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		me.root = root
		me.filePath = args[0]
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

// Output is the json form of a projection.
type Output struct {
	FileName            string                  `json:"fileName"`
	LanguageID          string                  `json:"languageId"`
	VirtualText         string                  `json:"virtualText"`
	Encoding            position.Encoding       `json:"encoding"`
	Mappings            []mapping.CodeMapping   `json:"mappings"`
	ServiceScript       ServiceScript           `json:"serviceScript"`
	ExtraFileExtensions []adapter.FileExtension `json:"extraFileExtensions"`
}

type ServiceScript struct {
	Extension  string             `json:"extension"`
	ScriptKind adapter.ScriptKind `json:"scriptKind"`
}

func (me *Handler) Run(ctx context.Context, out io.Writer) error {
	cfg, _, err := project.FindConfig(me.fs, me.root)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if me.extractor != "" {
		cfg.Extractor = me.extractor
	}
	if me.encoding != "" {
		cfg.OffsetEncoding = me.encoding
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ex, err := extract.New(extract.Kind(cfg.Extractor))
	if err != nil {
		return err
	}

	content, err := afero.ReadFile(me.fs, me.filePath)
	if err != nil {
		return errors.Errorf("reading %s: %w", me.filePath, err)
	}

	plugin := adapter.NewCSSModulePlugin(projection.NewProjector(ex), cfg.ForeignSuffixes...)
	code, err := plugin.CreateVirtualCode(ctx, me.filePath, adapter.LanguageIDCSSModule, host.NewStringSnapshot(string(content)))
	if err != nil {
		return err
	}

	encoded := code.Mappings.Encode(string(content), code.Snapshot.Text(), cfg.Encoding())

	zerolog.Ctx(ctx).Debug().Str("file", me.filePath).Str("extractor", cfg.Extractor).Int("mappings", len(encoded)).Msg("projected file")

	if me.json {
		script := plugin.ServiceScript(code)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(Output{
			FileName:            me.filePath,
			LanguageID:          code.LanguageID,
			VirtualText:         code.Snapshot.Text(),
			Encoding:            cfg.Encoding(),
			Mappings:            encoded.CodeMappings(),
			ServiceScript:       ServiceScript{Extension: script.Extension, ScriptKind: script.ScriptKind},
			ExtraFileExtensions: plugin.ExtraFileExtensions(),
		}); err != nil {
			return errors.Errorf("encoding output: %w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "// %s\n%s\n\n", me.filePath, code.Snapshot.Text())
	fmt.Fprintf(out, "// mappings (%s)\n", cfg.Encoding())
	for i, e := range encoded {
		// labels come from the byte based table, offsets from the encoded one
		raw := code.Mappings[i]
		source := string(content)[raw.SourceOffset : raw.SourceOffset+raw.SourceLength]
		generated := code.Snapshot.Text()[raw.GeneratedOffset : raw.GeneratedOffset+raw.GeneratedLength]
		fmt.Fprintf(out, "%s@%d:%d -> %s@%d:%d\n", source, e.SourceOffset, e.SourceLength, generated, e.GeneratedOffset, e.GeneratedLength)
	}
	return nil
}
