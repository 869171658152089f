package navigate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gocssmods/pkg/diff"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/project"
	"gitlab.com/tozd/go/errors"
)

type Query string

const (
	QueryDefinition Query = "definition"
	QueryReferences Query = "references"
	QueryRename     Query = "rename"
)

var ErrInvalidLocation = errors.Base("invalid location, expected file:line:column")

type Handler struct {
	fs       afero.Fs
	root     string
	query    Query
	location string
	// newName turns rename output into a preview of the edits
	newName string
}

func NewDefinitionCommand() *cobra.Command {
	return newCommand(QueryDefinition, "print where the name at a location is declared")
}

func NewReferencesCommand() *cobra.Command {
	return newCommand(QueryReferences, "print every use of the name at a location")
}

func NewRenameCommand() *cobra.Command {
	return newCommand(QueryRename, "print the spans a rename of the name at a location would edit")
}

func newCommand(query Query, short string) *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), query: query}

	cmd := &cobra.Command{
		Use:   string(query) + " [file:line:column]",
		Short: short,
		Long:  short + ". Lines and columns start at 1, columns count characters as an editor shows them.",
	}

	cmd.Args = cobra.ExactArgs(1)

	if query == QueryRename {
		cmd.Flags().StringVar(&me.newName, "to", "", "print a diff of every file the rename would change")
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		me.root = root
		me.location = args[0]
		return me.Run(cmd.Context(), cmd.OutOrStdout())
	}

	return cmd
}

// ParseLocation splits `file:line:column`. The file may itself contain colons.
func ParseLocation(s string) (string, int, int, error) {
	lastColon := strings.LastIndexByte(s, ':')
	if lastColon < 0 {
		return "", 0, 0, errors.Errorf("%q: %w", s, ErrInvalidLocation)
	}
	lineColon := strings.LastIndexByte(s[:lastColon], ':')
	if lineColon <= 0 {
		return "", 0, 0, errors.Errorf("%q: %w", s, ErrInvalidLocation)
	}

	line, err := strconv.Atoi(s[lineColon+1 : lastColon])
	if err != nil || line < 1 {
		return "", 0, 0, errors.Errorf("%q: line: %w", s, ErrInvalidLocation)
	}
	col, err := strconv.Atoi(s[lastColon+1:])
	if err != nil || col < 1 {
		return "", 0, 0, errors.Errorf("%q: column: %w", s, ErrInvalidLocation)
	}
	return s[:lineColon], line, col, nil
}

func (me *Handler) Run(ctx context.Context, out io.Writer) error {
	file, line, col, err := ParseLocation(me.location)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(me.root)
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}
	if !filepath.IsAbs(file) {
		file, err = filepath.Abs(file)
		if err != nil {
			return errors.Errorf("resolving %s: %w", file, err)
		}
	}

	proj, err := project.Open(ctx, me.fs, root)
	if err != nil {
		return err
	}
	session, err := proj.NewSession(ctx)
	if err != nil {
		return err
	}

	snap, ok := proj.ScriptSnapshot(file)
	if !ok {
		return errors.Errorf("%s: %w", file, host.ErrFileNotFound)
	}

	offset, err := position.OffsetOfGraphemeColumn(snap.Text(), line-1, col-1)
	if err != nil {
		return err
	}

	var locs []host.Location
	switch me.query {
	case QueryDefinition:
		locs, err = session.Service.Definition(ctx, file, offset)
	case QueryReferences:
		locs, err = session.Service.References(ctx, file, offset)
	case QueryRename:
		locs, err = session.Service.RenameLocations(ctx, file, offset)
	default:
		return errors.Errorf("unknown query %q", me.query)
	}
	if err != nil {
		return errors.Errorf("running %s: %w", me.query, err)
	}

	zerolog.Ctx(ctx).Debug().Str("file", file).Int("offset", offset).Int("results", len(locs)).Msgf("ran %s", me.query)

	if me.query == QueryRename && me.newName != "" {
		return me.preview(proj, root, locs, out)
	}

	for _, loc := range locs {
		text, err := me.format(proj, root, loc)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
	}
	return nil
}

func (me *Handler) format(proj *project.Project, root string, loc host.Location) (string, error) {
	name := me.displayName(root, loc.FileName)

	snap, ok := proj.ScriptSnapshot(loc.FileName)
	if !ok {
		return "", errors.Errorf("%s: %w", loc.FileName, host.ErrFileNotFound)
	}

	rng := loc.Span.GetRange(snap.Text())
	col, err := position.GraphemeColumn(snap.Text(), loc.Span.Offset)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%d\t%s", name, rng.Start.Line+1, col+1, loc.Span.Text), nil
}

func (me *Handler) displayName(root, fileName string) string {
	if rel, err := filepath.Rel(root, fileName); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return fileName
}

// preview prints the diff of every file touched by a rename, files in result order.
func (me *Handler) preview(proj *project.Project, root string, locs []host.Location, out io.Writer) error {
	var files []string
	spans := map[string]position.RawPositionArray{}
	for _, loc := range locs {
		if _, ok := spans[loc.FileName]; !ok {
			files = append(files, loc.FileName)
		}
		spans[loc.FileName] = append(spans[loc.FileName], loc.Span)
	}

	for _, name := range files {
		snap, ok := proj.ScriptSnapshot(name)
		if !ok {
			return errors.Errorf("%s: %w", name, host.ErrFileNotFound)
		}
		after, err := diff.Apply(snap.Text(), spans[name], me.newName)
		if err != nil {
			return errors.Errorf("renaming in %s: %w", name, err)
		}
		fmt.Fprintf(out, "--- %s\n%s\n", me.displayName(root, name), diff.Preview(snap.Text(), after))
	}
	return nil
}
