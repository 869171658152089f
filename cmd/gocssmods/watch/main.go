package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gocssmods/pkg/project"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

type Handler struct {
	fs   afero.Fs
	root string
}

func NewWatchCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "re-project stylesheets every time they change",
	}

	cmd.Args = cobra.NoArgs

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		me.root = root

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return me.Run(ctx, cmd.OutOrStdout())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, out io.Writer) (err error) {
	root, err := filepath.Abs(me.root)
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}

	proj, err := project.Open(ctx, me.fs, root)
	if err != nil {
		return err
	}
	session, err := proj.NewSession(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			err = multierr.Combine(err, errors.Errorf("closing watcher: %w", closeErr))
		}
	}()

	if err := me.watchTree(watcher, proj, root); err != nil {
		return err
	}

	for _, name := range proj.ScriptFileNames() {
		me.report(ctx, out, session, name)
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Str("root", root).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopped watching")
			return nil
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(werr).Msg("watcher error")
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			me.handle(ctx, out, watcher, session, event)
		}
	}
}

// watchTree adds root and every directory below it that can hold project files.
func (me *Handler) watchTree(watcher *fsnotify.Watcher, proj *project.Project, root string) error {
	return afero.Walk(me.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if path != root && !proj.WantsDir(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return errors.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (me *Handler) handle(ctx context.Context, out io.Writer, watcher *fsnotify.Watcher, session *project.Session, event fsnotify.Event) {
	logger := zerolog.Ctx(ctx).With().Str("file", event.Name).Str("op", event.Op.String()).Logger()
	proj := session.Project

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		proj.Remove(event.Name)
		session.Language.Forget(event.Name)
		logger.Debug().Msg("file removed")
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if info, err := me.fs.Stat(event.Name); err == nil && info.IsDir() {
			if proj.WantsDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn().Err(err).Msg("watching new directory")
				}
			}
			return
		}
		if !proj.Add(event.Name) {
			return
		}
		proj.Invalidate(event.Name)
		me.report(ctx, out, session, event.Name)
	}
}

// report projects a stylesheet and prints a one line summary.
func (me *Handler) report(ctx context.Context, out io.Writer, session *project.Session, fileName string) {
	code, foreign, err := session.Language.VirtualCode(ctx, fileName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", fileName).Msg("projection failed")
		return
	}
	if !foreign {
		return
	}

	name := fileName
	if rel, err := filepath.Rel(session.Project.Root(), fileName); err == nil {
		name = rel
	}
	fmt.Fprintf(out, "%s: %d classes, %d occurrences, %d mappings\n",
		name, code.Projection.Symbols.Len(), len(code.Projection.Occurrences), len(code.Mappings))
}
