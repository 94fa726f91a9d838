package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"formulagrid/internal/app"
	"formulagrid/internal/logging"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var splash bool
	var logFile string
	cmd := &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Edit a sheet in the terminal",
		Long: `Opens the interactive grid editor. With FILE the sheet is loaded from it
and :w writes back to it. Press ? inside the editor for the key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The screen owns the terminal, so logs go to a file or nowhere.
			logger := logging.NewNop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				level, _ := logging.ParseLevel(opts.cfg.Log.Level)
				logger = logging.NewWriter(f, level)
			}
			opts.logger = logger

			s := opts.newSheet()
			message := ""
			if len(args) == 1 {
				cells, err := opts.load(cmd.Context(), args[0])
				switch {
				case err == nil:
					s.Load(cells)
				case errors.Is(err, fs.ErrNotExist):
					message = fmt.Sprintf("new file %s", args[0])
				default:
					return err
				}
			}
			a := app.NewApp(s, logger)
			a.Message = message
			if len(args) == 1 {
				a.File = args[0]
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("cannot create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("cannot init screen: %w", err)
			}
			defer screen.Fini()
			screen.Clear()

			if splash {
				app.Splash(screen, 150*time.Millisecond)
			}
			a.Run(screen)
			return nil
		},
	}
	cmd.Flags().BoolVar(&splash, "splash", false, "Show the title screen first")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file")
	return cmd
}
