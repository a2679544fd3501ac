package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nijaru/pitch-analyzer/display"
	"github.com/nijaru/pitch-analyzer/handlers"
	"github.com/nijaru/pitch-analyzer/logger"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/nijaru/pitch-analyzer/tui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text [transcript...]",
		Short: "Analyze pasted transcript text (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 || text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "reading stdin")
				}
				text = string(data)
			}
			return submit(cmd, func(ctx context.Context, a *app) (models.ChannelInput, error) {
				return models.TextInput(text), nil
			})
		},
	}
}

func fileCmd(use, short string, build func(*models.Blob) models.ChannelInput) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <path|s3://bucket/key>",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, func(ctx context.Context, a *app) (models.ChannelInput, error) {
				if len(args) == 0 {
					return build(nil), nil
				}
				blob, err := a.resolve(ctx, args[0])
				if err != nil {
					return models.ChannelInput{}, err
				}
				return build(blob), nil
			})
		},
	}
}

func audioCmd() *cobra.Command {
	return fileCmd("audio", "Analyze an audio recording (.wav, .mp3, .m4a, .ogg)", models.AudioInput)
}

func textFileCmd() *cobra.Command {
	return fileCmd("textfile", "Analyze a .txt transcript file", models.TextFileInput)
}

func pdfCmd() *cobra.Command {
	return fileCmd("pdf", "Analyze a .pdf pitch deck", models.PdfInput)
}

func videoCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "video [path|s3://bucket/key]",
		Short: "Analyze a video file or a YouTube link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, func(ctx context.Context, a *app) (models.ChannelInput, error) {
				var blob *models.Blob
				if len(args) == 1 {
					var err error
					if blob, err = a.resolve(ctx, args[0]); err != nil {
						return models.ChannelInput{}, err
					}
				}
				return models.VideoInput(blob, url), nil
			})
		},
	}
	cmd.Flags().StringVarP(&url, "url", "u", "", "YouTube link to analyze")
	return cmd
}

// submit runs one submission through the coordinator and prints the view.
func submit(cmd *cobra.Command, build func(context.Context, *app) (models.ChannelInput, error)) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := build(ctx, a)
	if err != nil {
		return err
	}

	select {
	case <-a.coord.Submit(ctx, in):
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := a.coord.Snapshot()
	fmt.Fprintln(cmd.OutOrStdout(), display.Render(snap, display.Options{}))
	if snap.Error != "" {
		return errSubmissionFailed
	}
	return nil
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Log lines would corrupt the alternate screen.
			if a.cfg.LogDir == "" {
				a.logger.SetOutput(io.Discard)
			}

			model := tui.New(cmd.Context(), a.coord, a.resolver, a.journal)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions from the journal",
		Long:  "Lists recent submissions. The default journal lives in memory, so set JOURNAL_DSN to a file to keep history between runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.journal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No submissions recorded.")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-36s  %-10s  %-9s", e.StartedAt.Local().Format(time.DateTime), e.ID, display.Label(e.Channel), e.Outcome)
				if d := e.Duration(); d > 0 {
					line += fmt.Sprintf("  %6s", d.Round(time.Millisecond))
				}
				if e.Message != "" {
					line += "  " + e.Message
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func stubCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stand-in for the analysis backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Stub.Addr = addr
			}

			log, err := logger.New(cfg.LogLevel, cfg.LogDir)
			if err != nil {
				return err
			}

			server := handlers.NewStubServer(cfg.Stub, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.Stub.Addr).Info("Listening")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return errors.Wrapf(err, "could not listen on %s", cfg.Stub.Addr)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("Shutting down the server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides STUB_ADDR)")
	return cmd
}
