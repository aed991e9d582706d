// Command votemamu runs the offline tools of the votemamu frontend: the
// poster generator, the marketplace downloader and a realtime event emitter
// for testing the admin inbox.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/config"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/market"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/poster"
	"github.com/votemamu/web/internal/realtime"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:          "votemamu",
		Short:        "votemamu frontend tools",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&level, "log-level", envOr("LOG_LEVEL", "info"), "log level")

	logs := func() *logging.GoLogger {
		p, err := logging.NewGoLogger(logging.Config{Level: level, Format: "console"})
		if err != nil {
			return nil
		}
		return p
	}
	root.AddCommand(newPosterCmd(logs), newDownloadCmd(logs), newEmitCmd(logs), newExploreCmd(logs))
	return root
}

func newPosterCmd(logs func() *logging.GoLogger) *cobra.Command {
	var (
		photo, name, designation string
		template, font, out      string
		removeURL                string
	)
	cmd := &cobra.Command{
		Use:   "poster",
		Short: "Render a campaign poster to a PNG file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logs().GetLogger("poster")
			composer, err := poster.FromFiles(template, font)
			if err != nil {
				return err
			}
			var remover poster.BackgroundRemover
			if removeURL != "" {
				remover = poster.NewHTTPRemover(removeURL, &http.Client{Timeout: time.Minute})
			}
			data, err := os.ReadFile(photo)
			if err != nil {
				return err
			}
			s := poster.NewSession(composer, remover, log)
			s.SetName(name)
			s.SetDesignation(designation)
			if err := s.SetPhoto(data); err != nil {
				return err
			}
			if remover != nil {
				if err := s.RemoveBackground(cmd.Context()); err != nil {
					return err
				}
			}
			if err := s.ExportFile(out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&photo, "photo", "", "candidate photo (jpeg, png, gif, webp)")
	f.StringVar(&name, "name", "", "candidate name")
	f.StringVar(&designation, "designation", "", "designation line under the name")
	f.StringVar(&template, "template", os.Getenv("POSTER_TEMPLATE"), "overlay template image")
	f.StringVar(&font, "font", os.Getenv("POSTER_FONT"), "TTF/OTF font for the text")
	f.StringVar(&removeURL, "remove-bg", "", "background removal service URL; empty keeps the background")
	f.StringVarP(&out, "out", "o", "poster.png", "output file")
	_ = cmd.MarkFlagRequired("photo")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newDownloadCmd(logs func() *logging.GoLogger) *cobra.Command {
	var (
		base, dir string
		form      market.DownloadForm
		pause     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "download <slug>",
		Short: "Request a marketplace product and save its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := logs()
			client := api.New(base, api.WithLogger(l.GetLogger("api")))
			d := market.NewDownloader(client, market.DirSink{Dir: dir},
				market.WithPause(pause),
				market.WithDownloadLogger(l.GetLogger("market")),
			)
			res, err := d.Download(cmd.Context(), args[0], form)
			for _, p := range res.Saved {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				return err
			}
			if len(res.Saved) == 0 && res.Grant.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Grant.Message)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&base, "api", os.Getenv("API_BASE_URL"), "backend base URL")
	f.StringVar(&dir, "dir", ".", "directory to save files into")
	f.StringVar(&form.Name, "name", "", "buyer name")
	f.StringVar(&form.Email, "email", "", "buyer email")
	f.StringVar(&form.Phone, "phone", "", "buyer phone")
	f.DurationVar(&pause, "pause", config.DownloadPause(), "pause between files")
	return cmd
}

func newEmitCmd(logs func() *logging.GoLogger) *cobra.Command {
	var (
		url, channel   string
		conversationID string
		messageID      string
		status         string
	)
	cmd := &cobra.Command{
		Use:   "emit <body>",
		Short: "Publish an inbound message, or a status update with --status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub := realtime.NewAMQP(url, logs().GetLogger("realtime"))
			var ev realtime.Event
			if status != "" {
				ev = realtime.StatusEvent(realtime.StatusUpdate{
					MessageID:      messageID,
					ConversationID: conversationID,
					Status:         status,
				})
			} else {
				if len(args) == 0 {
					return fmt.Errorf("emit: message body required")
				}
				if messageID == "" {
					messageID = uuid.NewString()
				}
				ev = realtime.MessageEvent(model.Message{
					ID:             messageID,
					ConversationID: conversationID,
					Body:           args[0],
					Direction:      model.DirectionInbound,
					Status:         model.StatusDelivered,
					CreatedAt:      time.Now().UTC(),
				})
			}
			return pub.Publish(cmd.Context(), channel, ev)
		},
	}
	f := cmd.Flags()
	f.StringVar(&url, "url", config.RealtimeURL(), "AMQP broker URL")
	f.StringVar(&channel, "channel", envOr("REALTIME_CHANNEL", config.DefaultRealtimeChannel), "channel name")
	f.StringVar(&conversationID, "conversation", "", "conversation id")
	f.StringVar(&messageID, "message", "", "message id, generated for new messages")
	f.StringVar(&status, "status", "", "send a status update (sent, delivered, read, failed) instead of a message")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
