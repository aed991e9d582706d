package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/config"
	"github.com/votemamu/web/internal/explorer"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

func newExploreCmd(logs func() *logging.GoLogger) *cobra.Command {
	var (
		base     string
		perPage  int
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "explore [query]",
		Short: "Browse candidates from the terminal",
		Long: `Reads lines from stdin.  Plain text is typed into the search box and
committed after the debounce period.  Commands:

  :division ID  :district ID  :seat ID  :party ID|independent|-
  :symbol ID|independent|-  :page N  :search TEXT  :reset  :list

Every state change prints the canonical explorer query.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := logs()
			client := api.New(base, api.WithLogger(l.GetLogger("api")))
			out := &syncWriter{w: cmd.OutOrStdout()}
			ctl := explorer.NewController(client,
				explorer.WithPerPage(perPage),
				explorer.WithDebounce(explorer.SystemClock, debounce),
				explorer.WithURLSink(printSink(out)),
				explorer.WithTaxonomy(explorer.NewTaxonomyCache(client, explorer.DefaultTaxonomyTTL, l.GetLogger("taxonomy"))),
				explorer.WithLogger(l.GetLogger("explorer")),
			)
			var initial url.Values
			if len(args) == 1 {
				q, err := url.ParseQuery(strings.TrimPrefix(args[0], "?"))
				if err != nil {
					return err
				}
				initial = q
			}
			return runExplore(cmd.Context(), ctl, initial, cmd.InOrStdin(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&base, "api", envOr("API_BASE_URL", ""), "backend base URL")
	f.IntVar(&perPage, "per-page", explorer.DefaultPerPage, "candidates per page")
	f.DurationVar(&debounce, "debounce", config.SearchDebounce(), "quiet period before typed text is searched")
	return cmd
}

// syncWriter serialises writes from the input loop and the debounce timer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func printSink(w io.Writer) explorer.URLSink {
	return explorer.URLSinkFunc(func(v url.Values) {
		fmt.Fprintf(w, "?%s\n", v.Encode())
	})
}

// runExplore drives ctl from the lines of in until EOF or ctx ends.
// Pending search text is committed before returning.
func runExplore(ctx context.Context, ctl *explorer.Controller, initial url.Values, in io.Reader, out io.Writer) error {
	defer ctl.Close()
	ctl.Init(ctx, initial)
	listCandidates(out, ctl.Data())

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, ":") {
			ctl.Type(line)
			continue
		}
		name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		arg = strings.TrimSpace(arg)
		switch name {
		case "division", "district", "seat", "page":
			n, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || n < 0 {
				fmt.Fprintf(out, "! %s needs a number\n", name)
				continue
			}
			switch name {
			case "division":
				ctl.SelectDivision(ctx, n)
			case "district":
				ctl.SelectDistrict(ctx, n)
			case "seat":
				ctl.SelectSeat(ctx, n)
			default:
				ctl.SetPage(ctx, int(n))
			}
		case "party":
			ctl.SetParty(ctx, filterArg(arg))
		case "symbol":
			ctl.SetSymbol(ctx, filterArg(arg))
		case "search":
			ctl.SubmitSearch(ctx, arg)
		case "reset":
			ctl.Reset(ctx)
		case "list":
			ctl.Flush()
			listCandidates(out, ctl.Data())
		default:
			fmt.Fprintf(out, "! unknown command %q\n", name)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	ctl.Flush()
	listCandidates(out, ctl.Data())
	return nil
}

func filterArg(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func listCandidates(w io.Writer, d explorer.Data) {
	for _, c := range d.Candidates {
		party := "স্বতন্ত্র"
		if c.Party != nil {
			party = model.Label(c.Party.Name, c.Party.BnName)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, model.Label(c.Name, c.BnName), party)
	}
	p := d.Pagination
	fmt.Fprintf(w, "page %d/%d, %d candidates\n", p.CurrentPage, p.LastPage, p.Total)
}
