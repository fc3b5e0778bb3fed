package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"diary-backend/application/commands"
	"diary-backend/application/commands/bus"
	commandhandlers "diary-backend/application/commands/handlers"
	"diary-backend/application/queries"
	"diary-backend/application/services"
	"diary-backend/domain/core/entities"
	"diary-backend/pkg/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = container.Config.ServerAddress
			}
			srv := &http.Server{
				Addr:        addr,
				Handler:     container.Router.Setup(),
				ReadTimeout: 15 * time.Second,
				IdleTimeout: 60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s %s\n",
				brand.Sprint("diary"), addr, subtle.Sprintf("(%s store)", container.Config.StoreBackend))

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				container.Logger.Error("Server shutdown error", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the configured server address)")
	return cmd
}

func mapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List maps, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := container.QueryBus.Ask(cmd.Context(), queries.ListMapsQuery{UserID: userID})
			if err != nil {
				return err
			}
			maps, _ := out.([]entities.Map)
			rows := make([][]string, 0, len(maps))
			for _, m := range maps {
				rows = append(rows, []string{m.ID, m.Title, string(m.Type), m.UpdatedAt.Format(time.RFC3339)})
			}
			table(cmd.OutOrStdout(), []string{"ID", "TITLE", "TYPE", "UPDATED"}, rows)
			return nil
		},
	}
}

func markdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markdown <map-id>",
		Short: "Print a map rendered as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := container.QueryBus.Ask(cmd.Context(), queries.GetMarkdownQuery{UserID: userID, MapID: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.(queries.MarkdownResult).Markdown)
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search map titles, content and node text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			out, err := container.QueryBus.Ask(cmd.Context(), queries.SearchMapsQuery{UserID: userID, Query: query})
			if err != nil {
				return err
			}
			hits, _ := out.([]services.SearchHit)
			rows := make([][]string, 0, len(hits))
			for _, h := range hits {
				rows = append(rows, []string{h.MapID, h.Title, h.Kind, h.Snippet})
			}
			table(cmd.OutOrStdout(), []string{"MAP", "TITLE", "MATCH", "SNIPPET"}, rows)
			return nil
		},
	}
}

func summarizeCmd() *cobra.Command {
	var (
		mapID string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "summarize [date]",
		Short: "Summarize one day (YYYY-MM-DD) or a single map with --map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var command bus.Command
			switch {
			case mapID != "":
				command = commands.SummarizeMapCommand{UserID: userID, MapID: mapID, Force: force}
			case len(args) == 1:
				command = commands.SummarizeDateCommand{UserID: userID, Date: args[0], Force: force}
			default:
				return errors.New("give a date or --map")
			}

			out, err := container.CommandBus.Send(cmd.Context(), command)
			if err != nil {
				return err
			}
			printSummary(cmd, out.(services.SummaryResult))
			return nil
		},
	}
	cmd.Flags().StringVar(&mapID, "map", "", "Summarize this map instead of a whole day")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even when the stored summary is current")
	return cmd
}

func printSummary(cmd *cobra.Command, res services.SummaryResult) {
	w := cmd.OutOrStdout()
	if res.Empty {
		warn.Fprintln(w, res.Summary)
		return
	}
	if res.Cached {
		subtle.Fprintln(w, "(stored summary)")
	}
	fmt.Fprintf(w, "%s %s\n\n%s\n", brand.Sprint("Emotion:"), res.Emotion, res.Summary)
	if len(res.Financials) == 0 {
		return
	}
	fmt.Fprintln(w)
	rows := make([][]string, 0, len(res.Financials))
	for _, f := range res.Financials {
		rows = append(rows, []string{string(f.Type), f.Label, money(f.Amount)})
	}
	table(w, []string{"TYPE", "ITEM", "AMOUNT"}, rows)
	fmt.Fprintf(w, "\n  income %s  expense %s  net %s\n",
		good.Sprint(money(res.Totals.Income)), bad.Sprint(money(res.Totals.Expense)), money(res.Totals.Net))
}

func deleteNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-node <map-id> <node-id>",
		Short: "Delete a node with its orphaned descendants",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := container.CommandBus.Send(cmd.Context(), commands.DeleteNodeCommand{
				UserID: userID,
				MapID:  args[0],
				NodeID: args[1],
			})
			if err != nil {
				return err
			}
			res := out.(commandhandlers.DeleteResult)
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %d nodes and %d edges\n",
				good.Sprint("ok"), len(res.NodeIDs), len(res.EdgeIDs))
			return nil
		},
	}
}

func reportsCmd() *cobra.Command {
	var (
		generate, inProgress bool
		remove               string
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List reports, or generate the due ones with --generate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove != "" {
				if _, err := container.CommandBus.Send(cmd.Context(), commands.DeleteReportCommand{UserID: userID, ReportID: remove}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted report %s\n", good.Sprint("ok"), remove)
				return nil
			}

			var reports []entities.Report
			if generate {
				out, err := container.CommandBus.Send(cmd.Context(), commands.GenerateReportsCommand{UserID: userID, InProgress: inProgress})
				if err != nil {
					return err
				}
				reports, _ = out.([]entities.Report)
				fmt.Fprintf(cmd.OutOrStdout(), "%s generated %d reports\n", good.Sprint("ok"), len(reports))
			} else {
				out, err := container.QueryBus.Ask(cmd.Context(), queries.ListReportsQuery{UserID: userID})
				if err != nil {
					return err
				}
				reports, _ = out.([]entities.Report)
			}

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{r.ID, string(r.Type), r.PeriodDisplay, fmt.Sprint(r.MapCount), r.Emotion})
			}
			table(cmd.OutOrStdout(), []string{"ID", "TYPE", "PERIOD", "MAPS", "EMOTION"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate the reports that are due")
	cmd.Flags().BoolVar(&inProgress, "in-progress", false, "Generate for the current, unfinished periods")
	cmd.Flags().StringVar(&remove, "delete", "", "Delete the report with this id")
	return cmd
}

func ideasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ideas <topic>",
		Short: "Ask the AI for ideas about a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := container.QueryBus.Ask(cmd.Context(), queries.TopicIdeasQuery{UserID: userID, Topic: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			for _, idea := range out.(queries.IdeasResult).Ideas {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", brand.Sprint("*"), idea)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <map-id>",
		Short: "Follow live changes to a map until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := services.NewReconciler(container.Graph, container.Logger)
			defer rec.Close()
			w := cmd.OutOrStdout()
			rec.OnChange(func(view services.GraphView) {
				fmt.Fprintf(w, "%s %s\n", subtle.Sprint(time.Now().Format("15:04:05")), describeView(view))
			})
			if err := rec.Open(ctx, userID, args[0]); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
}

// describeView summarizes a graph view on one line.
func describeView(view services.GraphView) string {
	visible := 0
	for _, n := range view.RenderedNodes() {
		if !n.Hidden {
			visible++
		}
	}
	return fmt.Sprintf("%d nodes (%d visible), %d edges", len(view.Nodes), visible, len(view.Edges))
}

func tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtCfg := container.JWT
			jwtCfg.ExpiryTime = ttl
			gen, err := auth.NewJWTGenerator(jwtCfg)
			if err != nil {
				return err
			}
			token, err := gen.GenerateToken(userID, email, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
