package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/graphboard/graphboard/app"
	"github.com/graphboard/graphboard/internal/query"
	"github.com/graphboard/graphboard/internal/refresher"
	"github.com/graphboard/graphboard/internal/state"
	"github.com/graphboard/graphboard/types"
)

func listCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", types.DefaultPage, "Page to show")
	perPage := fs.Int("per-page", c.Config.ItemsPerPage, "Jobs per page")
	order := fs.String("order", "", "Order by taskIdentifier or runAt")
	direction := fs.String("dir", "", "Order direction, asc or desc")
	var filter optionalString
	fs.Var(&filter, "filter", "Only jobs whose task identifier contains this text")
	watch := fs.Bool("watch", false, "Keep refreshing until interrupted")
	every := fs.String("every", refresher.DefaultSchedule, "Refresh schedule used with -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := types.QueryParameters{
		Pagination: types.Pagination{Page: page, ItemsPerPage: perPage},
		Filters:    types.Filters{TaskIdentifier: filter.value},
	}
	if *order != "" {
		field := types.OrderField(*order)
		if !field.IsValid() {
			return fmt.Errorf("unknown order field %q", *order)
		}
		params.Order.Field = &field
	}
	if *direction != "" {
		dir := types.OrderDirection(*direction)
		if !dir.IsValid() {
			return fmt.Errorf("unknown order direction %q", *direction)
		}
		params.Order.Direction = &dir
	}

	loc, err := c.PreferredTimezone.Location(ctx)
	if err != nil {
		return err
	}

	if *watch {
		return watchJobs(ctx, c, params, *every, loc, out)
	}

	snapshot, err := loadPage(ctx, c.Engine, params)
	if err != nil {
		return err
	}
	printSnapshot(out, snapshot, loc, time.Now())
	return nil
}

// loadPage applies params and waits for the page they select. Changing the
// parameters is what makes the engine fetch; when they are already current
// the fetch is started explicitly.
func loadPage(ctx context.Context, engine *query.Engine, params types.QueryParameters) (query.Snapshot, error) {
	done := make(chan query.Snapshot, 1)
	unsubscribe := engine.Subscribe(func(s query.Snapshot) {
		if s.Loading {
			return
		}
		select {
		case done <- s:
		default:
		}
	})
	defer unsubscribe()

	if !engine.Parameters().Set(params) {
		if err := engine.Fetch(ctx); err != nil {
			return query.Snapshot{}, err
		}
		return engine.Snapshot(), nil
	}

	select {
	case s := <-done:
		return s, s.Err
	case <-ctx.Done():
		return query.Snapshot{}, ctx.Err()
	}
}

func watchJobs(ctx context.Context, c *app.Container, params types.QueryParameters, every string, loc *time.Location, out io.Writer) error {
	r := c.Refresher
	if r == nil {
		var err error
		r, err = refresher.New(c.Engine, every,
			refresher.WithTimeout(c.Config.RequestTimeout),
			refresher.WithLogger(c.Logger),
		)
		if err != nil {
			return err
		}
	}

	unsubscribe := c.Engine.Subscribe(func(s query.Snapshot) {
		if s.Loading {
			return
		}
		if s.Err != nil {
			c.Logger.Warn("showing previous page", slog.String("error", s.Err.Error()))
			return
		}
		fmt.Fprintf(out, "\n%s\n", time.Now().In(loc).Format(time.RFC3339))
		printSnapshot(out, s, loc, time.Now())
	})
	defer unsubscribe()

	if !c.Parameters.Set(params) {
		c.Engine.Refresh()
	}
	r.Start(ctx)
	defer r.Stop()

	<-ctx.Done()
	return nil
}

func printSnapshot(out io.Writer, s query.Snapshot, loc *time.Location, now time.Time) {
	printJobs(out, s.Items, loc, now)

	totalPages := s.TotalPages
	if totalPages == 0 {
		totalPages = 1
	}
	fmt.Fprintf(out, "page %d of %d, %d jobs", s.Page, totalPages, s.TotalItems)
	if s.HasPreviousPage {
		fmt.Fprint(out, ", has previous")
	}
	if s.HasNextPage {
		fmt.Fprint(out, ", has next")
	}
	fmt.Fprintln(out)

	counts := state.CountByStatus(s.Items, now)
	parts := make([]string, 0, len(state.AllStatuses))
	for _, st := range state.AllStatuses {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintln(out, "on this page:", strings.Join(parts, " "))
	}
}

func printJobs(out io.Writer, jobs []types.Job, loc *time.Location, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tQUEUE\tSTATE\tRUN AT\tATTEMPTS\tKEY")
	for _, job := range jobs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			job.ID,
			job.TaskIdentifier,
			orDash(job.QueueName),
			state.Of(job, now),
			job.RunAt.In(loc),
			job.Attempts, job.MaxAttempts,
			orDash(job.Key),
		)
	}
	w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
