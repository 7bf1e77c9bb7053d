package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/graphboard/graphboard/app"
	"github.com/graphboard/graphboard/internal/parser"
	"github.com/graphboard/graphboard/types"
)

func completeCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	idList := fs.String("ids", "", "Comma separated job ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*idList)
	if err != nil {
		return err
	}
	jobs, err := c.APIClient.CompleteJobs(ctx, ids)
	if err != nil {
		return err
	}
	return reportJobs(ctx, c, out, "completed", jobs)
}

func failCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fail", flag.ContinueOnError)
	idList := fs.String("ids", "", "Comma separated job ids")
	message := fs.String("message", "", "Reason recorded as the last error (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*idList)
	if err != nil {
		return err
	}
	if *message == "" {
		return errors.New("a message is required")
	}
	jobs, err := c.APIClient.PermanentlyFailJobs(ctx, ids, *message)
	if err != nil {
		return err
	}
	return reportJobs(ctx, c, out, "failed", jobs)
}

func rescheduleCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reschedule", flag.ContinueOnError)
	idList := fs.String("ids", "", "Comma separated job ids")
	var runAt optionalTime
	fs.Var(&runAt, "run-at", "New run time, RFC 3339 or +duration")
	var priority, attempts, maxAttempts optionalInt
	fs.Var(&priority, "priority", "New priority")
	fs.Var(&attempts, "attempts", "Reset the attempt counter")
	fs.Var(&maxAttempts, "max-attempts", "New attempt limit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*idList)
	if err != nil {
		return err
	}
	jobs, err := c.APIClient.RescheduleJobs(ctx, types.RescheduleRequest{
		JobIDs:      ids,
		RunAt:       runAt.value,
		Priority:    priority.value,
		Attempts:    attempts.value,
		MaxAttempts: maxAttempts.value,
	})
	if err != nil {
		return err
	}
	return reportJobs(ctx, c, out, "rescheduled", jobs)
}

func removeCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	key := fs.String("key", "", "Job key of the pending job to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	job, err := c.APIClient.RemoveJob(ctx, *key)
	if err != nil {
		return err
	}
	return reportJobs(ctx, c, out, "removed", []types.WireJob{*job})
}

func reportJobs(ctx context.Context, c *app.Container, out io.Writer, verb string, wire []types.WireJob) error {
	loc, err := c.PreferredTimezone.Location(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d job(s)\n", verb, len(wire))
	if len(wire) > 0 {
		printJobs(out, parser.Jobs(wire), loc, time.Now())
	}
	return nil
}
