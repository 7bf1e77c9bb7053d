package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graphboard/graphboard/app"
	"github.com/graphboard/graphboard/internal/parser"
	"github.com/graphboard/graphboard/types"
)

func addCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	task := fs.String("task", "", "Task identifier (required)")
	payload := fs.String("payload", "", "JSON payload")
	var queueName, jobKey, keyMode optionalString
	fs.Var(&queueName, "queue", "Named queue, jobs in one queue run one at a time")
	fs.Var(&jobKey, "key", "Job key, deduplicates pending jobs")
	fs.Var(&keyMode, "key-mode", "replace, preserve_run_at or unsafe_dedupe")
	var maxAttempts, priority optionalInt
	fs.Var(&maxAttempts, "max-attempts", "Attempts before the job is failed permanently")
	fs.Var(&priority, "priority", "Lower runs first")
	var runAt optionalTime
	fs.Var(&runAt, "run-at", "When to run, RFC 3339 or +duration")
	flags := fs.String("flags", "", "Comma separated job flags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft := types.JobDraft{
		TaskIdentifier: *task,
		QueueName:      queueName.value,
		RunAt:          runAt.value,
		MaxAttempts:    maxAttempts.value,
		JobKey:         jobKey.value,
		Priority:       priority.value,
	}
	if *payload != "" {
		if !json.Valid([]byte(*payload)) {
			return errors.New("payload is not valid JSON")
		}
		draft.Payload = json.RawMessage(*payload)
	}
	if keyMode.value != nil {
		mode := types.JobKeyMode(*keyMode.value)
		draft.JobKeyMode = &mode
	}
	if *flags != "" {
		for _, f := range strings.Split(*flags, ",") {
			if f = strings.TrimSpace(f); f != "" {
				draft.Flags = append(draft.Flags, f)
			}
		}
	}

	result, err := c.JobSubmitter.Submit(ctx, draft)
	if err != nil {
		return err
	}
	if result.Queued {
		fmt.Fprintln(out, "queued", draft.TaskIdentifier, "for creation")
		return nil
	}

	loc, err := c.PreferredTimezone.Location(ctx)
	if err != nil {
		return err
	}
	job := parser.Job(*result.Job)
	fmt.Fprintf(out, "created job %d (%s), runs at %s\n", job.ID, job.TaskIdentifier, job.RunAt.In(loc))
	return nil
}

func addBatchCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-batch", flag.ContinueOnError)
	file := fs.String("file", "-", "File with one JSON job draft per line, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	drafts, err := readDrafts(r)
	if err != nil {
		return err
	}

	results, err := c.JobSubmitter.SubmitAll(ctx, drafts)
	created, queued := 0, 0
	for _, result := range results {
		switch {
		case result.Queued:
			queued++
		case result.Job != nil:
			created++
		}
	}
	fmt.Fprintf(out, "%d of %d drafts created, %d queued\n", created, len(drafts), queued)
	return err
}

// readDrafts decodes JSON lines. Blank lines and lines starting with # are
// skipped.
func readDrafts(r io.Reader) ([]types.JobDraft, error) {
	var drafts []types.JobDraft
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var draft types.JobDraft
		if err := json.Unmarshal([]byte(text), &draft); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		drafts = append(drafts, draft)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, errors.New("no drafts to submit")
	}
	return drafts, nil
}

// syncCmd drains drafts published in queue writer mode until interrupted. It
// returns only after the worker has flushed its last batch, so the broker is
// still open while those messages are acked.
func syncCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	if !c.JobSubmitter.UsesQueue() {
		return errors.New("sync needs GRAPHBOARD_RABBITMQ_URL")
	}
	done, err := c.JobSubmitter.StartQueueSyncWorker(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "draining", c.Config.RabbitMQConfig.Queue, "until interrupted")
	<-done
	return nil
}
