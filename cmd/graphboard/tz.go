package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/graphboard/graphboard/app"
)

func tzCmd(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: graphboard tz list|get|set <offset>")
	}
	switch args[0] {
	case "list":
		preferred, err := c.PreferredTimezone.Get(ctx)
		if err != nil {
			return err
		}
		for _, label := range c.Timezones.List() {
			marker := " "
			if label == preferred {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, label)
		}
		return nil
	case "get":
		preferred, err := c.PreferredTimezone.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, preferred)
		return nil
	case "set":
		if len(args) != 2 {
			return errors.New("usage: graphboard tz set <offset>")
		}
		if err := c.PreferredTimezone.Set(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(out, "preferred timezone set to", args[1])
		return nil
	default:
		return fmt.Errorf("unknown tz command %q", args[0])
	}
}
