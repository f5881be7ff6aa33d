// Package console drives spa.App from a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MikhailRaia/url-mapper/internal/spa"
)

const helpText = `commands:
  home | ls              go to the url map list
  settings               edit the authorization token
  go <path>              navigate to a path
  new                    create a url map (from the list)
  edit <key>             edit a url map (from the list)
  delete <key>           delete a url map (from the list, asks first)
  set <field> <value>    set key, url or token on the current form
  generate               suggest a random key (new form)
  save                   submit the current form
  cancel                 leave the new/edit form
  back                   go to the previous view
  reload                 reload the current view
  help                   show this help
  quit                   exit`

// Console reads commands from in and writes screens to out.
type Console struct {
	app *spa.App
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Console for app.
func New(app *spa.App, in io.Reader, out io.Writer) *Console {
	return &Console{
		app: app,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Confirm asks a yes/no question on the terminal. Anything but y/yes is no.
func (c *Console) Confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	if !c.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return answer == "y" || answer == "yes"
}

// Run renders the current screen and handles commands until quit or EOF.
func (c *Console) Run(ctx context.Context) error {
	c.Render()

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}

		quit, err := c.Dispatch(ctx, line)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.Render()
	}
}

// Dispatch runs one command line.
func (c *Console) Dispatch(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(c.out, helpText)
		return false, nil
	case "home", "ls":
		return false, c.app.Navigate(ctx, spa.PathIndex)
	case "settings":
		return false, c.app.OpenSettings(ctx)
	case "go":
		return false, c.app.Navigate(ctx, rest)
	case "new":
		return false, c.app.ClickCreate(ctx)
	case "edit":
		if rest == "" {
			return false, errors.New("usage: edit <key>")
		}
		return false, c.app.ClickEdit(ctx, rest)
	case "delete":
		if rest == "" {
			return false, errors.New("usage: delete <key>")
		}
		return false, c.app.Delete(ctx, rest, c)
	case "set":
		field, value, ok := strings.Cut(rest, " ")
		if !ok && field == "" {
			return false, errors.New("usage: set <field> <value>")
		}
		return false, c.app.SetField(field, strings.TrimSpace(value))
	case "generate":
		return false, c.app.SuggestKey()
	case "save", "submit":
		return false, c.app.Submit(ctx)
	case "cancel":
		return false, c.app.Cancel(ctx)
	case "back":
		return false, c.app.Back(ctx)
	case "reload":
		return false, c.app.Reload(ctx)
	}

	return false, fmt.Errorf("unknown command %q, try help", cmd)
}

// Render writes the current screen.
func (c *Console) Render() {
	screen := c.app.Screen()

	fmt.Fprintf(c.out, "\n== %s (%s)\n", title(screen.Route), screen.Route.Path)
	if screen.Notice != "" {
		fmt.Fprintln(c.out, screen.Notice)
	}

	switch screen.Route.View {
	case spa.ViewIndex:
		c.renderTable(screen)
	case spa.ViewNew, spa.ViewEdit:
		fmt.Fprintf(c.out, "Key: %s\nURL: %s\n", screen.Form.Key, screen.Form.URL)
	case spa.ViewSettings:
		fmt.Fprintf(c.out, "Authorization: %s\n", screen.Form.Token)
		info := screen.TokenInfo
		if info.JWT {
			fmt.Fprintf(c.out, "Subject: %s\n", info.Subject)
			if !info.ExpiresAt.IsZero() {
				expires := info.ExpiresAt.Format("2006-01-02 15:04:05")
				if info.Expired(time.Now()) {
					expires += " (expired)"
				}
				fmt.Fprintf(c.out, "Expires: %s\n", expires)
			}
		}
	}
}

func (c *Console) renderTable(screen spa.Screen) {
	table := screen.Table
	if table == nil {
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(table.Columns, "\t")))

	if table.Placeholder != nil {
		fmt.Fprintln(tw, table.Placeholder.Message)
	}
	for _, row := range table.Rows {
		fmt.Fprintf(tw, "%s\t%s\ttest %s | edit %s | delete %s\n", row.Key, row.URL, row.TestURL, row.Key, row.Key)
	}

	_ = tw.Flush()
}

func title(route spa.Route) string {
	switch route.View {
	case spa.ViewNew:
		return "New URL map"
	case spa.ViewEdit:
		return "Edit " + route.Key
	case spa.ViewSettings:
		return "Settings"
	}
	return "URL maps"
}
