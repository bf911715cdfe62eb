package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

var errQuit = errors.New("quit")

// session drives a sheet from line commands. It is also the sheet's
// notifier and refresher; output from the autosave goroutine and from
// commands shares one locked writer.
type session struct {
	mu    sync.Mutex
	out   io.Writer
	sheet *usecase.Sheet
}

func newSession(out io.Writer) *session {
	return &session{out: out}
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// Success implements usecase.Notifier.
func (s *session) Success(msg string) {
	s.printf("ok: %s\n", msg)
}

// Failure implements usecase.Notifier.
func (s *session) Failure(msg string, err error) {
	s.printf("error: %s: %v\n", msg, err)
}

// Refresh implements usecase.Refresher by reprinting the period summary.
func (s *session) Refresh(context.Context) {
	s.printSummary()
}

func (s *session) stateChanged(state domain.SyncState) {
	s.printf("[%s]\n", state)
}

func (s *session) printSummary() {
	sum := s.sheet.Summary()
	closing := sum.ClosingBalance.StringFixed(2)
	if sum.ClosingIsAuto {
		closing += " (auto)"
	}
	s.printf("revenue %s  expenses %s  net %s  opening %s  closing %s\n",
		sum.Revenue.StringFixed(2),
		sum.Expenses.StringFixed(2),
		sum.NetCashFlow.StringFixed(2),
		sum.OpeningBalance.StringFixed(2),
		closing,
	)
}

// run reads commands until quit, EOF or ctx cancellation. Pending changes
// are saved before it returns.
func (s *session) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		err := s.execute(ctx, scanner.Text(), scanner)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return s.flush(ctx)
}

func (s *session) flush(ctx context.Context) error {
	if !s.sheet.HasPendingChanges() {
		return nil
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	return s.sheet.SaveAll(ctx, true)
}

func (s *session) close() {
	if s.sheet != nil {
		s.sheet.Close()
	}
}

// execute runs one command line. Multi-line commands read further input from lines.
func (s *session) execute(ctx context.Context, line string, lines *bufio.Scanner) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "add":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: add <income|expense> [category]")
		}
		direction, err := domain.ParseDirection(args[0])
		if err != nil {
			return err
		}
		category := ""
		if len(args) == 2 {
			category = args[1]
		}
		id, err := s.sheet.AddRow(direction, category)
		if err != nil {
			return err
		}
		s.printf("%s\n", id)

	case "set":
		if len(args) < 2 {
			return errors.New("usage: set <id> <field> <value...>")
		}
		field, err := domain.ParseEntryField(args[1])
		if err != nil {
			return err
		}
		return s.sheet.UpdateRow(args[0], field, restOf(line, 3))

	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <id>")
		}
		return s.sheet.RemoveRow(ctx, args[0])

	case "open":
		return s.sheet.SetOpeningBalance(restOf(line, 1))

	case "closing":
		return s.sheet.SetClosingBalance(restOf(line, 1))

	case "dividends", "closing-enabled":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <on|off>", cmd)
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		if cmd == "dividends" {
			return s.sheet.SetDividendsReleased(on)
		}
		return s.sheet.SetClosingOverrideEnabled(on)

	case "paste":
		if len(args) != 1 {
			return errors.New("usage: paste <income|expense>")
		}
		direction, err := domain.ParseDirection(args[0])
		if err != nil {
			return err
		}
		var text strings.Builder
		for lines.Scan() {
			if strings.TrimSpace(lines.Text()) == "." {
				break
			}
			text.WriteString(lines.Text())
			text.WriteByte('\n')
		}
		ids, err := s.sheet.PasteRows(direction, text.String())
		if err != nil {
			return err
		}
		s.printf("pasted %d rows\n", len(ids))

	case "save":
		// Failures are reported through the notifier.
		_ = s.sheet.SaveAll(ctx, true)

	case "status":
		pending := "no pending changes"
		if s.sheet.HasPendingChanges() {
			pending = "unsaved changes"
		}
		s.printf("%s, %s\n", s.sheet.State(), pending)

	case "list":
		s.printEntries()

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	return nil
}

func (s *session) printEntries() {
	entries := s.sheet.Entries()

	s.mu.Lock()
	defer s.mu.Unlock()

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDIRECTION\tCATEGORY\tDESCRIPTION\tAMOUNT\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Direction, e.CategoryID, e.Description, domain.FormatAmount(e.Amount), entryStatus(e))
	}
	_ = tw.Flush()
}

func entryStatus(e domain.Entry) string {
	switch {
	case e.IsNew && !e.NeedsSave():
		return "draft"
	case e.IsNew:
		return "new"
	case e.IsEdited:
		return "edited"
	default:
		return "saved"
	}
}

// restOf returns line without its first n whitespace-separated words,
// keeping the inner spacing of the remainder.
func restOf(line string, n int) string {
	rest := strings.TrimSpace(line)
	for range n {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[i:])
	}
	return rest
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}
