// cmd/catalog/repl.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/session"
)

var commands = []string{
	"search", "category", "min", "max", "instock", "sort",
	"next", "prev", "page", "clear", "retry",
	"categories", "show", "help", "quit", "exit",
}

// REPL drives a browsing session from typed commands
type REPL struct {
	session *session.Session
	out     io.Writer
	// settle bounds how long a command waits for its fetch before rendering
	settle time.Duration
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".catalog_history")
}

// Run starts the REPL loop
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}
	defer r.saveHistory()

	fmt.Fprintln(r.out, "catalog - product browser. Type 'help' for commands.")
	r.await()
	render(r.out, r.session.Snapshot())

	for {
		line, err := r.liner.Prompt("catalog> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		if quit := r.exec(line); quit {
			return nil
		}
	}
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// exec runs one command line and reports whether the user asked to quit
func (r *REPL) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	// Free text keeps its original spacing
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0]))

	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		r.printHelp()
		return false

	case "show", "ls":

	case "search", "s":
		r.session.SetSearch(rest)

	case "category", "cat":
		if rest == "" {
			rest = domain.CategoryAll
		}
		r.session.SetCategory(rest)

	case "min":
		r.session.SetMinPrice(rest)

	case "max":
		r.session.SetMaxPrice(rest)

	case "instock":
		on := !r.session.Snapshot().State.InStockOnly
		if len(args) > 0 {
			v, ok := parseSwitch(args[0])
			if !ok {
				fmt.Fprintf(r.out, "instock expects on or off, got %q\n", args[0])
				return false
			}
			on = v
		}
		r.session.SetInStockOnly(on)

	case "sort":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: sort <name|category|price|stock_quantity|created_at>")
			return false
		}
		field, ok := domain.ParseSortField(args[0])
		if !ok {
			fmt.Fprintf(r.out, "cannot sort by %q\n", args[0])
			return false
		}
		r.session.ToggleSort(field)

	case "next", "n":
		if !r.session.NextPage() {
			fmt.Fprintln(r.out, "Already on the last page.")
			return false
		}

	case "prev", "p":
		if !r.session.PrevPage() {
			fmt.Fprintln(r.out, "Already on the first page.")
			return false
		}

	case "page":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: page <number>")
			return false
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.out, "invalid page %q\n", args[0])
			return false
		}
		r.session.SetPage(page)

	case "clear", "reset":
		r.session.ClearAll()

	case "retry":
		r.session.Retry()

	case "categories":
		renderCategories(r.out, r.session.Snapshot().Categories)
		return false

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		return false
	}

	r.await()
	render(r.out, r.session.Snapshot())
	return false
}

// await waits until typed input has been applied and the fetch it caused has
// completed, or until the settle period runs out
func (r *REPL) await() {
	deadline := time.Now().Add(r.settle)
	for time.Now().Before(deadline) {
		v := r.session.Snapshot()
		if !v.Loading && !v.Settling() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (r *REPL) completer(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	// Complete category names after "category "
	if rest, ok := strings.CutPrefix(lower, "category "); ok {
		for _, c := range append([]string{domain.CategoryAll}, r.session.Snapshot().Categories...) {
			if strings.HasPrefix(strings.ToLower(c), rest) {
				completions = append(completions, "category "+c)
			}
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  search <text>        Filter by name (case-insensitive substring)")
	fmt.Fprintln(r.out, "  category <name>      Filter by category; 'category All' removes the filter")
	fmt.Fprintln(r.out, "  min <price>          Lower price bound; empty removes it")
	fmt.Fprintln(r.out, "  max <price>          Upper price bound; empty removes it")
	fmt.Fprintln(r.out, "  instock [on|off]     Only show products with stock")
	fmt.Fprintln(r.out, "  sort <column>        Sort by column; repeat to flip direction")
	fmt.Fprintln(r.out, "  next / prev          Move between pages")
	fmt.Fprintln(r.out, "  page <n>             Jump to a page")
	fmt.Fprintln(r.out, "  clear                Reset every filter")
	fmt.Fprintln(r.out, "  retry                Re-run the last query")
	fmt.Fprintln(r.out, "  categories           List categories")
	fmt.Fprintln(r.out, "  show                 Show the current page")
	fmt.Fprintln(r.out, "  quit                 Exit")
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, true
	case "off", "no", "false", "0":
		return false, true
	}
	return false, false
}
