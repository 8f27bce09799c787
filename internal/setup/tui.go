// Package setup implements the interactive terminal front end.
package setup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/coinwatch/internal/domain"
	"github.com/vadiminshakov/coinwatch/internal/notifier"
	"github.com/vadiminshakov/coinwatch/internal/services/search"
	"github.com/vadiminshakov/coinwatch/internal/services/stream"
	"github.com/vadiminshakov/coinwatch/internal/store"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(subtle)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	actionNew  = "::new"
	actionQuit = "::quit"

	searchTimeout = 15 * time.Second
)

// TUI drives the terminal watchlist screens.
type TUI struct {
	store    *store.Store
	sync     *stream.Synchronizer
	searcher search.Searcher
	notices  *notifier.Notifier
	refresh  time.Duration
}

// New creates the terminal front end.
func New(st *store.Store, sync *stream.Synchronizer, searcher search.Searcher,
	notices *notifier.Notifier, refresh time.Duration) *TUI {
	if refresh <= 0 {
		refresh = 2 * time.Second
	}

	return &TUI{store: st, sync: sync, searcher: searcher, notices: notices, refresh: refresh}
}

// Run shows the main menu until the user quits or ctx is cancelled.
func (t *TUI) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		choice, err := t.mainMenu()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		switch choice {
		case actionQuit:
			return nil
		case actionNew:
			t.createWatchlist()
		default:
			if err := t.watchlistMenu(ctx, choice); err != nil {
				return err
			}
		}
	}
}

func (t *TUI) mainMenu() (string, error) {
	clearScreen()
	fmt.Println(headerStyle.Render("COINWATCH"))
	t.printNotice()

	snap := t.store.Snapshot()
	opts := make([]huh.Option[string], 0, len(snap)+2)
	for _, wl := range snap {
		label := fmt.Sprintf("%s (%d coins)", wl.Name, len(wl.Coins))
		opts = append(opts, huh.NewOption(label, wl.ID))
	}
	opts = append(opts,
		huh.NewOption("+ New watchlist", actionNew),
		huh.NewOption("Quit", actionQuit),
	)

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Your watchlists").
				Options(opts...).
				Value(&choice),
		),
	).Run()

	return choice, err
}

func (t *TUI) createWatchlist() {
	var name string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Watchlist name").
				Value(&name),
		),
	).Run()
	if err != nil {
		return
	}

	if _, err := t.store.Create(name); err != nil {
		t.notices.Notify("watchlist name must not be empty")
	}
}

func (t *TUI) watchlistMenu(ctx context.Context, id string) error {
	for {
		wl, ok := t.store.Get(id)
		if !ok {
			return nil
		}

		clearScreen()
		fmt.Println(headerStyle.Render(wl.Name))
		t.printNotice()

		var choice string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Actions").
					Options(
						huh.NewOption("Watch live", "watch"),
						huh.NewOption("Add coin", "add"),
						huh.NewOption("Remove coin", "remove"),
						huh.NewOption("Delete watchlist", "delete"),
						huh.NewOption("Back", "back"),
					).
					Value(&choice),
			),
		).Run()
		if err != nil {
			return nil
		}

		switch choice {
		case "watch":
			t.watch(ctx, id)
		case "add":
			t.addCoin(ctx, id)
		case "remove":
			t.removeCoin(id)
		case "delete":
			if t.deleteWatchlist(id) {
				return nil
			}
		case "back":
			return nil
		}
	}
}

// watch selects the list for live streaming and re-renders the snapshot on
// an interval until the user presses enter. Leaving the view clears the
// selection and tears the feed connection down.
func (t *TUI) watch(ctx context.Context, id string) {
	wl, ok := t.store.Get(id)
	if !ok {
		return
	}
	if len(wl.Coins) == 0 {
		t.notices.Notify("add a coin before watching")
		return
	}

	t.sync.SetActive(id)
	defer t.sync.ClearActive()

	done := make(chan struct{})
	go func() {
		reader := bufio.NewReader(os.Stdin)
		_, _ = reader.ReadString('\n')
		close(done)
	}()

	ticker := time.NewTicker(t.refresh)
	defer ticker.Stop()

	for {
		wl, ok := t.store.Get(id)
		if !ok {
			return
		}

		clearScreen()
		fmt.Println(headerStyle.Render(wl.Name))
		t.printNotice()
		fmt.Println(renderCoins(wl.Coins))
		fmt.Println(hintStyle.Render(fmt.Sprintf("feed: %s — press enter to go back", t.sync.State())))

		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func (t *TUI) addCoin(ctx context.Context, id string) {
	var term string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search cryptocurrencies").
				Description("at least 2 characters").
				Value(&term),
		),
	).Run()
	if err != nil {
		return
	}

	if len(strings.TrimSpace(term)) < search.MinTermLength {
		t.notices.Notify("search term is too short")
		return
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	results, err := t.searcher.Search(searchCtx, term)
	if err != nil {
		t.notices.Notify("cryptocurrency search failed")
		return
	}
	if len(results) == 0 {
		t.notices.Notify("no matches found")
		return
	}

	opts := make([]huh.Option[int], 0, len(results)+1)
	for i, c := range results {
		label := fmt.Sprintf("%-8s %12s  %s%%", c.Symbol, c.Price, c.PriceChange)
		opts = append(opts, huh.NewOption(label, i))
	}
	opts = append(opts, huh.NewOption("Cancel", -1))

	picked := -1
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Add to watchlist").
				Options(opts...).
				Value(&picked),
		),
	).Run()
	if err != nil || picked < 0 {
		return
	}

	switch err := t.store.AddCoin(id, results[picked]); {
	case errors.Is(err, domain.ErrCoinAlreadyPresent):
		t.notices.Notify("coin is already in the watchlist")
	case errors.Is(err, domain.ErrWatchlistNotFound):
		// the list vanished under us, nothing to report
	}
}

func (t *TUI) removeCoin(id string) {
	wl, ok := t.store.Get(id)
	if !ok || len(wl.Coins) == 0 {
		return
	}

	opts := make([]huh.Option[string], 0, len(wl.Coins)+1)
	for _, c := range wl.Coins {
		opts = append(opts, huh.NewOption(c.Symbol, c.Symbol))
	}
	opts = append(opts, huh.NewOption("Cancel", ""))

	var symbol string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Remove coin").
				Options(opts...).
				Value(&symbol),
		),
	).Run()
	if err != nil || symbol == "" {
		return
	}

	t.store.RemoveCoin(id, symbol)
}

func (t *TUI) deleteWatchlist(id string) bool {
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete this watchlist?").
				Value(&confirmed),
		),
	).Run()
	if err != nil || !confirmed {
		return false
	}

	t.store.Delete(id)
	if t.sync.Active() == id {
		t.sync.ClearActive()
	}
	return true
}

func (t *TUI) printNotice() {
	if msg := t.notices.Current(); msg != "" {
		fmt.Println(noticeStyle.Render(msg))
	}
}

func renderCoins(coins []domain.Coin) string {
	var b strings.Builder
	b.WriteString(hintStyle.Render(fmt.Sprintf("%-8s %14s %10s %16s %14s %14s",
		"SYMBOL", "PRICE", "CHG%", "VOLUME", "HIGH", "LOW")))
	b.WriteString("\n")

	for _, c := range coins {
		change := c.PriceChange
		styled := upStyle
		if strings.HasPrefix(change, "-") {
			styled = downStyle
		}
		b.WriteString(fmt.Sprintf("%-8s %14s %s %16s %14s %14s\n",
			c.Symbol, c.Price, styled.Render(fmt.Sprintf("%10s", change)), c.Volume, c.High, c.Low))
	}

	return b.String()
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
