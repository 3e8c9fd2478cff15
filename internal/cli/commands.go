package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"advent/internal/models"
	"advent/internal/services"
	"advent/internal/storage"
)

type PrizeListCmd struct {
	Available bool `help:"Show only prizes that have not been won."`
}

func (c *PrizeListCmd) Run(app *Context) error {
	prizes, st, err := app.Service.Prizes(context.Background(), c.Available)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tWON")
	for _, p := range prizes {
		won := ""
		if p.Won {
			won = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\n", p.ID, p.Kind, p.Emoji, p.Title, won)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%d total, %d won, %d remaining\n", st.Total, st.Won, st.Remaining)
	return nil
}

type PrizeAddCmd struct {
	Kind        string `arg:"" enum:"voucher,challenge" help:"voucher or challenge."`
	Title       string `arg:"" help:"Prize title."`
	Description string `arg:"" help:"What the prize is."`
	Emoji       string `help:"Emoji shown on the wheel." default:"🎁"`
	Color       string `help:"Wheel segment colour." default:"#FFD700"`
}

func (c *PrizeAddCmd) Run(app *Context) error {
	p, err := app.Service.AddPrize(context.Background(), models.PrizeSpec{
		Kind:        models.PrizeKind(c.Kind),
		Title:       c.Title,
		Description: c.Description,
		Emoji:       c.Emoji,
		Color:       c.Color,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Added prize %d: ", p.ID)
	printPrize(app.Out, p)
	return nil
}

type PrizeRemoveCmd struct {
	ID int64 `arg:"" help:"Prize id."`
}

func (c *PrizeRemoveCmd) Run(app *Context) error {
	err := app.Service.RemovePrize(context.Background(), c.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("prize %d not found", c.ID)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("prize %d has already been won", c.ID)
	case err != nil:
		return err
	}
	fmt.Fprintf(app.Out, "Removed prize %d\n", c.ID)
	return nil
}

type PrizeImportCmd struct {
	File string `arg:"" type:"existingfile" help:"CSV (kind,title,description,emoji,color) or YAML catalog."`
}

func (c *PrizeImportCmd) Run(app *Context) error {
	var (
		specs   []models.PrizeSpec
		skipped int
		err     error
	)
	switch strings.ToLower(filepath.Ext(c.File)) {
	case ".yaml", ".yml":
		specs, err = storage.LoadCatalog(c.File)
	default:
		var f *os.File
		if f, err = os.Open(c.File); err != nil {
			return err
		}
		specs, skipped, err = storage.ParseCatalogCSV(f)
		f.Close()
	}
	if err != nil {
		return err
	}

	added, err := app.Service.ImportPrizes(context.Background(), specs)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Imported %d prizes, skipped %d\n", len(added), skipped)
	return nil
}

type HistoryCmd struct {
	CSV bool `name:"csv" help:"Write CSV instead of a table."`
}

func (c *HistoryCmd) Run(app *Context) error {
	report, err := app.Service.History(context.Background())
	if err != nil {
		return err
	}
	loc := app.Service.Gate().Location()
	if c.CSV {
		return storage.WriteHistoryCSV(app.Out, report.History, loc)
	}

	tw := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tPRIZE\tWON AT")
	for _, e := range report.History {
		title := fmt.Sprintf("#%d", e.PrizeID)
		if e.Prize != nil {
			title = e.Prize.Emoji + " " + e.Prize.Title
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Day, title, e.AwardedAt.In(loc).Format("02.01.2006 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%d of %d prizes won\n", report.Stats.Won, report.Stats.Total)
	return nil
}

type CheckCmd struct {
	Day int       `arg:"" help:"Door number (1-24)."`
	At  time.Time `help:"Evaluate at this RFC 3339 time instead of now." format:"2006-01-02T15:04:05Z07:00"`
}

func (c *CheckCmd) Run(app *Context) error {
	now := app.Service.Now()
	if !c.At.IsZero() {
		now = c.At
	}
	a, err := app.Service.CheckAvailability(context.Background(), c.Day, now)
	if err != nil {
		return err
	}
	switch {
	case a.CanPlay:
		fmt.Fprintf(app.Out, "Door %d can be opened, %d prizes left\n", c.Day, a.Remaining)
	case a.AlreadyPlayed && a.Prize != nil:
		fmt.Fprintf(app.Out, "%s\n", a.Reason)
		printPrize(app.Out, *a.Prize)
	default:
		fmt.Fprintf(app.Out, "%s\n", a.Reason)
	}
	return nil
}

type SpinCmd struct {
	Day  int  `arg:"" help:"Door number (1-24)."`
	Demo bool `help:"Preview a draw without awarding anything."`
}

func (c *SpinCmd) Run(app *Context) error {
	res, err := app.Service.Spin(context.Background(), c.Day, app.Service.Now(), c.Demo)
	var played *services.AlreadyPlayedError
	switch {
	case errors.As(err, &played):
		fmt.Fprintf(app.Out, "Door %d was already opened:\n", c.Day)
		if played.Entry.Prize != nil {
			printPrize(app.Out, *played.Entry.Prize)
		}
		return nil
	case err != nil:
		return err
	}

	if res.Demo {
		fmt.Fprint(app.Out, "Demo draw: ")
	} else {
		fmt.Fprintf(app.Out, "Door %d: ", c.Day)
	}
	printPrize(app.Out, res.Prize)
	if res.Stats != nil {
		fmt.Fprintf(app.Out, "%d prizes remaining\n", res.Stats.Remaining)
	}
	return nil
}

type DaysCmd struct{}

func (c *DaysCmd) Run(app *Context) error {
	days, err := app.Service.Days(context.Background(), app.Service.Now())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tSTATE\tDETAIL")
	for _, d := range days {
		detail := string(d.Reason)
		if d.Entry != nil && d.Entry.Prize != nil {
			detail = d.Entry.Prize.Emoji + " " + d.Entry.Prize.Title
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Day, d.State, detail)
	}
	return tw.Flush()
}
