package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/mmynk/feebill/internal/app"
	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/export"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/models"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	app    *app.App
	stdout io.Writer
}

// feeFlags collects repeated -fee component=amount flags.
type feeFlags []form.FeeEdit

func (f *feeFlags) String() string {
	parts := make([]string, len(*f))
	for i, e := range *f {
		parts[i] = e.Name + "=" + e.Raw
	}
	return strings.Join(parts, ",")
}

func (f *feeFlags) Set(value string) error {
	name, raw, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected component=amount, got %q", value)
	}
	*f = append(*f, form.FeeEdit{Name: strings.TrimSpace(name), Raw: raw})
	return nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stdout, "Usage:")
	fmt.Fprintln(cli.stdout, "  render -name NAME -class CLASS -roll ROLL [-type 3-part] [-copies 1] [-fee academic=3000 ...] [-out bill.html|bill.xlsx]")
	fmt.Fprintln(cli.stdout, "  classes - list classes and their baseline fees")
	fmt.Fprintln(cli.stdout, "  layout -copies N - show the page arrangement for N copies")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "render":
		return cli.render(args[2:])
	case "classes":
		return cli.classes()
	case "layout":
		return cli.layout(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) render(args []string) error {
	cmd := flag.NewFlagSet("render", flag.ContinueOnError)
	cmd.SetOutput(cli.stdout)
	name := cmd.String("name", "", "student name (letters and spaces)")
	class := cmd.String("class", "", "class, e.g. \"Class 1\"")
	roll := cmd.String("roll", "", "roll number")
	billType := cmd.String("type", string(cli.app.DefaultBillType), "bill type: 2-part, 3-part, 5-part or flat")
	copies := cmd.Int("copies", 1, "copies per page")
	out := cmd.String("out", "", "output file; .xlsx writes a spreadsheet, anything else HTML (default stdout)")
	var fees feeFlags
	cmd.Var(&fees, "fee", "reduced fee as component=amount; repeatable")

	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}

	student, err := cli.app.Validator.Submit(form.StudentForm{
		Name:       *name,
		Class:      *class,
		RollNumber: *roll,
		BillType:   *billType,
	})
	if err != nil {
		return err
	}

	ws := bill.NewWorksheet(cli.app.Schedule, cli.app.Layout).
		SelectClass(student.Class).
		SetCopies(*copies)
	for _, edit := range fees {
		next, adj, err := ws.EditFee(edit.Name, edit.Raw)
		if err != nil {
			return err
		}
		if adj.Clamped() {
			slog.Warn("Fee clamped",
				"component", string(adj.Component),
				"proposed", adj.Proposed,
				"final", adj.Final,
			)
		}
		ws = next
	}

	doc, err := ws.Submit(student).Document(cli.app.Composer)
	if err != nil {
		return err
	}

	if *out == "" || *out == "-" {
		return cli.app.Renderer.RenderPrint(cli.stdout, doc)
	}
	return writeFile(*out, func(w io.Writer) error {
		if strings.EqualFold(filepath.Ext(*out), ".xlsx") {
			return export.WriteXLSX(w, doc)
		}
		return cli.app.Renderer.RenderPrint(w, doc)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func (cli *commandLine) classes() error {
	sched := cli.app.Schedule
	money := cli.app.Renderer.Money

	tw := tabwriter.NewWriter(cli.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"Class"}
	for _, c := range models.AllComponents {
		header = append(header, c.Label())
	}
	fmt.Fprintln(tw, strings.Join(append(header, "Total"), "\t")+"\t")

	for _, class := range sched.Classes() {
		fees := sched.Resolve(class)
		row := []string{class}
		for _, c := range models.AllComponents {
			row = append(row, money(fees.Get(c)))
		}
		fmt.Fprintln(tw, strings.Join(append(row, money(fees.Total())), "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "schedule %s, default %s\n", sched.Version(), sched.DefaultClass())
	return nil
}

func (cli *commandLine) layout(args []string) error {
	cmd := flag.NewFlagSet("layout", flag.ContinueOnError)
	cmd.SetOutput(cli.stdout)
	copies := cmd.Int("copies", 1, "copies per page")
	if err := cmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}

	spec := cli.app.Layout.Layout(*copies)
	fmt.Fprintf(cli.stdout, "copies:  %d\n", spec.Copies)
	fmt.Fprintf(cli.stdout, "grid:    %dx%d (wide/print %dx%d)\n", spec.Columns, spec.Rows, spec.WideColumns, spec.WideRows)
	fmt.Fprintf(cli.stdout, "gap:     %s\n", spec.Gap)
	fmt.Fprintf(cli.stdout, "scale:   %d%%\n", spec.ScalePercent())
	fmt.Fprintf(cli.stdout, "page:    %s, margin %s\n", layout.A4.Name, layout.A4.Margin)
	return nil
}
