package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"waitdie/monitor"
	"waitdie/schedule"
	"waitdie/transaction"
)

const (
	formatTable = "table"
	formatText  = "text"
)

type printer struct {
	format string
	out    io.Writer
}

func newPrinter(format string, out io.Writer) (*printer, error) {
	switch format {
	case formatTable, formatText:
		return &printer{format: format, out: out}, nil
	default:
		return nil, errors.Newf("unknown output format %q", format)
	}
}

var eventColors = map[schedule.EventKind]*color.Color{
	schedule.EventWait:     color.New(color.FgYellow),
	schedule.EventRollback: color.New(color.FgRed, color.Bold),
	schedule.EventCommit:   color.New(color.FgGreen),
	schedule.EventLock:     color.New(color.FgCyan),
	schedule.EventUnlock:   color.New(color.FgBlue),
}

func colorize(e schedule.Event) string {
	if c, ok := eventColors[e.Kind]; ok {
		return c.Sprint(e.String())
	}
	return e.String()
}

func (p *printer) print(name string, res *transaction.Result) {
	fmt.Fprintf(p.out, "%s: %d rounds, %d events\n", name, res.Rounds, len(res.Events))

	switch p.format {
	case formatText:
		for _, e := range res.Events {
			fmt.Fprintln(p.out, colorize(e))
		}
	default:
		table := tablewriter.NewWriter(p.out)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"#", "event", "object", "txn"})
		for i, e := range res.Events {
			table.Append([]string{
				strconv.Itoa(i + 1),
				e.Kind.String(),
				string(e.Object),
				string(e.Tx),
			})
		}
		table.Render()
	}

	if len(res.Stalled) > 0 {
		ids := make([]string, len(res.Stalled))
		for i, id := range res.Stalled {
			ids[i] = string(id)
		}
		fmt.Fprintln(p.out, color.New(color.FgRed).Sprintf("stalled: %s", strings.Join(ids, " ")))
	}
}

func (p *printer) printCounters(counters []monitor.Counter) {
	fmt.Fprintln(p.out)
	table := tablewriter.NewWriter(p.out)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"metric", "total"})
	for _, c := range counters {
		table.Append([]string{c.Name, strconv.FormatFloat(c.Total, 'f', -1, 64)})
	}
	table.Render()
}
