package scripttest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// TextReporter prints one line per script and a closing summary.
type TextReporter struct {
	out     io.Writer
	verbose bool
	pass    *color.Color
	fail    *color.Color
}

func NewTextReporter(out io.Writer, verbose, colored bool) *TextReporter {
	r := &TextReporter{
		out:     out,
		verbose: verbose,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
	}
	if colored {
		r.pass.EnableColor()
		r.fail.EnableColor()
	} else {
		r.pass.DisableColor()
		r.fail.DisableColor()
	}
	return r
}

func (r *TextReporter) Report(sum *Summary) {
	for _, res := range sum.Results {
		if res.Passed {
			if r.verbose {
				r.pass.Fprint(r.out, "PASS")
				fmt.Fprintf(r.out, " %s (%v)\n", res.Name, res.Duration.Round(time.Microsecond))
			}
			continue
		}
		r.fail.Fprint(r.out, "FAIL")
		fmt.Fprintf(r.out, " %s (%v)\n", res.Name, res.Duration.Round(time.Microsecond))
		if res.Error != nil {
			fmt.Fprintf(r.out, "    error: %v\n", res.Error)
		}
		if res.Message != "" {
			for _, line := range strings.Split(res.Message, "\n") {
				fmt.Fprintf(r.out, "    %s\n", line)
			}
		}
	}

	status := r.pass.Sprint("ok")
	if !sum.OK() {
		status = r.fail.Sprint("FAILED")
	}
	fmt.Fprintf(r.out, "%s: %s passed, %s failed, %s of source in %v\n",
		status,
		humanize.Comma(int64(sum.Passed)),
		humanize.Comma(int64(sum.Failed)),
		humanize.Bytes(uint64(sum.Bytes)),
		sum.TotalTime.Round(time.Millisecond))
}
