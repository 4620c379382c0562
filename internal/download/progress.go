package download

import (
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
)

// newBar builds a byte-counting progress bar for one download. When stderr
// is not a terminal the bar is static, so CI logs are not flooded with
// redraw escapes.
func newBar(name string, size int64) *pb.ProgressBar {
	bar := pb.New64(size)
	bar.Set(pb.Bytes, true)

	if showProgress() {
		bar.SetTemplateString(`{{string . "prefix"}} {{counters . }} {{bar . | green }} {{percent .}} {{speed . "%s/s"}}`)
		bar.Set("prefix", name)
		bar.SetRefreshRate(200 * time.Millisecond)
	} else {
		bar.Set(pb.Static, true)
	}

	bar.SetWidth(80)
	return bar
}

func showProgress() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
