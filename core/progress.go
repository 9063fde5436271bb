package core

import (
	"os"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// newProgressBar draws on stderr only when it is a terminal and progress is enabled.
func newProgressBar(cfg *contract.Config, total int, description string) *progressbar.ProgressBar {
	if !cfg.Progress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]#[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
