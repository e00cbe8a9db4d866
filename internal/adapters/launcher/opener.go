package launcher

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"jupiter/internal/domain"
)

// Opener implements ports.URLOpener for the hosted workspace web app
type Opener struct {
	webURL string
}

// NewOpener creates an opener for pages served under webURL
func NewOpener(webURL string) *Opener {
	return &Opener{webURL: strings.TrimRight(webURL, "/")}
}

// ItemURL is the web address of a page. The web app takes the id without
// dashes.
func (o *Opener) ItemURL(id domain.RemoteID) string {
	return o.webURL + "/" + strings.ReplaceAll(id.String(), "-", "")
}

// Open shows the page in the default browser
func (o *Opener) Open(id domain.RemoteID) error {
	if id == "" {
		return fmt.Errorf("no remote id to open")
	}
	return openURL(o.ItemURL(id))
}

func openURL(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return cmd.Start()
}
