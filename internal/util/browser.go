package util

import (
	"net"
	"os/exec"
	"runtime"
	"strconv"
)

// OpenBrowser 既定のブラウザで url を開く
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// rundll32 は cmd /c start より引数の扱いが安定している
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}

// OpenBrowserWithFallback OpenBrowser が失敗したら OS ごとの代替手段を試す
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", url).Start()
	case "linux":
		browsers := []string{"google-chrome", "chromium", "chromium-browser", "firefox", "sensible-browser"}
		for _, browser := range browsers {
			if err := exec.Command(browser, url).Start(); err == nil {
				return nil
			}
		}
	}

	return err
}

// FindAvailablePort startPort から順に空いているポートを探す
// attempts 回試して見つからなければ startPort を返す
func FindAvailablePort(startPort, attempts int) int {
	for p := startPort; p < startPort+attempts; p++ {
		ln, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(p))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return p
	}
	return startPort
}
