package gtkview

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
)

const baseStyles = `
* {
    font-family: "Iosevka", monospace;
    font-size: 14px;
    transition: opacity 0.2s ease;
}

.page-frame {
    border-radius: 6px;
    padding: 6px;
}

.page-title {
    font-weight: bold;
    font-size: 16px;
}

.page-field {
    font-size: 22px;
}

.page-button {
    padding: 2px 8px;
    min-height: 0;
}

.calc-display {
    font-size: 24px;
    padding: 8px;
}

.calc-key {
    min-width: 48px;
    min-height: 36px;
}
`

const lightStyles = `
window, #page-area, #setup-form, #control-bar {
    background-color: #f5f5f5;
    color: #1e1e2e;
}

label {
    color: #1e1e2e;
}

.page-frame {
    background-color: #ffffff;
    border: 1px solid #c0c0c0;
}

.page-maximized {
    border: 2px solid #1e66f5;
}

.calc-display {
    background-color: #e6e9ef;
}
`

const darkStyles = `
window, #page-area, #setup-form, #control-bar {
    background-color: #0e1419;
    color: #ebdbb2;
}

label {
    color: #ebdbb2;
}

.page-frame {
    background-color: #181825;
    border: 1px solid #313244;
}

.page-maximized {
    border: 2px solid #89b4fa;
}

.calc-display {
    background-color: #313244;
}

button {
    background-image: none;
    background-color: #313244;
    color: #ebdbb2;
}
`

// Styles owns the screen-wide providers. The theme provider is reloaded on
// every theme change.
type Styles struct {
	theme *gtk.CssProvider
}

// SetupStyles installs the base and light theme providers on the default
// screen.
func SetupStyles() *Styles {
	s := &Styles{}

	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		log.Warn("Failed to get default screen", "error", err)
		return s
	}

	base, _ := gtk.CssProviderNew()
	if err := base.LoadFromData(baseStyles); err != nil {
		log.Warn("Failed to load base styles", "error", err)
	} else {
		gtk.AddProviderForScreen(screen, base, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	}

	theme, err := gtk.CssProviderNew()
	if err != nil {
		log.Warn("Failed to create theme provider", "error", err)
		return s
	}
	s.theme = theme
	s.SetDark(false)
	gtk.AddProviderForScreen(screen, theme, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION+1)

	return s
}

// SetDark swaps the theme stylesheet.
func (s *Styles) SetDark(dark bool) {
	if s.theme == nil {
		return
	}
	css := lightStyles
	if dark {
		css = darkStyles
	}
	if err := s.theme.LoadFromData(css); err != nil {
		log.Warn("Failed to load theme styles", "dark", dark, "error", err)
	}
}

// LoadCustomCSS adds a user stylesheet above the built-in ones. Missing
// files are ignored.
func LoadCustomCSS(path string) {
	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	provider, _ := gtk.CssProviderNew()
	if err := provider.LoadFromData(string(data)); err != nil {
		log.Warn("Failed to load custom CSS", "path", path, "error", err)
		return
	}
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
	log.Info("Loaded custom CSS", "path", path)
}
