package commands

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/shellexport/internal/dbusmenu"
	"github.com/bnema/shellexport/internal/export"
	"github.com/bnema/shellexport/internal/proxy"
	"github.com/bnema/shellexport/internal/sni"
	"github.com/bnema/shellexport/internal/x11"
)

type runOptions struct {
	window   string
	title    string
	icon     string
	iconName string
	category string
	menu     []string
	noTray   bool
	noMenu   bool
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Export a window's menu bar and a tray icon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.window, "window", "", "X11 window id, decimal or 0x-prefixed (required)")
	cmd.Flags().StringVar(&opts.title, "title", "", "tray icon title (default: the window title)")
	cmd.Flags().StringVar(&opts.icon, "icon", "", "PNG file to use as the tray icon")
	cmd.Flags().StringVar(&opts.iconName, "icon-name", "", "freedesktop icon name for the tray icon")
	cmd.Flags().StringVar(&opts.category, "category", "ApplicationStatus", "status notifier category")
	cmd.Flags().StringSliceVar(&opts.menu, "menu", nil, "top-level menu entries")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "do not create a tray icon")
	cmd.Flags().BoolVar(&opts.noMenu, "no-menu", false, "do not export the menu bar")
	_ = cmd.MarkFlagRequired("window")
	return cmd
}

func parseWindowID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

// trackedWindow is the part of *x11.Window the run loop follows.
type trackedWindow interface {
	EffectiveWindowID() (uint32, bool)
	OnWindowIDChange(fn func())
	Title() string
	OnTitleChange(fn func())
	Icon() (width, height int, argb []uint32, err error)
	OnIconChange(fn func())
}

// stopOnDestroy calls stop once the window has no id left.
func stopOnDestroy(win trackedWindow, stop func()) {
	win.OnWindowIDChange(func() {
		if _, ok := win.EffectiveWindowID(); !ok {
			log.Printf("window destroyed, shutting down")
			stop()
		}
	})
}

func windowIcon(win trackedWindow) ([]sni.Pixmap, bool) {
	width, height, argb, err := win.Icon()
	if err != nil {
		log.Printf("read window icon: %v", err)
		return nil, false
	}
	if width == 0 || height == 0 {
		return nil, false
	}
	return []sni.Pixmap{sni.PixmapFromARGB(width, height, argb)}, true
}

// followWindow keeps the tray icon's title and image in step with the
// window for whichever of the two was not given on the command line.
func followWindow(win trackedWindow, icon export.TrayIcon, title, image bool) {
	if title {
		win.OnTitleChange(func() { icon.SetTitle(win.Title()) })
	}
	if image {
		win.OnIconChange(func() {
			if pixmaps, ok := windowIcon(win); ok {
				icon.SetIcon(pixmaps)
			}
		})
	}
}

func run(cmd *cobra.Command, opts runOptions) error {
	id, err := parseWindowID(opts.window)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display, err := x11.Open()
	if err != nil {
		return err
	}
	defer display.Close()

	win, err := display.Window(id)
	if err != nil {
		return err
	}
	stopOnDestroy(win, stop)

	if !opts.noMenu {
		menu, err := factory.CreateMenuBar(win)
		if err != nil {
			return fmt.Errorf("menu bar: %w", err)
		}
		defer menu.Close()
		for _, label := range opts.menu {
			menu.AddEntry(dbusmenu.Entry{
				Label:   label,
				OnClick: func() { log.Printf("menu entry %q activated", label) },
			})
		}
		if menu.Exported() {
			log.Printf("menu bar exported for window 0x%x", id)
		} else {
			log.Printf("no global menu registrar, menu bar stays in the window")
		}
	}

	if !opts.noTray {
		title := opts.title
		if title == "" {
			title = win.Title()
		}
		trayOpts := export.TrayOptions{
			Title:    title,
			Category: opts.category,
			IconName: opts.iconName,
			WindowID: id,
			Handler:  proxy.New(display, win, nil),
		}
		if opts.icon != "" {
			pixmap, err := sni.LoadPixmap(opts.icon)
			if err != nil {
				return err
			}
			trayOpts.Icon = []sni.Pixmap{pixmap}
		} else if pixmaps, ok := windowIcon(win); ok {
			trayOpts.Icon = pixmaps
		}

		icon, err := factory.CreateTrayIcon(trayOpts)
		switch {
		case errors.Is(err, export.ErrStatusNotifierUnavailable):
			log.Printf("no status notifier host, skipping tray icon")
		case err != nil:
			return fmt.Errorf("tray icon: %w", err)
		default:
			defer icon.Close()
			followWindow(win, icon, opts.title == "", opts.icon == "")
			log.Printf("tray icon registered as %s at %s", icon.Name(), icon.Path())
		}
	}

	if err := display.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Printf("shutting down")
	return nil
}
