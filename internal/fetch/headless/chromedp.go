// Package headless renders script-heavy pages with headless Chrome. Two of
// the party sites ship empty listing shells and hydrate them client-side;
// for those the plain transport sees nothing useful.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Config controls the renderer.
type Config struct {
	UserAgent string
	// NavTimeout bounds a whole render. The per-call wait timeout must stay
	// below it so a stuck selector degrades to "use what rendered" instead
	// of hanging the run.
	NavTimeout time.Duration
	// SettleDelay is the fixed wait used when no selector is given.
	SettleDelay time.Duration
}

// Renderer implements scrape.Renderer with chromedp.
type Renderer struct {
	cfg             Config
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
}

var _ scrape.Renderer = (*Renderer)(nil)

// New starts a headless browser and warms a browser context.
func New(cfg Config, logger *zap.Logger) (*Renderer, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 3 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Renderer{
		cfg:             cfg,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *Renderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// Render loads the URL, optionally waits for waitSelector (bounded by
// waitTimeout, non-fatal), else sleeps the settle delay, and returns the
// rendered DOM.
func (r *Renderer) Render(ctx context.Context, url, waitSelector string, waitTimeout time.Duration) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	setup := chromedp.Tasks{network.Enable()}
	if r.cfg.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(r.cfg.UserAgent))
	}
	setup = append(setup,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err := chromedp.Run(taskCtx, setup); err != nil {
		return "", fmt.Errorf("chromedp navigate: %w", err)
	}

	if waitSelector != "" {
		if waitTimeout <= 0 || waitTimeout > r.cfg.NavTimeout {
			waitTimeout = r.cfg.NavTimeout / 2
		}
		waitCtx, cancelWait := context.WithTimeout(taskCtx, waitTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			// The content may have loaded under a different structure; use
			// whatever the page managed to render.
			r.logger.Warn("render wait timed out, using partial DOM",
				zap.String("url", url),
				zap.String("selector", waitSelector),
			)
		}
	} else {
		if err := chromedp.Run(taskCtx, chromedp.Sleep(r.cfg.SettleDelay)); err != nil {
			return "", fmt.Errorf("chromedp settle: %w", err)
		}
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("chromedp snapshot: %w", err)
	}
	return html, nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
