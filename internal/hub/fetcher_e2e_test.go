package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeHome = `<!doctype html><html><body>
<div class="cky-overlay" style="position:fixed;inset:0;background:rgba(0,0,0,.4)"></div>
<button class="cky-btn cky-btn-accept" style="position:fixed;z-index:10"
  onclick="document.querySelector('.cky-overlay').style.display='none';this.style.display='none'">Accept</button>
<a data-cy="account-menu-login" href="/u/login">Log in</a>
</body></html>`

const fakeLogin = `<!doctype html><html><body>
<form onsubmit="event.preventDefault(); location.href='/';">
  <input name="username"><input name="password" type="password">
  <button type="submit">Sign in</button>
</form>
</body></html>`

const fakeListing = `<!doctype html><html><body>
<div class="content">
  <a data-cy="article-preview-link" href="/articles/gw9"><h3> GW9 Team Reveal </h3></a>
  <a data-cy="article-preview-link" href="/articles/gw8"><h3>GW8 Team Reveal</h3></a>
</div>
</body></html>`

const fakeArticle = `<!doctype html><html><body>
<article class="article"><div id="body" class="mt-3 text-base content-body text-black-400"></div></article>
<script>
setTimeout(function () {
  document.getElementById('body').innerHTML = '<p>Salah in for Isak.</p><p>Captain Haaland.</p>';
}, 200);
</script>
</body></html>`

func fakeSite(t *testing.T) *httptest.Server {
	t.Helper()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", page(fakeHome))
	mux.HandleFunc("/u/login", page(fakeLogin))
	mux.HandleFunc("/team-reveals/mj6987", page(fakeListing))
	mux.HandleFunc("/articles/gw9", page(fakeArticle))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type recordingReporter struct {
	mu    sync.Mutex
	steps []progress.Step
	msgs  map[progress.Step]string
}

func (r *recordingReporter) Report(_ context.Context, ev progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.msgs == nil {
		r.msgs = make(map[progress.Step]string)
	}
	r.steps = append(r.steps, ev.Step)
	r.msgs[ev.Step] = ev.Message
}

// Drives a real Chromium against a local copy of the site layout.
// Requires an installed playwright driver: PLAYWRIGHT_E2E=1 go test ./internal/hub/
func TestFetcher_Fetch_FakeSite(t *testing.T) {
	if os.Getenv("PLAYWRIGHT_E2E") == "" {
		t.Skip("PLAYWRIGHT_E2E not set, skipping browser test")
	}

	srv := fakeSite(t)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Email = "me@example.com"
	cfg.Password = "secret"
	cfg.FormSettle = 100 * time.Millisecond
	cfg.RenderSettle = 500 * time.Millisecond
	cfg.ConsentWait = 2 * time.Second
	cfg.InstallDriver = os.Getenv("PLAYWRIGHT_INSTALL") != ""

	rec := &recordingReporter{}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	article, err := NewFetcher(cfg, logger.NewNop()).Fetch(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, "GW9 Team Reveal", article.Title)
	assert.Equal(t, srv.URL+"/articles/gw9", article.URL)
	assert.Equal(t, "Salah in for Isak.\nCaptain Haaland.", article.Text)
	assert.False(t, article.FetchedAt.IsZero())

	assert.Equal(t, []progress.Step{
		progress.StepLaunch,
		progress.StepConsent,
		progress.StepLogin,
		progress.StepLoggedIn,
		progress.StepTargetPage,
		progress.StepArticleFound,
		progress.StepArticleOpened,
		progress.StepRendered,
		progress.StepExtracted,
	}, rec.steps)
	assert.Equal(t, "GW9 Team Reveal", rec.msgs[progress.StepArticleFound])
}

func TestFetcher_Fetch_NoArticle(t *testing.T) {
	if os.Getenv("PLAYWRIGHT_E2E") == "" {
		t.Skip("PLAYWRIGHT_E2E not set, skipping browser test")
	}

	srv := fakeSite(t)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TargetPath = "/missing"
	cfg.Email = "me@example.com"
	cfg.Password = "secret"
	cfg.FormSettle = 0
	cfg.StepTimeout = 2 * time.Second

	_, err := NewFetcher(cfg, logger.NewNop()).Fetch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}
