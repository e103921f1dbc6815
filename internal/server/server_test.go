package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/testsupport"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var (
	csrfPattern    = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)
	stepPattern    = regexp.MustCompile(`data-step="(\d)"`)
	previewPattern = regexp.MustCompile(`<img src="([^"]+)"`)
)

type harness struct {
	t       *testing.T
	srv     *Server
	http    *httptest.Server
	client  *http.Client
	store   *attachments.MemoryStore
	page    string
	mu      sync.Mutex
	reports []listing.Record
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{t: t}
	reporter := wizard.ReporterFunc(func(_ context.Context, rec listing.Record) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.reports = append(h.reports, rec)
		return nil
	})
	opts = append([]Option{WithReporter(reporter)}, opts...)

	srv, err := New(opts...)
	require.NoError(t, err)
	h.srv = srv
	h.store = srv.previews
	h.http = httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		h.http.Close()
		srv.Close()
	})

	h.client = newClient(t)
	return h
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (h *harness) get(path string) *http.Response {
	h.t.Helper()
	resp, err := h.client.Get(h.http.URL + path)
	require.NoError(h.t, err)
	return resp
}

func (h *harness) load() {
	h.t.Helper()
	resp := h.get(WizardPath)
	h.page = readBody(h.t, resp)
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
}

func (h *harness) csrf() string {
	h.t.Helper()
	m := csrfPattern.FindStringSubmatch(h.page)
	require.Len(h.t, m, 2, "csrf token missing from page")
	return m[1]
}

func (h *harness) step() string {
	h.t.Helper()
	m := stepPattern.FindStringSubmatch(h.page)
	require.Len(h.t, m, 2, "step marker missing from page")
	return m[1]
}

// post submits the current page with fields and follows the redirect.
func (h *harness) post(action string, fields url.Values) *http.Response {
	h.t.Helper()
	form := url.Values{}
	for k, v := range fields {
		form[k] = v
	}
	form.Set("_csrf", h.csrf())
	form.Set("_step", h.step())
	form.Set("action", action)

	resp, err := h.client.PostForm(h.http.URL+WizardPath, form)
	require.NoError(h.t, err)
	return h.keep(resp)
}

// upload posts a multipart body with the given files under "images".
func (h *harness) upload(action string, fields url.Values, files map[string][]byte) *http.Response {
	h.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(h.t, mw.WriteField(k, v))
		}
	}
	require.NoError(h.t, mw.WriteField("_csrf", h.csrf()))
	require.NoError(h.t, mw.WriteField("_step", h.step()))
	require.NoError(h.t, mw.WriteField("action", action))
	for name, data := range files {
		part, err := mw.CreateFormFile(UploadField, name)
		require.NoError(h.t, err)
		_, err = part.Write(data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	resp, err := h.client.Post(h.http.URL+WizardPath, mw.FormDataContentType(), &body)
	require.NoError(h.t, err)
	return h.keep(resp)
}

func (h *harness) keep(resp *http.Response) *http.Response {
	h.t.Helper()
	body := readBody(h.t, resp)
	if resp.StatusCode == http.StatusOK {
		h.page = body
	}
	return resp
}

func (h *harness) reported() []listing.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]listing.Record(nil), h.reports...)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestFreeListingEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.load()
	require.Equal(t, "1", h.step())
	require.Contains(t, h.page, `<link rel="stylesheet" href="/assets/formwizard.css">`)

	h.post(ActionNext, url.Values{"category": {"Property"}, "tier": {"free"}})
	require.Equal(t, "2", h.step())

	h.upload(ActionSave, url.Values{"title": {"Nice flat"}, "description": {"Spacious"}},
		map[string][]byte{"front.png": testsupport.PNG()})
	require.Equal(t, "2", h.step())
	require.Contains(t, h.page, `value="Nice flat"`)

	m := previewPattern.FindStringSubmatch(h.page)
	require.Len(t, m, 2, "preview image missing")
	resp := h.get(m[1])
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.Equal(t, string(testsupport.PNG()), body)

	h.post(ActionNext, url.Values{"title": {"Nice flat"}, "description": {"Spacious"}})
	require.Equal(t, "3", h.step())
	h.post(ActionNext, nil)
	require.Equal(t, "4", h.step())
	h.post(ActionSubmit, nil)
	require.Equal(t, "4", h.step())
	require.Contains(t, h.page, MsgSubmitted)

	reports := h.reported()
	require.Len(t, reports, 1)
	require.Equal(t, "Nice flat", reports[0].Title)
	require.Equal(t, listing.TierFree, reports[0].Tier)
	require.Len(t, reports[0].Attachments, 1)

	h.post(ActionSubmit, nil)
	require.Contains(t, h.page, MsgAlreadySubmitted)
	require.Len(t, h.reported(), 1)

	h.post(ActionReset, nil)
	require.Equal(t, "1", h.step())
	require.Zero(t, h.store.Live())
}

func TestPaidListingSkipsDetails(t *testing.T) {
	h := newHarness(t)
	h.load()

	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"gold"}})
	require.Equal(t, "3", h.step())

	h.post(ActionNext, nil)
	require.Equal(t, "3", h.step())
	require.Contains(t, h.page, "Title is required.")
	require.Contains(t, h.page, "Description is required.")

	h.post(ActionBack, nil)
	require.Equal(t, "1", h.step())
}

func TestRejectsBadTokenStalePagesAndActions(t *testing.T) {
	h := newHarness(t)
	h.load()

	resp, err := h.client.PostForm(h.http.URL+WizardPath, url.Values{"_csrf": {"forged"}, "_step": {"1"}, "action": {"next"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = h.client.PostForm(h.http.URL+WizardPath, url.Values{
		"_csrf": {h.csrf()}, "_step": {"3"}, "action": {"next"}, "category": {"Job"}, "tier": {"free"},
	})
	require.NoError(t, err)
	h.keep(resp)
	require.Equal(t, "1", h.step())
	require.Contains(t, h.page, MsgStalePage)
	require.NotContains(t, h.page, `value="Job" selected`)

	resp = h.post("launch", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.post(ActionRemovePrefix+"5", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNonImageUploadIsReported(t *testing.T) {
	h := newHarness(t)
	h.load()
	h.post(ActionNext, url.Values{"category": {"Job"}, "tier": {"free"}})

	h.upload(ActionSave, url.Values{"title": {"Barista"}}, map[string][]byte{"cv.png": []byte("plain text resume")})
	require.Equal(t, "2", h.step())
	require.Contains(t, h.page, "cv.png is not an image.")
	require.Zero(t, h.store.Live())
}

func TestUploadKeptWhenPreviewsFail(t *testing.T) {
	h := newHarness(t)
	h.load()
	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"free"}})
	h.store.Close()

	resp := h.upload(ActionSave, nil, map[string][]byte{"a.png": testsupport.PNG()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "2", h.step())
	require.Contains(t, h.page, MsgNoPreviews)
	require.NotRegexp(t, previewPattern, h.page)

	sess := h.srv.sessions.cache.Items()
	require.Len(t, sess, 1)
	for _, item := range sess {
		require.Len(t, item.Object.(*session).controller.Snapshot().Attachments, 1)
	}
}

func TestRemoveAttachmentAndPreviewIsolation(t *testing.T) {
	h := newHarness(t)
	h.load()
	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"free"}})
	h.upload(ActionSave, nil, map[string][]byte{"a.png": testsupport.PNG()})
	h.upload(ActionSave, nil, map[string][]byte{"b.png": testsupport.PNG()})
	require.Equal(t, 2, h.store.Live())

	previews := previewPattern.FindAllStringSubmatch(h.page, -1)
	require.Len(t, previews, 2)

	stranger := newClient(t)
	resp, err := stranger.Get(h.http.URL + previews[0][1])
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.post(ActionRemovePrefix+"0", nil)
	require.Equal(t, 1, h.store.Live())
	require.NotContains(t, h.page, `alt="a.png"`)
	require.Contains(t, h.page, `alt="b.png"`)

	resp = h.get(previews[0][1])
	readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExpiredSessionStartsOver(t *testing.T) {
	h := newHarness(t)
	h.load()

	h.srv.sessions.cache.Flush()
	resp, err := h.client.PostForm(h.http.URL+WizardPath, url.Values{"_csrf": {h.csrf()}, "_step": {"1"}, "action": {"next"}})
	require.NoError(t, err)
	h.keep(resp)
	require.Equal(t, "1", h.step())
	require.Contains(t, h.page, MsgSessionExpired)
}

func TestPreviewsLiveAsLongAsTheSession(t *testing.T) {
	const ttl = 80 * time.Millisecond
	h := newHarness(t, WithSessionTTL(ttl))
	h.load()
	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"free"}})
	h.upload(ActionSave, nil, map[string][]byte{"a.png": testsupport.PNG()})
	m := previewPattern.FindStringSubmatch(h.page)
	require.Len(t, m, 2, "preview image missing")

	for deadline := time.Now().Add(4 * ttl); time.Now().Before(deadline); {
		time.Sleep(ttl / 4)
		resp := h.get(m[1])
		readBody(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Equal(t, 1, h.store.Live())

	require.Eventually(t, func() bool {
		return h.store.Live() == 0 && h.srv.sessions.len() == 0
	}, 2*time.Second, ttl/4)
}

func TestWithPreviewStoreIsUsed(t *testing.T) {
	store := attachments.NewMemoryStore(attachments.WithPrefix("/media/"))
	h := newHarness(t, WithPreviewStore(store))
	require.Same(t, store, h.store)
	h.load()
	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"free"}})
	h.upload(ActionSave, nil, map[string][]byte{"a.png": testsupport.PNG()})
	require.Equal(t, 1, store.Live())

	m := previewPattern.FindStringSubmatch(h.page)
	require.Len(t, m, 2, "preview image missing")
	require.True(t, strings.HasPrefix(m[1], "/media/"))
	resp := h.get(m[1])
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTextRendererHealthAndAssets(t *testing.T) {
	h := newHarness(t)

	resp := h.get(WizardPath + "?renderer=tui")
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	require.Contains(t, body, "Step 1 of 3: Category & package")

	resp = h.get(WizardPath + "?renderer=preact")
	readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.get(HealthzPath)
	require.Equal(t, "ok", readBody(t, resp))

	resp = h.get(AssetsPath + "formwizard.css")
	css := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, css, ".formwizard")
}

func TestNewRejectsUnknownRenderer(t *testing.T) {
	_, err := New(WithDefaultRenderer("preact"))
	require.Error(t, err)
}

func TestCloseReleasesSessions(t *testing.T) {
	h := newHarness(t)
	h.load()
	h.post(ActionNext, url.Values{"category": {"Car"}, "tier": {"free"}})
	h.upload(ActionSave, nil, map[string][]byte{"a.png": testsupport.PNG()})
	require.Equal(t, 1, h.store.Live())
	require.Equal(t, 1, h.srv.sessions.len())

	h.srv.sessions.close()
	require.Zero(t, h.store.Live())
	require.Zero(t, h.srv.sessions.len())
}

func TestListenAndServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second, nil)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
