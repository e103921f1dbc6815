package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Values of the posted action field.
const (
	ActionNext         = "next"
	ActionBack         = "back"
	ActionSubmit       = "submit"
	ActionReset        = "reset"
	ActionSave         = "save"
	ActionRemovePrefix = "remove:"
)

// UploadField is the multipart field carrying image files.
const UploadField = "images"

// User-facing flash messages.
const (
	MsgSubmitted        = "Your listing was submitted."
	MsgAlreadySubmitted = "This listing was already submitted. Start over to post another one."
	MsgSubmitFailed     = "We could not submit your listing. Please try again."
	MsgFixErrors        = "Please fix the errors before submitting."
	MsgStalePage        = "This page was out of date. Here is your current step."
	MsgSessionExpired   = "Your session expired. Please start again."
	MsgNoPreviews       = "Your images were kept but cannot be previewed right now."
)

var errBadRequest = errors.New("server: bad request")

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.resolve(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.render(w, r, sess)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, sess *session) {
	logger := logging.FromContext(r.Context())

	name := strings.TrimSpace(r.URL.Query().Get("renderer"))
	if name == "" {
		name = s.renderer
	}
	renderer, err := s.renderers.Get(name)
	if err != nil {
		http.Error(w, fmt.Sprintf("renderer %q not found", name), http.StatusNotFound)
		return
	}

	notice, formErrors := sess.flash()
	view := sess.controller.View()
	opts := render.RenderOptions{
		Action:     WizardPath,
		Method:     http.MethodPost,
		Catalog:    &s.catalog,
		Hidden:     render.MergeHiddenFields(nil, render.StepField(view.Step), render.CSRFToken("", sess.csrf)),
		FormErrors: formErrors,
		Notice:     notice,
		Theme:      s.theme,
	}
	output, err := renderer.Render(r.Context(), view, opts)
	if err != nil {
		logger.Error("render wizard", "renderer", name, "step", view.Step, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(output); err != nil {
		logger.Warn("write response", "error", err)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	sess, ok := s.sessions.fromRequest(r)
	if !ok {
		sess = s.sessions.resolve(w, r)
		sess.mu.Lock()
		sess.formErrors = append(sess.formErrors, MsgSessionExpired)
		sess.mu.Unlock()
		http.Redirect(w, r, WizardPath, http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := parseForm(r, s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if subtle.ConstantTimeCompare([]byte(r.PostFormValue(render.CSRFFieldName)), []byte(sess.csrf)) != 1 {
		http.Error(w, "invalid form token", http.StatusForbidden)
		return
	}

	c := sess.controller
	if posted := strings.TrimSpace(r.PostFormValue(render.StepFieldName)); posted != strconv.Itoa(c.Step()) {
		logger.Debug("stale wizard post", "posted", posted, "step", c.Step())
		sess.formErrors = append(sess.formErrors, MsgStalePage)
		http.Redirect(w, r, WizardPath, http.StatusSeeOther)
		return
	}

	action := strings.TrimSpace(r.PostFormValue(render.ActionFieldName))
	if err := s.apply(r.Context(), sess, r, action); err != nil {
		if errors.Is(err, errBadRequest) || errors.Is(err, wizard.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("wizard post", "action", action, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, WizardPath, http.StatusSeeOther)
}

// apply writes the posted fields and uploads into the controller, then
// performs action. Reset skips the fields so a half-filled step cannot leak
// into the new run.
func (s *Server) apply(ctx context.Context, sess *session, r *http.Request, action string) error {
	c := sess.controller

	if action != ActionReset && !c.Submitted() {
		if err := applyFields(c, r.PostForm); err != nil {
			return err
		}
		if err := stageUploads(sess, r.MultipartForm); err != nil {
			return err
		}
	}

	switch {
	case action == "" || action == ActionSave:
		return nil
	case action == ActionNext:
		c.Advance()
		return nil
	case action == ActionBack:
		c.Retreat()
		return nil
	case action == ActionReset:
		c.Reset()
		return nil
	case action == ActionSubmit:
		s.submit(ctx, sess)
		return nil
	case strings.HasPrefix(action, ActionRemovePrefix):
		index, err := strconv.Atoi(strings.TrimPrefix(action, ActionRemovePrefix))
		if err != nil {
			return fmt.Errorf("%w: attachment index %q", errBadRequest, action)
		}
		err = c.RemoveAttachment(index)
		if errors.Is(err, wizard.ErrAlreadySubmitted) {
			sess.formErrors = append(sess.formErrors, MsgAlreadySubmitted)
			return nil
		}
		return previewFailure(sess, err)
	default:
		return fmt.Errorf("%w: unknown action %q", errBadRequest, action)
	}
}

func (s *Server) submit(ctx context.Context, sess *session) {
	logger := logging.FromContext(ctx)

	rec, err := sess.controller.Submit(ctx)
	var invalid *wizard.ValidationError
	switch {
	case err == nil:
		sess.notice = MsgSubmitted
		logger.Info("listing submitted", "session", sess.id, "tier", string(rec.Tier))
	case errors.As(err, &invalid):
		sess.formErrors = append(sess.formErrors, MsgFixErrors)
	case errors.Is(err, wizard.ErrAlreadySubmitted):
		sess.formErrors = append(sess.formErrors, MsgAlreadySubmitted)
	default:
		logger.Warn("submission failed", "session", sess.id, "error", err)
		sess.formErrors = append(sess.formErrors, MsgSubmitFailed)
	}
}

func parseForm(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// applyFields copies the text inputs of the current step from form. Fields
// missing from the post are left alone.
func applyFields(c *wizard.Controller, form url.Values) error {
	for _, name := range steps.Inputs(c.Step()) {
		if name == listing.FieldAttachments {
			continue
		}
		values, ok := form[name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := c.SetField(name, values[0]); err != nil {
			return err
		}
	}
	return nil
}

// stageUploads appends every uploaded image to the attachments. Files that
// are not images are reported and skipped.
func stageUploads(sess *session, form *multipart.Form) error {
	if form == nil || len(form.File[UploadField]) == 0 {
		return nil
	}
	c := sess.controller
	if !containsString(steps.Inputs(c.Step()), listing.FieldAttachments) {
		return nil
	}

	items := c.Snapshot().Attachments
	for _, header := range form.File[UploadField] {
		att, err := readUpload(header)
		if err != nil {
			sess.formErrors = append(sess.formErrors, uploadMessage(header.Filename, err))
			continue
		}
		items = append(items, att)
	}
	return previewFailure(sess, c.SetField(listing.FieldAttachments, items))
}

// previewFailure turns a preview error into a form message; the attachments
// themselves were applied.
func previewFailure(sess *session, err error) error {
	if errors.Is(err, wizard.ErrPreviews) {
		sess.formErrors = append(sess.formErrors, MsgNoPreviews)
		return nil
	}
	return err
}

func readUpload(header *multipart.FileHeader) (listing.Attachment, error) {
	file, err := header.Open()
	if err != nil {
		return listing.Attachment{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, attachments.MaxSize+1))
	if err != nil {
		return listing.Attachment{}, err
	}
	return attachments.FromBytes(header.Filename, data)
}

func uploadMessage(name string, err error) string {
	if errors.Is(err, attachments.ErrUnsupportedType) {
		return fmt.Sprintf("%s is not an image.", name)
	}
	return fmt.Sprintf("%s could not be attached.", name)
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.fromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	handle := s.previews.Prefix() + chi.URLParam(r, "id")

	sess.mu.Lock()
	owned := false
	for _, preview := range sess.controller.Previews() {
		if preview.URL == handle {
			owned = true
			break
		}
	}
	sess.mu.Unlock()

	att, found := s.previews.Lookup(handle)
	if !owned || !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(att.Data); err != nil {
		logging.FromContext(r.Context()).Warn("write preview", "error", err)
	}
}
