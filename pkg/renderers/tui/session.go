package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type action int

const (
	actionContinue action = iota
	actionBack
	actionAddImage
	actionRemoveImage
	actionSubmit
	actionStartOver
	actionQuit
)

var actionLabels = map[action]string{
	actionContinue:    "Continue",
	actionBack:        "Back",
	actionAddImage:    "Add an image",
	actionRemoveImage: "Remove an image",
	actionSubmit:      "Submit listing",
	actionStartOver:   "Start over",
	actionQuit:        "Quit",
}

// Run walks c through the wizard until the listing is submitted and returns
// the serialized record. Validation messages are printed and the current
// step is asked again; ErrAborted is returned when the user quits.
func (r *Renderer) Run(ctx context.Context, c *wizard.Controller) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if c == nil {
		return nil, fmt.Errorf("%w: controller is nil", wizard.ErrInvalidArgument)
	}

	s := &session{r: r, c: c}
	var submitted listing.Record
	for !c.Submitted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch c.Step() {
		case 1:
			err = s.chooseListing(ctx)
		case 2:
			err = s.details(ctx)
		case 3:
			err = s.review(ctx)
		default:
			submitted, err = s.confirm(ctx)
		}
		if err != nil {
			return nil, err
		}
	}
	if submitted.Step == 0 {
		submitted = c.Snapshot()
	}

	values := recordValues(submitted)
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

type session struct {
	r *Renderer
	c *wizard.Controller
}

func (s *session) info(ctx context.Context, msg string) error {
	return s.r.driver.Info(ctx, s.r.theme.InfoPrefix+msg)
}

func (s *session) warn(ctx context.Context, msg string) error {
	return s.r.driver.Info(ctx, s.r.theme.ErrorPrefix+msg)
}

func (s *session) showView(ctx context.Context) error {
	out, err := s.r.Render(ctx, s.c.View(), render.RenderOptions{Catalog: &s.r.catalog})
	if err != nil {
		return err
	}
	return s.r.driver.Info(ctx, strings.TrimRight(string(out), "\n"))
}

func (s *session) selectIndex(ctx context.Context, cfg SelectConfig) (int, error) {
	idx, err := s.r.driver.Select(ctx, cfg)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(cfg.Options) {
		return 0, fmt.Errorf("%w: %q answered %d", ErrBadSelection, cfg.Message, idx)
	}
	return idx, nil
}

func (s *session) menu(ctx context.Context, message string, actions ...action) (action, error) {
	options := make([]string, len(actions))
	for i, a := range actions {
		options[i] = actionLabels[a]
	}
	idx, err := s.selectIndex(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return 0, err
	}
	return actions[idx], nil
}

// advance moves forward or prints why it could not.
func (s *session) advance(ctx context.Context) error {
	result, ok := s.c.Advance()
	if ok {
		return nil
	}
	for _, field := range result.Fields() {
		if err := s.warn(ctx, result.Errors[field]); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) chooseListing(ctx context.Context) error {
	rec := s.c.Snapshot()
	catalog := s.r.catalog

	categories := make([]string, len(catalog.Categories))
	current := 0
	for i, category := range catalog.Categories {
		categories[i] = category.Label
		if category.Value == rec.Category {
			current = i
		}
	}
	idx, err := s.selectIndex(ctx, SelectConfig{
		Message:      "Category",
		Options:      categories,
		DefaultIndex: current,
	})
	if err != nil {
		return err
	}
	if err := s.c.SetField(listing.FieldCategory, catalog.Categories[idx].Value); err != nil {
		return err
	}

	packages := make([]string, len(catalog.Packages))
	descriptions := make([]string, len(catalog.Packages))
	current = 0
	for i, pkg := range catalog.Packages {
		packages[i] = packageLabel(catalog, pkg.Tier)
		descriptions[i] = pkg.Description
		if pkg.Tier == rec.Tier {
			current = i
		}
	}
	idx, err = s.selectIndex(ctx, SelectConfig{
		Message:      "Package",
		Options:      packages,
		Descriptions: descriptions,
		DefaultIndex: current,
	})
	if err != nil {
		return err
	}
	if err := s.c.SetField(listing.FieldTier, catalog.Packages[idx].Tier); err != nil {
		return err
	}
	return s.advance(ctx)
}

func (s *session) details(ctx context.Context) error {
	rec := s.c.Snapshot()
	title, err := s.r.driver.Input(ctx, InputConfig{Message: "Title", Default: rec.Title})
	if err != nil {
		return err
	}
	if err := s.c.SetField(listing.FieldTitle, title); err != nil {
		return err
	}
	description, err := s.r.driver.TextArea(ctx, TextAreaConfig{Message: "Description", Default: rec.Description})
	if err != nil {
		return err
	}
	if err := s.c.SetField(listing.FieldDescription, description); err != nil {
		return err
	}

	for {
		actions := []action{actionContinue, actionAddImage}
		if len(s.c.Snapshot().Attachments) > 0 {
			actions = append(actions, actionRemoveImage)
		}
		actions = append(actions, actionBack)

		picked, err := s.menu(ctx, "Images", actions...)
		if err != nil {
			return err
		}
		switch picked {
		case actionAddImage:
			if err := s.addImage(ctx); err != nil {
				return err
			}
		case actionRemoveImage:
			if err := s.removeImage(ctx); err != nil {
				return err
			}
		case actionBack:
			s.c.Retreat()
			return nil
		default:
			return s.advance(ctx)
		}
	}
}

func (s *session) addImage(ctx context.Context) error {
	path, err := s.r.driver.Input(ctx, InputConfig{Message: "Image path", Help: "Leave empty to cancel"})
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	data, err := s.r.readFile(path)
	if err != nil {
		return s.warn(ctx, fmt.Sprintf("Could not read %s: %v", path, err))
	}
	att, err := attachments.FromBytes(path, data)
	if err != nil {
		return s.warn(ctx, fmt.Sprintf("Could not attach %s: %v", path, err))
	}

	items := append(s.c.Snapshot().Attachments, att)
	if err := s.c.SetField(listing.FieldAttachments, items); err != nil {
		if errors.Is(err, wizard.ErrPreviews) {
			return s.warn(ctx, fmt.Sprintf("Added %s without a preview: %v", att.Name, err))
		}
		return err
	}
	return s.info(ctx, fmt.Sprintf("Added %s (%d bytes)", att.Name, att.Size))
}

func (s *session) removeImage(ctx context.Context) error {
	items := s.c.Snapshot().Attachments
	if len(items) == 0 {
		return nil
	}
	options := make([]string, 0, len(items)+1)
	for i, att := range items {
		options = append(options, fmt.Sprintf("[%d] %s", i+1, att.Name))
	}
	options = append(options, "Cancel")

	idx, err := s.selectIndex(ctx, SelectConfig{Message: "Remove which image?", Options: options, DefaultIndex: len(items)})
	if err != nil {
		return err
	}
	if idx == len(items) {
		return nil
	}
	if err := s.c.RemoveAttachment(idx); err != nil {
		if errors.Is(err, wizard.ErrPreviews) {
			return s.warn(ctx, fmt.Sprintf("Removed %s; previews unavailable: %v", items[idx].Name, err))
		}
		return err
	}
	return s.info(ctx, "Removed "+items[idx].Name)
}

func (s *session) review(ctx context.Context) error {
	if err := s.showView(ctx); err != nil {
		return err
	}
	actions := []action{actionContinue, actionBack}
	if len(s.c.Snapshot().Attachments) > 0 {
		actions = append(actions, actionRemoveImage)
	}
	actions = append(actions, actionStartOver)

	picked, err := s.menu(ctx, "Review your listing", actions...)
	if err != nil {
		return err
	}
	switch picked {
	case actionBack:
		s.c.Retreat()
		return nil
	case actionRemoveImage:
		return s.removeImage(ctx)
	case actionStartOver:
		return s.startOver(ctx)
	default:
		return s.advance(ctx)
	}
}

func (s *session) confirm(ctx context.Context) (listing.Record, error) {
	if err := s.showView(ctx); err != nil {
		return listing.Record{}, err
	}
	picked, err := s.menu(ctx, "Ready to publish?", actionSubmit, actionBack, actionStartOver, actionQuit)
	if err != nil {
		return listing.Record{}, err
	}
	switch picked {
	case actionBack:
		s.c.Retreat()
		return listing.Record{}, nil
	case actionStartOver:
		return listing.Record{}, s.startOver(ctx)
	case actionQuit:
		return listing.Record{}, ErrAborted
	}

	rec, err := s.c.Submit(ctx)
	var invalid *wizard.ValidationError
	switch {
	case err == nil:
		return rec, s.info(ctx, "Listing submitted.")
	case errors.As(err, &invalid):
		for _, field := range listing.Fields() {
			if msg, ok := invalid.Errors[field]; ok {
				if err := s.warn(ctx, msg); err != nil {
					return listing.Record{}, err
				}
			}
		}
		return listing.Record{}, nil
	case errors.Is(err, wizard.ErrAlreadySubmitted):
		return s.c.Snapshot(), nil
	default:
		return listing.Record{}, s.warn(ctx, fmt.Sprintf("Submission failed: %v", err))
	}
}

func (s *session) startOver(ctx context.Context) error {
	ok, err := s.r.driver.Confirm(ctx, ConfirmConfig{Message: "Discard this listing and start over?"})
	if err != nil || !ok {
		return err
	}
	s.c.Reset()
	return s.info(ctx, "Started over.")
}
