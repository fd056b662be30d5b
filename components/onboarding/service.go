package onboarding

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
)

// ServiceOptions configures a Service. Wizard is the template every new
// session starts from; its SessionID and Locale are replaced per session.
type ServiceOptions struct {
	Store     SessionStore
	Wizard    Options
	Telemetry Telemetry
	Logger    logr.Logger
}

// StartRequest opens a new wizard session.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// Service manages wizard sessions for transports that only carry ids.
type Service struct {
	store     SessionStore
	template  Options
	telemetry Telemetry
	logger    logr.Logger
}

// NewService wires a Service. A nil store uses an in-memory one.
func NewService(opts ServiceOptions) *Service {
	store := opts.Store
	if store == nil {
		store = NewInMemorySessionStore()
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	template := opts.Wizard
	if template.Telemetry == nil {
		template.Telemetry = opts.Telemetry
	}
	if template.Logger.GetSink() == nil {
		template.Logger = logger
	}
	return &Service{
		store:     store,
		template:  template,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    logger,
	}
}

// Store exposes the session store.
func (s *Service) Store() SessionStore { return s.store }

// Start creates and stores a wizard on step 1.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Wizard, error) {
	opts := s.template
	opts.SessionID = strings.TrimSpace(req.SessionID)
	if req.Locale != "" {
		opts.Locale = req.Locale
	}
	wizard := NewWizard(opts)
	if err := s.store.Put(ctx, wizard); err != nil {
		wizard.discard()
		return nil, err
	}
	s.logger.V(1).Info("onboarding session started", "session", wizard.ID())
	s.telemetry.Record(ctx, "onboarding.session.started", map[string]any{
		"session_id": wizard.ID(),
		"locale":     opts.Locale,
	})
	return wizard, nil
}

// Wizard returns the live wizard for id.
func (s *Service) Wizard(ctx context.Context, id string) (*Wizard, error) {
	return s.store.Get(ctx, id)
}

// State returns the read model for id.
func (s *Service) State(ctx context.Context, id string) (View, error) {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return w.Snapshot(), nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.Update(ctx, patch)
		return err
	})
}

func (s *Service) AddImage(ctx context.Context, id, ref string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.AddImage(ctx, ref)
		return err
	})
}

func (s *Service) RemoveImage(ctx context.Context, id, ref string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.RemoveImage(ctx, ref)
		return err
	})
}

func (s *Service) ApplyQR(ctx context.Context, id, text string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.ApplyQR(ctx, text)
		return err
	})
}

func (s *Service) Next(ctx context.Context, id string) (Transition, error) {
	var t Transition
	err := s.with(ctx, id, func(w *Wizard) (err error) {
		t, err = w.Next(ctx)
		return err
	})
	return t, err
}

// Back moves back one step. Exiting from step 1 also drops the session.
func (s *Service) Back(ctx context.Context, id string) (Transition, error) {
	var t Transition
	err := s.with(ctx, id, func(w *Wizard) (err error) {
		t, err = w.Back(ctx)
		return err
	})
	if t.Exited {
		if derr := s.store.Delete(ctx, id); derr != nil && !IsSessionNotFound(derr) {
			s.logger.Error(derr, "drop exited session", "session", id)
		}
	}
	return t, err
}

// StartConnectionTest starts the probe and, when wait is set, blocks until it
// settles.
func (s *Service) StartConnectionTest(ctx context.Context, id string, wait bool) (bool, error) {
	var started bool
	err := s.with(ctx, id, func(w *Wizard) error {
		started = w.StartConnectionTest(ctx)
		if wait {
			_, err := w.AwaitConnectionTest(ctx)
			return err
		}
		return nil
	})
	return started, err
}

func (s *Service) RetryConnectionTest(ctx context.Context, id string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		return w.RetryConnectionTest(ctx)
	})
}

func (s *Service) RequestAssistance(ctx context.Context, id string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.RequestAssistance(ctx)
		return err
	})
}

func (s *Service) SetCommercialization(ctx context.Context, id string, mode CommercialMode) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.SetCommercialization(ctx, mode)
		return err
	})
}

func (s *Service) OpenAggregatorLink(ctx context.Context, id string) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.OpenAggregatorLink(ctx)
		return err
	})
}

func (s *Service) SearchPlaces(ctx context.Context, id, query string) ([]Place, error) {
	var places []Place
	err := s.with(ctx, id, func(w *Wizard) (err error) {
		places, err = w.SearchPlaces(ctx, query)
		return err
	})
	return places, err
}

func (s *Service) SelectPlace(ctx context.Context, id string, place Place) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.SelectPlace(ctx, place)
		return err
	})
}

func (s *Service) PinLocation(ctx context.Context, id string, coords Coordinates) error {
	return s.with(ctx, id, func(w *Wizard) error {
		_, err := w.PinLocation(ctx, coords)
		return err
	})
}

func (s *Service) Submit(ctx context.Context, id string) (SubmitResult, error) {
	var result SubmitResult
	err := s.with(ctx, id, func(w *Wizard) (err error) {
		result, err = w.Submit(ctx)
		return err
	})
	return result, err
}

// Close discards the session and its draft.
func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.telemetry.Record(ctx, "onboarding.session.closed", map[string]any{"session_id": id})
	return nil
}

func (s *Service) with(ctx context.Context, id string, fn func(*Wizard) error) error {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return fn(w)
}
