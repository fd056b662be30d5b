package onboarding

import "context"

// Handlers are the optional collaborators a host screen can plug in. Every
// field may be nil:
//
//   - OnComplete: without it, Submit publishes through the Publisher when
//     the policy allows, otherwise the payload is only displayed.
//   - OnExit: without it, backing out of step 1 just closes the wizard.
//   - OnAssistance: without it, a warning notice with the support contact
//     is emitted.
//   - OnAggregatorLink: without it, an info notice carrying the aggregator
//     URL is emitted.
type Handlers struct {
	OnComplete       func(ctx context.Context, payload Payload) error
	OnExit           func(ctx context.Context) error
	OnAssistance     func(ctx context.Context, diagnostics Diagnostics) error
	OnAggregatorLink func(ctx context.Context) error
}
