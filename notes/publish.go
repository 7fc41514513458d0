package notes

import (
	"context"
	"fmt"

	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/paginate"
	"github.com/dmaines/notewarden/session"
	"github.com/dmaines/notewarden/token"
)

// StartPublish begins the two-step force-publish confirmation for a
// note. The pending half lives in a short-TTL session entry; if neither
// confirm nor cancel arrives before the collector times out, the
// surface is disabled and the entry deleted.
func (s *Service) StartPublish(ctx context.Context, cmd Command, noteID string) error {
	if !cmd.IsAdmin {
		return ErrNotAdmin
	}
	if err := s.checkCooldown(cmd.UserID); err != nil {
		return err
	}
	return s.startConfirm(ctx, cmd.UserID, noteID)
}

// handlePublishAsk starts the same confirmation from the force-publish
// button on a review surface. Admin standing is read from the review
// session, which snapshotted it at command time.
func (s *Service) handlePublishAsk(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	noteID := tok.Args[0]
	state, ok := session.Lookup[session.QueueState](s.sessions, session.Key(session.KindReview, tok.Ref()))
	if !ok {
		s.replyExpired(ctx, ev)
		return nil
	}
	if state.Owner != ev.UserID {
		s.replyExpired(ctx, ev)
		return nil
	}
	if !state.IsAdmin {
		if ev.Reply != nil {
			_ = ev.Reply(ctx, "Force-publish requires moderator permissions.")
		}
		return nil
	}
	return s.startConfirm(ctx, ev.UserID, noteID)
}

// startConfirm renders the confirm/cancel surface and parks the pending
// half under the confirm TTL.
func (s *Service) startConfirm(ctx context.Context, userID, noteID string) error {
	ref, err := token.NewReference()
	if err != nil {
		return err
	}
	key := session.Key(session.KindConfirm, ref)
	s.sessions.Put(key, session.ConfirmState{Owner: userID, TargetID: noteID}, s.timeouts.Confirm)

	confirmID, err := token.Encode(token.VerbPublishConfirm, ref.String())
	if err != nil {
		s.sessions.Delete(key)
		return err
	}
	cancelID, err := token.Encode(token.VerbPublishCancel, ref.String())
	if err != nil {
		s.sessions.Delete(key)
		return err
	}

	vm := paginate.BuildViewModel(
		fmt.Sprintf("Force-publish note %s ahead of consensus?", noteID),
		[]paginate.Item{{
			Title: "This bypasses rating thresholds",
			Body:  "The note becomes visible to everyone immediately.",
			Buttons: []paginate.Button{
				{CustomID: confirmID, Label: "Publish", Danger: true},
				{CustomID: cancelID, Label: "Cancel"},
			},
		}},
		nil,
	)
	vm.Ephemeral = true

	b, err := interact.Bind(ctx, s.surface, userID, vm, interact.EventButton, s.timeouts.Confirm)
	if err != nil {
		s.sessions.Delete(key)
		return err
	}
	b.OnExpire = func() { s.sessions.Delete(key) }
	s.router.Run(ctx, b)
	return nil
}

// handlePublishConfirm executes the destructive half. A second click on
// a stale button finds the session gone and reads as expired rather
// than publishing twice.
func (s *Service) handlePublishConfirm(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	key := session.Key(session.KindConfirm, tok.Ref())
	state, ok := session.Lookup[session.ConfirmState](s.sessions, key)
	if !ok {
		s.replyExpired(ctx, ev)
		return nil
	}
	if state.Owner != ev.UserID {
		s.replyExpired(ctx, ev)
		return nil
	}

	note, err := s.backend.ForcePublish(ctx, state.TargetID, ev.UserID)
	if err != nil {
		return fmt.Errorf("force-publishing note %s: %w", state.TargetID, err)
	}
	s.sessions.Delete(key)

	return b.Finish(ctx, terminalView(fmt.Sprintf("Note %s was force-published.", note.ID)))
}

// handlePublishCancel abandons the pending publish.
func (s *Service) handlePublishCancel(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	key := session.Key(session.KindConfirm, tok.Ref())
	state, ok := session.Lookup[session.ConfirmState](s.sessions, key)
	if !ok {
		s.replyExpired(ctx, ev)
		return nil
	}
	if state.Owner != ev.UserID {
		s.replyExpired(ctx, ev)
		return nil
	}
	s.sessions.Delete(key)

	return b.Finish(ctx, terminalView("Force-publish cancelled."))
}

func terminalView(summary string) paginate.ViewModel {
	vm := paginate.BuildViewModel(summary, nil, nil)
	vm.Disabled = true
	return vm
}
