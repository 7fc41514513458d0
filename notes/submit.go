package notes

import (
	"context"
	"fmt"

	"github.com/dmaines/notewarden/backend"
	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/session"
	"github.com/dmaines/notewarden/token"
)

const (
	fieldNoteContent        = "note_content"
	fieldNoteClassification = "note_classification"
)

// handleNoteWrite opens the note composition modal. The draft is parked
// in a session entry with its own reference so the modal submission can
// find it after the user finishes typing.
func (s *Service) handleNoteWrite(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	requestID := tok.Args[0]

	// The originating queue session must still be alive.
	if _, ok := session.Lookup[session.QueueState](s.sessions, session.Key(session.KindQueue, tok.Ref())); !ok {
		s.replyExpired(ctx, ev)
		return nil
	}

	draftRef, err := token.NewReference()
	if err != nil {
		return err
	}
	s.sessions.Put(session.Key(session.KindDraft, draftRef), session.DraftState{
		Owner:     ev.UserID,
		RequestID: requestID,
	}, s.timeouts.Draft)

	submitID, err := token.Encode(token.VerbNoteSubmit, draftRef.String())
	if err != nil {
		return err
	}
	return s.surface.ShowModal(ctx, interact.ModalSpec{
		Title:    "Write a community note",
		CustomID: submitID,
		Fields: []interact.ModalField{
			{
				CustomID:    fieldNoteContent,
				Label:       "Note",
				Placeholder: "Add helpful context for this message",
				Paragraph:   true,
				Required:    true,
			},
			{
				CustomID:    fieldNoteClassification,
				Label:       "Classification",
				Placeholder: "misleading, missing_context, or disputed",
				Required:    true,
			},
		},
	})
}

// handleNoteSubmit receives the modal submission and forwards the note
// to the backend. The draft is deleted only after a successful submit,
// so a transient backend failure leaves the modal retryable until the
// draft TTL runs out.
func (s *Service) handleNoteSubmit(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	key := session.Key(session.KindDraft, tok.Ref())
	draft, ok := session.Lookup[session.DraftState](s.sessions, key)
	if !ok {
		s.replyExpired(ctx, ev)
		return nil
	}
	if draft.Owner != ev.UserID {
		s.replyExpired(ctx, ev)
		return nil
	}

	note, err := s.backend.SubmitNote(ctx, backend.SubmitNoteRequest{
		RequestID:      draft.RequestID,
		AuthorID:       ev.UserID,
		Content:        ev.Values[fieldNoteContent],
		Classification: ev.Values[fieldNoteClassification],
	})
	if err != nil {
		return fmt.Errorf("submitting note for request %s: %w", draft.RequestID, err)
	}
	s.sessions.Delete(key)

	if ev.Reply != nil {
		_ = ev.Reply(ctx, fmt.Sprintf("Your note %s was submitted for rating.", note.ID))
	}
	return nil
}

// handleNoteAI asks the backend to draft a note for the request.
func (s *Service) handleNoteAI(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
	requestID := tok.Args[0]

	if _, ok := session.Lookup[session.QueueState](s.sessions, session.Key(session.KindQueue, tok.Ref())); !ok {
		s.replyExpired(ctx, ev)
		return nil
	}

	note, err := s.backend.GenerateAINote(ctx, requestID, ev.UserID)
	if err != nil {
		return fmt.Errorf("generating AI note for request %s: %w", requestID, err)
	}
	if ev.Reply != nil {
		_ = ev.Reply(ctx, fmt.Sprintf("Draft note %s was generated and queued for rating.", note.ID))
	}
	return nil
}
